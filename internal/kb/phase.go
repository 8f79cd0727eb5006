// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kb

import "fmt"

// Phase is the position of the store in the two-phase load. Transitions
// are one-directional: Empty → EntitiesLoading → EntitiesCommitted →
// ReferencesLoading → Ready. There is no way back into the entity phase
// once it is committed; article, alias, and relation data reference
// entity identities that must already be stable.
type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseEntitiesLoading
	PhaseEntitiesCommitted
	PhaseReferencesLoading
	PhaseReady
)

var phaseNames = map[Phase]string{
	PhaseEmpty:             "empty",
	PhaseEntitiesLoading:   "entities_loading",
	PhaseEntitiesCommitted: "entities_committed",
	PhaseReferencesLoading: "references_loading",
	PhaseReady:             "ready",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

func parsePhase(s string) (Phase, error) {
	for p, name := range phaseNames {
		if name == s {
			return p, nil
		}
	}
	return PhaseEmpty, fmt.Errorf("unknown load phase %q", s)
}
