// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package kb implements the knowledge index: a single SQLite storage file
// holding entity identities, full-text searchable entity and article
// text, typed relationship edges, and an exact plus approximate alias
// index. Loading is a two-phase batch append guarded by an explicit
// phase machine; serving is read-only.
package kb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/wikikb/pkg/types"
)

const (
	defaultMaxResults      = 20
	defaultFuzzyDistance   = 2
	defaultFuzzyCandidates = 500

	metaPhaseKey = "phase"
)

// Store manages the knowledge index SQLite database. A single logical
// writer performs the load; reads are permitted only once the store is
// Ready and may then run concurrently.
type Store struct {
	db *sql.DB

	maxResults      int
	fuzzyDistance   int
	fuzzyCandidates int

	// mu serializes writes and phase transitions. The two-table append
	// (primary row + text-index row) must never interleave; rowid
	// alignment is the only join between the pair.
	mu    sync.Mutex
	phase Phase
}

// Open opens or creates the knowledge index at cfg.DBPath, creating the
// schema if needed and restoring the persisted load phase. A store left
// Ready by a previous process serves immediately.
func Open(cfg types.IndexConfig) (*Store, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("index config missing db path")
	}
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, storageErr("opening database", err)
	}

	s := &Store{
		db:              db,
		maxResults:      cfg.MaxResults,
		fuzzyDistance:   cfg.FuzzyMaxDistance,
		fuzzyCandidates: cfg.FuzzyCandidateLimit,
	}
	if s.maxResults <= 0 {
		s.maxResults = defaultMaxResults
	}
	if s.fuzzyDistance <= 0 {
		s.fuzzyDistance = defaultFuzzyDistance
	}
	if s.fuzzyCandidates <= 0 {
		s.fuzzyCandidates = defaultFuzzyCandidates
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, storageErr("creating schema", err)
	}

	phase, err := s.loadPhase()
	if err != nil {
		db.Close()
		return nil, err
	}
	s.phase = phase

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Phase returns the store's current load phase.
func (s *Store) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Store) loadPhase() (Phase, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kb_meta WHERE key = ?`, metaPhaseKey).Scan(&value)
	if err == sql.ErrNoRows {
		return PhaseEmpty, nil
	}
	if err != nil {
		return PhaseEmpty, storageErr("reading load phase", err)
	}
	return parsePhase(value)
}

// setPhase persists the phase inside the caller's transaction so the
// transition commits atomically with the writes that triggered it.
func setPhase(ctx context.Context, tx *sql.Tx, p Phase) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO kb_meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		metaPhaseKey, p.String(),
	)
	if err != nil {
		return storageErr("persisting load phase", err)
	}
	return nil
}

// SignalEntitiesComplete marks the entity stream as fully consumed and
// commits the identity table. Only the upstream parsing collaborator can
// know the stream has ended, so the transition is explicit. Called at
// most once; any later call fails with ErrPhaseViolation.
func (s *Store) SignalEntitiesComplete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case PhaseEmpty, PhaseEntitiesLoading:
	default:
		return fmt.Errorf("committing entities in phase %s: %w", s.phase, ErrPhaseViolation)
	}
	return s.transition(ctx, PhaseEntitiesCommitted)
}

// Finalize marks the load complete and opens the store for reads. In the
// Ready state alias and edge writes remain permitted (re-running the
// reference phase is additive and idempotent) while entity and article
// writes are rejected. Finalizing an already Ready store is a no-op.
func (s *Store) Finalize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case PhaseReady:
		return nil
	case PhaseEntitiesCommitted, PhaseReferencesLoading:
	default:
		return fmt.Errorf("finalizing in phase %s: %w", s.phase, ErrPhaseViolation)
	}
	return s.transition(ctx, PhaseReady)
}

// transition persists and applies a phase change. Caller holds s.mu.
func (s *Store) transition(ctx context.Context, p Phase) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("beginning phase transition", err)
	}
	defer tx.Rollback()

	if err := setPhase(ctx, tx, p); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storageErr("committing phase transition", err)
	}
	s.phase = p
	return nil
}

// requireReady rejects reads against a store that is still loading; the
// index is not query-consistent mid-phase.
func (s *Store) requireReady() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseReady {
		return fmt.Errorf("reading in phase %s: %w", s.phase, ErrPhaseViolation)
	}
	return nil
}

// CheckAliasProjection verifies that the exact alias table and the
// approximate-match index still describe the same logical alias set: the
// number of distinct alias texts must equal the number of indexed words.
// A mismatch means the write path skipped or double-appended a fuzzy row.
func (s *Store) CheckAliasProjection(ctx context.Context) error {
	var exact, indexed int
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(DISTINCT alias) FROM aliases_for_entities`,
	).Scan(&exact); err != nil {
		return storageErr("counting alias texts", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM aliases`,
	).Scan(&indexed); err != nil {
		return storageErr("counting indexed alias words", err)
	}
	if exact != indexed {
		return fmt.Errorf("alias projections diverged: %d distinct alias texts, %d indexed words", exact, indexed)
	}
	return nil
}
