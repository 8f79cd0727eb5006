// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/pdiddy/wikikb/internal/fuzzy"
)

// Entity is the stored identity record. Claims is returned exactly as it
// was loaded, uninterpreted.
type Entity struct {
	ID     string          `json:"id" yaml:"id"`
	Claims json.RawMessage `json:"claims,omitempty" yaml:"claims,omitempty"`
}

// SearchHit is one ranked full-text match resolved to its owning entity.
type SearchHit struct {
	EntityID string  `json:"entity_id" yaml:"entity_id"`
	Score    float64 `json:"score" yaml:"score"`
}

// AliasMatch is one entity referenced by an exact alias text.
type AliasMatch struct {
	EntityID string `json:"entity_id" yaml:"entity_id"`
	Count    int64  `json:"count" yaml:"count"`
}

// FuzzyMatch is one alias string within edit distance of a query. It
// carries no entity linkage; callers re-join through ResolveAliasExact.
type FuzzyMatch struct {
	Alias    string `json:"alias" yaml:"alias"`
	Distance int    `json:"distance" yaml:"distance"`
}

// EntityCandidate is one candidate entity for a mention, aggregated
// across every alias text that matched it.
type EntityCandidate struct {
	EntityID string `json:"entity_id" yaml:"entity_id"`
	Alias    string `json:"alias" yaml:"alias"`
	Distance int    `json:"distance" yaml:"distance"`
	Count    int64  `json:"count" yaml:"count"`
}

// LookupEntity returns the entity with the given external id.
func (s *Store) LookupEntity(ctx context.Context, id string) (Entity, error) {
	if err := s.requireReady(); err != nil {
		return Entity{}, err
	}

	var claims sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT claims FROM entities WHERE id = ?`, id,
	).Scan(&claims)
	if err == sql.ErrNoRows {
		return Entity{}, fmt.Errorf("entity %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Entity{}, storageErr("looking up entity", err)
	}

	e := Entity{ID: id}
	if claims.Valid {
		e.Claims = json.RawMessage(claims.String)
	}
	return e, nil
}

// SearchEntityText performs ranked full-text search over entity name,
// description, and label, resolving each hit's row position back to the
// owning entity. Descending relevance, ties by ascending entity id.
func (s *Store) SearchEntityText(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	return s.searchText(ctx, query, limit,
		`SELECT e.id, bm25(entities_texts) AS rank
		 FROM entities_texts
		 JOIN entities e ON e.rowid = entities_texts.rowid
		 WHERE entities_texts MATCH ?
		 ORDER BY rank, e.id
		 LIMIT ?`)
}

// SearchArticleText performs ranked full-text search over article title
// and content, same contract as SearchEntityText.
func (s *Store) SearchArticleText(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	return s.searchText(ctx, query, limit,
		`SELECT a.entity_id, bm25(articles_texts) AS rank
		 FROM articles_texts
		 JOIN articles a ON a.rowid = articles_texts.rowid
		 WHERE articles_texts MATCH ?
		 ORDER BY rank, a.entity_id
		 LIMIT ?`)
}

func (s *Store) searchText(ctx context.Context, query string, limit int, stmt string) ([]SearchHit, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}
	escaped := ftsEscape(query)
	if escaped == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx, stmt, escaped, limit)
	if err != nil {
		return nil, storageErr("searching text index", err)
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var (
			hit  SearchHit
			rank float64
		)
		if err := rows.Scan(&hit.EntityID, &rank); err != nil {
			return nil, storageErr("scanning search hit", err)
		}
		// FTS5 bm25() is smaller-is-better; flip it so callers see a
		// conventional descending relevance score.
		hit.Score = -rank
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// ArticleFor returns the article identifier associated with an entity.
// ErrNotFound reports an unknown entity; ErrNoArticle a known entity
// without an article. Both are expected, recoverable conditions.
func (s *Store) ArticleFor(ctx context.Context, entityID string) (string, error) {
	if err := s.requireReady(); err != nil {
		return "", err
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM entities WHERE id = ?)`, entityID,
	).Scan(&exists); err != nil {
		return "", storageErr("checking entity id", err)
	}
	if !exists {
		return "", fmt.Errorf("entity %s: %w", entityID, ErrNotFound)
	}

	var articleID string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM articles WHERE entity_id = ?`, entityID,
	).Scan(&articleID)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("entity %s: %w", entityID, ErrNoArticle)
	}
	if err != nil {
		return "", storageErr("looking up article", err)
	}
	return articleID, nil
}

// EdgesFrom returns the targets of edges leaving an entity, optionally
// filtered by property. Edge sets are unordered; results are sorted by
// target id only for determinism.
func (s *Store) EdgesFrom(ctx context.Context, entityID, propertyID string) ([]string, error) {
	return s.edges(ctx, entityID, propertyID, "from_entity_id", "to_entity_id")
}

// EdgesTo returns the sources of edges arriving at an entity, optionally
// filtered by property.
func (s *Store) EdgesTo(ctx context.Context, entityID, propertyID string) ([]string, error) {
	return s.edges(ctx, entityID, propertyID, "to_entity_id", "from_entity_id")
}

func (s *Store) edges(ctx context.Context, entityID, propertyID, matchCol, selectCol string) ([]string, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}

	var qb strings.Builder
	fmt.Fprintf(&qb, `SELECT DISTINCT %s FROM properties_in_entities WHERE %s = ?`, selectCol, matchCol)
	args := []any{entityID}
	if propertyID != "" {
		qb.WriteString(` AND property_id = ?`)
		args = append(args, propertyID)
	}
	fmt.Fprintf(&qb, ` ORDER BY %s`, selectCol)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, storageErr("querying edges", err)
	}
	defer rows.Close()

	var neighbors []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr("scanning edge", err)
		}
		neighbors = append(neighbors, id)
	}
	return neighbors, rows.Err()
}

// ResolveAliasExact returns the entities an alias text refers to,
// descending by occurrence count, ties by ascending entity id.
func (s *Store) ResolveAliasExact(ctx context.Context, alias string) ([]AliasMatch, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_id, count FROM aliases_for_entities
		 WHERE alias = ?
		 ORDER BY count DESC, entity_id`, alias,
	)
	if err != nil {
		return nil, storageErr("resolving alias", err)
	}
	defer rows.Close()

	var matches []AliasMatch
	for rows.Next() {
		var m AliasMatch
		if err := rows.Scan(&m.EntityID, &m.Count); err != nil {
			return nil, storageErr("scanning alias match", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// ResolveAliasFuzzy returns up to limit indexed alias strings within
// maxDistance edit operations of the query, ascending by distance then
// lexicographically. Candidates sharing at least one trigram with the
// query are fetched from the approximate-match index and verified by
// exact edit distance over normalized text.
func (s *Store) ResolveAliasFuzzy(ctx context.Context, query string, maxDistance, limit int) ([]FuzzyMatch, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}
	if maxDistance <= 0 {
		maxDistance = s.fuzzyDistance
	}
	if limit <= 0 {
		limit = s.maxResults
	}

	words, err := s.fuzzyCandidateWords(ctx, query)
	if err != nil {
		return nil, err
	}

	norm := fuzzy.Normalize(query)
	var matches []FuzzyMatch
	for _, word := range words {
		d := levenshtein.ComputeDistance(norm, fuzzy.Normalize(word))
		if d <= maxDistance {
			matches = append(matches, FuzzyMatch{Alias: word, Distance: d})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Alias < matches[j].Alias
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// fuzzyCandidateWords fetches candidate alias strings for a query.
// Queries too short to produce a trigram scan the whole word index.
func (s *Store) fuzzyCandidateWords(ctx context.Context, query string) ([]string, error) {
	expr := fuzzy.MatchExpr(query)

	var (
		rows *sql.Rows
		err  error
	)
	if expr == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT word FROM aliases`)
	} else {
		// rank orders candidates by how many query trigrams they share,
		// so the candidate cap keeps the closest strings.
		rows, err = s.db.QueryContext(ctx,
			`SELECT word FROM aliases WHERE aliases MATCH ? ORDER BY rank LIMIT ?`,
			expr, s.fuzzyCandidates,
		)
	}
	if err != nil {
		return nil, storageErr("fetching fuzzy candidates", err)
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, storageErr("scanning fuzzy candidate", err)
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

// ResolveAlias maps a mention to candidate entities: the mention's exact
// alias matches at distance zero unioned with fuzzy matches, each joined
// back through the alias table. Candidates aggregate per entity, keeping
// the closest alias and summing counts across distinct alias texts.
// Ordered by ascending distance, then descending count, then entity id.
func (s *Store) ResolveAlias(ctx context.Context, mention string, maxDistance, limit int) ([]EntityCandidate, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.maxResults
	}

	fuzzyMatches, err := s.ResolveAliasFuzzy(ctx, mention, maxDistance, s.fuzzyCandidates)
	if err != nil {
		return nil, err
	}

	type aliasHit struct {
		text     string
		distance int
	}
	hits := []aliasHit{{text: mention, distance: 0}}
	seen := map[string]bool{mention: true}
	for _, m := range fuzzyMatches {
		if !seen[m.Alias] {
			seen[m.Alias] = true
			hits = append(hits, aliasHit{text: m.Alias, distance: m.Distance})
		}
	}

	byEntity := make(map[string]*EntityCandidate)
	var order []string
	for _, h := range hits {
		matches, err := s.ResolveAliasExact(ctx, h.text)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			c, ok := byEntity[m.EntityID]
			if !ok {
				c = &EntityCandidate{EntityID: m.EntityID, Alias: h.text, Distance: h.distance}
				byEntity[m.EntityID] = c
				order = append(order, m.EntityID)
			}
			if h.distance < c.Distance {
				c.Distance = h.distance
				c.Alias = h.text
			}
			c.Count += m.Count
		}
	}

	candidates := make([]EntityCandidate, 0, len(order))
	for _, id := range order {
		candidates = append(candidates, *byEntity[id])
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.EntityID < b.EntityID
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// ftsEscape wraps a user query in double quotes so FTS5 treats it as a
// phrase rather than query syntax.
func ftsEscape(q string) string {
	q = strings.TrimSpace(q)
	if q == "" {
		return ""
	}
	q = strings.ReplaceAll(q, `"`, `""`)
	return `"` + q + `"`
}
