// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pdiddy/wikikb/pkg/types"
)

// PutEntity inserts one entity and its text-index row as a single atomic
// unit. Fails with ErrDuplicateIdentifier if the id is already loaded and
// ErrPhaseViolation outside the entity phase.
func (s *Store) PutEntity(ctx context.Context, rec types.EntityRecord) error {
	return s.PutEntities(ctx, []types.EntityRecord{rec})
}

// PutEntities appends a batch of entities in source-stream order, one
// transaction for the whole batch. Any failure rolls the entire batch
// back; a partial batch would leave the text index misaligned with the
// identity table.
func (s *Store) PutEntities(ctx context.Context, recs []types.EntityRecord) error {
	if len(recs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case PhaseEmpty, PhaseEntitiesLoading:
	default:
		return fmt.Errorf("loading entities in phase %s: %w", s.phase, ErrPhaseViolation)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("beginning entity batch", err)
	}
	defer tx.Rollback()

	for _, rec := range recs {
		if rec.ID == "" {
			return fmt.Errorf("entity record missing id")
		}

		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM entities WHERE id = ?)`, rec.ID,
		).Scan(&exists); err != nil {
			return storageErr("checking entity id", err)
		}
		if exists {
			return fmt.Errorf("entity %s: %w", rec.ID, ErrDuplicateIdentifier)
		}

		var claims any
		if len(rec.Claims) > 0 {
			claims = string(rec.Claims)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO entities (id, claims) VALUES (?, ?)`, rec.ID, claims,
		)
		if err != nil {
			return storageErr("inserting entity", err)
		}
		rowid, err := res.LastInsertId()
		if err != nil {
			return storageErr("reading entity rowid", err)
		}

		// The text row carries the entity's rowid explicitly; that rowid
		// is the only join between the pair.
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO entities_texts (rowid, name, description, label) VALUES (?, ?, ?, ?)`,
			rowid, rec.Name, rec.Description, rec.Label,
		); err != nil {
			return storageErr("inserting entity text", err)
		}
	}

	if s.phase == PhaseEmpty {
		if err := setPhase(ctx, tx, PhaseEntitiesLoading); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return storageErr("committing entity batch", err)
	}
	if s.phase == PhaseEmpty {
		s.phase = PhaseEntitiesLoading
	}
	return nil
}

// PutArticle inserts one article and its text-index row atomically.
// Fails with ErrUnknownEntity if the owning entity was never loaded,
// ErrDuplicateArticleID if the article id belongs to a different entity,
// and ErrDuplicateIdentifier if the entity already has an article.
func (s *Store) PutArticle(ctx context.Context, rec types.ArticleRecord) error {
	return s.PutArticles(ctx, []types.ArticleRecord{rec})
}

// PutArticles appends a batch of articles in source-stream order within
// one transaction, same alignment discipline as PutEntities.
func (s *Store) PutArticles(ctx context.Context, recs []types.ArticleRecord) error {
	if len(recs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireReferencePhase("loading articles", false); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("beginning article batch", err)
	}
	defer tx.Rollback()

	for _, rec := range recs {
		if err := entityExists(ctx, tx, rec.EntityID); err != nil {
			return err
		}

		var claimedBy string
		err := tx.QueryRowContext(ctx,
			`SELECT entity_id FROM articles WHERE id = ?`, rec.ArticleID,
		).Scan(&claimedBy)
		switch {
		case err == sql.ErrNoRows:
		case err != nil:
			return storageErr("checking article id", err)
		default:
			return fmt.Errorf("article %s already belongs to entity %s: %w",
				rec.ArticleID, claimedBy, ErrDuplicateArticleID)
		}

		var hasArticle bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM articles WHERE entity_id = ?)`, rec.EntityID,
		).Scan(&hasArticle); err != nil {
			return storageErr("checking entity article", err)
		}
		if hasArticle {
			return fmt.Errorf("entity %s already has an article: %w", rec.EntityID, ErrDuplicateIdentifier)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO articles (entity_id, id) VALUES (?, ?)`, rec.EntityID, rec.ArticleID,
		)
		if err != nil {
			return storageErr("inserting article", err)
		}
		rowid, err := res.LastInsertId()
		if err != nil {
			return storageErr("reading article rowid", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO articles_texts (rowid, title, content) VALUES (?, ?, ?)`,
			rowid, rec.Title, rec.Content,
		); err != nil {
			return storageErr("inserting article text", err)
		}
	}

	return s.commitReferenceBatch(ctx, tx)
}

// AddAlias upserts one alias mention. Repeated (alias, entity) pairs
// accumulate their occurrence count instead of duplicating the row. The
// first time an alias text is seen for any entity it is appended once to
// the approximate-match index; later mentions never re-append it, which
// would skew nearest-neighbor density.
func (s *Store) AddAlias(ctx context.Context, alias, entityID string, delta int64) error {
	return s.AddAliases(ctx, []types.AliasRecord{{Alias: alias, EntityID: entityID, Count: delta}})
}

// AddAliases appends a batch of alias mentions within one transaction.
func (s *Store) AddAliases(ctx context.Context, recs []types.AliasRecord) error {
	if len(recs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireReferencePhase("loading aliases", true); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("beginning alias batch", err)
	}
	defer tx.Rollback()

	for _, rec := range recs {
		if rec.Alias == "" {
			return fmt.Errorf("alias record missing text")
		}
		if rec.Count < 0 {
			return fmt.Errorf("alias %q: negative occurrence delta %d", rec.Alias, rec.Count)
		}
		if err := entityExists(ctx, tx, rec.EntityID); err != nil {
			return err
		}

		var known bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM aliases_for_entities WHERE alias = ?)`, rec.Alias,
		).Scan(&known); err != nil {
			return storageErr("checking alias text", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO aliases_for_entities (alias, entity_id, count) VALUES (?, ?, ?)
			 ON CONFLICT(alias, entity_id) DO UPDATE SET count = count + excluded.count`,
			rec.Alias, rec.EntityID, rec.Count,
		); err != nil {
			return storageErr("upserting alias", err)
		}

		if !known {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO aliases (word) VALUES (?)`, rec.Alias,
			); err != nil {
				return storageErr("indexing alias word", err)
			}
		}
	}

	return s.commitReferenceBatch(ctx, tx)
}

// AddEdge inserts one typed directed edge. Fails with ErrUnknownEntity if
// either endpoint is absent. Re-adding an existing triple is a no-op; the
// dumps legitimately restate relations.
func (s *Store) AddEdge(ctx context.Context, propertyID, fromID, toID string) error {
	return s.AddEdges(ctx, []types.RelationRecord{{PropertyID: propertyID, FromID: fromID, ToID: toID}})
}

// AddEdges appends a batch of edges within one transaction.
func (s *Store) AddEdges(ctx context.Context, recs []types.RelationRecord) error {
	if len(recs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireReferencePhase("loading relations", true); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("beginning relation batch", err)
	}
	defer tx.Rollback()

	for _, rec := range recs {
		if rec.PropertyID == "" {
			return fmt.Errorf("relation record missing property id")
		}
		if err := entityExists(ctx, tx, rec.FromID); err != nil {
			return err
		}
		if err := entityExists(ctx, tx, rec.ToID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO properties_in_entities (property_id, from_entity_id, to_entity_id)
			 VALUES (?, ?, ?)
			 ON CONFLICT(property_id, from_entity_id, to_entity_id) DO NOTHING`,
			rec.PropertyID, rec.FromID, rec.ToID,
		); err != nil {
			return storageErr("inserting relation", err)
		}
	}

	return s.commitReferenceBatch(ctx, tx)
}

// requireReferencePhase guards writes that reference committed entities.
// Alias and edge writes stay legal on a Ready store; article writes do
// not. Caller holds s.mu.
func (s *Store) requireReferencePhase(op string, allowReady bool) error {
	switch s.phase {
	case PhaseEntitiesCommitted, PhaseReferencesLoading:
		return nil
	case PhaseReady:
		if allowReady {
			return nil
		}
	}
	return fmt.Errorf("%s in phase %s: %w", op, s.phase, ErrPhaseViolation)
}

// commitReferenceBatch commits a reference-phase batch, advancing
// EntitiesCommitted to ReferencesLoading on the first write. Caller holds
// s.mu and owns the transaction.
func (s *Store) commitReferenceBatch(ctx context.Context, tx *sql.Tx) error {
	if s.phase == PhaseEntitiesCommitted {
		if err := setPhase(ctx, tx, PhaseReferencesLoading); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return storageErr("committing batch", err)
	}
	if s.phase == PhaseEntitiesCommitted {
		s.phase = PhaseReferencesLoading
	}
	return nil
}

func entityExists(ctx context.Context, tx *sql.Tx, id string) error {
	if id == "" {
		return fmt.Errorf("record missing entity id")
	}
	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM entities WHERE id = ?)`, id,
	).Scan(&exists); err != nil {
		return storageErr("checking entity id", err)
	}
	if !exists {
		return fmt.Errorf("entity %s: %w", id, ErrUnknownEntity)
	}
	return nil
}
