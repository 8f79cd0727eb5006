// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package loader feeds parsed dump record streams into the knowledge
// index. It implements the collaborator interface the external parsing
// components call: entity records first, an explicit completion signal,
// then article, alias, and relation records. Records are buffered in
// arrival order and flushed batch-by-batch on the store's single append
// path, so source-stream order is preserved end to end.
package loader

import (
	"context"
	"fmt"

	"github.com/pdiddy/wikikb/internal/kb"
	"github.com/pdiddy/wikikb/pkg/types"
)

const defaultBatchSize = 1000

// Summary holds record counts from an ingestion run.
type Summary struct {
	Entities  int
	Articles  int
	Aliases   int
	Relations int
}

// Loader buffers incoming records and appends them to the store in
// batches. Not safe for concurrent use; the upstream dump parse is a
// single sequential stream per phase.
type Loader struct {
	store     *kb.Store
	batchSize int

	entities  []types.EntityRecord
	articles  []types.ArticleRecord
	aliases   []types.AliasRecord
	relations []types.RelationRecord

	summary Summary
}

// New returns a Loader appending to store in batches of batchSize
// records (default 1000).
func New(store *kb.Store, batchSize int) *Loader {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Loader{store: store, batchSize: batchSize}
}

// EmitEntity accepts one entity record from the identity stream, in file
// order. Fails with kb.ErrPhaseViolation once the entity phase has been
// committed.
func (l *Loader) EmitEntity(ctx context.Context, rec types.EntityRecord) error {
	if p := l.store.Phase(); p > kb.PhaseEntitiesLoading {
		return fmt.Errorf("entity record after commit in phase %s: %w", p, kb.ErrPhaseViolation)
	}
	l.entities = append(l.entities, rec)
	l.summary.Entities++
	if len(l.entities) >= l.batchSize {
		return l.flushEntities(ctx)
	}
	return nil
}

// SignalEntitiesComplete flushes the buffered identity stream and
// commits the entity phase. Called exactly once, after the last entity
// record.
func (l *Loader) SignalEntitiesComplete(ctx context.Context) error {
	if err := l.flushEntities(ctx); err != nil {
		return err
	}
	return l.store.SignalEntitiesComplete(ctx)
}

// EmitArticle accepts one article record. Only legal after the entity
// phase has been committed.
func (l *Loader) EmitArticle(ctx context.Context, rec types.ArticleRecord) error {
	if p := l.store.Phase(); p < kb.PhaseEntitiesCommitted {
		return fmt.Errorf("article record before entity commit in phase %s: %w", p, kb.ErrPhaseViolation)
	}
	l.articles = append(l.articles, rec)
	l.summary.Articles++
	if len(l.articles) >= l.batchSize {
		return l.flushArticles(ctx)
	}
	return nil
}

// EmitAlias accepts one alias mention. Only legal after the entity phase
// has been committed.
func (l *Loader) EmitAlias(ctx context.Context, rec types.AliasRecord) error {
	if p := l.store.Phase(); p < kb.PhaseEntitiesCommitted {
		return fmt.Errorf("alias record before entity commit in phase %s: %w", p, kb.ErrPhaseViolation)
	}
	l.aliases = append(l.aliases, rec)
	l.summary.Aliases++
	if len(l.aliases) >= l.batchSize {
		return l.flushAliases(ctx)
	}
	return nil
}

// EmitRelation accepts one relation record. Only legal after the entity
// phase has been committed.
func (l *Loader) EmitRelation(ctx context.Context, rec types.RelationRecord) error {
	if p := l.store.Phase(); p < kb.PhaseEntitiesCommitted {
		return fmt.Errorf("relation record before entity commit in phase %s: %w", p, kb.ErrPhaseViolation)
	}
	l.relations = append(l.relations, rec)
	l.summary.Relations++
	if len(l.relations) >= l.batchSize {
		return l.flushRelations(ctx)
	}
	return nil
}

// Finish flushes every remaining buffer and finalizes the store for
// serving. It returns the counts of the completed run.
func (l *Loader) Finish(ctx context.Context) (Summary, error) {
	if err := l.flushArticles(ctx); err != nil {
		return l.summary, err
	}
	if err := l.flushAliases(ctx); err != nil {
		return l.summary, err
	}
	if err := l.flushRelations(ctx); err != nil {
		return l.summary, err
	}
	if err := l.store.Finalize(ctx); err != nil {
		return l.summary, err
	}
	return l.summary, nil
}

func (l *Loader) flushEntities(ctx context.Context) error {
	if len(l.entities) == 0 {
		return nil
	}
	if err := l.store.PutEntities(ctx, l.entities); err != nil {
		return err
	}
	l.entities = l.entities[:0]
	return nil
}

func (l *Loader) flushArticles(ctx context.Context) error {
	if len(l.articles) == 0 {
		return nil
	}
	if err := l.store.PutArticles(ctx, l.articles); err != nil {
		return err
	}
	l.articles = l.articles[:0]
	return nil
}

func (l *Loader) flushAliases(ctx context.Context) error {
	if len(l.aliases) == 0 {
		return nil
	}
	if err := l.store.AddAliases(ctx, l.aliases); err != nil {
		return err
	}
	l.aliases = l.aliases[:0]
	return nil
}

func (l *Loader) flushRelations(ctx context.Context) error {
	if len(l.relations) == 0 {
		return nil
	}
	if err := l.store.AddEdges(ctx, l.relations); err != nil {
		return err
	}
	l.relations = l.relations[:0]
	return nil
}
