// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package loader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pdiddy/wikikb/pkg/types"
)

// maxLineBytes bounds a single JSONL record; article content can run
// long.
const maxLineBytes = 16 * 1024 * 1024

// Run performs a complete two-phase build from the configured JSONL
// stream files: the entity stream, the completion signal, then the
// article, alias, and relation streams. Progress lines are written to w.
func (l *Loader) Run(ctx context.Context, cfg types.BuildConfig, w io.Writer) (Summary, error) {
	if cfg.EntitiesPath == "" {
		return l.summary, fmt.Errorf("build config missing entities path")
	}

	if err := readStream(ctx, cfg.EntitiesPath, func(rec types.EntityRecord) error {
		return l.EmitEntity(ctx, rec)
	}); err != nil {
		return l.summary, err
	}
	if err := l.SignalEntitiesComplete(ctx); err != nil {
		return l.summary, err
	}
	fmt.Fprintf(w, "entities   %d\n", l.summary.Entities)

	if cfg.ArticlesPath != "" {
		if err := readStream(ctx, cfg.ArticlesPath, func(rec types.ArticleRecord) error {
			return l.EmitArticle(ctx, rec)
		}); err != nil {
			return l.summary, err
		}
		fmt.Fprintf(w, "articles   %d\n", l.summary.Articles)
	}

	if cfg.AliasesPath != "" {
		if err := readStream(ctx, cfg.AliasesPath, func(rec types.AliasRecord) error {
			return l.EmitAlias(ctx, rec)
		}); err != nil {
			return l.summary, err
		}
		fmt.Fprintf(w, "aliases    %d\n", l.summary.Aliases)
	}

	if cfg.RelationsPath != "" {
		if err := readStream(ctx, cfg.RelationsPath, func(rec types.RelationRecord) error {
			return l.EmitRelation(ctx, rec)
		}); err != nil {
			return l.summary, err
		}
		fmt.Fprintf(w, "relations  %d\n", l.summary.Relations)
	}

	return l.Finish(ctx)
}

// readStream decodes one JSONL file line by line, in file order, calling
// fn for each record. Blank lines are skipped.
func readStream[T any](ctx context.Context, path string, fn func(T) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening stream %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		var rec T
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("%s:%d: decoding record: %w", path, line, err)
		}
		if err := fn(rec); err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading stream %s: %w", path, err)
	}
	return nil
}
