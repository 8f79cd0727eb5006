// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

// ExportEntry is one denormalized entity row: identity, aligned text,
// article id, and aliases with counts.
type ExportEntry struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name,omitempty" yaml:"name,omitempty"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Label       string        `json:"label,omitempty" yaml:"label,omitempty"`
	ArticleID   string        `json:"article_id,omitempty" yaml:"article_id,omitempty"`
	Aliases     []ExportAlias `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// ExportAlias is one alias of an exported entity.
type ExportAlias struct {
	Alias string `json:"alias" yaml:"alias"`
	Count int64  `json:"count" yaml:"count"`
}

// ExportYAML writes every entity as YAML to w, in load order.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer) error {
	entries, err := s.exportEntries(ctx)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ExportJSON writes every entity as indented JSON to w, in load order.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer) error {
	entries, err := s.exportEntries(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func (s *Store) exportEntries(ctx context.Context) ([]ExportEntry, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}

	aliases, err := s.aliasesByEntity(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT e.id, et.name, et.description, et.label, a.id
		 FROM entities e
		 LEFT JOIN entities_texts et ON et.rowid = e.rowid
		 LEFT JOIN articles a ON a.entity_id = e.id
		 ORDER BY e.rowid`,
	)
	if err != nil {
		return nil, storageErr("querying export entries", err)
	}
	defer rows.Close()

	var entries []ExportEntry
	for rows.Next() {
		var (
			entry                    ExportEntry
			name, desc, label, artID sql.NullString
		)
		if err := rows.Scan(&entry.ID, &name, &desc, &label, &artID); err != nil {
			return nil, storageErr("scanning export entry", err)
		}
		entry.Name = name.String
		entry.Description = desc.String
		entry.Label = label.String
		entry.ArticleID = artID.String
		entry.Aliases = aliases[entry.ID]
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *Store) aliasesByEntity(ctx context.Context) (map[string][]ExportAlias, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_id, alias, count FROM aliases_for_entities
		 ORDER BY entity_id, count DESC, alias`,
	)
	if err != nil {
		return nil, storageErr("querying aliases", err)
	}
	defer rows.Close()

	byEntity := make(map[string][]ExportAlias)
	for rows.Next() {
		var (
			entityID string
			a        ExportAlias
		)
		if err := rows.Scan(&entityID, &a.Alias, &a.Count); err != nil {
			return nil, storageErr("scanning alias", err)
		}
		byEntity[entityID] = append(byEntity[entityID], a)
	}
	return byEntity, rows.Err()
}
