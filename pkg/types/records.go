// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the record and configuration types shared between
// the ingestion loader, the store, and the CLI.
package types

import "encoding/json"

// EntityRecord is one parsed entity from the identity dump. Name,
// Description, and Label are free text and independently optional;
// Claims is an opaque structured payload stored but never interpreted.
type EntityRecord struct {
	// ID is the stable external identifier (e.g. "Q142"). Unique, immutable.
	ID string `json:"id" yaml:"id"`

	// Name is the entity's display name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Description is a short free-text description.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Label is an additional short text label.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`

	// Claims is the raw structured payload attached to the entity.
	Claims json.RawMessage `json:"claims,omitempty" yaml:"claims,omitempty"`
}

// ArticleRecord is one parsed long-form article referencing an entity
// loaded in the earlier phase.
type ArticleRecord struct {
	// EntityID references the owning entity.
	EntityID string `json:"entity_id" yaml:"entity_id"`

	// ArticleID is the external article identifier. Unique.
	ArticleID string `json:"article_id" yaml:"article_id"`

	// Title is the article title.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Content is the article body text.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
}

// AliasRecord is one alias mention with its occurrence count delta.
type AliasRecord struct {
	// Alias is the mention text.
	Alias string `json:"alias" yaml:"alias"`

	// EntityID references the entity the alias refers to.
	EntityID string `json:"entity_id" yaml:"entity_id"`

	// Count is the occurrence delta accumulated onto the stored count.
	Count int64 `json:"count" yaml:"count"`
}

// RelationRecord is one typed directed edge between two entities.
type RelationRecord struct {
	// PropertyID labels the edge (e.g. "P36" or "capital_of").
	PropertyID string `json:"property_id" yaml:"property_id"`

	// FromID is the source entity.
	FromID string `json:"from_id" yaml:"from_id"`

	// ToID is the target entity.
	ToID string `json:"to_id" yaml:"to_id"`
}
