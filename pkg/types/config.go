// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// IndexConfig holds settings for the knowledge index store.
type IndexConfig struct {
	// DBPath is the path of the SQLite storage file.
	DBPath string `json:"db_path" yaml:"db_path"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// FuzzyMaxDistance is the default maximum edit distance accepted by
	// fuzzy alias resolution (default 2).
	FuzzyMaxDistance int `json:"fuzzy_max_distance" yaml:"fuzzy_max_distance"`

	// FuzzyCandidateLimit caps the number of trigram candidates fetched
	// before edit-distance verification (default 500).
	FuzzyCandidateLimit int `json:"fuzzy_candidate_limit" yaml:"fuzzy_candidate_limit"`
}

// BuildConfig holds settings for the two-phase ingestion run.
type BuildConfig struct {
	// BatchSize is the number of records flushed per transaction (default 1000).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// EntitiesPath is the JSONL stream of entity records (phase 1).
	EntitiesPath string `json:"entities_path" yaml:"entities_path"`

	// ArticlesPath is the JSONL stream of article records (phase 2).
	ArticlesPath string `json:"articles_path" yaml:"articles_path"`

	// AliasesPath is the JSONL stream of alias records (phase 2).
	AliasesPath string `json:"aliases_path" yaml:"aliases_path"`

	// RelationsPath is the JSONL stream of relation records (phase 2).
	RelationsPath string `json:"relations_path" yaml:"relations_path"`
}

// Config is the top-level configuration read from wikikb.yaml.
type Config struct {
	Index IndexConfig `json:"index" yaml:"index"`
	Build BuildConfig `json:"build" yaml:"build"`
}
