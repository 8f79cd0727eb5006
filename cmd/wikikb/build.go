// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/wikikb/internal/kb"
	"github.com/pdiddy/wikikb/internal/loader"
	"github.com/pdiddy/wikikb/pkg/types"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the knowledge index from pre-parsed dump streams",
	Long: `Build runs the two-phase load: the entity stream is appended first and
committed, then the article, alias, and relation streams that reference
it. Streams are JSON Lines files produced by the upstream dump parsers,
consumed in file order. Re-running build against a finished index fails
for entity and article streams; alias and relation streams are additive
and idempotent.`,
	RunE: runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg := buildConfig(cmd)

	store, err := kb.Open(indexConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	l := loader.New(store, cfg.BatchSize)
	summary, err := l.Run(context.Background(), cfg, os.Stdout)
	if err != nil {
		return err
	}

	cmd.Printf("loaded %d entities, %d articles, %d aliases, %d relations\n",
		summary.Entities, summary.Articles, summary.Aliases, summary.Relations)
	return nil
}

func buildConfig(cmd *cobra.Command) types.BuildConfig {
	stringFlag := func(name, key string) string {
		v, _ := cmd.Flags().GetString(name)
		if v == "" {
			v = viper.GetString(key)
		}
		return v
	}

	batchSize, _ := cmd.Flags().GetInt("batch-size")
	if batchSize <= 0 {
		batchSize = viper.GetInt("build.batch_size")
	}

	return types.BuildConfig{
		BatchSize:     batchSize,
		EntitiesPath:  stringFlag("entities", "build.entities_path"),
		ArticlesPath:  stringFlag("articles", "build.articles_path"),
		AliasesPath:   stringFlag("aliases", "build.aliases_path"),
		RelationsPath: stringFlag("relations", "build.relations_path"),
	}
}

func init() {
	buildCmd.Flags().String("entities", "", "JSONL stream of entity records (phase 1)")
	buildCmd.Flags().String("articles", "", "JSONL stream of article records (phase 2)")
	buildCmd.Flags().String("aliases", "", "JSONL stream of alias records (phase 2)")
	buildCmd.Flags().String("relations", "", "JSONL stream of relation records (phase 2)")
	buildCmd.Flags().Int("batch-size", 0, "records per flush transaction (default 1000)")

	rootCmd.AddCommand(buildCmd)
}
