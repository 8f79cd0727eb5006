// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the wikikb CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/wikikb/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the wikikb CLI.
var rootCmd = &cobra.Command{
	Use:   "wikikb",
	Short: "Build and query a knowledge index over an encyclopedic corpus",
	Long: `wikikb builds a queryable knowledge index from pre-parsed encyclopedic
dump streams and serves lookups against it: exact entity lookup, ranked
full-text search over entity and article text, fuzzy alias resolution,
and typed relationship traversal.

Loading is a two-phase batch append: the entity identity stream first,
then article, alias, and relation streams that reference it. Once built,
the index is read-only.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./wikikb.yaml or ~/.config/wikikb/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "path of the index storage file (default: wiki.db)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("wikikb")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "wikikb"))
		}
	}

	viper.SetEnvPrefix("WIKIKB")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// indexConfig assembles the store configuration from flags, the config
// file, and defaults, in that precedence order.
func indexConfig(cmd *cobra.Command) types.IndexConfig {
	dbPath, _ := cmd.Flags().GetString("db")
	if dbPath == "" {
		dbPath = viper.GetString("index.db_path")
	}
	if dbPath == "" {
		dbPath = "wiki.db"
	}

	maxResults, _ := cmd.Flags().GetInt("max-results")
	if maxResults <= 0 {
		maxResults = viper.GetInt("index.max_results")
	}

	cfg := types.IndexConfig{
		DBPath:              dbPath,
		MaxResults:          maxResults,
		FuzzyMaxDistance:    viper.GetInt("index.fuzzy_max_distance"),
		FuzzyCandidateLimit: viper.GetInt("index.fuzzy_candidate_limit"),
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
