// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/wikikb/internal/kb"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search over entity or article text",
	Long: `Search runs ranked full-text search over entity name, description, and
label, or with --articles over article title and content. Each hit is
resolved to its owning entity, ordered by descending relevance.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	store, err := kb.Open(indexConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	maxResults, _ := cmd.Flags().GetInt("max-results")
	articles, _ := cmd.Flags().GetBool("articles")

	ctx := context.Background()
	var hits []kb.SearchHit
	if articles {
		hits, err = store.SearchArticleText(ctx, args[0], maxResults)
	} else {
		hits, err = store.SearchEntityText(ctx, args[0], maxResults)
	}
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}

	if len(hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("%-4s  %-16s  %s\n", "Rank", "Entity", "Score")
	for i, hit := range hits {
		fmt.Printf("%-4d  %-16s  %.4f\n", i+1, hit.EntityID, hit.Score)
	}
	return nil
}

func init() {
	searchCmd.Flags().Bool("articles", false, "search article text instead of entity text")
	searchCmd.Flags().Int("max-results", 0, "maximum number of results")
	searchCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(searchCmd)
}
