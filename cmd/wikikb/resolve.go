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

var resolveCmd = &cobra.Command{
	Use:   "resolve [mention]",
	Short: "Resolve a mention to candidate entities through the alias index",
	Long: `Resolve maps a possibly misspelled mention to candidate entities: exact
alias matches at distance zero plus approximate matches within the edit
distance bound, each joined back through the alias table. Candidates are
ordered by edit distance, then occurrence count.

With --fuzzy-only the raw alias strings and distances are printed
without the entity join.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	store, err := kb.Open(indexConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	maxDistance, _ := cmd.Flags().GetInt("max-distance")
	limit, _ := cmd.Flags().GetInt("max-results")
	fuzzyOnly, _ := cmd.Flags().GetBool("fuzzy-only")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	ctx := context.Background()

	if fuzzyOnly {
		matches, err := store.ResolveAliasFuzzy(ctx, args[0], maxDistance, limit)
		if err != nil {
			return err
		}
		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(matches)
		}
		for _, m := range matches {
			fmt.Printf("%d  %s\n", m.Distance, m.Alias)
		}
		return nil
	}

	candidates, err := store.ResolveAlias(ctx, args[0], maxDistance, limit)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(candidates)
	}

	if len(candidates) == 0 {
		fmt.Println("No candidates found.")
		return nil
	}
	fmt.Printf("%-16s  %-24s  %-8s  %s\n", "Entity", "Alias", "Distance", "Count")
	for _, c := range candidates {
		fmt.Printf("%-16s  %-24s  %-8d  %d\n", c.EntityID, c.Alias, c.Distance, c.Count)
	}
	return nil
}

func init() {
	resolveCmd.Flags().Int("max-distance", 0, "maximum edit distance (default 2)")
	resolveCmd.Flags().Int("max-results", 0, "maximum number of candidates")
	resolveCmd.Flags().Bool("fuzzy-only", false, "print matching alias strings without the entity join")
	resolveCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(resolveCmd)
}
