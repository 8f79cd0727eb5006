// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/wikikb/internal/kb"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup [entity-id]",
	Short: "Look up an entity by its external identifier",
	Long: `Lookup returns the entity with the given identifier, its stored claims
payload, and its article identifier if one exists.`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func runLookup(cmd *cobra.Command, args []string) error {
	store, err := kb.Open(indexConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	entity, err := store.LookupEntity(ctx, args[0])
	if err != nil {
		return err
	}

	articleID, err := store.ArticleFor(ctx, entity.ID)
	if err != nil && !errors.Is(err, kb.ErrNoArticle) {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		out := struct {
			kb.Entity
			ArticleID string `json:"article_id,omitempty"`
		}{Entity: entity, ArticleID: articleID}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("id:      %s\n", entity.ID)
	if articleID != "" {
		fmt.Printf("article: %s\n", articleID)
	}
	if len(entity.Claims) > 0 {
		fmt.Printf("claims:  %s\n", string(entity.Claims))
	}
	return nil
}

func init() {
	lookupCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(lookupCmd)
}
