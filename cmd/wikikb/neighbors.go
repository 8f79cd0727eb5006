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

var neighborsCmd = &cobra.Command{
	Use:   "neighbors [entity-id]",
	Short: "List entities related to an entity through typed edges",
	Long: `Neighbors lists the targets of relationship edges leaving an entity, or
with --reverse the sources of edges arriving at it. Use --property to
restrict the traversal to a single edge label.`,
	Args: cobra.ExactArgs(1),
	RunE: runNeighbors,
}

func runNeighbors(cmd *cobra.Command, args []string) error {
	store, err := kb.Open(indexConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	property, _ := cmd.Flags().GetString("property")
	reverse, _ := cmd.Flags().GetBool("reverse")

	ctx := context.Background()
	var neighbors []string
	if reverse {
		neighbors, err = store.EdgesTo(ctx, args[0], property)
	} else {
		neighbors, err = store.EdgesFrom(ctx, args[0], property)
	}
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(neighbors)
	}

	if len(neighbors) == 0 {
		fmt.Println("No edges found.")
		return nil
	}
	for _, id := range neighbors {
		fmt.Println(id)
	}
	return nil
}

func init() {
	neighborsCmd.Flags().String("property", "", "restrict to edges with this property label")
	neighborsCmd.Flags().Bool("reverse", false, "follow edges arriving at the entity instead")
	neighborsCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(neighborsCmd)
}
