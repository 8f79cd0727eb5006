// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/wikikb/internal/kb"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the knowledge index to YAML or JSON",
	Long: `Export writes every entity with its aligned text, article identifier,
and aliases to stdout, in load order.`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := kb.Open(indexConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	switch format {
	case "yaml", "":
		return store.ExportYAML(ctx, os.Stdout)
	case "json":
		return store.ExportJSON(ctx, os.Stdout)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
}

func init() {
	exportCmd.Flags().String("format", "yaml", "output format: yaml or json")

	rootCmd.AddCommand(exportCmd)
}
