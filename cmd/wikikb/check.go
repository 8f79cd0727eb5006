// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/wikikb/internal/kb"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify consistency between the alias table and the fuzzy index",
	Long: `Check reconciles the two projections of the alias set: the number of
distinct alias texts in the exact table must equal the number of words
in the approximate-match index. A mismatch indicates a corrupted load.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	store, err := kb.Open(indexConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.CheckAliasProjection(context.Background()); err != nil {
		return err
	}
	fmt.Println("ok: alias projections consistent")
	return nil
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
