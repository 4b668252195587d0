package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old access log records",
	Long: `Permanently remove exchanges older than --older-than from the access log.

Run this periodically to keep the access log database small.`,
	RunE: runPrune,
}

var (
	pruneOlderThan time.Duration
	pruneJSON      bool
)

func init() {
	pruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 30*24*time.Hour, "delete exchanges recorded longer ago than this")
	pruneCmd.Flags().BoolVar(&pruneJSON, "json", false, "output JSON")
	rootCmd.AddCommand(pruneCmd)
}

func runPrune(cmd *cobra.Command, args []string) error {
	if pruneOlderThan <= 0 {
		return errors.New("--older-than must be positive")
	}

	ctx := cmd.Context()

	repo, closeDB, err := openAccessLog(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	before := time.Now().Add(-pruneOlderThan)
	slog.Info("pruning access log", "before", before.UTC().Format(time.RFC3339))

	deleted, err := repo.Prune(ctx, before)
	if err != nil {
		return fmt.Errorf("prune: %w", err)
	}

	slog.Info("prune complete", "deleted", deleted)
	return NewFormatter(pruneJSON, false).FormatPrune(os.Stdout, deleted)
}
