package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/webroot"
	"github.com/sagarc03/webroot/config"
	"github.com/sagarc03/webroot/database"
)

var accessCmd = &cobra.Command{
	Use:   "access",
	Short: "List recorded exchanges",
	Long: `List exchanges recorded in the access log, newest first.

Results are paginated. Pass the printed cursor back with --cursor to fetch
the next page, or use --all to walk every page.`,
	RunE: runAccess,
}

var (
	accessPrefix  string
	accessStatus  int
	accessLimit   int
	accessCursor  string
	accessAll     bool
	accessJSON    bool
	accessNoColor bool
)

func init() {
	accessCmd.Flags().StringVar(&accessPrefix, "prefix", "", "only exchanges whose resource starts with this prefix")
	accessCmd.Flags().IntVar(&accessStatus, "status", 0, "only exchanges with this status code")
	accessCmd.Flags().IntVar(&accessLimit, "limit", 50, "maximum number of exchanges per page")
	accessCmd.Flags().StringVar(&accessCursor, "cursor", "", "pagination cursor from a previous page")
	accessCmd.Flags().BoolVar(&accessAll, "all", false, "fetch every page")
	accessCmd.Flags().BoolVar(&accessJSON, "json", false, "output JSON")
	accessCmd.Flags().BoolVar(&accessNoColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(accessCmd)
}

func runAccess(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	repo, closeDB, err := openAccessLog(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	query := webroot.AccessQuery{
		ResourcePrefix: accessPrefix,
		Status:         webroot.StatusCode(accessStatus),
		Limit:          accessLimit,
		Cursor:         accessCursor,
	}

	result, err := listAccess(ctx, repo, query, accessAll)
	if err != nil {
		return err
	}

	return NewFormatter(accessJSON, accessNoColor).FormatAccess(os.Stdout, result)
}

// listAccess returns one page, or every page merged when all is set.
func listAccess(ctx context.Context, repo webroot.AccessRepo, query webroot.AccessQuery, all bool) (webroot.AccessListResult, error) {
	var merged webroot.AccessListResult
	for {
		page, err := repo.List(ctx, query)
		if err != nil {
			return webroot.AccessListResult{}, fmt.Errorf("list access log: %w", err)
		}
		merged.Items = append(merged.Items, page.Items...)
		merged.NextCursor = page.NextCursor

		if !all || page.NextCursor == "" {
			return merged, nil
		}
		query.Cursor = page.NextCursor
	}
}

// openAccessLog opens the configured access-log database regardless of
// access_log.enabled, so records can be inspected after the server stops.
func openAccessLog(ctx context.Context) (webroot.AccessRepo, func(), error) {
	cfg, err := config.FromContext(ctx)
	if err != nil {
		return nil, nil, err
	}

	if err = cfg.AccessLog.Tables.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid access log config: %w", err)
	}

	db, err := database.Open(ctx, cfg.AccessLog.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("open access log: %w", err)
	}

	return db.GetRepo(), func() { _ = db.Close() }, nil
}
