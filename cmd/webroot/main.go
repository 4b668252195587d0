package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/webroot/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "webroot",
	Short:   "Minimal HTTP/1.1 static file server",
	Long: `Webroot serves files from a single directory over a raw TCP listener.

It understands GET only, keeps each connection open for sequential requests,
and can optionally record every exchange into sqlite or postgres.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		files, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(files, cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		closeLog, err := setupLogging(cfg.Env, cfg.Log)
		if err != nil {
			return err
		}
		logCloser = closeLog

		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser()
		}
	},
}

// logCloser releases the log file opened by setupLogging, if any.
var logCloser func() error

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file paths, later files override earlier ones (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "access log database type: sqlite, postgres (env: WEBROOT_ACCESS_LOG_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "access log database connection string (env: WEBROOT_ACCESS_LOG_DSN)")
	rootCmd.PersistentFlags().String("web-root", "", "directory served as the web root (default: ./www, env: WEBROOT_SITE_WEB_ROOT)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: WEBROOT_LOG_LEVEL)")
	rootCmd.PersistentFlags().String("log-file", "", "append logs to this file instead of stdout (env: WEBROOT_LOG_FILE)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
