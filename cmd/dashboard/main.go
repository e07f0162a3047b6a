// Package main implements the dashboard CLI: the HTTP server plus a few
// commands that drive the session and store directly.
//
// @title        Task Dashboard API
// @version      1.0
// @description  Session and entity store behind the task dashboard.
// @BasePath     /
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/taskdash/dashboard/internal/pkg/config"
	"github.com/taskdash/dashboard/pkg/logger"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var (
	cfg *config.Config
	log zerolog.Logger

	logLevel string
)

var rootCmd = &cobra.Command{
	Use:           "dashboard",
	Short:         "Task dashboard session and store",
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(cmd.Context())
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel = logLevel
		}
		cfg = loaded

		log = logger.Init(logger.Options{
			Level:   cfg.LogLevel,
			Pretty:  cfg.IsDevelopment(),
			Service: "dashboard",
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL (trace, debug, info, warn, error)")
}
