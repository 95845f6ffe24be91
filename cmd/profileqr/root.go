package main

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/profileqr/internal/app"
	"github.com/MrSnakeDoc/profileqr/internal/config"
	"github.com/MrSnakeDoc/profileqr/internal/logger"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "profileqr",
		Short:         "Normalize profile links and serve them as QR codes",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API (default)",
			Args:  cobra.NoArgs,
			RunE:  runServe,
		},
		newNormalizeCmd(),
		newVersionCmd(),
	)
	return root
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	defer func() { _ = loggerClient.Sync() }()

	a, err := app.New(cmd.Context(), cfg, loggerClient)
	if err != nil {
		loggerClient.Error("failed to start", logger.Error(err))
		return err
	}
	return a.Run(cmd.Context())
}
