package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ritchie-gr8/video-editor/internal/daemonrun"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var inline bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the primary in the foreground",
		Long: "Run the primary in the foreground. It recovers interrupted resizes, " +
			"runs the resize dispatcher and keeps one HTTP worker per CPU alive.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				ConfigPath: ctx.loadedConfigPath(),
				SocketPath: ctx.socketPath(),
				Inline:     inline,
			})
		},
	}
	cmd.Flags().BoolVar(&inline, "inline", false, "Serve HTTP from the primary instead of forking workers")
	return cmd
}

func newWorkerCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:    "worker",
		Short:  "Run one HTTP worker (started by serve)",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return daemonrun.RunWorker(cmd.Context(), cfg, daemonrun.WorkerOptions{
				SocketPath: ctx.socketPath(),
			})
		},
	}
}
