package main

import (
	"context"
	"io"
	"os/signal"
	"syscall"

	"github.com/example/readaloud/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve reader tools over the Model Context Protocol",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			// Stdout carries the protocol stream; the view must not
			// print into it.
			shell, cleanup, err := buildShell(cfg, io.Discard)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return mcp.New(cfg, shell).Run(ctx)
		},
	}

	return cmd
}
