// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alteraai/pkg/migrations"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Printf("persona-api exited: %v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "persona-api",
		Short:         "Persona coaching backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app := &AppRunner{}
			if err := app.ResolveConfig(); err != nil {
				return err
			}
			if err := app.Logging(); err != nil {
				return err
			}
			if err := app.AllConnectors(ctx); err != nil {
				return err
			}
			defer app.Close(context.Background())
			if err := app.AllServices(); err != nil {
				return err
			}
			app.AllMiddlewares()
			app.AllRouters()
			return app.Serve(ctx)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the database schema",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(migrations.Up), string(migrations.Down)},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := migrations.Up
			if len(args) == 1 {
				dir = migrations.Direction(args[0])
			}
			if dir != migrations.Up && dir != migrations.Down {
				return fmt.Errorf("unknown migration direction %q", dir)
			}
			app := &AppRunner{}
			if err := app.ResolveConfig(); err != nil {
				return err
			}
			if err := app.Logging(); err != nil {
				return err
			}
			if err := app.Postgres(cmd.Context()); err != nil {
				return err
			}
			defer app.Close(context.Background())
			return migrations.Run(cmd.Context(), app.postgres, app.logger, dir)
		},
	}
}
