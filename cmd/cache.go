package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/mager/harmonyhub/cache"
	"github.com/mager/harmonyhub/server"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manages the Spotify response cache",
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Deletes expired cache entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var c *cache.Cache
		return withApp(cmd.Context(), fx.Populate(&c), func(ctx context.Context) error {
			n, err := c.Prune(ctx)
			if err != nil {
				return fmt.Errorf("cache prune: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d expired entries\n", n)
			return nil
		})
	},
}

func init() {
	cacheCmd.AddCommand(cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}

// withApp starts the core dependency graph, runs fn and stops the graph.
func withApp(ctx context.Context, populate fx.Option, fn func(ctx context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	app := fx.New(server.Core, populate, fx.NopLogger)
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer app.Stop(context.Background())

	return fn(ctx)
}
