package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/mager/harmonyhub/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the HTTP API",
	Long: `Serves /health, /auth/spotify, /profile, /playback, /dashboard and
/discover. Visit /auth/spotify once to connect your Spotify account.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fx.New(server.Module).Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
