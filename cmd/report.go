package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/mager/harmonyhub/dashboard"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Prints your listening statistics",
	Long: `Renders the dashboard for the connected account and prints it as a table,
JSON or YAML. Run "harmonyhub serve" and visit /auth/spotify first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := requestFromViper()
		format := viper.GetString("format")
		if err := checkFormat(format); err != nil {
			return err
		}

		var svc *dashboard.Service
		return withApp(cmd.Context(), fx.Populate(&svc), func(ctx context.Context) error {
			d, err := svc.Render(ctx, req)
			if err != nil {
				return fmt.Errorf("report: %w", err)
			}
			return writeReport(cmd.OutOrStdout(), d, format)
		})
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("source", dashboard.SourceTop, `track list to analyse: "top" or "recent"`)
	reportCmd.Flags().String("time-range", "", "short_term, medium_term or long_term (default from HARMONYHUB_TIME_RANGE)")
	reportCmd.Flags().IntP("limit", "n", 0, "number of tracks, 1-50 (default from HARMONYHUB_TOP_TRACKS_LIMIT)")
	reportCmd.Flags().Int("artist-limit", 0, "number of top artists, 0-50")
	reportCmd.Flags().Bool("playlists", false, "include playlists")
	reportCmd.Flags().StringP("format", "o", formatTable, "output format: table, json or yaml")
	bindFlags(reportCmd.Flags())
}

func requestFromViper() dashboard.Request {
	return dashboard.Request{
		Source:           viper.GetString("source"),
		TimeRange:        viper.GetString("time-range"),
		Limit:            viper.GetInt("limit"),
		ArtistLimit:      viper.GetInt("artist-limit"),
		IncludePlaylists: viper.GetBool("playlists"),
	}
}
