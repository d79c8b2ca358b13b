package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count routes, modules, public and protected routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openState(cmd, true)
			if err != nil {
				return err
			}
			stats := st.View().Stats
			return render(cmd, stats, func() string {
				return fmt.Sprintf("Routes:    %d\nModules:   %d\nPublic:    %d\nProtected: %d",
					stats.TotalRoutes, stats.TotalModules, stats.PublicRoutes, stats.ProtectedRoutes)
			})
		},
	}
}
