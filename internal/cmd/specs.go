package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"makerapi/internal/session"
)

func newSpecsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "specs",
		Short: "List the API specifications the device offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openState(cmd, true)
			if err != nil {
				return err
			}
			status := st.Status()
			return render(cmd, status, func() string { return renderSpecs(status) })
		},
	}
}

func renderSpecs(s session.Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (%s)\n\n", s.Title, s.Version, s.BaseURL)
	for _, d := range s.Specs {
		mark := " "
		if d.ID == s.Current {
			mark = "*"
		}
		fmt.Fprintf(&b, "%s %-6s %-18s %s\n", mark, d.ID, d.DisplayName, d.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}
