// Package cmd holds the makerapi cobra commands. Each command loads the
// layered configuration, builds a session.State and renders its result
// through ExitResult so main decides where output goes.
package cmd

import (
	"github.com/spf13/cobra"
)

// NewRoot builds the top-level `makerapi` command. Without a subcommand it
// starts the TUI.
//
// Errors and usage are silenced; main prints ExitResult values itself.
func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "makerapi",
		Short:         "Explore and live-test the API of a maker device",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (YAML)")
	pf.String("base-url", "", "device base URL, e.g. http://192.168.1.50")
	pf.String("spec", "", "specification to load: full or maker")
	pf.String("token", "", "API token used in token mode")
	pf.String("session-cookie", "", "session cookie, as name=value or a bare value")
	pf.String("csrf-token", "", "CSRF token sent in session mode")
	pf.String("timeout", "", "request timeout, e.g. 10s")
	pf.String("state-dir", "", "directory for view state")
	pf.String("log-level", "", "log level: debug|info|warn|error")
	pf.String("log-format", "", "log format: text|json")
	pf.String("log-file", "", "log file used while the TUI runs")
	pf.StringP("output", "o", "", "write output to file (default: stdout)")
	pf.StringP("format", "F", "", "output format: text|json|yaml")

	root.AddGroup(
		&cobra.Group{ID: "explore", Title: "explore the API"},
		&cobra.Group{ID: "test", Title: "try routes"},
		&cobra.Group{ID: "state", Title: "credentials and view state"},
	)

	add := func(group string, cmds ...*cobra.Command) {
		for _, c := range cmds {
			c.GroupID = group
			root.AddCommand(c)
		}
	}
	add("explore", newSpecsCmd(), newRoutesCmd(), newStatsCmd(), newShowCmd(), newDownloadCmd(), newTUICmd())
	add("test", newTryCmd(), newCurlCmd())
	add("state", newTokensCmd(), newSectionCmd())

	return root
}
