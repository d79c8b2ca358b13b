package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"makerapi/internal/highlight"
	"makerapi/internal/model"
)

func newCurlCmd() *cobra.Command {
	var (
		rf          requestFlags
		toClipboard bool
	)

	cmd := &cobra.Command{
		Use:   "curl <route-id | METHOD PATH>",
		Short: "Print the curl command equivalent to try",
		Long: `Print a curl command line that sends exactly what "makerapi try" would send
with the same flags. Notes about cookies, CSRF and local-only routes are
emitted as shell comments.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openState(cmd, true)
			if err != nil {
				return err
			}
			r, err := routeArgs(st, args)
			if err != nil {
				return err
			}
			in, err := rf.input(cmd, st)
			if err != nil {
				return err
			}

			c, err := st.Curl(r.ID(), in)
			if err != nil {
				return failure(err)
			}
			text := c.String()

			if toClipboard {
				if err := st.Copy(text); err != nil {
					if errors.Is(err, model.ErrClipboardUnavailable) {
						return ExitResult{
							Code:     exitFailure,
							Message:  fmt.Sprintf("%v; copy the command manually:\n\n%s", err, text),
							ToStderr: true,
						}
					}
					return failure(err)
				}
				return ExitResult{Code: 0, Message: "Copied curl command to the clipboard.", ToStderr: true}
			}
			return render(cmd, c, func() string { return colorize(text, highlight.Shell) })
		},
	}

	rf.register(cmd)
	cmd.Flags().BoolVarP(&toClipboard, "copy", "c", false, "copy the command to the clipboard")
	return cmd
}
