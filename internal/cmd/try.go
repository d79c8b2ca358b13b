package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"makerapi/internal/highlight"
	"makerapi/internal/session"
)

func newTryCmd() *cobra.Command {
	var rf requestFlags

	cmd := &cobra.Command{
		Use:   "try <route-id | METHOD PATH>",
		Short: "Send a live request to a route",
		Long: `Compose a request from the route definition and the given parameters and
send it to the device.

Path parameters are substituted, other parameters become the query string
for GET, HEAD, DELETE and OPTIONS, or the JSON body for POST, PUT and PATCH
when no --body is given. Token mode sends Authorization: Bearer and never
sends cookies; session mode sends the session cookie.`,
		Example: `  makerapi try GET /api/users/{id} -p id=7 -p verbose=true
  makerapi try POST /api/tokens --auth token --body '{"name":"ci"}'`,
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

			rr, err := st.Execute(cmd.Context(), r.ID(), in)
			if err != nil {
				return failure(err)
			}
			return render(cmd, rr, func() string { return renderResult(rr) })
		},
	}

	rf.register(cmd)
	return cmd
}

func renderResult(rr session.RouteResult) string {
	res := rr.Result
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", rr.Request.Method, rr.Request.URL)
	fmt.Fprintf(&b, "%d %s  (%d ms)\n", res.StatusCode, res.StatusText, res.ElapsedMs)
	if res.Note != "" {
		fmt.Fprintf(&b, "Note: %s\n", res.Note)
	}
	for _, h := range res.Headers {
		fmt.Fprintf(&b, "%s: %s\n", h.Name, h.Value)
	}
	if res.Body != "" {
		lang := highlight.Auto
		if res.Parsed != nil {
			lang = highlight.JSON
		}
		fmt.Fprintf(&b, "\n%s", colorize(res.Body, lang))
	}
	return strings.TrimRight(b.String(), "\n")
}
