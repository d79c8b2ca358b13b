package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"makerapi/internal/auth"
	"makerapi/internal/highlight"
	"makerapi/internal/model"
	"makerapi/internal/session"
)

type routeDetails struct {
	ID       string        `json:"id" yaml:"id"`
	Route    model.Route   `json:"route" yaml:"route"`
	Default  string        `json:"defaultAuth" yaml:"defaultAuth"`
	Tabs     []session.Tab `json:"tabs" yaml:"tabs"`
	Advisory string        `json:"advisory,omitempty" yaml:"advisory,omitempty"`
	Snippet  string        `json:"snippet,omitempty" yaml:"snippet,omitempty"`
}

func newShowCmd() *cobra.Command {
	var snippet string

	cmd := &cobra.Command{
		Use:   "show <route-id | METHOD PATH>",
		Short: "Show a route's parameters, auth and body template",
		Example: `  makerapi show GET /api/status
  makerapi show route-post-api-tokens
  makerapi show --spec full --snippet disable POST /api/reboot`,
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
			tabs, err := st.Tabs(r.ID())
			if err != nil {
				return failure(err)
			}
			d := routeDetails{
				ID:       r.ID(),
				Route:    r,
				Default:  string(auth.Default(r)),
				Tabs:     tabs,
				Advisory: authNote(r, ""),
			}
			if snippet != "" {
				if d.Snippet, err = st.AdminSnippet(r.ID(), session.Tab(snippet)); err != nil {
					return usageExit("%v", err)
				}
			}
			return render(cmd, d, func() string { return renderDetails(d) })
		},
	}

	cmd.Flags().StringVar(&snippet, "snippet", "", "print the firmware snippet: disable|override (full spec only)")
	return cmd
}

func renderDetails(d routeDetails) string {
	r := d.Route
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", r.Method, r.Path)
	if label := r.Label(); label != "" {
		fmt.Fprintf(&b, "%s\n", label)
	}
	if r.Description != "" && r.Description != r.Label() {
		fmt.Fprintf(&b, "\n%s\n", r.Description)
	}

	fmt.Fprintf(&b, "\nID:      %s\n", d.ID)
	fmt.Fprintf(&b, "Module:  %s\n", r.Module)
	fmt.Fprintf(&b, "Tags:    %s\n", strings.Join(r.Tags, ", "))
	fmt.Fprintf(&b, "Auth:    %s (default %s)\n", modeList(r.AuthTypes), d.Default)
	if d.Advisory != "" {
		fmt.Fprintf(&b, "Note:    %s\n", d.Advisory)
	}

	if len(r.Parameters) > 0 {
		b.WriteString("\nParameters:\n")
		for _, p := range r.Parameters {
			req := ""
			if p.Required {
				req = " required"
			}
			fmt.Fprintf(&b, "  %-16s %-6s %-8s%s", p.Name, p.In, p.Type, req)
			if p.Description != "" {
				fmt.Fprintf(&b, "  %s", p.Description)
			}
			b.WriteByte('\n')
		}
	}

	if r.Body != nil {
		fmt.Fprintf(&b, "\nBody (%s):\n%s\n", r.Body.ContentType, colorize(r.Body.Template, highlight.JSON))
	}

	tabs := make([]string, len(d.Tabs))
	for i, t := range d.Tabs {
		tabs[i] = string(t)
	}
	fmt.Fprintf(&b, "\nTabs:    %s", strings.Join(tabs, " | "))

	if d.Snippet != "" {
		fmt.Fprintf(&b, "\n\n%s", strings.TrimRight(d.Snippet, "\n"))
	}
	return b.String()
}
