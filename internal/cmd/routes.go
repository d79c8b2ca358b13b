package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"makerapi/internal/catalog"
	"makerapi/internal/model"
	"makerapi/internal/session"
)

func newRoutesCmd() *cobra.Command {
	var (
		f   catalog.Filter
		all bool
	)

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List routes grouped by module",
		Long: `List the routes of the loaded specification, grouped by module.

--tag accepts a module name in any case, or an approximate spelling that is
matched against the known tags. Collapsed sections (see "makerapi section")
show only their header unless --all is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openState(cmd, true)
			if err != nil {
				return err
			}
			f.Method = strings.ToUpper(strings.TrimSpace(f.Method))
			st.SetFilter(f)
			v := st.View()
			return render(cmd, v, func() string { return renderRoutes(v, all) })
		},
	}

	cmd.Flags().StringVarP(&f.Search, "search", "s", "", "match path, method, summary, module or tags")
	cmd.Flags().StringVarP(&f.Tag, "tag", "t", "", "only routes with this tag")
	cmd.Flags().StringVarP(&f.Method, "method", "m", "", "only routes with this HTTP method")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "expand collapsed sections")
	return cmd
}

func renderRoutes(v session.View, all bool) string {
	if len(v.Groups) == 0 {
		if v.Filter.IsZero() {
			return "No routes."
		}
		return "No routes match the filter."
	}

	var b strings.Builder
	if v.Filter.Tag != "" {
		fmt.Fprintf(&b, "Tag: %s\n\n", v.Filter.Tag)
	}
	for _, g := range v.Groups {
		marker := "▾"
		if g.Collapsed && !all {
			marker = "▸"
		}
		fmt.Fprintf(&b, "%s %s (%d)\n", marker, g.Name, len(g.Routes))
		if g.Collapsed && !all {
			continue
		}
		for _, r := range g.Routes {
			fmt.Fprintf(&b, "  %s\n", routeLine(r))
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%d of %d routes", len(v.Filtered), v.Stats.TotalRoutes)
	return b.String()
}

func routeLine(r model.Route) string {
	line := fmt.Sprintf("%-7s %-36s %-10s", r.Method, r.Path, r.AuthType().Label())
	if label := r.Label(); label != "" {
		line += " " + label
	}
	return strings.TrimRight(line, " ")
}
