package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"makerapi/internal/catalog"
)

type sectionState struct {
	Name      string `json:"name" yaml:"name"`
	Key       string `json:"key" yaml:"key"`
	Collapsed bool   `json:"collapsed" yaml:"collapsed"`
}

func newSectionCmd() *cobra.Command {
	var collapse, expand bool

	cmd := &cobra.Command{
		Use:   "section <module>",
		Short: "Collapse or expand a module section in route listings",
		Long: `Toggle whether a module section is collapsed in "makerapi routes" and the TUI.
The state is remembered per device. The module name may be approximate.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if collapse && expand {
				return usageExit("--collapse and --expand are mutually exclusive")
			}
			st, err := openState(cmd, true)
			if err != nil {
				return err
			}

			var names []string
			for _, g := range st.View().Groups {
				names = append(names, g.Name)
			}
			name, ok := catalog.SuggestTag(names, args[0])
			if !ok {
				return usageExit("no module matches %q (modules: %s)", args[0], strings.Join(names, ", "))
			}

			collapsed := st.SectionCollapsed(name)
			if (collapse && !collapsed) || (expand && collapsed) || (!collapse && !expand) {
				if collapsed, err = st.ToggleSection(name); err != nil {
					return failure(err)
				}
			}
			s := sectionState{Name: name, Key: catalog.SectionKey(name), Collapsed: collapsed}
			return render(cmd, s, func() string {
				if s.Collapsed {
					return fmt.Sprintf("%s: collapsed", s.Name)
				}
				return fmt.Sprintf("%s: expanded", s.Name)
			})
		},
	}

	cmd.Flags().BoolVar(&collapse, "collapse", false, "collapse instead of toggling")
	cmd.Flags().BoolVar(&expand, "expand", false, "expand instead of toggling")
	return cmd
}
