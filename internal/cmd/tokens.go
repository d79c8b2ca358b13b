package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"makerapi/internal/model"
)

type tokenList struct {
	Selected string        `json:"selected,omitempty" yaml:"selected,omitempty"`
	Tokens   []model.Token `json:"tokens" yaml:"tokens"`
}

func newTokensCmd() *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "List the API tokens of the logged-in user",
		Long: `List the API tokens discovered through the session cookie. Values are
masked unless --reveal is given. Pass a token to other commands with
--token-name, or any value with --token.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openState(cmd, false)
			if err != nil {
				return err
			}
			_, selected := st.Tokens().Current()
			list := tokenList{Selected: selected, Tokens: st.Tokens().Tokens()}
			if !reveal {
				for i := range list.Tokens {
					list.Tokens[i].Value = mask(list.Tokens[i].Value)
				}
			}
			return render(cmd, list, func() string { return renderTokens(list) })
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "print token values in full")
	return cmd
}

// mask keeps the first four characters of a token.
func mask(v string) string {
	if len(v) <= 4 {
		return strings.Repeat("*", len(v))
	}
	return v[:4] + strings.Repeat("*", 8)
}

func renderTokens(l tokenList) string {
	if len(l.Tokens) == 0 {
		return "No tokens found. Tokens are discovered with a session cookie (--session-cookie)."
	}
	var b strings.Builder
	for _, t := range l.Tokens {
		mark := " "
		if t.Name == l.Selected {
			mark = "*"
		}
		fmt.Fprintf(&b, "%s %-20s %-14s %s\n", mark, t.Name, t.Value, t.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}
