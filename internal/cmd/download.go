package cmd

import (
	"bytes"

	"github.com/spf13/cobra"

	"makerapi/internal/highlight"
	"makerapi/internal/session"
)

func newDownloadCmd() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the loaded specification as JSON or YAML",
		Long: `Write the currently loaded API description, re-indented as JSON or converted
to YAML. With --save the file is written to openapi-spec-<id>.<ext> in the
current directory; -o picks another path, whose extension also selects the
format when -F is not given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, outputPath := getOutputFlags(cmd)
			of, err := parseOutputFormat(format)
			if err != nil {
				return usageExit("%v", err)
			}
			if outputPath != "" {
				of = formatForPath(outputPath, of)
			}
			f := session.FormatJSON
			if of == formatYAML {
				f = session.FormatYAML
			}

			st, err := openState(cmd, true)
			if err != nil {
				return err
			}
			if save && outputPath == "" {
				outputPath = st.DownloadName(f)
			}

			var buf bytes.Buffer
			if err := st.Download(&buf, f); err != nil {
				return failure(err)
			}
			if outputPath != "" {
				if err := writeFile(outputPath, buf.Bytes()); err != nil {
					return ExitResult{Code: exitFailure, Message: err.Error(), ToStderr: true}
				}
				return okText("Wrote " + outputPath)
			}

			lang := highlight.JSON
			if f == session.FormatYAML {
				lang = highlight.YAML
			}
			return okText(colorize(buf.String(), lang))
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "write to openapi-spec-<id>.<ext>")
	return cmd
}
