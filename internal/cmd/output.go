package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"makerapi/internal/highlight"
)

type outputFormat string

const (
	formatText outputFormat = "text"
	formatJSON outputFormat = "json"
	formatYAML outputFormat = "yaml"
)

func parseOutputFormat(s string) (outputFormat, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return formatText, nil
	case "json":
		return formatJSON, nil
	case "yaml", "yml":
		return formatYAML, nil
	}
	return "", fmt.Errorf("unknown output format %q (valid: text, json, yaml)", s)
}

// formatForPath picks the file format from the extension when -F is unset
// or text.
func formatForPath(path string, f outputFormat) outputFormat {
	if f != formatText {
		return f
	}
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		return formatYAML
	case strings.HasSuffix(lower, ".json"):
		return formatJSON
	}
	return formatText
}

func marshal(v any, f outputFormat) ([]byte, error) {
	if f == formatYAML {
		return yaml.Marshal(v)
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// render writes v according to --format and --output. textFn renders the
// human form; structured output is highlighted when stdout is a terminal.
func render(c *cobra.Command, v any, textFn func() string) error {
	format, outputPath := getOutputFlags(c)
	f, err := parseOutputFormat(format)
	if err != nil {
		return usageExit("%v", err)
	}

	if outputPath != "" {
		f = formatForPath(outputPath, f)
		var b []byte
		if f == formatText {
			b = []byte(highlight.Strip(textFn()))
		} else if b, err = marshal(v, f); err != nil {
			return failure(err)
		}
		if err := writeFile(outputPath, b); err != nil {
			return ExitResult{Code: exitFailure, Message: err.Error(), ToStderr: true}
		}
		return okText("Wrote " + outputPath)
	}

	if f == formatText {
		return okText(textFn())
	}
	b, err := marshal(v, f)
	if err != nil {
		return failure(err)
	}
	lang := highlight.JSON
	if f == formatYAML {
		lang = highlight.YAML
	}
	return okText(colorize(string(b), lang))
}

func writeFile(path string, b []byte) error {
	return os.WriteFile(path, b, 0o644)
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// colorize highlights s for a terminal and returns it unchanged otherwise.
func colorize(s string, lang highlight.Lang) string {
	if !stdoutIsTerminal() {
		return s
	}
	return highlight.Text(s, lang, highlight.Palette256)
}
