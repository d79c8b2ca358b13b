package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/atotto/clipboard"
	"gopkg.in/yaml.v3"

	"makerapi/internal/model"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown format %q (want json or yaml)", s)
}

// DownloadName is the suggested file name for the loaded spec.
func (s *State) DownloadName(f Format) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("openapi-spec-%s.%s", s.current, f)
}

// Download writes the loaded description document to w, re-indented as
// JSON or converted to YAML. Key order is kept in both cases.
func (s *State) Download(w io.Writer, f Format) error {
	s.mu.Lock()
	doc := s.doc
	s.mu.Unlock()
	if doc == nil {
		return model.NewError(model.KindInvalidSpec, nil, "no specification loaded")
	}

	var node yaml.Node
	if err := yaml.Unmarshal(doc.Raw, &node); err != nil {
		return model.NewError(model.KindInvalidSpec, err, "decode specification")
	}

	switch f {
	case FormatYAML:
		blockStyle(&node)
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(&node); err != nil {
			return err
		}
		return enc.Close()
	default:
		if json.Valid(doc.Raw) {
			var buf bytes.Buffer
			if err := json.Indent(&buf, bytes.TrimSpace(doc.Raw), "", "  "); err != nil {
				return err
			}
			buf.WriteByte('\n')
			_, err := buf.WriteTo(w)
			return err
		}
		var v any
		if err := node.Decode(&v); err != nil {
			return model.NewError(model.KindInvalidSpec, err, "decode specification")
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

// blockStyle clears flow styling so JSON input renders as block YAML.
func blockStyle(n *yaml.Node) {
	if n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode {
		n.Style = 0
	}
	if n.Kind == yaml.ScalarNode && n.Style == yaml.DoubleQuotedStyle && n.Tag == "!!str" {
		n.Style = 0
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// Clipboard is where copy commands put text.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard uses the OS clipboard via atotto/clipboard.
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("no clipboard utility found")
	}
	return clipboard.WriteAll(text)
}

// Copy puts text on the clipboard. On failure the caller should show the
// text for manual copying.
func (s *State) Copy(text string) error {
	if err := s.clip.WriteAll(text); err != nil {
		s.log.Debug("clipboard write failed", "err", err)
		return model.NewError(model.KindClipboardUnavailable, err, "clipboard unavailable")
	}
	return nil
}
