package openapi

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"makerapi/internal/model"
)

const (
	jsonContentType = "application/json"
	emptyTemplate   = "{\n  \n}"
)

// extractBody returns the editable body for mutation routes that declare one.
func extractBody(method string, op *openapi3.Operation) *model.RequestBody {
	switch method {
	case "POST", "PUT", "PATCH":
	default:
		return nil
	}
	if op == nil || op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	rb := op.RequestBody.Value
	return &model.RequestBody{
		Required:    rb.Required,
		ContentType: jsonContentType,
		Template:    bodyTemplate(jsonMedia(rb.Content)),
	}
}

// jsonMedia picks application/json, else any JSON media type such as
// "application/json; charset=utf-8" or "application/merge-patch+json".
func jsonMedia(content openapi3.Content) *openapi3.MediaType {
	if mt := content.Get(jsonContentType); mt != nil {
		return mt
	}
	keys := make([]string, 0, len(content))
	for k := range content {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		kk := strings.ToLower(strings.TrimSpace(k))
		if mt := content[k]; mt != nil && (strings.HasPrefix(kk, jsonContentType) || strings.HasSuffix(strings.SplitN(kk, ";", 2)[0], "+json")) {
			return mt
		}
	}
	return nil
}

// bodyTemplate prefers the media example, then a skeleton built from an
// object schema, then an empty object with the cursor line left open.
func bodyTemplate(mt *openapi3.MediaType) string {
	if mt == nil {
		return emptyTemplate
	}
	if mt.Example != nil {
		if s, ok := indentJSON(mt.Example); ok {
			return s
		}
	}
	if len(mt.Examples) > 0 {
		names := make([]string, 0, len(mt.Examples))
		for name := range mt.Examples {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ex := mt.Examples[name]
			if ex == nil || ex.Value == nil || ex.Value.Value == nil {
				continue
			}
			if s, ok := indentJSON(ex.Value.Value); ok {
				return s
			}
		}
	}
	if mt.Schema != nil {
		if skel := schemaSkeleton(mt.Schema.Value); skel != nil {
			if s, ok := indentJSON(skel); ok {
				return s
			}
		}
	}
	return emptyTemplate
}

func schemaSkeleton(s *openapi3.Schema) map[string]any {
	if s == nil || !s.Type.Is("object") || len(s.Properties) == 0 {
		return nil
	}
	out := make(map[string]any, len(s.Properties))
	for name, ref := range s.Properties {
		if ref == nil || ref.Value == nil {
			out[name] = nil
			continue
		}
		out[name] = placeholder(ref.Value)
	}
	return out
}

func placeholder(p *openapi3.Schema) any {
	if p.Example != nil {
		return p.Example
	}
	if p.Default != nil {
		return p.Default
	}
	switch {
	case p.Type.Is("string"):
		return stringPlaceholder(p.Description)
	case p.Type.Is("integer"):
		return 0
	case p.Type.Is("number"):
		return 0.0
	case p.Type.Is("boolean"):
		return false
	case p.Type.Is("array"):
		return []any{}
	default:
		return nil
	}
}

func stringPlaceholder(desc string) string {
	switch {
	case desc == "":
		return "string_value"
	case strings.Contains(desc, "password"):
		return "your_password_here"
	case strings.Contains(desc, "username"):
		return "your_username_here"
	case strings.Contains(desc, "name"):
		return "example_name"
	case strings.Contains(desc, "token"):
		return "your_token_name"
	default:
		return "example_value"
	}
}

func indentJSON(v any) (string, bool) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", false
	}
	return string(b), true
}
