package openapi

import (
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"makerapi/internal/model"
)

// Security scheme names recognized in operation security requirements, in
// the order they are checked within one requirement object.
var securitySchemes = []struct {
	name string
	mode model.AuthMode
}{
	{"bearerAuth", model.AuthToken},
	{"cookieAuth", model.AuthSession},
	{"localAuth", model.AuthLocalOnly},
}

// BuildRoutes flattens doc into one Route per (path, method). Paths follow
// order, normally the document's own (see PathOrder); paths missing from it
// come after, sorted. Methods use a fixed order, so rebuilding an unchanged
// document yields the same list.
func BuildRoutes(doc *openapi3.T, order []string) []model.Route {
	var out []model.Route
	if doc == nil || doc.Paths == nil {
		return out
	}

	items := doc.Paths.Map()
	paths := make([]string, 0, len(items))
	seen := map[string]bool{}
	for _, p := range order {
		if _, ok := items[p]; ok && !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	var rest []string
	for p := range items {
		if !seen[p] {
			rest = append(rest, p)
		}
	}
	sort.Strings(rest)
	paths = append(paths, rest...)

	for _, path := range paths {
		item := items[path]
		if item == nil {
			continue
		}

		addOp := func(method string, op *openapi3.Operation) {
			if op == nil {
				return
			}

			r := model.Route{
				Path:        path,
				Method:      method,
				Summary:     strings.TrimSpace(op.Summary),
				Description: strings.TrimSpace(op.Description),
				AuthTypes:   authTypes(op.Security),
				Module:      model.DefaultModule,
				OperationID: strings.TrimSpace(op.OperationID),
				Parameters:  mergeParams(item.Parameters, op.Parameters),
				Body:        extractBody(method, op),
			}
			if r.Description == "" {
				r.Description = r.Summary
			}
			if len(op.Tags) > 0 {
				r.Module = op.Tags[0]
				r.Tags = append([]string(nil), op.Tags...)
			} else {
				r.Tags = []string{r.Module}
			}
			out = append(out, r)
		}

		addOp("GET", item.Get)
		addOp("PUT", item.Put)
		addOp("POST", item.Post)
		addOp("DELETE", item.Delete)
		addOp("OPTIONS", item.Options)
		addOp("HEAD", item.Head)
		addOp("PATCH", item.Patch)
		addOp("TRACE", item.Trace)
	}

	return out
}

// authTypes maps security requirements to auth modes. An absent or
// unrecognized requirement list means the route is public.
func authTypes(sec *openapi3.SecurityRequirements) []model.AuthMode {
	if sec == nil || len(*sec) == 0 {
		return []model.AuthMode{model.AuthNone}
	}
	var modes []model.AuthMode
	seen := map[model.AuthMode]bool{}
	for _, req := range *sec {
		for _, s := range securitySchemes {
			if _, ok := req[s.name]; ok && !seen[s.mode] {
				seen[s.mode] = true
				modes = append(modes, s.mode)
			}
		}
	}
	if len(modes) == 0 {
		return []model.AuthMode{model.AuthNone}
	}
	return modes
}

// mergeParams combines path-level and operation-level parameters; an
// operation parameter replaces a path-level one with the same name and
// location.
func mergeParams(common, own openapi3.Parameters) []model.Parameter {
	var out []model.Parameter
	index := map[string]int{}

	add := func(ref *openapi3.ParameterRef) {
		if ref == nil || ref.Value == nil {
			return
		}
		p := ref.Value
		mp := model.Parameter{
			Name:        p.Name,
			In:          p.In,
			Required:    p.Required,
			Type:        schemaType(p.Schema),
			Description: strings.TrimSpace(p.Description),
		}
		key := p.In + "\x00" + p.Name
		if i, ok := index[key]; ok {
			out[i] = mp
			return
		}
		index[key] = len(out)
		out = append(out, mp)
	}

	for _, p := range common {
		add(p)
	}
	for _, p := range own {
		add(p)
	}
	return out
}

func schemaType(ref *openapi3.SchemaRef) model.ParamType {
	if ref == nil || ref.Value == nil {
		return model.TypeString
	}
	for _, t := range ref.Value.Type.Slice() {
		switch model.ParamType(t) {
		case model.TypeString, model.TypeInteger, model.TypeNumber,
			model.TypeBoolean, model.TypeArray, model.TypeObject:
			return model.ParamType(t)
		}
	}
	return model.TypeString
}

// PathOrder lists the keys of the paths object in document order. JSON is
// read as YAML; input that does not parse yields nil.
func PathOrder(raw []byte) []string {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil || len(root.Content) == 0 {
		return nil
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(top.Content); i += 2 {
		if top.Content[i].Value != "paths" || top.Content[i+1].Kind != yaml.MappingNode {
			continue
		}
		paths := top.Content[i+1].Content
		out := make([]string, 0, len(paths)/2)
		for j := 0; j+1 < len(paths); j += 2 {
			out = append(out, paths[j].Value)
		}
		return out
	}
	return nil
}
