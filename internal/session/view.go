package session

import (
	"makerapi/internal/catalog"
	"makerapi/internal/model"
)

type GroupView struct {
	catalog.Group `yaml:",inline"`
	Collapsed     bool `json:"collapsed" yaml:"collapsed"`
}

// View is the filtered catalog ready for display.
type View struct {
	Filter   catalog.Filter `json:"filter" yaml:"filter"`
	Groups   []GroupView    `json:"groups" yaml:"groups"`
	Filtered []model.Route  `json:"-" yaml:"-"`
	Tags     []string       `json:"tags" yaml:"tags"`
	Methods  []string       `json:"methods" yaml:"methods"`
	Stats    catalog.Stats  `json:"stats" yaml:"stats"`
}

// SetFilter stores f with its tag mapped onto the tag vocabulary, and
// returns the stored filter.
func (s *State) SetFilter(f catalog.Filter) catalog.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.Tag = s.normalizeTag(f.Tag)
	s.filter = f
	return f
}

func (s *State) Filter() catalog.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// normalizeTag must be called with s.mu held. Input with no match is kept
// as typed so the filter shows an empty result instead of everything.
func (s *State) normalizeTag(tag string) string {
	if tag == "" {
		return ""
	}
	if v, ok := catalog.SuggestTag(s.tags, tag); ok {
		return v
	}
	return tag
}

// View applies the current filter. Stats and tags always describe the
// whole catalog.
func (s *State) View() View {
	s.mu.Lock()
	routes := s.routes
	f := s.filter
	tags := s.tags
	s.mu.Unlock()

	filtered := catalog.Apply(routes, f)
	groups := catalog.GroupRoutes(filtered)
	v := View{
		Filter:   f,
		Groups:   make([]GroupView, len(groups)),
		Filtered: filtered,
		Tags:     append([]string(nil), tags...),
		Methods:  catalog.Methods(routes),
		Stats:    catalog.ComputeStats(routes),
	}
	for i, g := range groups {
		v.Groups[i] = GroupView{Group: g, Collapsed: s.SectionCollapsed(g.Name)}
	}
	return v
}

// ToggleSection flips the collapse flag of the named group and returns the
// new state. Without a view-state store nothing is remembered.
func (s *State) ToggleSection(name string) (bool, error) {
	if s.views == nil {
		return false, nil
	}
	return s.views.Toggle(catalog.SectionKey(name))
}

func (s *State) SectionCollapsed(name string) bool {
	if s.views == nil {
		return false
	}
	return s.views.Get(catalog.SectionKey(name))
}
