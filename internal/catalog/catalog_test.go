package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makerapi/internal/model"
)

func sample() []model.Route {
	return []model.Route{
		{Method: "GET", Path: "/api/status", Summary: "Device status", Module: "Platform", Tags: []string{"Platform"}, AuthTypes: []model.AuthMode{model.AuthNone}},
		{Method: "GET", Path: "/api/users/{id}", Summary: "Get user", Module: "user-management", Tags: []string{"user-management"}, AuthTypes: []model.AuthMode{model.AuthSession}},
		{Method: "POST", Path: "/api/tokens", Summary: "Create token", Module: "tokens", Tags: []string{"tokens", "user_management"}, AuthTypes: []model.AuthMode{model.AuthToken, model.AuthSession}},
		{Method: "DELETE", Path: "/api/users/{id}", Description: "Remove a user", Module: "user-management", Tags: []string{"user-management"}, AuthTypes: []model.AuthMode{model.AuthSession}},
		{Method: "PUT", Path: "/api/wifi", Summary: "Configure WiFi", Module: "wifi", Tags: []string{"wifi"}, AuthTypes: []model.AuthMode{model.AuthLocalOnly}},
	}
}

func paths(routes []model.Route) []string {
	var out []string
	for _, r := range routes {
		out = append(out, r.Method+" "+r.Path)
	}
	return out
}

func TestApply(t *testing.T) {
	routes := sample()

	tests := []struct {
		name string
		f    Filter
		want []string
	}{
		{"zero", Filter{}, paths(routes)},
		{"search path", Filter{Search: "  USERS "}, []string{"GET /api/users/{id}", "DELETE /api/users/{id}"}},
		{"search description fallback", Filter{Search: "remove a"}, []string{"DELETE /api/users/{id}"}},
		{"search method", Filter{Search: "put"}, []string{"PUT /api/wifi"}},
		{"search tag", Filter{Search: "user_management"}, []string{"POST /api/tokens"}},
		{"tag formatted", Filter{Tag: "User Management"}, []string{"GET /api/users/{id}", "POST /api/tokens", "DELETE /api/users/{id}"}},
		{"tag raw", Filter{Tag: "WIFI"}, []string{"PUT /api/wifi"}},
		{"method", Filter{Method: "get"}, []string{"GET /api/status", "GET /api/users/{id}"}},
		{"combined", Filter{Search: "user", Tag: "User Management", Method: "DELETE"}, []string{"DELETE /api/users/{id}"}},
		{"none", Filter{Search: "nothing-here"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, paths(Apply(routes, tt.f)))
		})
	}
}

func TestApplyIdempotent(t *testing.T) {
	routes := sample()
	for _, f := range []Filter{{}, {Search: "api"}, {Tag: "Tokens"}, {Method: "GET", Search: "user"}} {
		once := Apply(routes, f)
		assert.Equal(t, once, Apply(once, f))
	}
}

func TestApplyDoesNotMutate(t *testing.T) {
	routes := sample()
	before := paths(routes)
	Apply(routes, Filter{Method: "POST"})
	assert.Equal(t, before, paths(routes))
}

func TestFormatName(t *testing.T) {
	tests := map[string]string{
		"user-management": "User Management",
		"user_management": "User Management",
		"wifi":            "Wifi",
		"WiFi":            "WiFi",
		"Web Platform":    "Web Platform",
		"a--b":            "A B",
		"user.profile":    "User Profile",
		"2fa":             "2fa",
		"ota/update v2":   "Ota Update V2",
		"émetteur":        "Émetteur",
		"":                "",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatName(in), in)
	}
}

func TestSectionKey(t *testing.T) {
	assert.Equal(t, "section-user-management", SectionKey("User Management"))
	assert.Equal(t, "section-web-platform-2", SectionKey("Web Platform 2"))
}

func TestGroupRoutes(t *testing.T) {
	groups := GroupRoutes(sample())
	require.Len(t, groups, 4)

	var names []string
	for _, g := range groups {
		names = append(names, g.Name)
	}
	assert.Equal(t, []string{"Platform", "User Management", "Tokens", "Wifi"}, names)
	assert.Equal(t, "section-user-management", groups[1].Key)
	assert.Equal(t, []string{"GET /api/users/{id}", "DELETE /api/users/{id}"}, paths(groups[1].Routes))
}

func TestTagVocabulary(t *testing.T) {
	assert.Equal(t, []string{"Platform", "Tokens", "User Management", "Wifi"}, TagVocabulary(sample()))
	assert.Empty(t, TagVocabulary(nil))
}

func TestComputeStats(t *testing.T) {
	assert.Equal(t, Stats{TotalRoutes: 5, TotalModules: 4, PublicRoutes: 1, ProtectedRoutes: 4}, ComputeStats(sample()))
	assert.Equal(t, Stats{}, ComputeStats(nil))
}

func TestMethods(t *testing.T) {
	assert.Equal(t, []string{"GET", "POST", "DELETE", "PUT"}, Methods(sample()))
}

func TestSuggestTag(t *testing.T) {
	vocab := TagVocabulary(sample())

	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"", "", true},
		{"user-management", "User Management", true},
		{"tokens", "Tokens", true},
		{"usrmgmt", "User Management", true},
		{"wf", "Wifi", true},
		{"zzz", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := SuggestTag(vocab, tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRankTags(t *testing.T) {
	vocab := []string{"Platform", "Tokens", "User Management", "Wifi"}
	assert.Equal(t, vocab, RankTags(vocab, " "))
	assert.Equal(t, []string{"Tokens"}, RankTags(vocab, "tok"))
	assert.Equal(t, []string{"Platform", "User Management"}, RankTags(vocab, "at"))
}
