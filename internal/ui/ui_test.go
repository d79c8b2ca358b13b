package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makerapi/internal/catalog"
	"makerapi/internal/model"
	"makerapi/internal/session"
)

func TestBuildRows(t *testing.T) {
	status := model.Route{Method: "GET", Path: "/api/status"}
	led := model.Route{Method: "POST", Path: "/api/led"}
	v := session.View{Groups: []session.GroupView{
		{Group: catalog.Group{Name: "Gpio", Routes: []model.Route{led}}, Collapsed: true},
		{Group: catalog.Group{Name: "Platform", Routes: []model.Route{status}}},
	}}

	rows := buildRows(v)
	require.Len(t, rows, 3)
	assert.True(t, rows[0].isSection())
	assert.True(t, rows[0].collapsed)
	assert.Equal(t, 1, rows[0].count)
	assert.Equal(t, "Platform", rows[1].section)
	require.False(t, rows[2].isSection())
	assert.Equal(t, "/api/status", rows[2].route.Path)
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		text   string
		method string
		want   catalog.Filter
	}{
		{"", "", catalog.Filter{}},
		{"wifi scan", "", catalog.Filter{Search: "wifi scan"}},
		{"#gpio led", "POST", catalog.Filter{Search: "led", Tag: "gpio", Method: "POST"}},
		{"led #gpio #other", "", catalog.Filter{Search: "led #other", Tag: "gpio"}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, parseFilter(tt.text, tt.method))
		})
	}

	partial, ok := tagInput("led #gp")
	assert.True(t, ok)
	assert.Equal(t, "gp", partial)
	_, ok = tagInput("led")
	assert.False(t, ok)
}

func TestCycling(t *testing.T) {
	methods := []string{"GET", "POST"}
	assert.Equal(t, "GET", nextMethod(methods, ""))
	assert.Equal(t, "POST", nextMethod(methods, "GET"))
	assert.Equal(t, "", nextMethod(methods, "POST"))
	assert.Equal(t, "", nextMethod(nil, ""))

	specs := []model.SpecDescriptor{{ID: "full"}, {ID: "maker"}}
	assert.Equal(t, "maker", nextSpec(specs, "full"))
	assert.Equal(t, "full", nextSpec(specs, "maker"))
	assert.Equal(t, "full", nextSpec(specs, ""))
	assert.Equal(t, "", nextSpec(nil, "full"))

	tokens := []model.Token{{Name: "ci"}, {Name: "dev"}}
	assert.Equal(t, "ci", nextToken(tokens, ""))
	assert.Equal(t, "dev", nextToken(tokens, "ci"))
	assert.Equal(t, "ci", nextToken(tokens, "dev"))
	assert.Equal(t, "", nextToken(nil, "ci"))
}

func TestRouteInput(t *testing.T) {
	r := model.Route{
		Method:     "POST",
		Path:       "/api/led/{id}",
		Parameters: []model.Parameter{{Name: "id", In: "path", Required: true}, {Name: "dry", In: "query"}},
		Body:       &model.RequestBody{ContentType: "application/json", Template: "{\n  \"on\": true\n}"},
	}

	in := newRouteInput(r)
	require.NotNil(t, in.body)
	assert.Equal(t, r.Body.Template, *in.body)

	in.params = in.params.Set("id", "3")
	got := in.session()
	assert.Equal(t, "3", got.Params[0].Value)
	assert.Equal(t, "", got.Auth)

	rows := paramRows(r)
	require.Len(t, rows, 3)
	assert.Equal(t, "*id (path)", rows[0].label())
	assert.Equal(t, " dry (query)", rows[1].label())
	assert.Equal(t, "body", rows[2].label())

	assert.Nil(t, newRouteInput(model.Route{Method: "GET"}).body)
	assert.Empty(t, paramRows(model.Route{Method: "GET"}))
}

func TestEditorCommand(t *testing.T) {
	args, err := editorCommand(`code --wait "--user-data-dir=/tmp/my dir"`, "nano")
	require.NoError(t, err)
	assert.Equal(t, []string{"code", "--wait", "--user-data-dir=/tmp/my dir"}, args)

	args, err = editorCommand("", "nano -w")
	require.NoError(t, err)
	assert.Equal(t, []string{"nano", "-w"}, args)

	args, err = editorCommand(" ", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"vi"}, args)
}

func TestColors(t *testing.T) {
	assert.Equal(t, colorGreen+"200 OK"+colorReset, colorizeStatus(200, "OK"))
	assert.Equal(t, colorYellow+"404 Not Found"+colorReset, colorizeStatus(404, "Not Found"))
	assert.Equal(t, colorRed+"503 Service Unavailable"+colorReset, colorizeStatus(503, "Service Unavailable"))
	assert.Equal(t, "/api/users/"+colorCyan+"{id}"+colorReset, highlightPathParams("/api/users/{id}"))
	assert.Equal(t, colorBlue+"GET   "+colorReset, colorizeMethod("GET"))
}
