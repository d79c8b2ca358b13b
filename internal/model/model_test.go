package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouteID(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   string
	}{
		{"GET", "/api/status", "route-get--api-status"},
		{"post", "/api/users/{id}/tokens", "route-post--api-users--id--tokens"},
		{"Delete", "/a.b_c", "route-delete--a-b-c"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, RouteID(tt.method, tt.path))
		})
	}

	r := Route{Method: "GET", Path: "/api/status"}
	assert.Equal(t, r.ID(), Route{Method: "get", Path: "/api/status"}.ID())
}

func TestRouteAuthType(t *testing.T) {
	assert.Equal(t, AuthNone, Route{}.AuthType())
	assert.Equal(t, AuthToken, Route{AuthTypes: []AuthMode{AuthToken}}.AuthType())
	assert.Equal(t, AuthMixed, Route{AuthTypes: []AuthMode{AuthToken, AuthSession}}.AuthType())
}

func TestParseAuthMode(t *testing.T) {
	m, ok := ParseAuthMode(" Token ")
	assert.True(t, ok)
	assert.Equal(t, AuthToken, m)

	m, ok = ParseAuthMode("local-only")
	assert.True(t, ok)
	assert.Equal(t, AuthLocalOnly, m)

	_, ok = ParseAuthMode("oauth")
	assert.False(t, ok)
}

func TestErrorIs(t *testing.T) {
	base := errors.New("connection refused")
	err := NewError(KindExecutionFailed, base, "GET /api/status")
	wrapped := fmt.Errorf("try: %w", err)

	assert.ErrorIs(t, wrapped, ErrExecutionFailed)
	assert.ErrorIs(t, wrapped, base)
	assert.NotErrorIs(t, wrapped, ErrInvalidSpec)
	assert.Equal(t, "GET /api/status: connection refused", err.Error())
	assert.Equal(t, "no_specs_available", ErrNoSpecsAvailable.Error())
}
