package auth

import (
	"sync"

	"makerapi/internal/model"
)

// TokenStore holds the discovered tokens and the single current token value
// shared by every route.
type TokenStore struct {
	mu       sync.RWMutex
	tokens   []model.Token
	selected string
	current  string
}

func NewTokenStore(initial string) *TokenStore {
	return &TokenStore{current: initial}
}

func (s *TokenStore) Tokens() []model.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Token(nil), s.tokens...)
}

// SetTokens replaces the discovered list. A selection that no longer exists
// falls back to manual entry with the value kept.
func (s *TokenStore) SetTokens(tokens []model.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = append([]model.Token(nil), tokens...)
	if s.selected != "" && s.find(s.selected) < 0 {
		s.selected = ""
	}
}

// SelectToken makes the named discovered token current.
func (s *TokenStore) SelectToken(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(name)
	if i < 0 {
		return false
	}
	s.selected = name
	s.current = s.tokens[i].Value
	return true
}

// SetManual stores a typed value and drops any addressed selection.
func (s *TokenStore) SetManual(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = ""
	s.current = value
}

// SelectManual switches to manual entry, clearing the current value.
func (s *TokenStore) SelectManual() {
	s.SetManual("")
}

// Current returns the token value and, when it came from the discovered
// list, that token's name.
func (s *TokenStore) Current() (value, name string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.selected
}

func (s *TokenStore) find(name string) int {
	for i, t := range s.tokens {
		if t.Name == name {
			return i
		}
	}
	return -1
}
