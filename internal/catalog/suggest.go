package catalog

import (
	"sort"
	"strings"
)

type scoredTag struct {
	tag   string
	score int
}

// fuzzyMatchScore reports whether needle is a case-insensitive subsequence of
// haystack. Separators in needle are ignored. Lower scores mean the matched
// runes sit closer to the start.
func fuzzyMatchScore(needle, haystack string) (int, bool) {
	want := []rune(strings.ToLower(strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '_' {
			return -1
		}
		return r
	}, needle)))
	if len(want) == 0 {
		return 0, true
	}

	score, j := 0, 0
	for i, r := range []rune(strings.ToLower(haystack)) {
		if j == len(want) {
			break
		}
		if r == want[j] {
			score += i
			j++
		}
	}
	if j != len(want) {
		return 0, false
	}
	return score, true
}

// SuggestTag maps free-form tag input onto the vocabulary so CLI and TUI
// filters compare against the same display names. Exact matches (after
// FormatName, ignoring case) win; otherwise the best subsequence match is
// returned. ok is false when nothing in vocab matches.
func SuggestTag(vocab []string, input string) (string, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", true
	}
	formatted := FormatName(input)
	for _, v := range vocab {
		if strings.EqualFold(v, formatted) || strings.EqualFold(v, input) {
			return v, true
		}
	}

	var matches []scoredTag
	for _, v := range vocab {
		if score, ok := fuzzyMatchScore(input, v); ok {
			matches = append(matches, scoredTag{tag: v, score: score})
		}
	}
	if len(matches) == 0 {
		return "", false
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score < matches[j].score
		}
		return len(matches[i].tag) < len(matches[j].tag)
	})
	return matches[0].tag, true
}

// RankTags orders vocab by fuzzy match against input, dropping non-matches.
// An empty input returns vocab unchanged.
func RankTags(vocab []string, input string) []string {
	if strings.TrimSpace(input) == "" {
		return vocab
	}
	var matches []scoredTag
	for _, v := range vocab {
		if score, ok := fuzzyMatchScore(input, v); ok {
			matches = append(matches, scoredTag{tag: v, score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score < matches[j].score })
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.tag
	}
	return out
}
