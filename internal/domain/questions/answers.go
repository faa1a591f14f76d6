package questions

import (
	"slices"
	"strings"
)

// NormalizeAnswers trims, drops empties and duplicates, and sorts, so two
// answer sets compare equal regardless of order.
func NormalizeAnswers(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Matches reports whether the given answers are exactly the correct set.
func Matches(correct, given []string) bool {
	c := NormalizeAnswers(correct)
	if len(c) == 0 {
		return false
	}
	return slices.Equal(c, NormalizeAnswers(given))
}

func cleanOptions(options []string) []string {
	out := make([]string, 0, len(options))
	seen := make(map[string]struct{}, len(options))
	for _, o := range options {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if _, dup := seen[o]; dup {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return out
}
