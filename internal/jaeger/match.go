package jaeger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IsPattern reports whether s holds glob metacharacters.
func IsPattern(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

// MatchServices returns the services matching the glob pattern, sorted.
func MatchServices(services []string, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid service pattern %q", pattern)
	}

	var matched []string
	for _, s := range services {
		if ok, _ := doublestar.Match(pattern, s); ok {
			matched = append(matched, s)
		}
	}
	sort.Strings(matched)
	return matched, nil
}
