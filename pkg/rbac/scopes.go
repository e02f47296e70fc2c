package rbac

import (
	"slices"
	"strings"
)

const (
	scopeWildcard  = "*"
	scopeDelimiter = "."
)

// scopeMatches reports whether scope is granted by pattern. "*" matches
// everything and "inventory.*" matches any scope under "inventory.".
func scopeMatches(scope, pattern string) bool {
	if scope == pattern || pattern == scopeWildcard {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, scopeWildcard); ok {
		prefix = strings.TrimSuffix(prefix, scopeDelimiter)
		return strings.HasPrefix(scope, prefix+scopeDelimiter)
	}
	return false
}

func hasScope(granted []string, scope string) bool {
	for _, p := range granted {
		if scopeMatches(scope, p) {
			return true
		}
	}
	return false
}

// normalizeScopes trims, drops empties and duplicates and sorts.
func normalizeScopes(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
