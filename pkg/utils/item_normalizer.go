package utils

import "strings"

// NormalizeItem returns the canonical form of an item name used for
// feedback and price lookups: trimmed, lowercased, inner whitespace
// collapsed to single spaces. "AA  Batteries " and "aa batteries" share
// one key.
func NormalizeItem(name string) string {
	trimmed := strings.TrimSpace(strings.ToLower(name))
	if trimmed == "" {
		return ""
	}
	return strings.Join(strings.Fields(trimmed), " ")
}
