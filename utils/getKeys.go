package utils

import (
	"sort"
)

// GetKeys returns the keys of m in ascending order.
func GetKeys[M ~map[string]T, T any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
