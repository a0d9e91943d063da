// Package parser normalises user-entered category labels.
package parser

import "strings"

// Categories trims each label, drops empty ones and removes repeats while
// keeping the first occurrence's position.
func Categories(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	var out []string
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
