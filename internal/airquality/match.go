package airquality

import "strings"

// MatchLocation reports whether a stored location name and a queried one
// refer to the same place: case-insensitive substring containment in either
// direction. Blank names never match.
func MatchLocation(stored, query string) bool {
	s := strings.ToLower(strings.TrimSpace(stored))
	q := strings.ToLower(strings.TrimSpace(query))
	if s == "" || q == "" {
		return false
	}
	return strings.Contains(s, q) || strings.Contains(q, s)
}
