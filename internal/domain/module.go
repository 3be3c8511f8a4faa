package domain

import "strings"

// Module is a routable screen gated by permissions.
type Module struct {
	ID          string `json:"id"`
	DisplayName string `json:"name"`
	Route       string `json:"route"`
	ExactMatch  bool   `json:"exact"`
}

// MatchesPath applies the module's route rule to path. The root route only
// ever matches itself, otherwise every path would satisfy it.
func (m Module) MatchesPath(path string) bool {
	if m.ExactMatch {
		return m.Route == path
	}
	if m.Route == path {
		return true
	}
	return m.Route != "/" && strings.HasPrefix(path, m.Route)
}
