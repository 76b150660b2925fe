package auth

import (
	"strings"
)

// scopePrefix is the allow-list prefix for scope claims. Tokens carrying
// scopes outside this namespace get no scope authorities; the match is
// case sensitive.
const scopePrefix = "https://api.ekart.com/orders/"

// Authorities is the set of role and scope permissions derived from a
// verified token. It is rebuilt per request and never persisted.
type Authorities map[string]struct{}

func (a Authorities) add(name string) {
	a[name] = struct{}{}
}

func (a Authorities) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// HasScope reports whether the set contains SCOPE_<name>.
func (a Authorities) HasScope(name string) bool {
	return a.Has("SCOPE_" + name)
}

// HasAnyRole reports whether the set contains ROLE_<r> for any given role.
func (a Authorities) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if a.Has("ROLE_" + role) {
			return true
		}
	}
	return false
}

// List returns the authority names in no particular order.
func (a Authorities) List() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	return names
}

// RolesFromGroups maps each group claim value to ROLE_<GROUP-UPPERCASED>.
func RolesFromGroups(groups []string) Authorities {
	authorities := Authorities{}
	for _, group := range groups {
		authorities.add("ROLE_" + strings.ToUpper(group))
	}
	return authorities
}

// ScopesFromClaim splits a space-delimited scope claim and maps each token
// under the orders namespace to SCOPE_orders.<suffix>, where suffix is the
// part after the last slash. Tokens outside the namespace are dropped.
func ScopesFromClaim(scope string) Authorities {
	authorities := Authorities{}
	for _, token := range strings.Split(scope, " ") {
		if !strings.HasPrefix(token, scopePrefix) {
			continue
		}
		suffix := token[strings.LastIndex(token, "/")+1:]
		authorities.add("SCOPE_orders." + suffix)
	}
	return authorities
}

// FromClaims derives the full authority set from a decoded claim map.
// Absent or malformed claims contribute nothing; they never produce an
// error.
func FromClaims(claims map[string]interface{}) Authorities {
	authorities := Authorities{}

	if raw, ok := claims["cognito:groups"].([]interface{}); ok {
		groups := make([]string, 0, len(raw))
		for _, g := range raw {
			if s, ok := g.(string); ok {
				groups = append(groups, s)
			}
		}
		for name := range RolesFromGroups(groups) {
			authorities.add(name)
		}
	}

	if scope, ok := claims["scope"].(string); ok {
		for name := range ScopesFromClaim(scope) {
			authorities.add(name)
		}
	}

	return authorities
}
