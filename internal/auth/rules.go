package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// Rule pairs a method + path matcher with the authorities required to pass.
// Rules are evaluated in registration order; the first match wins and
// anything unmatched is denied.
type Rule struct {
	Method string
	Path   string
	// Prefix matches any path under Path instead of the exact path.
	Prefix bool
	// Scope names the required SCOPE_<scope> authority.
	Scope string
	// Roles lists acceptable roles; at least one ROLE_<role> must be held.
	Roles []string
}

func (r Rule) matches(method, path string) bool {
	if r.Method != method {
		return false
	}
	if r.Prefix {
		return strings.HasPrefix(path, r.Path)
	}
	return path == r.Path
}

func (r Rule) allows(a Authorities) bool {
	if r.Scope != "" && !a.HasScope(r.Scope) {
		return false
	}
	if len(r.Roles) > 0 && !a.HasAnyRole(r.Roles...) {
		return false
	}
	return true
}

// DefaultRules is the routing authorization table for the order API.
func DefaultRules() []Rule {
	return []Rule{
		{Method: http.MethodGet, Path: "/api/v1/orders", Scope: "orders.reader",
			Roles: []string{"CUSTOMER", "SELLER", "ADMIN"}},
		{Method: http.MethodGet, Path: "/api/v1/orders/", Prefix: true, Scope: "orders.reader",
			Roles: []string{"SELLER", "ADMIN"}},
		{Method: http.MethodPost, Path: "/api/v1/orders", Scope: "orders.create",
			Roles: []string{"SELLER", "ADMIN"}},
		{Method: http.MethodDelete, Path: "/api/v1/orders/", Prefix: true, Scope: "orders.delete",
			Roles: []string{"ADMIN"}},
	}
}

// Authorize enforces the rule table against the authorities placed on the
// context by the authentication middleware.
func Authorize(rules []Rule, logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authorities := FromContext(r.Context())

			for _, rule := range rules {
				if !rule.matches(r.Method, r.URL.Path) {
					continue
				}
				if rule.allows(authorities) {
					next.ServeHTTP(w, r)
					return
				}
				break
			}

			logger.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"authorities": authorities.List(),
			}).Warn("Request denied")

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"message": "insufficient authorities",
			})
		})
	}
}
