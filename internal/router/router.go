// Package router selects the wire dialect for a cluster version.
// Selection is rule-based, deterministic, and explainable: the first rule
// that matches the version string wins, and the decision records which rule
// that was.
package router

import (
	"fmt"
	"regexp"
)

// Dialect is one of the three incompatible API generations.
type Dialect int

const (
	// DialectLegacy is 6.x and older: mapping types, no ILM.
	DialectLegacy Dialect = iota
	// DialectV7 is 7.x: typeless by default, include_type_name compatibility.
	DialectV7
	// DialectV8 is 8.x and newer: typeless only.
	DialectV8
)

// String returns the dialect name.
func (d Dialect) String() string {
	switch d {
	case DialectLegacy:
		return "legacy"
	case DialectV7:
		return "v7"
	case DialectV8:
		return "v8"
	default:
		return fmt.Sprintf("dialect(%d)", int(d))
	}
}

// Rule maps matching versions to a dialect.
type Rule struct {
	Name    string
	Dialect Dialect
	Match   func(version string) bool
}

// Decision is the outcome of a selection.
type Decision struct {
	Version string
	Dialect Dialect
	// Rule names the rule that matched.
	Rule string
}

// Explain renders the decision for humans.
func (d Decision) Explain() string {
	v := d.Version
	if v == "" {
		v = "(unknown)"
	}
	return fmt.Sprintf("version %s uses the %s dialect (rule: %s)", v, d.Dialect, d.Rule)
}

// Router holds an ordered rule list.
type Router struct {
	rules    []Rule
	fallback Dialect
}

// NewRouter creates a router with no rules that always selects fallback.
func NewRouter(fallback Dialect) *Router {
	return &Router{fallback: fallback}
}

// AddRule appends a rule. Rules are evaluated in insertion order.
func (r *Router) AddRule(rule Rule) {
	r.rules = append(r.rules, rule)
}

// Select returns the dialect for version.
func (r *Router) Select(version string) Decision {
	for _, rule := range r.rules {
		if rule.Match(version) {
			return Decision{Version: version, Dialect: rule.Dialect, Rule: rule.Name}
		}
	}
	return Decision{Version: version, Dialect: r.fallback, Rule: "default"}
}

func prefix(re string) func(string) bool {
	pattern := regexp.MustCompile(re)
	return pattern.MatchString
}

// below and atLeast never match an unparseable version.
func below(limit string) func(string) bool {
	return func(v string) bool {
		_, ok := ParseVersion(v)
		return ok && Compare(v, limit) < 0
	}
}

func atLeast(limit string) func(string) bool {
	return func(v string) bool {
		_, ok := ParseVersion(v)
		return ok && Compare(v, limit) >= 0
	}
}

// DefaultRouter has the major-version bands first, then semantic version
// bounds for versions outside them, defaulting to the 7.x dialect.
func DefaultRouter() *Router {
	r := NewRouter(DialectV7)
	r.AddRule(Rule{Name: "major 6", Dialect: DialectLegacy, Match: prefix(`^6(\.|$)`)})
	r.AddRule(Rule{Name: "major 7", Dialect: DialectV7, Match: prefix(`^7(\.|$)`)})
	r.AddRule(Rule{Name: "major 8", Dialect: DialectV8, Match: prefix(`^8(\.|$)`)})
	r.AddRule(Rule{Name: "below 6.0.0", Dialect: DialectLegacy, Match: below("6.0.0")})
	r.AddRule(Rule{Name: "9.0.0 or newer", Dialect: DialectV8, Match: atLeast("9.0.0")})
	return r
}

var defaultRouter = DefaultRouter()

// SelectDialect selects with the default rules.
func SelectDialect(version string) Decision {
	return defaultRouter.Select(version)
}
