// Package rules implements ordered (condition, value) rule lists and flat
// symbol tables.
//
// A List is scanned in declared order and the first rule whose condition holds
// wins; a list with no matching rule yields "". A Table is an exact-key lookup
// that yields "" for missing keys. Neither ever fails.
package rules

import (
	"kwangun/internal/predicate"
	"kwangun/internal/types"
)

// Rule pairs a category expression with the value it selects.
type Rule struct {
	When string `yaml:"when" json:"when"`
	Then string `yaml:"then" json:"then"`
}

// List is an ordered rule list. Order is significant: first match wins.
type List []Rule

// Match returns the first rule whose condition holds, its index, and whether
// any rule matched.
func (l List) Match(ev *predicate.Evaluator, r types.Record) (Rule, int, bool) {
	for i, rule := range l {
		if ev.Is(r, rule.When) {
			return rule, i, true
		}
	}
	return Rule{}, -1, false
}

// ResolveWith returns the value of the first matching rule under ev, or "".
func (l List) ResolveWith(ev *predicate.Evaluator, r types.Record) string {
	rule, _, ok := l.Match(ev, r)
	if !ok {
		return ""
	}
	return rule.Then
}

// Resolve returns the value of the first rule in l matching r under the base
// catalog, or "" when none matches.
func Resolve(r types.Record, l List) string {
	return l.ResolveWith(predicate.Default(), r)
}

// Conditions returns the rule conditions in order.
func (l List) Conditions() []string {
	out := make([]string, len(l))
	for i, rule := range l {
		out[i] = rule.When
	}
	return out
}

// Table is an immutable symbol table keyed by a single feature value.
type Table map[string]string

// Lookup returns the symbol for key, or "" when the key is missing.
func (t Table) Lookup(key string) string {
	return t[key]
}

// LookupFeature looks up the record's value of f.
func (t Table) LookupFeature(r types.Record, f types.Feature) string {
	v, ok := r.Get(f)
	if !ok {
		return ""
	}
	return t[v]
}

// Has reports whether key has an entry, including entries mapped to "".
func (t Table) Has(key string) bool {
	_, ok := t[key]
	return ok
}

// Merge returns a new table with the entries of overrides applied over t.
func (t Table) Merge(overrides Table) Table {
	out := make(Table, len(t)+len(overrides))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}
