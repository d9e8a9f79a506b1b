// Package gate applies the per-category reporting policy to classified signals.
package gate

import (
	"sync"

	"hbrelay/src/model"
	"hbrelay/src/settings"
)

// Rule reports whether a category is forwarded under a policy.
type Rule func(p settings.Policy) bool

func always(settings.Policy) bool { return true }

var (
	mu    sync.RWMutex
	rules = map[model.Kind]Rule{
		model.KindFatal:       always,
		model.KindNonFatal:    func(p settings.Policy) bool { return p.ReportNonFatal },
		model.KindDeprecation: func(p settings.Policy) bool { return p.ReportDeprecations },
	}
)

// Register installs or replaces the rule for kind.
func Register(kind model.Kind, rule Rule) {
	mu.Lock()
	defer mu.Unlock()
	rules[kind] = rule
}

// ShouldForward applies the category table. A disabled policy forwards
// nothing and kinds without a rule are dropped.
func ShouldForward(kind model.Kind, p settings.Policy) bool {
	if !p.Enabled {
		return false
	}
	mu.RLock()
	rule, ok := rules[kind]
	mu.RUnlock()
	if !ok {
		return false
	}
	return rule(p)
}
