package stream

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/logging"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/models"
)

// ErrNoKeywords reports a rule whose keyword list is empty after trimming.
var ErrNoKeywords = errors.New("stream rule needs at least one keyword")

// NormalizeKeywords trims keywords and drops blank ones, preserving order
// and casing. Rules are persisted with the caller's casing; matching
// lower-cases separately.
func NormalizeKeywords(keywords []string) ([]string, error) {
	cleaned := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			cleaned = append(cleaned, kw)
		}
	}
	if len(cleaned) == 0 {
		return nil, ErrNoKeywords
	}
	return cleaned, nil
}

// compiledRule is an immutable, match-ready form of a stream rule. Keywords
// are lower-cased once at compile time.
type compiledRule struct {
	id       string
	name     string
	keywords []string
}

// Matcher evaluates post content against the active stream rules. Matching
// happens on every generated post while rules change rarely, so the active
// set is an immutable snapshot swapped atomically; readers never take a lock.
type Matcher struct {
	rules  atomic.Value // []compiledRule
	mu     sync.Mutex   // serializes writers
	logger logging.Logger
}

// NewMatcher creates a matcher with no active rules.
func NewMatcher(logger logging.Logger) *Matcher {
	m := &Matcher{logger: logger}
	m.rules.Store([]compiledRule{})
	return m
}

// SetRules replaces the whole active set, e.g. when loading persisted rules
// on boot.
func (m *Matcher) SetRules(rules []models.StreamRule) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		if cr, ok := compile(r); ok {
			compiled = append(compiled, cr)
		}
	}

	m.mu.Lock()
	m.rules.Store(compiled)
	m.mu.Unlock()

	m.logger.WithField("rule_count", len(compiled)).Info("Stream rules loaded")
}

// AddRule activates a rule for all posts created from now on.
func (m *Matcher) AddRule(rule models.StreamRule) {
	cr, ok := compile(rule)
	if !ok {
		m.logger.WithField("rule_id", rule.ID).Warn("Ignoring stream rule without usable keywords")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.snapshot()
	next := make([]compiledRule, 0, len(current)+1)
	next = append(next, current...)
	next = append(next, cr)
	m.rules.Store(next)

	m.logger.WithFields(logging.Fields{
		"rule_id":   rule.ID,
		"rule_name": rule.Name,
		"keywords":  cr.keywords,
	}).Info("Stream rule activated")
}

// RemoveRule deactivates a rule. Matches already delivered are not recalled;
// removal only affects posts created afterwards.
func (m *Matcher) RemoveRule(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.snapshot()
	next := make([]compiledRule, 0, len(current))
	for _, cr := range current {
		if cr.id != id {
			next = append(next, cr)
		}
	}
	m.rules.Store(next)
}

// Match returns the ids of every active rule with at least one keyword
// contained in the post content. Matching is case-insensitive; the returned
// slice is nil when nothing matches.
func (m *Matcher) Match(content string) []string {
	lowered := strings.ToLower(content)

	var matched []string
	for _, cr := range m.snapshot() {
		for _, kw := range cr.keywords {
			if strings.Contains(lowered, kw) {
				matched = append(matched, cr.id)
				break
			}
		}
	}
	return matched
}

// Rules returns the active set in activation order.
func (m *Matcher) Rules() []models.StreamRule {
	snapshot := m.snapshot()
	rules := make([]models.StreamRule, 0, len(snapshot))
	for _, cr := range snapshot {
		rules = append(rules, models.StreamRule{
			ID:       cr.id,
			Name:     cr.name,
			Keywords: append([]string(nil), cr.keywords...),
		})
	}
	return rules
}

// Count returns the number of active rules.
func (m *Matcher) Count() int {
	return len(m.snapshot())
}

func (m *Matcher) snapshot() []compiledRule {
	return m.rules.Load().([]compiledRule)
}

// compile lower-cases and prunes a rule's keywords. A rule with no usable
// keywords never matches, so it is not worth carrying.
func compile(rule models.StreamRule) (compiledRule, bool) {
	keywords := make([]string, 0, len(rule.Keywords))
	for _, kw := range rule.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) == 0 {
		return compiledRule{}, false
	}
	return compiledRule{id: rule.ID, name: rule.Name, keywords: keywords}, true
}
