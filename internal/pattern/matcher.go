package pattern

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/Veraticus/ledger/internal/model"
)

// MatcherImpl implements Matcher for evaluating category rules.
type MatcherImpl struct {
	compiledRegex map[int64]*regexp.Regexp
	rules         []Rule
}

// NewMatcher creates a matcher over rules. Regex rules that fail to compile never match.
func NewMatcher(rules []Rule) *MatcherImpl {
	m := &MatcherImpl{
		rules:         rules,
		compiledRegex: make(map[int64]*regexp.Regexp),
	}

	for _, rule := range rules {
		if !rule.IsRegex || rule.Pattern == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			slog.Warn("ignoring rule with invalid pattern", "rule", rule.Name, "error", err)
			continue
		}
		m.compiledRegex[rule.ID] = re
	}

	return m
}

// Match returns every rule the transaction satisfies, highest priority first.
// Rules of equal priority keep their input order.
func (m *MatcherImpl) Match(ctx context.Context, txn model.NewTransaction) ([]Rule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var matches []Rule
	for _, rule := range m.rules {
		if m.matchesRule(txn, rule) {
			matches = append(matches, rule)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Priority > matches[j].Priority
	})
	return matches, nil
}

func (m *MatcherImpl) matchesRule(txn model.NewTransaction, rule Rule) bool {
	if rule.Type != nil && txn.Type != *rule.Type {
		return false
	}
	return m.matchesDescription(txn, rule) && matchesAmount(txn, rule)
}

// matchesDescription compares case-insensitively. Plain patterns match as substrings.
func (m *MatcherImpl) matchesDescription(txn model.NewTransaction, rule Rule) bool {
	if rule.Pattern == "" {
		return true
	}

	if rule.IsRegex {
		re, ok := m.compiledRegex[rule.ID]
		return ok && re.MatchString(txn.Description)
	}

	return strings.Contains(strings.ToLower(txn.Description), strings.ToLower(rule.Pattern))
}

func matchesAmount(txn model.NewTransaction, rule Rule) bool {
	amount := txn.Amount

	switch rule.AmountCondition {
	case "", model.AmountAny:
		return true
	case model.AmountLessThan:
		return rule.AmountValue != nil && amount.LessThan(*rule.AmountValue)
	case model.AmountLessEqual:
		return rule.AmountValue != nil && amount.LessThanOrEqual(*rule.AmountValue)
	case model.AmountEqual:
		return rule.AmountValue != nil && amount.Equal(*rule.AmountValue)
	case model.AmountGreaterEqual:
		return rule.AmountValue != nil && amount.GreaterThanOrEqual(*rule.AmountValue)
	case model.AmountGreaterThan:
		return rule.AmountValue != nil && amount.GreaterThan(*rule.AmountValue)
	case model.AmountRange:
		if rule.AmountMin != nil && amount.LessThan(*rule.AmountMin) {
			return false
		}
		if rule.AmountMax != nil && amount.GreaterThan(*rule.AmountMax) {
			return false
		}
		return true
	}

	return false
}
