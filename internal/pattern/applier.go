package pattern

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/ledger/internal/model"
)

// Applier categorizes transactions with the best matching rule.
type Applier struct {
	matcher    Matcher
	validator  TransactionValidator
	categories map[int64]model.Category
}

// NewApplier creates an applier. Rules pointing at categories outside
// categories are skipped.
func NewApplier(matcher Matcher, validator TransactionValidator, categories []model.Category) *Applier {
	byID := make(map[int64]model.Category, len(categories))
	for _, cat := range categories {
		byID[cat.ID] = cat
	}
	return &Applier{
		matcher:    matcher,
		validator:  validator,
		categories: byID,
	}
}

// Apply sets CategoryID on each uncategorized transaction that a rule matches
// and returns how many transactions every rule categorized, keyed by rule id.
func (a *Applier) Apply(ctx context.Context, txns []model.NewTransaction) (map[int64]int, error) {
	used := make(map[int64]int)

	for i := range txns {
		if txns[i].CategoryID != nil {
			continue
		}

		rules, err := a.matcher.Match(ctx, txns[i])
		if err != nil {
			return nil, fmt.Errorf("failed to match rules: %w", err)
		}

		for _, rule := range rules {
			cat, ok := a.categories[rule.CategoryID]
			if !ok {
				continue
			}
			if err := a.validator.ValidateCategory(ctx, txns[i], cat); err != nil {
				slog.Debug("rule category does not fit transaction", "rule", rule.Name, "error", err)
				continue
			}
			id := cat.ID
			txns[i].CategoryID = &id
			used[rule.ID]++
			break
		}
	}

	return used, nil
}
