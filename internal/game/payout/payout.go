// Package payout implements the static payout table: dice pair to winning
// category, and category to multiplier.
package payout

import (
	"errors"
	"fmt"

	"dice-bet-bot/internal/model"
)

// Errors for payout table validation and resolution.
var (
	ErrUnknownCategory = errors.New("category not in payout table")
	ErrInvalidDice     = errors.New("die value must be between 1 and 6")
)

// Multiplier is a non-negative rational payout multiplier. Payouts
// truncate toward zero, so the point economy stays integral.
type Multiplier struct {
	Num int64
	Den int64
}

// Apply returns floor(amount * multiplier).
func (m Multiplier) Apply(amount int64) int64 {
	return amount * m.Num / m.Den
}

// Float returns the multiplier as a float for display purposes only.
func (m Multiplier) Float() float64 {
	return float64(m.Num) / float64(m.Den)
}

// Rule maps a contiguous range of dice sums to a category.
type Rule struct {
	Category model.Category
	MinSum   int
	MaxSum   int
}

// Table is the static payout configuration. It is never mutated at
// runtime; Validate must pass before a Table is used.
type Table struct {
	rules       []Rule
	multipliers map[model.Category]Multiplier
}

// New creates a payout table from the given rules and multipliers.
func New(rules []Rule, multipliers map[model.Category]Multiplier) *Table {
	t := &Table{
		rules:       make([]Rule, len(rules)),
		multipliers: make(map[model.Category]Multiplier, len(multipliers)),
	}
	copy(t.rules, rules)
	for cat, m := range multipliers {
		t.multipliers[cat] = m
	}
	return t
}

// Default returns the standard table: SMALL (sum 2-6, x2),
// LUCKY (sum 7, x5), BIG (sum 8-12, x2).
func Default() *Table {
	return New(
		[]Rule{
			{Category: model.CategorySmall, MinSum: 2, MaxSum: 6},
			{Category: model.CategoryLucky, MinSum: 7, MaxSum: 7},
			{Category: model.CategoryBig, MinSum: 8, MaxSum: 12},
		},
		map[model.Category]Multiplier{
			model.CategorySmall: {Num: 2, Den: 1},
			model.CategoryLucky: {Num: 5, Den: 1},
			model.CategoryBig:   {Num: 2, Den: 1},
		},
	)
}

// Known reports whether the category is present in the table.
func (t *Table) Known(cat model.Category) bool {
	_, ok := t.multipliers[cat]
	return ok
}

// Resolve maps a dice pair to its winning category. It is total over
// all 36 combinations once Validate has passed.
func (t *Table) Resolve(d1, d2 int) (model.Category, error) {
	if d1 < 1 || d1 > 6 || d2 < 1 || d2 > 6 {
		return "", ErrInvalidDice
	}
	sum := d1 + d2
	for _, r := range t.rules {
		if sum >= r.MinSum && sum <= r.MaxSum {
			return r.Category, nil
		}
	}
	return "", fmt.Errorf("no category for dice sum %d", sum)
}

// MultiplierFor returns the multiplier for a category.
func (t *Table) MultiplierFor(cat model.Category) (Multiplier, error) {
	m, ok := t.multipliers[cat]
	if !ok {
		return Multiplier{}, ErrUnknownCategory
	}
	return m, nil
}

// Payout returns floor(amount * multiplierFor(category)).
func (t *Table) Payout(amount int64, cat model.Category) (int64, error) {
	m, err := t.MultiplierFor(cat)
	if err != nil {
		return 0, err
	}
	return m.Apply(amount), nil
}

// MaxMultiplier returns the largest multiplier in the table.
func (t *Table) MaxMultiplier() Multiplier {
	var best Multiplier
	for _, m := range t.multipliers {
		if best.Den == 0 || m.Num*best.Den > best.Num*m.Den {
			best = m
		}
	}
	return best
}

// Validate checks the table's completeness and exclusivity invariants:
// every dice pair maps to exactly one category, every rule category has
// a multiplier, and every multiplier is well-formed and non-negative.
// Called once at startup, not per roll.
func (t *Table) Validate() error {
	if len(t.rules) == 0 {
		return errors.New("payout table has no rules")
	}

	for cat, m := range t.multipliers {
		if m.Den <= 0 {
			return fmt.Errorf("category %s: multiplier denominator must be positive", cat)
		}
		if m.Num < 0 {
			return fmt.Errorf("category %s: multiplier must not be negative", cat)
		}
	}

	ruleCats := make(map[model.Category]bool)
	for _, r := range t.rules {
		ruleCats[r.Category] = true
		if _, ok := t.multipliers[r.Category]; !ok {
			return fmt.Errorf("category %s has a rule but no multiplier", r.Category)
		}
	}
	for cat := range t.multipliers {
		if !ruleCats[cat] {
			return fmt.Errorf("category %s has a multiplier but no rule", cat)
		}
	}

	for d1 := 1; d1 <= 6; d1++ {
		for d2 := 1; d2 <= 6; d2++ {
			sum := d1 + d2
			matches := 0
			for _, r := range t.rules {
				if sum >= r.MinSum && sum <= r.MaxSum {
					matches++
				}
			}
			if matches == 0 {
				return fmt.Errorf("dice pair (%d,%d) maps to no category", d1, d2)
			}
			if matches > 1 {
				return fmt.Errorf("dice pair (%d,%d) maps to %d categories", d1, d2, matches)
			}
		}
	}

	return nil
}
