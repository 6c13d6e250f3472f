// Package commission resolves effective commission rates and computes
// commission amounts. Resolution is deterministic over a fixed rule set;
// malformed rules are rejected at write time, never here.
package commission

import (
	"math"
	"sort"

	"github.com/partnerhub/attribution-service/internal/models"
)

// ResolveRate maps a (partner, deal) pair to the effective commission rate as
// a 0-1 fraction. Rules are evaluated in ascending priority order and the
// first rule whose set filters all match wins; priority ties break by
// creation time, then ID, so resolution is never ambiguous. When no rule
// matches, the partner's own default rate applies. That fallback is designed
// behavior, not an error path.
func ResolveRate(partner *models.Partner, deal *models.Deal, rules []models.CommissionRule) float64 {
	ordered := make([]models.CommissionRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority < ordered[j].Priority
		}
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID.String() < ordered[j].ID.String()
	})

	for i := range ordered {
		rule := &ordered[i]
		if !rule.Active {
			continue
		}
		if rule.Matches(partner, deal) {
			return rule.Rate
		}
	}

	return partner.CommissionRate / 100
}

// Amount computes the commission owed on an attributed amount at the resolved
// rate, rounded to the cent.
func Amount(attributedAmount, rate float64) float64 {
	return math.Round(attributedAmount*rate*100) / 100
}
