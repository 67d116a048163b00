package intent

import (
	"strings"

	"github.com/ignite/engage/internal/domain"
)

// urgencyBase is the starting urgency score per intent.
var urgencyBase = map[domain.Intent]float64{
	domain.IntentComplaint: 0.5,
	domain.IntentRefund:    0.5,
	domain.IntentQuestion:  0.3,
	domain.IntentPurchase:  0.3,
	domain.IntentPraise:    0.1,
	domain.IntentSpam:      0.0,
	domain.IntentGeneral:   0.1,
}

// timeKeywordImpacts raise urgency when deadline language appears.
var timeKeywordImpacts = map[string]float64{
	"immediately": 0.3,
	"asap":        0.3,
	"right now":   0.3,
	"urgent":      0.3,
	"today":       0.2,
	"emergency":   0.35,
	"now":         0.15,
}

// emotionImpacts raise urgency when strong emotion appears.
var emotionImpacts = map[string]float64{
	"furious":      0.25,
	"angry":        0.2,
	"outraged":     0.25,
	"disgusted":    0.2,
	"frustrated":   0.15,
	"desperate":    0.2,
	"unacceptable": 0.2,
	"completely":   0.1,
}

// timeEntityBoost applies once when any time entity was extracted.
const timeEntityBoost = 0.2

// Urgency level thresholds (minimal < 0.2 ≤ low < 0.4 ≤ medium < 0.6 ≤ high < 0.8 ≤ critical).
var urgencyLevels = []struct {
	min   float64
	level domain.UrgencyLevel
}{
	{0.8, domain.UrgencyCritical},
	{0.6, domain.UrgencyHigh},
	{0.4, domain.UrgencyMedium},
	{0.2, domain.UrgencyLow},
	{0.0, domain.UrgencyMinimal},
}

// scoreUrgency computes the urgency score and level for the detected intent.
// platformModifier scales the accumulated score; missing modifiers default
// to 1.0 at the caller.
func scoreUrgency(text string, primary domain.Intent, entities []domain.Entity, platformModifier float64) domain.Urgency {
	lower := strings.ToLower(text)

	score := urgencyBase[primary]
	var factors []string

	for kw, impact := range timeKeywordImpacts {
		if strings.Contains(lower, kw) {
			score += impact
			factors = append(factors, "time:"+kw)
		}
	}
	for kw, impact := range emotionImpacts {
		if strings.Contains(lower, kw) {
			score += impact
			factors = append(factors, "emotion:"+kw)
		}
	}
	if hasTimeEntity(entities) {
		score += timeEntityBoost
		factors = append(factors, "time-entity")
	}

	score *= platformModifier
	score = clamp01(score)

	// Map iteration above is per-key; sort factors for determinism
	sortStrings(factors)

	return domain.Urgency{
		Level:   levelFor(score),
		Score:   score,
		Factors: factors,
	}
}

func levelFor(score float64) domain.UrgencyLevel {
	for _, l := range urgencyLevels {
		if score >= l.min {
			return l.level
		}
	}
	return domain.UrgencyMinimal
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
