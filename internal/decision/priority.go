package decision

import (
	"fmt"
	"math"
	"sort"

	"github.com/ignite/engage/internal/config"
	"github.com/ignite/engage/internal/domain"
	"github.com/ignite/engage/internal/pkg/clock"
)

// scorerVersion tags PriorityScore metadata for downstream consumers.
const scorerVersion = "2.0"

const (
	shortTextChars       = 10
	confidencePenalty    = 0.8
	reachFollowerCeiling = 1_000_000 // log scale saturates here
	verifiedReachBoost   = 0.15
)

// PriorityScorer computes the weighted composite priority for an event.
// Components are raw [0,1] values; the configured weights are applied
// exactly once in the outer composite.
type PriorityScorer struct {
	cfg   config.PriorityConfig
	clock clock.Clock
}

func NewPriorityScorer(cfg config.PriorityConfig, clk clock.Clock) *PriorityScorer {
	return &PriorityScorer{cfg: cfg, clock: clk}
}

// Score computes the priority for an event given its analysis results.
func (s *PriorityScorer) Score(event *domain.SocialEvent, sent *domain.SentimentResult, intent *domain.IntentResult, brand *domain.BrandContext) domain.PriorityScore {
	now := s.clock.Now()
	ageHours := event.AgeAt(now).Hours()

	components := domain.PriorityComponents{
		Urgency:   intent.Urgency.Score,
		Impact:    impactComponent(event),
		Sentiment: sentimentComponent(sent),
		Reach:     reachComponent(event),
		BrandRisk: brandRiskComponent(sent, intent, brand),
	}

	w := s.cfg.Weights
	composite := w.Urgency*components.Urgency +
		w.Impact*components.Impact +
		w.Sentiment*components.Sentiment +
		w.Reach*components.Reach +
		w.BrandRisk*components.BrandRisk

	decay := math.Pow(s.cfg.DecayBase, ageHours/s.cfg.DecayPeriodHours)
	overall := composite * 100 * decay

	var modifiers []string
	if overall < s.cfg.MinScore {
		overall = s.cfg.MinScore
		modifiers = append(modifiers, "floor")
	}
	if overall > s.cfg.MaxScore {
		overall = s.cfg.MaxScore
		modifiers = append(modifiers, "ceiling")
	}

	autoEscalation := overall >= s.cfg.EscalationThreshold
	if autoEscalation {
		modifiers = append(modifiers, "auto_escalation")
	}

	return domain.PriorityScore{
		Overall:    overall,
		Components: components,
		Factors:    describeFactors(components, decay),
		BusinessRules: domain.PriorityBusinessRules{
			AutoEscalation:   autoEscalation,
			TimeDecay:        decay,
			AppliedModifiers: modifiers,
		},
		Metadata: domain.PriorityMetadata{
			EventAgeHours: ageHours,
			Confidence:    scoreConfidence(event, sent, intent),
			Version:       scorerVersion,
		},
	}
}

// impactComponent blends engagement rate with log-scaled interaction volume.
func impactComponent(event *domain.SocialEvent) float64 {
	eng := event.Engagement
	volume := float64(eng.Likes + eng.Shares*2 + eng.Comments*3)
	volumeScore := math.Log1p(volume) / math.Log1p(100_000)
	return clamp01(0.6*eng.EngagementRate + 0.4*volumeScore)
}

// sentimentComponent maps sentiment score so strong negatives rank highest.
func sentimentComponent(sent *domain.SentimentResult) float64 {
	return clamp01((1 - sent.Overall.Score) / 2)
}

// reachComponent log-scales follower count, saturating at one million,
// with a boost for verified accounts.
func reachComponent(event *domain.SocialEvent) float64 {
	followers := float64(event.Author.FollowerCount)
	if followers < 0 {
		followers = 0
	}
	score := math.Log1p(followers) / math.Log1p(reachFollowerCeiling)
	if event.Author.Verified {
		score += verifiedReachBoost
	}
	return clamp01(score)
}

// brandRiskComponent estimates reputational exposure from the detected
// intent, the sentiment, and playbook-flagged topics.
func brandRiskComponent(sent *domain.SentimentResult, intent *domain.IntentResult, brand *domain.BrandContext) float64 {
	risk := map[domain.Intent]float64{
		domain.IntentComplaint: 0.6,
		domain.IntentRefund:    0.5,
		domain.IntentQuestion:  0.2,
		domain.IntentPurchase:  0.1,
		domain.IntentPraise:    0.0,
		domain.IntentSpam:      0.1,
		domain.IntentGeneral:   0.1,
	}[intent.Primary.Intent]

	if sent.Overall.Label == domain.SentimentNegative {
		risk += 0.3 * math.Abs(sent.Overall.Score)
	}
	if intent.Urgency.Level == domain.UrgencyCritical {
		risk += 0.2
	}
	if brand != nil && len(brand.Playbook.Rules) > 0 {
		risk += 0.05
	}
	return clamp01(risk)
}

// scoreConfidence is the product of input confidences, penalized for short
// text and unknown-reach authors.
func scoreConfidence(event *domain.SocialEvent, sent *domain.SentimentResult, intent *domain.IntentResult) float64 {
	conf := sent.Overall.Confidence * intent.Primary.Confidence
	if len(event.Content.Text) < shortTextChars {
		conf *= confidencePenalty
	}
	if event.Author.FollowerCount == 0 {
		conf *= confidencePenalty
	}
	return clamp01(conf)
}

// describeFactors lists the components in descending contribution order.
func describeFactors(c domain.PriorityComponents, decay float64) []string {
	type factor struct {
		name  string
		value float64
	}
	factors := []factor{
		{"urgency", c.Urgency},
		{"impact", c.Impact},
		{"sentiment", c.Sentiment},
		{"reach", c.Reach},
		{"brand_risk", c.BrandRisk},
	}
	sort.SliceStable(factors, func(i, j int) bool { return factors[i].value > factors[j].value })

	out := make([]string, 0, len(factors)+1)
	for _, f := range factors {
		out = append(out, fmt.Sprintf("%s=%.2f", f.name, f.value))
	}
	out = append(out, fmt.Sprintf("time_decay=%.3f", decay))
	return out
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
