// Package intent implements rule-based intent classification with entity
// extraction, urgency scoring, and next-action hints. Classification is
// deterministic for a fixed configuration.
package intent

import (
	"context"
	"sort"
	"strings"

	"github.com/ignite/engage/internal/config"
	"github.com/ignite/engage/internal/domain"
	"github.com/ignite/engage/internal/pkg/logger"
)

// secondaryThreshold is the minimum confidence for reporting a second intent.
const secondaryThreshold = 0.3

// Model is an optional primary intent model (e.g. a hosted classifier).
// When it fails, the classifier falls back to the rule engine.
type Model interface {
	Detect(ctx context.Context, text string) (domain.IntentResult, error)
}

// Classifier detects intent for social events.
type Classifier struct {
	cfg     config.IntentConfig
	primary Model // nil means rules-only
}

// NewClassifier creates a rule-based classifier. A primary model may be
// attached with SetPrimaryModel.
func NewClassifier(cfg config.IntentConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

// SetPrimaryModel attaches an ML model tried before the rule engine.
func (c *Classifier) SetPrimaryModel(m Model) {
	c.primary = m
}

// Detect classifies the event's text. If the primary model fails, the rule
// engine result is returned with FallbackUsed set.
func (c *Classifier) Detect(ctx context.Context, event *domain.SocialEvent) domain.IntentResult {
	if c.primary != nil {
		result, err := c.primary.Detect(ctx, event.Content.Text)
		if err == nil {
			return result
		}
		logger.Warn("primary intent model failed, using rule engine",
			"event_id", event.ID, "error", err.Error())
	}

	result := c.detectByRules(event)
	if c.primary != nil {
		result.FallbackUsed = true
	}
	return result
}

// detectByRules runs the deterministic rule engine.
func (c *Classifier) detectByRules(event *domain.SocialEvent) domain.IntentResult {
	text := event.Content.Text
	lower := strings.ToLower(text)

	matches := c.scoreIntents(lower, event.Platform)

	primary := matches[0]
	var secondary *domain.IntentMatch
	if len(matches) > 1 && matches[1].Confidence > secondaryThreshold {
		secondary = &matches[1]
	}

	entities := ExtractEntities(text)
	urgency := scoreUrgency(text, primary.Intent, entities, c.platformModifier(event.Platform, "urgency"))

	return domain.IntentResult{
		Primary:     primary,
		Secondary:   secondary,
		Entities:    entities,
		Urgency:     urgency,
		NextActions: nextActionsFor(primary.Intent, urgency.Level),
	}
}

// scoreIntents accumulates signal scores per intent, applies intent and
// platform weights, and returns matches sorted by confidence descending
// (ties broken by intent name for determinism). The last element is always
// the GENERAL floor.
func (c *Classifier) scoreIntents(lower string, platform domain.Platform) []domain.IntentMatch {
	var matches []domain.IntentMatch

	for _, rule := range intentRules {
		var score float64
		var reasoning []string

		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				score += keywordWeight
				reasoning = append(reasoning, "keyword:"+kw)
			}
		}
		for _, re := range rule.patterns {
			if re.MatchString(lower) {
				score += patternWeight
				reasoning = append(reasoning, "pattern:"+re.String())
			}
		}
		for _, clue := range rule.clues {
			if strings.Contains(lower, clue) {
				score += clueWeight
				reasoning = append(reasoning, "clue:"+clue)
			}
		}

		if score == 0 {
			continue
		}

		if w, ok := c.cfg.IntentWeights[string(rule.intent)]; ok {
			score *= w
		}
		score *= c.platformModifier(platform, string(rule.intent))
		if score == 0 {
			continue
		}

		matches = append(matches, domain.IntentMatch{
			Intent:     rule.intent,
			Confidence: clamp01(score),
			Reasoning:  reasoning,
		})
	}

	// GENERAL floor, ranked with the rest so zeroed intents never win
	matches = append(matches, domain.IntentMatch{
		Intent:     domain.IntentGeneral,
		Confidence: 0.2,
		Reasoning:  []string{"default intent"},
	})

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		return matches[i].Intent < matches[j].Intent
	})
	return matches
}

// platformModifier reads the per-platform modifier table; missing keys
// default to 1.0.
func (c *Classifier) platformModifier(platform domain.Platform, key string) float64 {
	mods, ok := c.cfg.PlatformModifiers[platform]
	if !ok {
		return 1.0
	}
	m, ok := mods[key]
	if !ok {
		return 1.0
	}
	return m
}
