// Package sentiment implements ensemble-scored text sentiment with platform
// tilt and aspect decomposition. Analysis is a pure function of the event
// content, its platform, and configuration: identical inputs yield
// identical results.
package sentiment

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/ignite/engage/internal/config"
	"github.com/ignite/engage/internal/domain"
	"github.com/ignite/engage/internal/pkg/clock"
	"github.com/ignite/engage/internal/pkg/logger"
)

// labelThreshold is the sign threshold separating positive/negative from neutral.
const labelThreshold = 0.1

// Model is one sentiment model in the ensemble. Implementations must be
// safe for concurrent use.
type Model interface {
	Name() string
	Score(ctx context.Context, text string) (score, confidence float64, err error)
}

// Analyzer runs the configured models in parallel and combines their scores.
type Analyzer struct {
	cfg    config.SentimentConfig
	models []Model
	clock  clock.Clock
}

// NewAnalyzer creates an analyzer over the given models. Models whose name
// has no configured weight are ignored. The lexical model is always
// available as fallback.
func NewAnalyzer(cfg config.SentimentConfig, clk clock.Clock, models ...Model) *Analyzer {
	if len(models) == 0 {
		models = []Model{LexicalModel{}}
	}
	return &Analyzer{cfg: cfg, models: models, clock: clk}
}

// Analyze scores the event's text. Model failures are recorded and the
// ensemble continues with the remaining models; if every model fails the
// lexical fallback is used and FallbackUsed is set.
func (a *Analyzer) Analyze(ctx context.Context, event *domain.SocialEvent) domain.SentimentResult {
	text := Preprocess(event.Content.Text)

	scores := a.runModels(ctx, text)

	raw, modelScores, anySucceeded := a.ensemble(scores)
	fallback := false
	if !anySucceeded {
		// Every model failed; run the lexicon directly
		s, c, _ := LexicalModel{}.Score(ctx, text)
		raw = s
		modelScores = append(modelScores, domain.ModelScore{
			Model: "lexical", Score: s, Confidence: c, Weight: 1,
		})
		fallback = true
		logger.Warn("sentiment ensemble failed, lexical fallback used", "event_id", event.ID)
	}

	adjusted, factor := a.applyPlatformTilt(raw, event.Platform)

	result := domain.SentimentResult{
		Overall: domain.OverallSentiment{
			Label:      labelFor(adjusted),
			Score:      adjusted,
			Confidence: a.confidenceFor(adjusted),
		},
		ModelScores: modelScores,
		PlatformAdjusted: domain.PlatformAdjustment{
			OriginalScore:    raw,
			AdjustedScore:    adjusted,
			AdjustmentFactor: factor,
		},
		Aspects:      a.aspectSentiments(ctx, text),
		FallbackUsed: fallback,
		AnalyzedAt:   a.clock.Now(),
	}
	return result
}

// AnalyzeBatch scores each event independently. Element i of the result is
// exactly Analyze(events[i]).
func (a *Analyzer) AnalyzeBatch(ctx context.Context, events []*domain.SocialEvent) []domain.SentimentResult {
	results := make([]domain.SentimentResult, len(events))
	for i, ev := range events {
		results[i] = a.Analyze(ctx, ev)
	}
	return results
}

type modelOutcome struct {
	name       string
	score      float64
	confidence float64
	err        error
}

// runModels executes all models concurrently and returns outcomes in the
// fixed model order, keeping aggregation deterministic.
func (a *Analyzer) runModels(ctx context.Context, text string) []modelOutcome {
	outcomes := make([]modelOutcome, len(a.models))

	var wg sync.WaitGroup
	for i, m := range a.models {
		wg.Add(1)
		go func(i int, m Model) {
			defer wg.Done()
			score, conf, err := m.Score(ctx, text)
			outcomes[i] = modelOutcome{name: m.Name(), score: score, confidence: conf, err: err}
		}(i, m)
	}
	wg.Wait()

	return outcomes
}

// ensemble combines successful model scores with configured weights,
// normalized over the models that succeeded.
func (a *Analyzer) ensemble(outcomes []modelOutcome) (float64, []domain.ModelScore, bool) {
	var weightSum, weighted float64
	var subScores []domain.ModelScore
	anySucceeded := false

	for _, o := range outcomes {
		weight, ok := a.cfg.ModelWeights[o.name]
		if !ok {
			weight = 1.0
		}
		sub := domain.ModelScore{Model: o.name, Score: o.score, Confidence: o.confidence, Weight: weight}
		if o.err != nil {
			sub.Err = o.err.Error()
			subScores = append(subScores, sub)
			continue
		}
		anySucceeded = true
		weighted += o.score * weight
		weightSum += weight
		subScores = append(subScores, sub)
	}

	if weightSum == 0 {
		return 0, subScores, anySucceeded
	}
	return weighted / weightSum, subScores, anySucceeded
}

// applyPlatformTilt applies the configured sign-dependent boost and
// neutral dead zone for the platform, clamping to [-1,1].
// Platforms without a configured tilt pass through unchanged (factor 1.0).
func (a *Analyzer) applyPlatformTilt(score float64, platform domain.Platform) (float64, float64) {
	tilt, ok := a.cfg.PlatformTilts[platform]
	if !ok {
		return clamp(score, -1, 1), 1.0
	}

	boost := tilt.PositiveBoost
	if score < 0 {
		boost = tilt.NegativeBoost
	}
	factor := 1 + boost
	adjusted := score * factor

	// Scores inside the platform's dead zone read as noise
	if adjusted > -tilt.NeutralZone && adjusted < tilt.NeutralZone {
		adjusted = 0
	}
	return clamp(adjusted, -1, 1), factor
}

// confidenceFor maps |score| through the configured tiers (highest floor wins).
func (a *Analyzer) confidenceFor(score float64) float64 {
	abs := score
	if abs < 0 {
		abs = -abs
	}

	tiers := make([]config.ConfidenceTier, len(a.cfg.ConfidenceTiers))
	copy(tiers, a.cfg.ConfidenceTiers)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinAbsScore > tiers[j].MinAbsScore })

	for _, tier := range tiers {
		if abs >= tier.MinAbsScore {
			return tier.Confidence
		}
	}
	return 0.5
}

// aspectSentiments runs the lexical analyzer over a ±window character slice
// around each configured aspect mention. An aspect is emitted only when at
// least one mention is found.
func (a *Analyzer) aspectSentiments(ctx context.Context, text string) []domain.AspectSentiment {
	var results []domain.AspectSentiment

	for _, aspect := range a.cfg.Aspects {
		terms := append([]string{aspect.Name}, aspect.Synonyms...)

		var windows []string
		mentions := 0
		for _, term := range terms {
			term = strings.ToLower(term)
			from := 0
			for {
				idx := strings.Index(text[from:], term)
				if idx < 0 {
					break
				}
				pos := from + idx
				mentions++
				start := pos - a.cfg.AspectWindow
				if start < 0 {
					start = 0
				}
				end := pos + len(term) + a.cfg.AspectWindow
				if end > len(text) {
					end = len(text)
				}
				windows = append(windows, text[start:end])
				from = pos + len(term)
			}
		}

		if mentions == 0 {
			continue
		}

		var sum float64
		for _, w := range windows {
			s, _, _ := LexicalModel{}.Score(ctx, w)
			sum += s
		}
		avg := sum / float64(len(windows))

		results = append(results, domain.AspectSentiment{
			Aspect:   aspect.Name,
			Label:    labelFor(avg),
			Score:    avg,
			Mentions: mentions,
		})
	}
	return results
}

func labelFor(score float64) domain.SentimentLabel {
	switch {
	case score >= labelThreshold:
		return domain.SentimentPositive
	case score <= -labelThreshold:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}
