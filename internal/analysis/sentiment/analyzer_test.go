package sentiment

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/ignite/engage/internal/config"
	"github.com/ignite/engage/internal/domain"
	"github.com/ignite/engage/internal/pkg/clock"
)

func testConfig() config.SentimentConfig {
	return config.SentimentConfig{
		ModelWeights: map[string]float64{"lexical": 1.0},
		ConfidenceTiers: []config.ConfidenceTier{
			{MinAbsScore: 0.6, Confidence: 0.9},
			{MinAbsScore: 0.3, Confidence: 0.75},
			{MinAbsScore: 0.1, Confidence: 0.6},
			{MinAbsScore: 0.0, Confidence: 0.5},
		},
		Aspects: []config.AspectConfig{
			{Name: "shipping", Synonyms: []string{"delivery"}},
			{Name: "quality", Synonyms: []string{"build"}},
		},
		AspectWindow: 50,
	}
}

func testClock() clock.Clock {
	return &clock.Fixed{T: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func testEvent(text string, platform domain.Platform) *domain.SocialEvent {
	return &domain.SocialEvent{
		ID:       "evt-1",
		Type:     domain.EventPost,
		Platform: platform,
		Content:  domain.EventContent{Text: text},
	}
}

func TestPreprocess(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips urls", "check https://example.com this out", "check this out"},
		{"strips mentions", "hey @brandname nice", "hey nice"},
		{"keeps hashtag text", "love this #coffee", "love this coffee"},
		{"maps emoji", "this 😍", "this love"},
		{"lowercases", "GREAT Product", "great product"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preprocess(tt.in); got != tt.want {
				t.Errorf("Preprocess(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLexicalModel_Score(t *testing.T) {
	m := LexicalModel{}
	ctx := context.Background()

	tests := []struct {
		name     string
		text     string
		wantSign int // -1, 0, +1
	}{
		{"positive", "i love this amazing product", +1},
		{"negative", "this is terrible and broken", -1},
		{"neutral", "the package arrived on tuesday", 0},
		{"negated positive", "this is not good at all", -1},
		{"intensified negative", "completely broken experience", -1},
		{"empty", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, conf, err := m.Score(ctx, Preprocess(tt.text))
			if err != nil {
				t.Fatalf("Score() error: %v", err)
			}
			if score < -1 || score > 1 {
				t.Errorf("score %v out of [-1,1]", score)
			}
			if conf < 0 || conf > 1 {
				t.Errorf("confidence %v out of [0,1]", conf)
			}
			switch tt.wantSign {
			case +1:
				if score <= 0 {
					t.Errorf("want positive score, got %v", score)
				}
			case -1:
				if score >= 0 {
					t.Errorf("want negative score, got %v", score)
				}
			case 0:
				if score != 0 {
					t.Errorf("want zero score, got %v", score)
				}
			}
		})
	}
}

func TestAnalyzer_Deterministic(t *testing.T) {
	a := NewAnalyzer(testConfig(), testClock())
	ev := testEvent("I love this product! Best serum ever.", domain.PlatformInstagram)

	r1 := a.Analyze(context.Background(), ev)
	r2 := a.Analyze(context.Background(), ev)

	if !reflect.DeepEqual(r1, r2) {
		t.Errorf("repeated analysis differs:\n%+v\n%+v", r1, r2)
	}
}

func TestAnalyzer_AutoResponseScenario(t *testing.T) {
	a := NewAnalyzer(testConfig(), testClock())
	ev := testEvent("I love this product! Best serum ever.", domain.PlatformInstagram)

	r := a.Analyze(context.Background(), ev)

	if r.Overall.Label != domain.SentimentPositive {
		t.Errorf("label = %s, want positive", r.Overall.Label)
	}
	if r.Overall.Score < 0.5 {
		t.Errorf("score = %v, want >= 0.5", r.Overall.Score)
	}
}

func TestAnalyzer_PlatformTilt(t *testing.T) {
	cfg := testConfig()
	cfg.PlatformTilts = map[domain.Platform]config.PlatformTilt{
		domain.PlatformReddit: {PositiveBoost: -0.2, NegativeBoost: 0.3, NeutralZone: 0.05},
	}
	a := NewAnalyzer(cfg, testClock())

	ev := testEvent("this is terrible", domain.PlatformReddit)
	r := a.Analyze(context.Background(), ev)

	if r.PlatformAdjusted.AdjustmentFactor != 1.3 {
		t.Errorf("adjustment factor = %v, want 1.3", r.PlatformAdjusted.AdjustmentFactor)
	}
	if r.PlatformAdjusted.AdjustedScore >= r.PlatformAdjusted.OriginalScore {
		t.Errorf("negative boost should push score down: %v -> %v",
			r.PlatformAdjusted.OriginalScore, r.PlatformAdjusted.AdjustedScore)
	}
}

func TestAnalyzer_NeutralDeadZone(t *testing.T) {
	cfg := testConfig()
	cfg.PlatformTilts = map[domain.Platform]config.PlatformTilt{
		domain.PlatformRSS: {NeutralZone: 0.99},
	}
	a := NewAnalyzer(cfg, testClock())

	ev := testEvent("good", domain.PlatformRSS)
	r := a.Analyze(context.Background(), ev)

	if r.Overall.Score != 0 {
		t.Errorf("score inside dead zone should be zeroed, got %v", r.Overall.Score)
	}
	if r.Overall.Label != domain.SentimentNeutral {
		t.Errorf("label = %s, want neutral", r.Overall.Label)
	}
}

type failingModel struct{}

func (failingModel) Name() string { return "flaky" }
func (failingModel) Score(context.Context, string) (float64, float64, error) {
	return 0, 0, errors.New("model endpoint unavailable")
}

func TestAnalyzer_ModelFailureContinues(t *testing.T) {
	cfg := testConfig()
	cfg.ModelWeights = map[string]float64{"lexical": 0.5, "flaky": 0.5}
	a := NewAnalyzer(cfg, testClock(), LexicalModel{}, failingModel{})

	ev := testEvent("i love this", domain.PlatformFacebook)
	r := a.Analyze(context.Background(), ev)

	if r.FallbackUsed {
		t.Error("fallback should not trigger while one model succeeds")
	}
	if r.Overall.Score <= 0 {
		t.Errorf("surviving model should carry the ensemble, got score %v", r.Overall.Score)
	}

	var flakyRecorded bool
	for _, ms := range r.ModelScores {
		if ms.Model == "flaky" && ms.Err != "" {
			flakyRecorded = true
		}
	}
	if !flakyRecorded {
		t.Error("failed model should be recorded with its error")
	}
}

func TestAnalyzer_AllModelsFailFallsBack(t *testing.T) {
	cfg := testConfig()
	cfg.ModelWeights = map[string]float64{"flaky": 1.0}
	a := NewAnalyzer(cfg, testClock(), failingModel{})

	ev := testEvent("i love this", domain.PlatformFacebook)
	r := a.Analyze(context.Background(), ev)

	if !r.FallbackUsed {
		t.Error("fallback should trigger when every model fails")
	}
	if r.Overall.Score <= 0 {
		t.Errorf("lexical fallback should still score, got %v", r.Overall.Score)
	}
}

func TestAnalyzer_Aspects(t *testing.T) {
	a := NewAnalyzer(testConfig(), testClock())
	ev := testEvent("The shipping was terrible but the build quality is amazing", domain.PlatformFacebook)

	r := a.Analyze(context.Background(), ev)

	byAspect := map[string]domain.AspectSentiment{}
	for _, asp := range r.Aspects {
		byAspect[asp.Aspect] = asp
	}

	ship, ok := byAspect["shipping"]
	if !ok {
		t.Fatal("missing shipping aspect")
	}
	if ship.Label != domain.SentimentNegative {
		t.Errorf("shipping label = %s, want negative", ship.Label)
	}

	qual, ok := byAspect["quality"]
	if !ok {
		t.Fatal("missing quality aspect")
	}
	if qual.Label != domain.SentimentPositive {
		t.Errorf("quality label = %s, want positive", qual.Label)
	}
}

func TestAnalyzer_BatchEqualsSingle(t *testing.T) {
	a := NewAnalyzer(testConfig(), testClock())
	events := []*domain.SocialEvent{
		testEvent("i love this", domain.PlatformInstagram),
		testEvent("this is broken", domain.PlatformFacebook),
		testEvent("arrived tuesday", domain.PlatformRSS),
	}

	batch := a.AnalyzeBatch(context.Background(), events)
	for i, ev := range events {
		single := a.Analyze(context.Background(), ev)
		if !reflect.DeepEqual(batch[i], single) {
			t.Errorf("batch[%d] differs from single analysis", i)
		}
	}
}

func TestAnalyzer_ScoreBounds(t *testing.T) {
	a := NewAnalyzer(testConfig(), testClock())
	texts := []string{
		"love love love amazing perfect best excellent!!!",
		"hate hate terrible awful worst horrible!!!",
		"",
		"neutral text with no sentiment words at all",
	}
	for _, text := range texts {
		r := a.Analyze(context.Background(), testEvent(text, domain.PlatformTikTok))
		if r.Overall.Score < -1 || r.Overall.Score > 1 {
			t.Errorf("score %v out of [-1,1] for %q", r.Overall.Score, text)
		}
		if r.Overall.Confidence < 0 || r.Overall.Confidence > 1 {
			t.Errorf("confidence %v out of [0,1] for %q", r.Overall.Confidence, text)
		}
	}
}
