package topics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ignite/engage/internal/config"
	"github.com/ignite/engage/internal/domain"
	"github.com/ignite/engage/internal/pkg/clock"
)

func testConfig() config.TopicsConfig {
	return config.TopicsConfig{
		Epsilon:            0.2,
		MinPoints:          3,
		Metric:             "cosine",
		Vocabulary:         []string{"shipping", "delay", "refund", "serum", "love", "broken", "launch"},
		TrendWindowMinutes: 60,
		TrendGrowthRate:    0.5,
		TrendMinEvents:     4,
		BaselineMinutes:    120,
		SpikeIntensity:     3.0,
		SpikeMinEvents:     5,
	}
}

func event(id, text string, platform domain.Platform, ts time.Time) *domain.SocialEvent {
	return &domain.SocialEvent{
		ID:        id,
		Type:      domain.EventPost,
		Platform:  platform,
		Timestamp: ts,
		Content:   domain.EventContent{Text: text},
	}
}

func TestEngine_ClustersSimilarEvents(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := NewEngine(testConfig(), &clock.Fixed{T: now})

	var batch []*domain.SocialEvent
	for i := 0; i < 5; i++ {
		batch = append(batch, event(
			fmt.Sprintf("ship-%d", i),
			"my shipping is delayed again, the delay is unacceptable",
			domain.PlatformFacebook,
			now.Add(-time.Duration(i)*time.Minute)))
	}
	for i := 0; i < 5; i++ {
		batch = append(batch, event(
			fmt.Sprintf("love-%d", i),
			"love this serum, love the launch",
			domain.PlatformInstagram,
			now.Add(-time.Duration(i)*time.Minute)))
	}

	r := e.Process(context.Background(), batch)

	if len(r.Clusters) < 2 {
		t.Fatalf("expected at least 2 clusters, got %d", len(r.Clusters))
	}
	for _, c := range r.Clusters {
		if c.Label == "" {
			t.Error("cluster missing label")
		}
		if len(c.Keywords) == 0 {
			t.Error("cluster missing keywords")
		}
		if c.Coherence < 0 || c.Coherence > 1 {
			t.Errorf("coherence %v out of [0,1]", c.Coherence)
		}
		if c.FirstSeen.After(c.LastSeen) {
			t.Error("cluster time range inverted")
		}
	}
}

func TestEngine_ClusterSentimentFromLexicon(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := NewEngine(testConfig(), &clock.Fixed{T: now})

	var batch []*domain.SocialEvent
	for i := 0; i < 5; i++ {
		batch = append(batch, event(
			fmt.Sprintf("neg-%d", i),
			"this serum is broken and terrible, awful broken product",
			domain.PlatformReddit,
			now.Add(-time.Duration(i)*time.Minute)))
	}

	r := e.Process(context.Background(), batch)

	if len(r.Clusters) == 0 {
		t.Fatal("expected a cluster")
	}
	if r.Clusters[0].Sentiment != domain.SentimentNegative {
		t.Errorf("cluster sentiment = %s, want negative", r.Clusters[0].Sentiment)
	}
}

func TestEngine_MergePreservesClusterID(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clk := &clock.Fixed{T: now}
	e := NewEngine(testConfig(), clk)

	mk := func(prefix string, n int, base time.Time) []*domain.SocialEvent {
		var out []*domain.SocialEvent
		for i := 0; i < n; i++ {
			out = append(out, event(
				fmt.Sprintf("%s-%d", prefix, i),
				"shipping delay shipping delay complaint thread",
				domain.PlatformFacebook,
				base.Add(-time.Duration(i)*time.Minute)))
		}
		return out
	}

	r1 := e.Process(context.Background(), mk("a", 4, now))
	if len(r1.Clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(r1.Clusters))
	}
	id := r1.Clusters[0].ID

	clk.Advance(5 * time.Minute)
	r2 := e.Process(context.Background(), mk("b", 4, clk.Now()))
	if len(r2.Clusters) != 1 {
		t.Fatalf("expected merged single cluster, got %d", len(r2.Clusters))
	}
	if r2.Clusters[0].ID != id {
		t.Errorf("merge should keep the existing cluster ID %s, got %s", id, r2.Clusters[0].ID)
	}
	if len(r2.Clusters[0].EventIDs) != 8 {
		t.Errorf("merged cluster should cover 8 events, got %d", len(r2.Clusters[0].EventIDs))
	}
}

func TestEngine_SpikeDetection(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := NewEngine(testConfig(), &clock.Fixed{T: now})

	var batch []*domain.SocialEvent
	// one quiet baseline mention well before the current window
	batch = append(batch, event("base-0", "product launch broken reports",
		domain.PlatformTikTok, now.Add(-90*time.Minute)))
	// burst inside the current window
	for i := 0; i < 8; i++ {
		batch = append(batch, event(
			fmt.Sprintf("burst-%d", i),
			"product launch broken reports",
			domain.PlatformTikTok,
			now.Add(-time.Duration(i)*time.Minute)))
	}

	r := e.Process(context.Background(), batch)

	if len(r.Spikes) == 0 {
		t.Fatal("expected a spike")
	}
	s := r.Spikes[0]
	if s.Intensity < 3.0 {
		t.Errorf("intensity = %v, want >= 3.0", s.Intensity)
	}
	if s.EventCount < 5 {
		t.Errorf("event count = %d, want >= 5", s.EventCount)
	}
}

func TestEngine_NoSpikeBelowMinEvents(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := NewEngine(testConfig(), &clock.Fixed{T: now})

	var batch []*domain.SocialEvent
	for i := 0; i < 3; i++ {
		batch = append(batch, event(
			fmt.Sprintf("few-%d", i),
			"product launch broken reports",
			domain.PlatformTikTok,
			now.Add(-time.Duration(i)*time.Minute)))
	}

	r := e.Process(context.Background(), batch)
	if len(r.Spikes) != 0 {
		t.Errorf("expected no spikes below min events, got %d", len(r.Spikes))
	}
}

func TestEngine_TrendDetection(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := NewEngine(testConfig(), &clock.Fixed{T: now})

	var batch []*domain.SocialEvent
	// 1 event in the older half of the window, 5 in the newer half
	batch = append(batch, event("old-0", "refund complaint refund thread",
		domain.PlatformReddit, now.Add(-50*time.Minute)))
	for i := 0; i < 5; i++ {
		batch = append(batch, event(
			fmt.Sprintf("new-%d", i),
			"refund complaint refund thread",
			domain.PlatformReddit,
			now.Add(-time.Duration(i)*time.Minute)))
	}

	r := e.Process(context.Background(), batch)

	if len(r.Trending) == 0 {
		t.Fatal("expected a trending topic")
	}
	if r.Trending[0].GrowthRate <= testConfig().TrendGrowthRate {
		t.Errorf("growth rate %v should exceed threshold", r.Trending[0].GrowthRate)
	}
}

func TestEngine_EvictsOldEvents(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := NewEngine(testConfig(), &clock.Fixed{T: now})

	// older than 2 x max(trend, baseline) = 4h
	var batch []*domain.SocialEvent
	for i := 0; i < 5; i++ {
		batch = append(batch, event(
			fmt.Sprintf("ancient-%d", i),
			"shipping delay shipping delay",
			domain.PlatformFacebook,
			now.Add(-5*time.Hour)))
	}

	r := e.Process(context.Background(), batch)
	if len(r.Clusters) != 0 {
		t.Errorf("evicted events should not form clusters, got %d", len(r.Clusters))
	}
	if len(e.history) != 0 {
		t.Errorf("history should be empty after eviction, got %d", len(e.history))
	}
}

func TestEngine_DropsStaleClusters(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clk := &clock.Fixed{T: now}
	e := NewEngine(testConfig(), clk)

	var batch []*domain.SocialEvent
	for i := 0; i < 4; i++ {
		batch = append(batch, event(
			fmt.Sprintf("c-%d", i),
			"shipping delay shipping delay",
			domain.PlatformFacebook,
			now.Add(-time.Duration(i)*time.Minute)))
	}
	r := e.Process(context.Background(), batch)
	if len(r.Clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(r.Clusters))
	}

	clk.Advance(25 * time.Hour)
	r = e.Process(context.Background(), nil)
	if len(r.Clusters) != 0 {
		t.Errorf("stale cluster should be dropped, got %d", len(r.Clusters))
	}
}

func TestEngine_LabelsForEvent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := NewEngine(testConfig(), &clock.Fixed{T: now})

	var batch []*domain.SocialEvent
	for i := 0; i < 4; i++ {
		batch = append(batch, event(
			fmt.Sprintf("lbl-%d", i),
			"shipping delay shipping delay",
			domain.PlatformFacebook,
			now.Add(-time.Duration(i)*time.Minute)))
	}
	e.Process(context.Background(), batch)

	labels := e.Labels("lbl-0")
	if len(labels) == 0 {
		t.Fatal("expected at least one label for a clustered event")
	}
	if e.Labels("unknown-event") != nil {
		t.Error("unknown event should have no labels")
	}
}

func TestDBSCAN_NoisePoints(t *testing.T) {
	vecs := []featureVector{
		{0, 0}, {0, 0.1}, {0.1, 0},
		{5, 5},
	}
	labels := dbscan(vecs, 0.5, 3, euclideanDistance)

	if labels[0] == noiseLabel || labels[1] == noiseLabel || labels[2] == noiseLabel {
		t.Error("dense points should be clustered")
	}
	if labels[3] != noiseLabel {
		t.Error("isolated point should be noise")
	}
}
