// Package topics clusters social events into topics with DBSCAN and detects
// trending topics and activity spikes over a rolling event history.
package topics

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/engage/internal/analysis/sentiment"
	"github.com/ignite/engage/internal/config"
	"github.com/ignite/engage/internal/domain"
	"github.com/ignite/engage/internal/pkg/clock"
	"github.com/ignite/engage/internal/pkg/logger"
)

const (
	topKeywords      = 10
	labelKeywords    = 3
	mergeThreshold   = 0.7
	clusterStaleAge  = 24 * time.Hour
	spikeStaleAge    = 6 * time.Hour
	keywordJaccardW  = 0.5
	centroidCosineW  = 0.3
	platformJaccardW = 0.2
)

// Cluster is a detected topic grouping of events.
type Cluster struct {
	ID        string                `json:"id"`
	Label     string                `json:"label"`
	Keywords  []string              `json:"keywords"`
	Coherence float64               `json:"coherence"` // mean pairwise text Jaccard
	Sentiment domain.SentimentLabel `json:"sentiment"`
	EventIDs  []string              `json:"event_ids"`
	Platforms []domain.Platform     `json:"platforms"`
	FirstSeen time.Time             `json:"first_seen"`
	LastSeen  time.Time             `json:"last_seen"`

	centroid featureVector
	texts    []string
}

// Trend is a cluster whose event volume is growing inside the trend window.
type Trend struct {
	ClusterID  string  `json:"cluster_id"`
	Label      string  `json:"label"`
	GrowthRate float64 `json:"growth_rate"`
	EventCount int     `json:"event_count"`
}

// Spike is a sudden burst of activity on a keyword topic relative to its
// baseline rate.
type Spike struct {
	Topic        string    `json:"topic"`
	Intensity    float64   `json:"intensity"` // current rate / baseline rate
	EventCount   int       `json:"event_count"`
	BaselineRate float64   `json:"baseline_rate"` // events per minute
	DetectedAt   time.Time `json:"detected_at"`
}

// Result is the output of one processing pass.
type Result struct {
	Clusters []*Cluster `json:"clusters"`
	Trending []Trend    `json:"trending"`
	Spikes   []Spike    `json:"spikes"`
}

// Engine holds the rolling event history and cluster state. Safe for
// concurrent use; all state is guarded by a single mutex.
type Engine struct {
	cfg   config.TopicsConfig
	clock clock.Clock
	lex   sentiment.LexicalModel

	mu       sync.Mutex
	history  []*domain.SocialEvent
	clusters map[string]*Cluster
	spikes   map[string]Spike
}

func NewEngine(cfg config.TopicsConfig, clk clock.Clock) *Engine {
	return &Engine{
		cfg:      cfg,
		clock:    clk,
		clusters: make(map[string]*Cluster),
		spikes:   make(map[string]Spike),
	}
}

// Process folds a batch of events into the history, reclusters, and returns
// the current clusters plus trend and spike detections.
func (e *Engine) Process(ctx context.Context, batch []*domain.SocialEvent) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	e.history = append(e.history, batch...)
	e.evict(now)

	fresh := e.recluster(ctx)
	e.mergeClusters(fresh)
	e.dropStale(now)

	trending := e.detectTrends(now)
	spikes := e.detectSpikes(now)

	clusters := make([]*Cluster, 0, len(e.clusters))
	for _, c := range e.clusters {
		clusters = append(clusters, c)
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].ID < clusters[j].ID })

	logger.Debug("topic pass complete",
		"events", len(e.history), "clusters", len(clusters),
		"trending", len(trending), "spikes", len(spikes))

	return Result{Clusters: clusters, Trending: trending, Spikes: spikes}
}

// Labels returns the labels of clusters containing the event, for the
// decision output's topic list.
func (e *Engine) Labels(eventID string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var labels []string
	for _, c := range e.clusters {
		for _, id := range c.EventIDs {
			if id == eventID {
				labels = append(labels, c.Label)
				break
			}
		}
	}
	sort.Strings(labels)
	return labels
}

// recluster runs DBSCAN over the full history and builds candidate clusters.
func (e *Engine) recluster(ctx context.Context) []*Cluster {
	if len(e.history) == 0 {
		return nil
	}

	vz := newVectorizer(e.cfg.Vocabulary, e.history)
	vecs := make([]featureVector, len(e.history))
	for i, ev := range e.history {
		vecs[i] = vz.vectorize(ev)
	}

	labels := dbscan(vecs, e.cfg.Epsilon, e.cfg.MinPoints, e.distance())

	groups := map[int][]int{}
	for i, lbl := range labels {
		if lbl == noiseLabel {
			continue
		}
		groups[lbl] = append(groups[lbl], i)
	}

	keys := make([]int, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	var out []*Cluster
	for _, k := range keys {
		idx := groups[k]
		events := make([]*domain.SocialEvent, len(idx))
		members := make([]featureVector, len(idx))
		for i, j := range idx {
			events[i] = e.history[j]
			members[i] = vecs[j]
		}
		out = append(out, e.buildCluster(ctx, events, members))
	}
	return out
}

func (e *Engine) buildCluster(ctx context.Context, events []*domain.SocialEvent, vecs []featureVector) *Cluster {
	texts := make([]string, len(events))
	ids := make([]string, len(events))
	platformSet := map[domain.Platform]bool{}
	for i, ev := range events {
		texts[i] = ev.Content.Text
		ids[i] = ev.ID
		platformSet[ev.Platform] = true
	}

	keywords := topTokens(texts, topKeywords)
	label := strings.Join(firstN(keywords, labelKeywords), " ")

	platforms := make([]domain.Platform, 0, len(platformSet))
	for _, p := range domain.AllPlatforms {
		if platformSet[p] {
			platforms = append(platforms, p)
		}
	}

	first, last := timeRange(events)

	return &Cluster{
		ID:        uuid.New().String(),
		Label:     label,
		Keywords:  keywords,
		Coherence: meanPairwiseJaccard(texts),
		Sentiment: e.aggregateSentiment(ctx, texts),
		EventIDs:  ids,
		Platforms: platforms,
		FirstSeen: first,
		LastSeen:  last,
		centroid:  centroid(vecs),
		texts:     texts,
	}
}

// aggregateSentiment scores every member text with the lexical model and
// labels the cluster by the mean score.
func (e *Engine) aggregateSentiment(ctx context.Context, texts []string) domain.SentimentLabel {
	var sum float64
	var n int
	for _, text := range texts {
		score, _, err := e.lex.Score(ctx, sentiment.Preprocess(text))
		if err != nil {
			continue
		}
		sum += score
		n++
	}
	if n == 0 {
		return domain.SentimentNeutral
	}
	mean := sum / float64(n)
	switch {
	case mean > 0.1:
		return domain.SentimentPositive
	case mean < -0.1:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

// mergeClusters folds fresh clusters into the existing set. A fresh cluster
// that is similar enough to an existing one updates it in place; otherwise
// it is adopted as new.
func (e *Engine) mergeClusters(fresh []*Cluster) {
	for _, fc := range fresh {
		best, bestSim := "", 0.0
		for id, ec := range e.clusters {
			sim := clusterSimilarity(fc, ec)
			if sim > bestSim {
				best, bestSim = id, sim
			}
		}
		if bestSim > mergeThreshold {
			existing := e.clusters[best]
			fc.ID = existing.ID
			if existing.FirstSeen.Before(fc.FirstSeen) {
				fc.FirstSeen = existing.FirstSeen
			}
			e.clusters[best] = fc
		} else {
			e.clusters[fc.ID] = fc
		}
	}
}

// clusterSimilarity is the weighted mix of keyword Jaccard, centroid cosine
// similarity, and platform Jaccard.
func clusterSimilarity(a, b *Cluster) float64 {
	kw := setJaccard(a.Keywords, b.Keywords)
	cos := 1 - cosineDistance(a.centroid, b.centroid)
	var pa, pb []string
	for _, p := range a.Platforms {
		pa = append(pa, string(p))
	}
	for _, p := range b.Platforms {
		pb = append(pb, string(p))
	}
	pf := setJaccard(pa, pb)
	return keywordJaccardW*kw + centroidCosineW*cos + platformJaccardW*pf
}

// detectTrends reports clusters whose volume inside the trend window grew
// faster than the configured rate.
func (e *Engine) detectTrends(now time.Time) []Trend {
	window := time.Duration(e.cfg.TrendWindowMinutes) * time.Minute
	cutoff := now.Add(-window)
	mid := now.Add(-window / 2)

	eventTime := map[string]time.Time{}
	for _, ev := range e.history {
		eventTime[ev.ID] = ev.Timestamp
	}

	var trends []Trend
	ids := make([]string, 0, len(e.clusters))
	for id := range e.clusters {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		c := e.clusters[id]
		var older, newer int
		for _, evID := range c.EventIDs {
			ts, ok := eventTime[evID]
			if !ok || ts.Before(cutoff) {
				continue
			}
			if ts.Before(mid) {
				older++
			} else {
				newer++
			}
		}
		total := older + newer
		if total < e.cfg.TrendMinEvents {
			continue
		}
		growth := float64(newer-older) / float64(max(older, 1))
		if growth > e.cfg.TrendGrowthRate {
			trends = append(trends, Trend{
				ClusterID:  c.ID,
				Label:      c.Label,
				GrowthRate: growth,
				EventCount: total,
			})
		}
	}
	return trends
}

// detectSpikes groups recent events by their top-3-keyword topic and compares
// the current per-minute rate against the prior baseline window.
func (e *Engine) detectSpikes(now time.Time) []Spike {
	window := time.Duration(e.cfg.TrendWindowMinutes) * time.Minute
	baseline := time.Duration(e.cfg.BaselineMinutes) * time.Minute
	currentCutoff := now.Add(-window)
	baselineCutoff := currentCutoff.Add(-baseline)

	current := map[string]int{}
	prior := map[string]int{}
	for _, ev := range e.history {
		topic := eventTopic(ev)
		if topic == "" {
			continue
		}
		switch {
		case !ev.Timestamp.Before(currentCutoff):
			current[topic]++
		case !ev.Timestamp.Before(baselineCutoff):
			prior[topic]++
		}
	}

	topicsSeen := make([]string, 0, len(current))
	for topic := range current {
		topicsSeen = append(topicsSeen, topic)
	}
	sort.Strings(topicsSeen)

	var spikes []Spike
	for _, topic := range topicsSeen {
		count := current[topic]
		if count < e.cfg.SpikeMinEvents {
			continue
		}
		currentRate := float64(count) / window.Minutes()
		baselineRate := float64(prior[topic]) / baseline.Minutes()
		if baselineRate == 0 {
			baselineRate = 1 / baseline.Minutes() // one-event floor
		}
		intensity := currentRate / baselineRate
		if intensity >= e.cfg.SpikeIntensity {
			spike := Spike{
				Topic:        topic,
				Intensity:    intensity,
				EventCount:   count,
				BaselineRate: baselineRate,
				DetectedAt:   now,
			}
			e.spikes[topic] = spike
			spikes = append(spikes, spike)
		}
	}
	return spikes
}

// eventTopic is the event's top-3 token label used for spike grouping.
func eventTopic(ev *domain.SocialEvent) string {
	return strings.Join(firstN(topTokens([]string{ev.Content.Text}, labelKeywords), labelKeywords), " ")
}

// evict drops events older than twice the larger of the trend and baseline
// windows.
func (e *Engine) evict(now time.Time) {
	window := time.Duration(e.cfg.TrendWindowMinutes) * time.Minute
	baseline := time.Duration(e.cfg.BaselineMinutes) * time.Minute
	keep := 2 * window
	if 2*baseline > keep {
		keep = 2 * baseline
	}
	cutoff := now.Add(-keep)

	kept := e.history[:0]
	for _, ev := range e.history {
		if !ev.Timestamp.Before(cutoff) {
			kept = append(kept, ev)
		}
	}
	e.history = kept
}

// dropStale removes clusters unchanged for 24h and spikes older than 6h.
func (e *Engine) dropStale(now time.Time) {
	for id, c := range e.clusters {
		if now.Sub(c.LastSeen) > clusterStaleAge {
			delete(e.clusters, id)
		}
	}
	for topic, s := range e.spikes {
		if now.Sub(s.DetectedAt) > spikeStaleAge {
			delete(e.spikes, topic)
		}
	}
}

func (e *Engine) distance() distanceFunc {
	switch e.cfg.Metric {
	case "euclidean":
		return euclideanDistance
	case "jaccard":
		return jaccardDistance
	default:
		return cosineDistance
	}
}

// stopwords excluded from cluster keywords.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true,
	"i": true, "me": true, "my": true, "you": true, "your": true, "it": true,
	"this": true, "that": true, "to": true, "of": true, "in": true, "on": true,
	"for": true, "with": true, "at": true, "by": true, "so": true, "not": true,
	"have": true, "has": true, "had": true, "do": true, "does": true, "did": true,
}

// topTokens returns the k most frequent non-stopword tokens across texts,
// ties broken alphabetically.
func topTokens(texts []string, k int) []string {
	counts := map[string]int{}
	for _, text := range texts {
		for tok := range tokenSet(text) {
			if stopwords[tok] || len(tok) < 3 {
				continue
			}
			counts[tok]++
		}
	}

	tokens := make([]string, 0, len(counts))
	for tok := range counts {
		tokens = append(tokens, tok)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if counts[tokens[i]] != counts[tokens[j]] {
			return counts[tokens[i]] > counts[tokens[j]]
		}
		return tokens[i] < tokens[j]
	})

	if len(tokens) > k {
		tokens = tokens[:k]
	}
	return tokens
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// meanPairwiseJaccard is the cluster coherence measure.
func meanPairwiseJaccard(texts []string) float64 {
	if len(texts) < 2 {
		return 1
	}
	var sum float64
	var pairs int
	for i := 0; i < len(texts); i++ {
		for j := i + 1; j < len(texts); j++ {
			sum += jaccardText(texts[i], texts[j])
			pairs++
		}
	}
	return sum / float64(pairs)
}

// setJaccard is Jaccard similarity over string slices.
func setJaccard(a, b []string) float64 {
	sa := map[string]bool{}
	for _, s := range a {
		sa[s] = true
	}
	sb := map[string]bool{}
	for _, s := range b {
		sb[s] = true
	}
	if len(sa) == 0 && len(sb) == 0 {
		return 1
	}
	var inter int
	for s := range sa {
		if sb[s] {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
