package decision

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ignite/engage/internal/analysis/intent"
	"github.com/ignite/engage/internal/analysis/sentiment"
	"github.com/ignite/engage/internal/analysis/topics"
	"github.com/ignite/engage/internal/config"
	"github.com/ignite/engage/internal/domain"
	"github.com/ignite/engage/internal/pkg/clock"
	"github.com/ignite/engage/internal/response"
)

type fakePublisher struct {
	posts []string
	err   error
}

func (p *fakePublisher) PublishResponse(_ context.Context, _ *domain.SocialEvent, text string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.posts = append(p.posts, text)
	return "post-1", nil
}

type fakeNotifier struct {
	notes []string
}

func (n *fakeNotifier) Notify(_ context.Context, subject, _ string) error {
	n.notes = append(n.notes, subject)
	return nil
}

// blockingModel stalls sentiment analysis until released, to hold a
// pipeline slot open.
type blockingModel struct {
	release chan struct{}
}

func (blockingModel) Name() string { return "blocking" }
func (m blockingModel) Score(ctx context.Context, _ string) (float64, float64, error) {
	select {
	case <-m.release:
		return 0.5, 0.8, nil
	case <-ctx.Done():
		return 0, 0, ctx.Err()
	}
}

func testSentimentConfig() config.SentimentConfig {
	return config.SentimentConfig{
		ModelWeights: map[string]float64{"lexical": 1.0},
		ConfidenceTiers: []config.ConfidenceTier{
			{MinAbsScore: 0.6, Confidence: 0.95},
			{MinAbsScore: 0.3, Confidence: 0.8},
			{MinAbsScore: 0.0, Confidence: 0.6},
		},
	}
}

func testTopicsConfig() config.TopicsConfig {
	return config.TopicsConfig{
		Epsilon:            0.2,
		MinPoints:          3,
		Metric:             "cosine",
		TrendWindowMinutes: 60,
		TrendGrowthRate:    0.5,
		TrendMinEvents:     4,
		BaselineMinutes:    120,
		SpikeIntensity:     3.0,
		SpikeMinEvents:     5,
	}
}

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		MaxConcurrentDecisions: 4,
		DecisionTimeoutMs:      2000,
		EnableDecisionCaching:  true,
		CacheExpirationMs:      60_000,
	}
}

func testQualityConfig() config.QualityConfig {
	return config.QualityConfig{
		EnableValidation:         true,
		RequireMinimumConfidence: 0.3,
		EnableAuditLogging:       true,
	}
}

type engineDeps struct {
	engine    *Engine
	publisher *fakePublisher
	notifier  *fakeNotifier
	clock     *clock.Fixed
}

func newTestEngine(cfg config.EngineConfig, models ...sentiment.Model) engineDeps {
	clk := &clock.Fixed{T: fixedNow()}
	publisher := &fakePublisher{}
	notifier := &fakeNotifier{}

	analyzer := sentiment.NewAnalyzer(testSentimentConfig(), clk, models...)
	classifier := intent.NewClassifier(config.IntentConfig{})
	topicEngine := topics.NewEngine(testTopicsConfig(), clk)
	scorer := NewPriorityScorer(testPriorityConfig(), clk)
	router := NewRouter(testRoutingConfig(), clk)
	executor := NewExecutor(response.NewRenderer(), publisher, notifier, clk)

	engine := NewEngine(cfg, testQualityConfig(),
		analyzer, classifier, topicEngine, scorer, router, executor, clk)
	return engineDeps{engine: engine, publisher: publisher, notifier: notifier, clock: clk}
}

func praiseEvent() *domain.SocialEvent {
	return &domain.SocialEvent{
		ID:        "evt-praise",
		Type:      domain.EventComment,
		Platform:  domain.PlatformInstagram,
		Timestamp: fixedNow().Add(-5 * time.Minute),
		Content:   domain.EventContent{Text: "I love this product! Best serum ever."},
		Author:    domain.Author{ID: "a-1", DisplayName: "Jamie", FollowerCount: 50_000, Verified: true},
		Engagement: domain.Engagement{
			Likes: 1200, Shares: 80, Comments: 40, EngagementRate: 0.08,
		},
	}
}

func complaintEvent() *domain.SocialEvent {
	return &domain.SocialEvent{
		ID:        "evt-complaint",
		Type:      domain.EventComment,
		Platform:  domain.PlatformFacebook,
		Timestamp: fixedNow().Add(-10 * time.Minute),
		Content:   domain.EventContent{Text: "This is completely broken, I need a refund immediately!"},
		Author:    domain.Author{ID: "a-2", DisplayName: "Sam", FollowerCount: 5000},
		Engagement: domain.Engagement{
			Likes: 40, Shares: 15, Comments: 20, EngagementRate: 0.04,
		},
	}
}

func testBrand() *domain.BrandContext {
	return &domain.BrandContext{
		BrandID:  "brand-1",
		Playbook: domain.Playbook{Version: "v3", Voice: "warm"},
		Personas: []domain.Persona{{ID: "p-1", Name: "Team Glow"}},
	}
}

func TestEngine_AutoResponsePath(t *testing.T) {
	deps := newTestEngine(testEngineConfig())

	result, err := deps.engine.Process(context.Background(), praiseEvent(), testBrand())
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	if result.Sentiment.Overall.Label != domain.SentimentPositive {
		t.Errorf("sentiment = %s, want positive", result.Sentiment.Overall.Label)
	}
	if result.Sentiment.Overall.Score < 0.5 {
		t.Errorf("sentiment score = %v, want >= 0.5", result.Sentiment.Overall.Score)
	}
	if result.Intent.Primary.Intent != domain.IntentPraise {
		t.Errorf("intent = %s, want PRAISE", result.Intent.Primary.Intent)
	}
	if result.Intent.Primary.Confidence < 0.7 {
		t.Errorf("intent confidence = %v, want >= 0.7", result.Intent.Primary.Confidence)
	}
	if result.Priority.Overall >= 40 {
		t.Errorf("priority = %v, want < 40", result.Priority.Overall)
	}
	if result.Routing.Route != domain.RouteAutoResponse {
		t.Fatalf("route = %s, want auto-response", result.Routing.Route)
	}
	if result.Output.Decision.PrimaryAction != string(domain.ActionRespond) {
		t.Errorf("primary action = %s, want RESPOND", result.Output.Decision.PrimaryAction)
	}
	if len(deps.publisher.posts) != 1 {
		t.Fatalf("expected one published response, got %d", len(deps.publisher.posts))
	}
	if len(result.Executions) == 0 || result.Executions[0].Status != domain.ExecutionSuccess {
		t.Error("RESPOND execution should succeed")
	}
}

func TestEngine_CriticalComplaintPath(t *testing.T) {
	deps := newTestEngine(testEngineConfig())

	result, err := deps.engine.Process(context.Background(), complaintEvent(), testBrand())
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	if result.Sentiment.Overall.Label != domain.SentimentNegative {
		t.Errorf("sentiment = %s, want negative", result.Sentiment.Overall.Label)
	}
	if got := result.Intent.Primary.Intent; got != domain.IntentComplaint && got != domain.IntentRefund {
		t.Errorf("intent = %s, want COMPLAINT or REFUND_REQUEST", got)
	}
	if result.Intent.Urgency.Level != domain.UrgencyCritical {
		t.Errorf("urgency = %s, want critical", result.Intent.Urgency.Level)
	}
	if result.Priority.Overall < 60 {
		t.Errorf("priority = %v, want >= 60", result.Priority.Overall)
	}
	if result.Routing.Route != domain.RouteHumanReview {
		t.Fatalf("route = %s, want human-review", result.Routing.Route)
	}
	if !result.Routing.Escalation.Required {
		t.Error("escalation must be required")
	}
	if !result.Output.Decision.HumanReviewRequired {
		t.Error("output must flag human review")
	}
	if len(deps.publisher.posts) != 0 {
		t.Error("no response may be published for human review")
	}
}

func TestEngine_CacheReturnsSameDecision(t *testing.T) {
	deps := newTestEngine(testEngineConfig())
	ev := praiseEvent()

	first, err := deps.engine.Process(context.Background(), ev, testBrand())
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	second, err := deps.engine.Process(context.Background(), ev, testBrand())
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	if !second.Cached {
		t.Error("second call should hit the cache")
	}
	if second.Output.ID != first.Output.ID {
		t.Error("cached decision should be returned identically")
	}
	if len(deps.publisher.posts) != 1 {
		t.Errorf("cached decision must not re-execute actions, posts = %d", len(deps.publisher.posts))
	}

	snap := deps.engine.Metrics().Snapshot()
	if snap["cache_hits"].(int64) != 1 {
		t.Errorf("cache_hits = %v, want 1", snap["cache_hits"])
	}
}

func TestEngine_CacheExpires(t *testing.T) {
	cfg := testEngineConfig()
	cfg.CacheExpirationMs = 1000
	deps := newTestEngine(cfg)
	ev := praiseEvent()

	if _, err := deps.engine.Process(context.Background(), ev, testBrand()); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	deps.clock.Advance(2 * time.Second)
	second, err := deps.engine.Process(context.Background(), ev, testBrand())
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if second.Cached {
		t.Error("expired cache entry should not be served")
	}
}

func TestEngine_CapacityExceeded(t *testing.T) {
	cfg := testEngineConfig()
	cfg.MaxConcurrentDecisions = 1
	release := make(chan struct{})
	deps := newTestEngine(cfg, blockingModel{release: release})

	started := make(chan struct{})
	finished := make(chan error, 1)
	go func() {
		close(started)
		_, err := deps.engine.Process(context.Background(), praiseEvent(), testBrand())
		finished <- err
	}()
	<-started
	// Let the first decision take the only slot.
	for deps.engine.ActiveCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	_, err := deps.engine.Process(context.Background(), complaintEvent(), testBrand())
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}

	close(release)
	if err := <-finished; err != nil {
		t.Fatalf("first decision failed: %v", err)
	}

	snap := deps.engine.Metrics().Snapshot()
	if snap["capacity_rejections"].(int64) != 1 {
		t.Errorf("capacity_rejections = %v, want 1", snap["capacity_rejections"])
	}
}

func TestEngine_Timeout(t *testing.T) {
	cfg := testEngineConfig()
	cfg.DecisionTimeoutMs = 20
	deps := newTestEngine(cfg, blockingModel{release: make(chan struct{})})

	result, err := deps.engine.Process(context.Background(), praiseEvent(), testBrand())
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	if !result.TimedOut {
		t.Fatal("expected timeout")
	}
	if result.ValidationPassed {
		t.Error("timed-out decision must fail validation")
	}
	if result.Routing.Route != domain.RouteHumanReview {
		t.Errorf("timed-out decision should route to human review, got %s", result.Routing.Route)
	}
	var sawTimeoutStage bool
	for _, entry := range result.Audit {
		if entry.Stage == "timeout" {
			sawTimeoutStage = true
		}
	}
	if !sawTimeoutStage {
		t.Error("audit trail should record the timeout stage")
	}

	snap := deps.engine.Metrics().Snapshot()
	if snap["timeouts"].(int64) != 1 {
		t.Errorf("timeouts = %v, want 1", snap["timeouts"])
	}
}

func TestEngine_AuditOrdering(t *testing.T) {
	deps := newTestEngine(testEngineConfig())

	result, err := deps.engine.Process(context.Background(), praiseEvent(), testBrand())
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	want := []string{"received", "analysis", "topics", "priority", "routing", "execution", "quality_gate", "completed"}
	if len(result.Audit) != len(want) {
		t.Fatalf("audit has %d entries, want %d: %+v", len(result.Audit), len(want), result.Audit)
	}
	for i, stage := range want {
		if result.Audit[i].Stage != stage {
			t.Errorf("audit[%d] = %s, want %s", i, result.Audit[i].Stage, stage)
		}
	}
}

type recordingAuditRepo struct {
	saved map[string][]domain.AuditEntry
}

func (r *recordingAuditRepo) SaveAudit(_ context.Context, decisionID string, entries []domain.AuditEntry) error {
	if r.saved == nil {
		r.saved = map[string][]domain.AuditEntry{}
	}
	r.saved[decisionID] = entries
	return nil
}

func TestEngine_PersistsAudit(t *testing.T) {
	deps := newTestEngine(testEngineConfig())
	repo := &recordingAuditRepo{}
	deps.engine.SetAuditRepository(repo)

	result, err := deps.engine.Process(context.Background(), praiseEvent(), testBrand())
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(repo.saved[result.Output.ID]) == 0 {
		t.Error("audit entries should be persisted")
	}
}

func TestEngine_SuggestionRequiresApproval(t *testing.T) {
	deps := newTestEngine(testEngineConfig())
	// complaint with medium urgency stays below always-human rules but hits
	// the never-auto rule, forcing a suggestion
	ev := complaintEvent()
	ev.Content.Text = "this is broken and damaged, please fix the issue"

	result, err := deps.engine.Process(context.Background(), ev, testBrand())
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if result.Routing.Route != domain.RouteSuggestion {
		t.Skipf("route = %s; suggestion path not reached with this input", result.Routing.Route)
	}
	if len(deps.publisher.posts) != 0 {
		t.Fatal("unapproved suggestion must not publish")
	}

	execs := deps.engine.ExecuteApproved(context.Background(), result, ev, testBrand())
	if len(execs) == 0 || execs[0].Status != domain.ExecutionSuccess {
		t.Errorf("approved suggestion should execute: %+v", execs)
	}
	if len(deps.publisher.posts) != 1 {
		t.Errorf("approved suggestion should publish exactly once, got %d", len(deps.publisher.posts))
	}
}

func TestEngine_TerminalExecutionFailure(t *testing.T) {
	deps := newTestEngine(testEngineConfig())
	deps.publisher.err = errors.New("rate limited")

	result, err := deps.engine.Process(context.Background(), praiseEvent(), testBrand())
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if result.Routing.Route != domain.RouteAutoResponse {
		t.Fatalf("route = %s", result.Routing.Route)
	}
	if result.Executions[0].Status != domain.ExecutionFailed {
		t.Fatal("publisher failure should mark the action failed")
	}
	if result.Executions[0].Terminal {
		t.Error("network failure must stay retryable")
	}
}
