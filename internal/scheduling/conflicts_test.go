package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/ignite/engage/internal/config"
	"github.com/ignite/engage/internal/domain"
)

func conflictSchedule(id, title string, at time.Time, platforms ...domain.Platform) domain.ScheduledContent {
	if len(platforms) == 0 {
		platforms = []domain.Platform{domain.PlatformInstagram}
	}
	return domain.ScheduledContent{
		ID:            id,
		BrandID:       "brand-1",
		Title:         title,
		Content:       "body",
		Platforms:     platforms,
		ScheduledTime: at,
		Status:        domain.ScheduleScheduled,
	}
}

func TestDetectTimeOverlap_SeverityBands(t *testing.T) {
	base := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	candidate := conflictSchedule("cand", "Launch day", base)

	tests := []struct {
		name     string
		offset   time.Duration
		want     int
		severity domain.ConflictSeverity
	}{
		{"ten minutes is high", 10 * time.Minute, 1, domain.SeverityHigh},
		{"fourteen minutes is high", 14 * time.Minute, 1, domain.SeverityHigh},
		{"twenty minutes is medium", 20 * time.Minute, 1, domain.SeverityMedium},
		{"thirty minutes clears", 30 * time.Minute, 0, ""},
		{"an hour clears", time.Hour, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := conflictSchedule("other", "Other post", base.Add(tt.offset))
			got := detectTimeOverlap(&candidate, []domain.ScheduledContent{other})
			if len(got) != tt.want {
				t.Fatalf("conflicts = %d, want %d", len(got), tt.want)
			}
			if tt.want == 1 && got[0].Severity != tt.severity {
				t.Errorf("severity = %s, want %s", got[0].Severity, tt.severity)
			}
		})
	}
}

func TestDetectTimeOverlap_RequiresSharedPlatform(t *testing.T) {
	base := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	candidate := conflictSchedule("cand", "Launch day", base, domain.PlatformInstagram)
	other := conflictSchedule("other", "Other post", base.Add(5*time.Minute), domain.PlatformTikTok)

	if got := detectTimeOverlap(&candidate, []domain.ScheduledContent{other}); len(got) != 0 {
		t.Fatalf("conflicts = %d, want 0 across disjoint platforms", len(got))
	}
}

func TestDetectContentSimilarity(t *testing.T) {
	base := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

	candidate := conflictSchedule("cand", "big spring launch sale today", base)
	nearDup := conflictSchedule("dup", "big spring launch sale now today", base.Add(48*time.Hour))
	unrelated := conflictSchedule("other", "weekly engineering notes", base.Add(48*time.Hour))
	tooOld := conflictSchedule("old", "big spring launch sale today", base.Add(-8*24*time.Hour))

	got := detectContentSimilarity(&candidate, []domain.ScheduledContent{nearDup, unrelated, tooOld})
	if len(got) != 1 {
		t.Fatalf("conflicts = %d, want 1", len(got))
	}
	if got[0].Severity != domain.SeverityLow {
		t.Errorf("severity = %s, want low", got[0].Severity)
	}
	if got[0].ConflictingScheduleIDs[0] != "dup" {
		t.Errorf("conflicting id = %s, want dup", got[0].ConflictingScheduleIDs[0])
	}
}

func TestDetectContentSimilarity_TagOverlap(t *testing.T) {
	base := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	candidate := conflictSchedule("cand", "morning post", base)
	candidate.Tags = []string{"skincare", "launch", "serum", "spring", "sale"}
	other := conflictSchedule("other", "evening post", base.Add(24*time.Hour))
	other.Tags = []string{"skincare", "launch", "serum", "spring", "sale"}

	got := detectContentSimilarity(&candidate, []domain.ScheduledContent{other})
	if len(got) != 1 || got[0].Type != domain.ConflictContentSimilarity {
		t.Fatalf("conflicts = %+v, want one content-similarity", got)
	}
}

func TestDetectCampaignConflicts(t *testing.T) {
	base := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	campaign := "camp-1"
	otherCampaign := "camp-2"

	candidate := conflictSchedule("cand", "campaign kickoff", base)
	candidate.CampaignID = &campaign

	near := conflictSchedule("near", "campaign follow-up", base.Add(90*time.Minute))
	near.CampaignID = &campaign
	far := conflictSchedule("far", "campaign wrap", base.Add(3*time.Hour))
	far.CampaignID = &campaign
	other := conflictSchedule("other", "unrelated", base.Add(30*time.Minute))
	other.CampaignID = &otherCampaign

	got := detectCampaignConflicts(&candidate, []domain.ScheduledContent{near, far, other})
	if len(got) != 1 {
		t.Fatalf("conflicts = %d, want 1", len(got))
	}
	if got[0].Type != domain.ConflictCampaign || got[0].Severity != domain.SeverityMedium {
		t.Errorf("conflict = %+v, want medium campaign-conflict", got[0])
	}
	if got[0].ConflictingScheduleIDs[0] != "near" {
		t.Errorf("conflicting id = %s, want near", got[0].ConflictingScheduleIDs[0])
	}
}

func TestDetectCampaignConflicts_NoCampaign(t *testing.T) {
	base := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	candidate := conflictSchedule("cand", "standalone", base)
	campaign := "camp-1"
	other := conflictSchedule("other", "campaign post", base.Add(10*time.Minute))
	other.CampaignID = &campaign

	if got := detectCampaignConflicts(&candidate, []domain.ScheduledContent{other}); len(got) != 0 {
		t.Fatalf("conflicts = %d, want 0 without a campaign", len(got))
	}
}

func TestJaccardHelpers(t *testing.T) {
	if got := tokenJaccard("Big Spring Launch", "big spring launch"); got != 1 {
		t.Errorf("identical titles jaccard = %v, want 1", got)
	}
	if got := tokenJaccard("alpha beta", "gamma delta"); got != 0 {
		t.Errorf("disjoint titles jaccard = %v, want 0", got)
	}
	if got := sliceJaccard(nil, nil); got != 0 {
		t.Errorf("empty sets jaccard = %v, want 0", got)
	}
	if got := sliceJaccard([]string{"a", "b"}, []string{"b", "c"}); got != 1.0/3.0 {
		t.Errorf("jaccard = %v, want 1/3", got)
	}
}

func TestLimits_MinInterval(t *testing.T) {
	repo := newMemRepo()
	cfg := testSchedulingConfig()
	cfg.PlatformLimits[domain.PlatformReddit] = config.PlatformLimit{
		DailyLimit: 10, HourlyLimit: 10, MinIntervalMinutes: 30,
	}

	limits := NewLimits(cfg, repo)
	at := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	ctx := context.Background()

	existing := conflictSchedule("e1", "first", at.Add(-20*time.Minute), domain.PlatformReddit)
	if err := repo.Create(ctx, &existing); err != nil {
		t.Fatalf("seed: %v", err)
	}

	ok, next, reason, err := limits.Check(ctx, "brand-1", domain.PlatformReddit, at)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if ok {
		t.Fatal("expected interval violation")
	}
	if reason == "" || next.Before(at) {
		t.Errorf("next = %v reason = %q, want later slot with reason", next, reason)
	}
}
