package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ignite/engage/internal/domain"
)

// Conflict detection thresholds.
const (
	overlapMediumWindow = 30 * time.Minute
	overlapHighWindow   = 15 * time.Minute
	similarityWindow    = 7 * 24 * time.Hour
	titleSimilarity     = 0.7
	tagSimilarity       = 0.8
	campaignWindow      = 120 * time.Minute
)

// CheckConflicts runs the four detectors against the candidate schedule.
// The result is deterministic for fixed inputs: detectors run in a fixed
// order and the repository returns candidates in a stable order.
func (s *Service) CheckConflicts(ctx context.Context, candidate *domain.ScheduledContent) ([]domain.SchedulingConflict, error) {
	existing, err := s.repo.ListConflictCandidates(ctx, candidate.BrandID, candidate.ScheduledTime, candidate.ID)
	if err != nil {
		return nil, fmt.Errorf("list conflict candidates: %w", err)
	}

	var conflicts []domain.SchedulingConflict
	conflicts = append(conflicts, detectTimeOverlap(candidate, existing)...)

	limitConflicts, err := s.detectPlatformLimits(ctx, candidate)
	if err != nil {
		return nil, err
	}
	conflicts = append(conflicts, limitConflicts...)

	conflicts = append(conflicts, detectContentSimilarity(candidate, existing)...)
	conflicts = append(conflicts, detectCampaignConflicts(candidate, existing)...)
	return conflicts, nil
}

// detectTimeOverlap flags schedules of the same brand sharing a platform
// within 30 minutes (medium) or 15 minutes (high).
func detectTimeOverlap(candidate *domain.ScheduledContent, existing []domain.ScheduledContent) []domain.SchedulingConflict {
	var out []domain.SchedulingConflict
	for _, other := range existing {
		if other.Status.IsTerminal() || other.Status == domain.ScheduleFailed {
			continue
		}
		if !sharesPlatform(candidate.Platforms, other.Platforms) {
			continue
		}
		delta := absDuration(candidate.ScheduledTime.Sub(other.ScheduledTime))
		if delta >= overlapMediumWindow {
			continue
		}

		severity := domain.SeverityMedium
		if delta < overlapHighWindow {
			severity = domain.SeverityHigh
		}
		newTime := other.ScheduledTime.Add(overlapMediumWindow)
		out = append(out, domain.SchedulingConflict{
			Type:     domain.ConflictTimeOverlap,
			Severity: severity,
			Description: fmt.Sprintf("within %s of schedule %q on a shared platform",
				delta.Round(time.Minute), other.Title),
			ConflictingScheduleIDs: []string{other.ID},
			SuggestedResolution: domain.ConflictResolution{
				Action:  domain.ResolveReschedule,
				NewTime: &newTime,
				Reason:  "move outside the overlap window",
			},
			AutoResolvable: severity == domain.SeverityMedium,
		})
	}
	return out
}

// detectPlatformLimits flags platforms whose daily or hourly cap would be
// exceeded at the proposed minute.
func (s *Service) detectPlatformLimits(ctx context.Context, candidate *domain.ScheduledContent) ([]domain.SchedulingConflict, error) {
	var out []domain.SchedulingConflict
	for _, platform := range candidate.Platforms {
		ok, nextAvailable, reason, err := s.limits.Check(ctx, candidate.BrandID, platform, candidate.ScheduledTime)
		if err != nil {
			return nil, fmt.Errorf("check %s limits: %w", platform, err)
		}
		if ok {
			continue
		}
		out = append(out, domain.SchedulingConflict{
			Type:        domain.ConflictPlatformLimit,
			Severity:    domain.SeverityHigh,
			Description: fmt.Sprintf("%s: %s", platform, reason),
			SuggestedResolution: domain.ConflictResolution{
				Action:  domain.ResolveReschedule,
				NewTime: &nextAvailable,
				Reason:  "next slot within platform limits",
			},
			AutoResolvable: true,
		})
	}
	return out, nil
}

// detectContentSimilarity flags near-duplicate content within 7 days.
func detectContentSimilarity(candidate *domain.ScheduledContent, existing []domain.ScheduledContent) []domain.SchedulingConflict {
	var out []domain.SchedulingConflict
	for _, other := range existing {
		if other.Status == domain.ScheduleCancelled {
			continue
		}
		if absDuration(candidate.ScheduledTime.Sub(other.ScheduledTime)) > similarityWindow {
			continue
		}
		titleJ := tokenJaccard(candidate.Title, other.Title)
		tagJ := sliceJaccard(candidate.Tags, other.Tags)
		if titleJ <= titleSimilarity && tagJ <= tagSimilarity {
			continue
		}
		out = append(out, domain.SchedulingConflict{
			Type:     domain.ConflictContentSimilarity,
			Severity: domain.SeverityLow,
			Description: fmt.Sprintf("similar to %q (title %.2f, tags %.2f)",
				other.Title, titleJ, tagJ),
			ConflictingScheduleIDs: []string{other.ID},
			SuggestedResolution: domain.ConflictResolution{
				Action: domain.ResolveIgnore,
				Reason: "duplicate-looking content may be intentional",
			},
			AutoResolvable: true,
		})
	}
	return out
}

// detectCampaignConflicts flags same-campaign schedules within two hours.
func detectCampaignConflicts(candidate *domain.ScheduledContent, existing []domain.ScheduledContent) []domain.SchedulingConflict {
	if candidate.CampaignID == nil {
		return nil
	}
	var out []domain.SchedulingConflict
	for _, other := range existing {
		if other.CampaignID == nil || *other.CampaignID != *candidate.CampaignID {
			continue
		}
		if other.Status.IsTerminal() {
			continue
		}
		delta := absDuration(candidate.ScheduledTime.Sub(other.ScheduledTime))
		if delta >= campaignWindow {
			continue
		}
		newTime := other.ScheduledTime.Add(campaignWindow)
		out = append(out, domain.SchedulingConflict{
			Type:     domain.ConflictCampaign,
			Severity: domain.SeverityMedium,
			Description: fmt.Sprintf("campaign %s already posts within %s",
				*candidate.CampaignID, delta.Round(time.Minute)),
			ConflictingScheduleIDs: []string{other.ID},
			SuggestedResolution: domain.ConflictResolution{
				Action:  domain.ResolveReschedule,
				NewTime: &newTime,
				Reason:  "space campaign posts at least two hours apart",
			},
			AutoResolvable: true,
		})
	}
	return out
}

func hasHighSeverity(conflicts []domain.SchedulingConflict) bool {
	for _, c := range conflicts {
		if c.Severity == domain.SeverityHigh {
			return true
		}
	}
	return false
}

func sharesPlatform(a, b []domain.Platform) bool {
	for _, pa := range a {
		for _, pb := range b {
			if pa == pb {
				return true
			}
		}
	}
	return false
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func tokenJaccard(a, b string) float64 {
	return sliceJaccard(strings.Fields(strings.ToLower(a)), strings.Fields(strings.ToLower(b)))
}

func sliceJaccard(a, b []string) float64 {
	sa := map[string]bool{}
	for _, s := range a {
		sa[strings.ToLower(s)] = true
	}
	sb := map[string]bool{}
	for _, s := range b {
		sb[strings.ToLower(s)] = true
	}
	if len(sa) == 0 && len(sb) == 0 {
		return 0
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
