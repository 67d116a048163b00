package scheduling

import (
	"fmt"
	"sort"
	"time"

	"github.com/ignite/engage/internal/domain"
)

// platformHourScores are baseline engagement scores by UTC hour, derived
// from aggregate platform engagement studies. Hours absent score 0.3.
var platformHourScores = map[domain.Platform]map[int]float64{
	domain.PlatformTikTok: {
		6: 0.55, 10: 0.7, 12: 0.65, 15: 0.75, 19: 0.9, 20: 0.85, 21: 0.8,
	},
	domain.PlatformInstagram: {
		7: 0.6, 11: 0.8, 12: 0.75, 13: 0.7, 17: 0.85, 18: 0.8, 19: 0.75,
	},
	domain.PlatformFacebook: {
		9: 0.7, 11: 0.75, 13: 0.8, 15: 0.75, 19: 0.65,
	},
	domain.PlatformYouTube: {
		12: 0.6, 15: 0.7, 17: 0.8, 18: 0.85, 20: 0.75,
	},
	domain.PlatformReddit: {
		8: 0.65, 9: 0.7, 12: 0.75, 22: 0.7, 23: 0.65,
	},
	domain.PlatformRSS: {
		6: 0.7, 7: 0.75, 8: 0.7, 12: 0.6,
	},
}

// weekendModifier scales scores on Saturday and Sunday per platform.
var weekendModifier = map[domain.Platform]float64{
	domain.PlatformTikTok:    1.1,
	domain.PlatformInstagram: 1.05,
	domain.PlatformFacebook:  0.9,
	domain.PlatformYouTube:   1.15,
	domain.PlatformReddit:    1.0,
	domain.PlatformRSS:       0.7,
}

// videoHourBonus favors evening slots for video content.
const videoHourBonus = 0.05

// SuggestOptimalTimes returns the top-k posting times inside [from, to),
// across the given platforms, ranked by projected engagement. The result is
// deterministic: ties break by time, then platform.
func (s *Service) SuggestOptimalTimes(platforms []domain.Platform, contentType domain.ContentType, from, to time.Time, k int) ([]domain.OptimalPostingTime, error) {
	if len(platforms) == 0 {
		return nil, ErrNoPlatforms
	}
	for _, p := range platforms {
		if !p.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrBadPlatform, p)
		}
	}
	if !to.After(from) {
		return nil, fmt.Errorf("%w: empty suggestion range", ErrTimeInPast)
	}

	var candidates []domain.OptimalPostingTime
	for t := from.Truncate(time.Hour); t.Before(to); t = t.Add(time.Hour) {
		if t.Before(from) {
			continue
		}
		for _, platform := range platforms {
			score := hourScore(platform, contentType, t)
			candidates = append(candidates, domain.OptimalPostingTime{
				Platform: platform,
				Time:     t,
				Score:    score,
				Reason:   fmt.Sprintf("projected engagement %.2f at %02d:00 UTC", score, t.UTC().Hour()),
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Time.Equal(b.Time) {
			return a.Time.Before(b.Time)
		}
		return a.Platform < b.Platform
	})

	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

func hourScore(platform domain.Platform, contentType domain.ContentType, t time.Time) float64 {
	score := 0.3
	if hs, ok := platformHourScores[platform][t.UTC().Hour()]; ok {
		score = hs
	}
	if wd := t.UTC().Weekday(); wd == time.Saturday || wd == time.Sunday {
		score *= weekendModifier[platform]
	}
	if (contentType == domain.ContentTypeVideo || contentType == domain.ContentTypeReel) && t.UTC().Hour() >= 17 {
		score += videoHourBonus
	}
	if score > 1 {
		score = 1
	}
	return score
}
