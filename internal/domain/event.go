package domain

import "time"

// Platform enumerates the supported social platforms.
type Platform string

const (
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformYouTube   Platform = "youtube"
	PlatformReddit    Platform = "reddit"
	PlatformRSS       Platform = "rss"
)

// AllPlatforms lists every supported platform. Per-platform modifier tables
// must be total over this set; missing keys default to 1.0 at the call site.
var AllPlatforms = []Platform{
	PlatformTikTok,
	PlatformInstagram,
	PlatformFacebook,
	PlatformYouTube,
	PlatformReddit,
	PlatformRSS,
}

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	for _, known := range AllPlatforms {
		if p == known {
			return true
		}
	}
	return false
}

// EventType enumerates the kinds of inbound social events.
type EventType string

const (
	EventPost    EventType = "post"
	EventComment EventType = "comment"
	EventMention EventType = "mention"
)

// Author is the account that produced a social event.
type Author struct {
	ID            string `json:"id"`
	DisplayName   string `json:"display_name"`
	FollowerCount int64  `json:"follower_count"`
	Verified      bool   `json:"verified"`
}

// Engagement carries the interaction counts attached to an event.
type Engagement struct {
	Likes          int64   `json:"likes"`
	Shares         int64   `json:"shares"`
	Comments       int64   `json:"comments"`
	Views          int64   `json:"views"`
	EngagementRate float64 `json:"engagement_rate"` // [0,1]
}

// EventContent is the textual payload of a social event.
type EventContent struct {
	Text      string   `json:"text"`
	Hashtags  []string `json:"hashtags,omitempty"`
	Mentions  []string `json:"mentions,omitempty"`
	MediaURLs []string `json:"media_urls,omitempty"`
}

// SocialEvent is an inbound post, comment, or mention. Events are immutable
// once received; decisions reference them by ID forever.
type SocialEvent struct {
	ID         string       `json:"id"`
	Type       EventType    `json:"type"`
	Platform   Platform     `json:"platform"`
	Timestamp  time.Time    `json:"timestamp"`
	Content    EventContent `json:"content"`
	Author     Author       `json:"author"`
	Engagement Engagement   `json:"engagement"`
}

// AgeAt returns the event age at the given instant, floored at zero.
func (e *SocialEvent) AgeAt(now time.Time) time.Duration {
	age := now.Sub(e.Timestamp)
	if age < 0 {
		return 0
	}
	return age
}
