package publishing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/ignite/engage/internal/domain"
	"github.com/ignite/engage/internal/pkg/httpretry"
)

// contentCaps are per-platform caption/body length limits.
var contentCaps = map[domain.Platform]int{
	domain.PlatformTikTok:    2200,
	domain.PlatformInstagram: 2200,
	domain.PlatformFacebook:  63206,
	domain.PlatformYouTube:   5000,
	domain.PlatformReddit:    40000,
	domain.PlatformRSS:       100000,
}

const redditTitleCap = 300

// WebhookPublisher publishes through a per-platform HTTP endpoint, typically
// a social API gateway. HTTP status codes map onto the publish error
// taxonomy so the dispatcher can pick retry or fail.
type WebhookPublisher struct {
	platform domain.Platform
	endpoint string
	token    string
	client   httpretry.HTTPDoer
}

// NewWebhookPublisher creates a publisher for one platform endpoint. A nil
// client gets a retrying default.
func NewWebhookPublisher(platform domain.Platform, endpoint, token string, client httpretry.HTTPDoer) *WebhookPublisher {
	if client == nil {
		client = httpretry.NewRetryClient(nil, 2)
	}
	return &WebhookPublisher{
		platform: platform,
		endpoint: endpoint,
		token:    token,
		client:   client,
	}
}

func (p *WebhookPublisher) Platform() domain.Platform { return p.platform }

// ValidateContent enforces the platform's length caps.
func (p *WebhookPublisher) ValidateContent(_ context.Context, sched *domain.ScheduledContent) error {
	if sched.Content == "" {
		return fmt.Errorf("empty content")
	}
	if limit, ok := contentCaps[p.platform]; ok && len(sched.Content) > limit {
		return fmt.Errorf("content length %d exceeds %s cap of %d", len(sched.Content), p.platform, limit)
	}
	if p.platform == domain.PlatformReddit && len(sched.Title) > redditTitleCap {
		return fmt.Errorf("title length %d exceeds reddit cap of %d", len(sched.Title), redditTitleCap)
	}
	return nil
}

type publishPayload struct {
	IdempotencyKey string   `json:"idempotency_key"`
	BrandID        string   `json:"brand_id"`
	Title          string   `json:"title,omitempty"`
	Content        string   `json:"content"`
	ContentType    string   `json:"content_type"`
	Tags           []string `json:"tags,omitempty"`
}

type publishResponse struct {
	PostID string `json:"post_id"`
	Error  string `json:"error,omitempty"`
}

// PublishContent posts the content to the platform endpoint.
func (p *WebhookPublisher) PublishContent(ctx context.Context, sched *domain.ScheduledContent) domain.PublishResult {
	payload, err := json.Marshal(publishPayload{
		IdempotencyKey: fmt.Sprintf("%s:%s", sched.ID, p.platform),
		BrandID:        sched.BrandID,
		Title:          sched.Title,
		Content:        sched.Content,
		ContentType:    string(sched.ContentType),
		Tags:           sched.Tags,
	})
	if err != nil {
		return p.fail(domain.PublishErrUnknown, fmt.Sprintf("encode payload: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return p.fail(domain.PublishErrUnknown, fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(payload)), nil
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return p.fail(domain.PublishErrUnavailable, err.Error())
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var pr publishResponse
		postID := uuid.New().String()
		if json.Unmarshal(body, &pr) == nil && pr.PostID != "" {
			postID = pr.PostID
		}
		return domain.PublishResult{
			Platform:       p.platform,
			Success:        true,
			PlatformPostID: postID,
		}
	}

	return p.fail(codeForStatus(resp.StatusCode), fmt.Sprintf("HTTP %d: %s", resp.StatusCode, truncate(string(body), 200)))
}

func (p *WebhookPublisher) fail(code domain.PublishErrorCode, message string) domain.PublishResult {
	return domain.PublishResult{
		Platform:     p.platform,
		ErrorCode:    code,
		ErrorMessage: message,
	}
}

func codeForStatus(status int) domain.PublishErrorCode {
	switch {
	case status == http.StatusTooManyRequests:
		return domain.PublishErrRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.PublishErrAuth
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return domain.PublishErrValidation
	case status >= 500:
		return domain.PublishErrUnavailable
	default:
		return domain.PublishErrUnknown
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
