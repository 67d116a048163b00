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
	"github.com/ignite/engage/internal/pkg/logger"
)

// WebhookResponder posts auto-responses back to the originating platform
// through the response webhook. Satisfies the decision executor's publisher
// contract.
type WebhookResponder struct {
	endpoint string
	token    string
	client   httpretry.HTTPDoer
}

// NewWebhookResponder creates a responder. A nil client gets a retrying
// default.
func NewWebhookResponder(endpoint, token string, client httpretry.HTTPDoer) *WebhookResponder {
	if client == nil {
		client = httpretry.NewRetryClient(nil, 2)
	}
	return &WebhookResponder{
		endpoint: endpoint,
		token:    token,
		client:   client,
	}
}

type responsePayload struct {
	EventID  string `json:"event_id"`
	Platform string `json:"platform"`
	AuthorID string `json:"author_id"`
	Text     string `json:"text"`
}

// PublishResponse posts a reply to the event. Returns the platform post id
// reported by the gateway, or a generated one when the gateway stays silent.
func (r *WebhookResponder) PublishResponse(ctx context.Context, event *domain.SocialEvent, text string) (string, error) {
	payload, err := json.Marshal(responsePayload{
		EventID:  event.ID,
		Platform: string(event.Platform),
		AuthorID: event.Author.ID,
		Text:     text,
	})
	if err != nil {
		return "", fmt.Errorf("encode response payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build response request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(payload)), nil
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("response webhook: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("response webhook: HTTP %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var pr publishResponse
	if json.Unmarshal(body, &pr) == nil && pr.PostID != "" {
		return pr.PostID, nil
	}
	return uuid.New().String(), nil
}

// OperatorNotifier delivers operator alerts to the structured log. Stands in
// until a chat or paging integration is configured.
type OperatorNotifier struct{}

func (OperatorNotifier) Notify(_ context.Context, subject, detail string) error {
	logger.Info("operator alert", "subject", subject, "detail", detail)
	return nil
}
