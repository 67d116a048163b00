package publishing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ignite/engage/internal/domain"
)

func TestWebhookPublisher_ValidateContent(t *testing.T) {
	ig := NewWebhookPublisher(domain.PlatformInstagram, "http://example.invalid", "", http.DefaultClient)

	sched := dueSchedule("s1", domain.PlatformInstagram)
	if err := ig.ValidateContent(context.Background(), &sched); err != nil {
		t.Fatalf("valid content rejected: %v", err)
	}

	long := sched
	long.Content = strings.Repeat("a", 2201)
	if err := ig.ValidateContent(context.Background(), &long); err == nil {
		t.Error("expected instagram caption cap violation")
	}

	empty := sched
	empty.Content = ""
	if err := ig.ValidateContent(context.Background(), &empty); err == nil {
		t.Error("expected empty content rejection")
	}

	reddit := NewWebhookPublisher(domain.PlatformReddit, "http://example.invalid", "", http.DefaultClient)
	longTitle := sched
	longTitle.Title = strings.Repeat("t", 301)
	if err := reddit.ValidateContent(context.Background(), &longTitle); err == nil {
		t.Error("expected reddit title cap violation")
	}
}

func TestWebhookPublisher_PublishSuccess(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"post_id":"ig-123"}`))
	}))
	defer server.Close()

	pub := NewWebhookPublisher(domain.PlatformInstagram, server.URL, "tok-1", server.Client())
	sched := dueSchedule("s1", domain.PlatformInstagram)

	result := pub.PublishContent(context.Background(), &sched)
	if !result.Success {
		t.Fatalf("publish failed: %s", result.ErrorMessage)
	}
	if result.PlatformPostID != "ig-123" {
		t.Errorf("postID = %q, want ig-123", result.PlatformPostID)
	}
	if gotAuth != "Bearer tok-1" {
		t.Errorf("auth header = %q", gotAuth)
	}
}

func TestWebhookPublisher_ErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   domain.PublishErrorCode
	}{
		{http.StatusTooManyRequests, domain.PublishErrRateLimited},
		{http.StatusUnauthorized, domain.PublishErrAuth},
		{http.StatusForbidden, domain.PublishErrAuth},
		{http.StatusBadRequest, domain.PublishErrValidation},
		{http.StatusServiceUnavailable, domain.PublishErrUnavailable},
		{http.StatusTeapot, domain.PublishErrUnknown},
	}
	for _, tt := range tests {
		status := tt.status
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))

		pub := NewWebhookPublisher(domain.PlatformTikTok, server.URL, "", server.Client())
		sched := dueSchedule("s1", domain.PlatformTikTok)
		result := pub.PublishContent(context.Background(), &sched)
		server.Close()

		if result.Success {
			t.Errorf("status %d: unexpected success", tt.status)
			continue
		}
		if result.ErrorCode != tt.want {
			t.Errorf("status %d: code = %s, want %s", tt.status, result.ErrorCode, tt.want)
		}
	}
}

func TestWebhookPublisher_NetworkErrorIsUnavailable(t *testing.T) {
	pub := NewWebhookPublisher(domain.PlatformTikTok, "http://127.0.0.1:1", "", http.DefaultClient)
	sched := dueSchedule("s1", domain.PlatformTikTok)
	result := pub.PublishContent(context.Background(), &sched)
	if result.Success || result.ErrorCode != domain.PublishErrUnavailable {
		t.Fatalf("result = %+v, want UNAVAILABLE", result)
	}
}
