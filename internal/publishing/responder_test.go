package publishing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ignite/engage/internal/domain"
)

func responderEvent() *domain.SocialEvent {
	return &domain.SocialEvent{
		ID:       "evt-1",
		Platform: domain.PlatformInstagram,
		Author:   domain.Author{ID: "a-1"},
	}
}

func TestWebhookResponder_Success(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"post_id":"reply-9"}`))
	}))
	defer srv.Close()

	responder := NewWebhookResponder(srv.URL, "tok-1", nil)
	postID, err := responder.PublishResponse(context.Background(), responderEvent(), "thanks for the love!")
	if err != nil {
		t.Fatalf("PublishResponse: %v", err)
	}
	if postID != "reply-9" {
		t.Errorf("post id = %q", postID)
	}
	if gotAuth != "Bearer tok-1" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if !strings.Contains(gotBody, `"event_id":"evt-1"`) {
		t.Errorf("body = %s", gotBody)
	}
}

func TestWebhookResponder_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	responder := NewWebhookResponder(srv.URL, "", nil)
	if _, err := responder.PublishResponse(context.Background(), responderEvent(), "hi"); err == nil {
		t.Fatal("expected error for HTTP 502")
	}
}
