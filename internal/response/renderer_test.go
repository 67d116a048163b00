package response

import (
	"strings"
	"testing"

	"github.com/ignite/engage/internal/domain"
)

func testEvent() *domain.SocialEvent {
	return &domain.SocialEvent{
		ID:       "evt-1",
		Platform: domain.PlatformInstagram,
		Content:  domain.EventContent{Text: "I love this serum!"},
		Author:   domain.Author{DisplayName: "Jamie"},
	}
}

func testBrand() *domain.BrandContext {
	return &domain.BrandContext{
		BrandID:  "brand-1",
		Personas: []domain.Persona{{ID: "p-1", Name: "Team Glow"}},
	}
}

func TestRenderer_ThankYou(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render("thank_you", testEvent(), testBrand())
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(out, "Jamie") {
		t.Errorf("output should address the author: %q", out)
	}
	if !strings.Contains(out, "the serum") {
		t.Errorf("output should mention the product: %q", out)
	}
	if !strings.Contains(out, "Team Glow") {
		t.Errorf("output should carry the persona signoff: %q", out)
	}
}

func TestRenderer_MissingAuthorAndBrand(t *testing.T) {
	r := NewRenderer()
	ev := testEvent()
	ev.Author.DisplayName = ""

	out, err := r.Render("acknowledge", ev, nil)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(out, "there") {
		t.Errorf("missing author should fall back to a generic greeting: %q", out)
	}
}

func TestRenderer_UnknownTemplate(t *testing.T) {
	r := NewRenderer()
	if _, err := r.Render("no_such_template", testEvent(), nil); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestRenderer_RegisterOverride(t *testing.T) {
	r := NewRenderer()
	r.Register("thank_you", "Cheers {{ author }}!")

	out, err := r.Render("thank_you", testEvent(), nil)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if out != "Cheers Jamie!" {
		t.Errorf("override not applied: %q", out)
	}
}

func TestRenderer_Variants(t *testing.T) {
	r := NewRenderer()

	variants, err := r.Variants("answer", testEvent(), testBrand(), 3)
	if err != nil {
		t.Fatalf("Variants() error: %v", err)
	}
	if len(variants) != 3 {
		t.Fatalf("got %d variants, want 3", len(variants))
	}
	seen := map[string]bool{}
	for _, v := range variants {
		if seen[v] {
			t.Errorf("duplicate variant %q", v)
		}
		seen[v] = true
	}
}
