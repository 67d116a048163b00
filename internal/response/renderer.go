// Package response renders reply text from Liquid templates, bound to the
// brand voice and the triggering event.
package response

import (
	"fmt"
	"strings"
	"sync"

	"github.com/osteele/liquid"

	"github.com/ignite/engage/internal/domain"
)

// Built-in template catalog. Brands may register overrides at runtime.
var builtinTemplates = map[string]string{
	"thank_you": "Thank you so much, {{ author }}! " +
		"We're thrilled you're enjoying {{ product | default: \"it\" }}. {{ signoff }}",
	"answer": "Great question, {{ author }}! {{ answer | default: \"Our team will follow up with details shortly.\" }} {{ signoff }}",
	"purchase_info": "Hi {{ author }}, you can find {{ product | default: \"our products\" }} at {{ store_url | default: \"our store\" }}. {{ signoff }}",
	"apology": "Hi {{ author }}, we're really sorry about this. " +
		"Please send us a direct message with your order details so we can make it right. {{ signoff }}",
	"acknowledge": "Thanks for reaching out, {{ author }}. We've noted your message and will follow up if needed. {{ signoff }}",
}

// Renderer renders response templates. Parsed templates are cached; the
// cache is safe for concurrent use.
type Renderer struct {
	engine    *liquid.Engine
	templates map[string]string
	cache     sync.Map // map[string]*liquid.Template
	mu        sync.RWMutex
}

func NewRenderer() *Renderer {
	templates := make(map[string]string, len(builtinTemplates))
	for name, src := range builtinTemplates {
		templates[name] = src
	}
	return &Renderer{
		engine:    liquid.NewEngine(),
		templates: templates,
	}
}

// Register adds or replaces a named template and invalidates its cache entry.
func (r *Renderer) Register(name, source string) {
	r.mu.Lock()
	r.templates[name] = source
	r.mu.Unlock()
	r.cache.Delete(name)
}

// Has reports whether a template is registered.
func (r *Renderer) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.templates[name]
	return ok
}

// Render binds the event and brand context into the named template.
func (r *Renderer) Render(name string, event *domain.SocialEvent, brand *domain.BrandContext) (string, error) {
	tpl, err := r.compiled(name)
	if err != nil {
		return "", err
	}

	binding := map[string]any{
		"author":   displayName(event),
		"platform": string(event.Platform),
		"signoff":  signoff(brand),
	}
	if product := firstProductMention(event); product != "" {
		binding["product"] = product
	}

	out, err := tpl.RenderString(binding)
	if err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return strings.Join(strings.Fields(out), " "), nil
}

// Variants renders n stylistic variants of the template for suggestion
// review. The first variant is the plain rendering.
func (r *Renderer) Variants(name string, event *domain.SocialEvent, brand *domain.BrandContext, n int) ([]string, error) {
	base, err := r.Render(name, event, brand)
	if err != nil {
		return nil, err
	}
	prefixes := []string{"", "Hey! ", "Quick note: "}
	var out []string
	for i := 0; i < n && i < len(prefixes); i++ {
		out = append(out, strings.TrimSpace(prefixes[i]+base))
	}
	return out, nil
}

func (r *Renderer) compiled(name string) (*liquid.Template, error) {
	if cached, ok := r.cache.Load(name); ok {
		return cached.(*liquid.Template), nil
	}

	r.mu.RLock()
	src, ok := r.templates[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown response template %q", name)
	}

	tpl, err := r.engine.ParseString(src)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	r.cache.Store(name, tpl)
	return tpl, nil
}

func displayName(event *domain.SocialEvent) string {
	if event.Author.DisplayName != "" {
		return event.Author.DisplayName
	}
	return "there"
}

func signoff(brand *domain.BrandContext) string {
	if brand == nil {
		return ""
	}
	persona := brand.DefaultPersona()
	if persona.Name == "" {
		return ""
	}
	return "- " + persona.Name
}

func firstProductMention(event *domain.SocialEvent) string {
	lower := strings.ToLower(event.Content.Text)
	for _, product := range []string{"serum", "cream", "cleanser", "moisturizer", "subscription"} {
		if strings.Contains(lower, product) {
			return "the " + product
		}
	}
	return ""
}
