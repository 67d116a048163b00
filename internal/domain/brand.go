package domain

// Playbook holds a brand's voice and engagement rules. Versioned; cached
// brand contexts are invalidated when the version changes.
type Playbook struct {
	Version string   `json:"version"`
	Voice   string   `json:"voice"`
	Tone    string   `json:"tone"`
	Rules   []string `json:"rules,omitempty"`
}

// Persona is a response identity for a brand. The first persona in a
// BrandContext is the default.
type Persona struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// BrandAsset points at reusable brand material (logos, reply imagery).
type BrandAsset struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	URL  string `json:"url"`
}

// BrandContext is the operating context a decision runs under. It is owned
// by the brand service; this module is a read-only consumer.
type BrandContext struct {
	BrandID  string       `json:"brand_id"`
	Playbook Playbook     `json:"playbook"`
	Personas []Persona    `json:"personas"` // ordered; first is default
	Assets   []BrandAsset `json:"assets,omitempty"`
}

// DefaultPersona returns the first persona, or a zero Persona when none exist.
func (b *BrandContext) DefaultPersona() Persona {
	if len(b.Personas) == 0 {
		return Persona{}
	}
	return b.Personas[0]
}
