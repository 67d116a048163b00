package intent

import (
	"regexp"

	"github.com/ignite/engage/internal/domain"
)

// entityPattern binds a fixed extraction pattern to an entity type with a
// static confidence for matches.
type entityPattern struct {
	typ        domain.EntityType
	re         *regexp.Regexp
	confidence float64
}

var entityPatterns = []entityPattern{
	{
		typ:        domain.EntityEmail,
		re:         regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
		confidence: 0.95,
	},
	{
		typ:        domain.EntityPrice,
		re:         regexp.MustCompile(`[$€£]\s?\d+(?:[.,]\d{1,2})?|\b\d+(?:[.,]\d{1,2})?\s?(?:dollars|usd|eur)\b`),
		confidence: 0.9,
	},
	{
		typ:        domain.EntityTime,
		re:         regexp.MustCompile(`(?i)\b(today|tomorrow|yesterday|tonight|asap|right now|immediately|\d{1,2}\s?(am|pm)|\d{1,2}:\d{2}|(mon|tues|wednes|thurs|fri|satur|sun)day)\b`),
		confidence: 0.8,
	},
	{
		typ:        domain.EntityProduct,
		re:         regexp.MustCompile(`(?i)\b(serum|cream|lotion|cleanser|moisturizer|shampoo|subscription|order\s?#?\d+|model\s?\w+\d+)\b`),
		confidence: 0.7,
	},
}

// ExtractEntities returns every pattern match in text, ordered by position
// then by type for a deterministic result set.
func ExtractEntities(text string) []domain.Entity {
	var entities []domain.Entity
	for _, p := range entityPatterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			entities = append(entities, domain.Entity{
				Type:       p.typ,
				Value:      text[loc[0]:loc[1]],
				Confidence: p.confidence,
				Position:   loc[0],
			})
		}
	}

	// Stable order: by position, then type
	for i := 1; i < len(entities); i++ {
		for j := i; j > 0; j-- {
			a, b := entities[j-1], entities[j]
			if a.Position > b.Position || (a.Position == b.Position && a.Type > b.Type) {
				entities[j-1], entities[j] = b, a
			}
		}
	}
	return entities
}

// hasTimeEntity reports whether any extracted entity is a time reference.
func hasTimeEntity(entities []domain.Entity) bool {
	for _, e := range entities {
		if e.Type == domain.EntityTime {
			return true
		}
	}
	return false
}
