package domain

import "time"

// SentimentLabel classifies overall sentiment by sign thresholds.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// OverallSentiment is the ensemble sentiment verdict for an event.
type OverallSentiment struct {
	Label      SentimentLabel `json:"label"`
	Score      float64        `json:"score"`      // [-1,1]
	Confidence float64        `json:"confidence"` // [0,1]
}

// ModelScore is one model's contribution to the ensemble.
type ModelScore struct {
	Model      string  `json:"model"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Weight     float64 `json:"weight"`
	Err        string  `json:"error,omitempty"`
}

// AspectSentiment is sentiment evaluated on a windowed substring around a
// configured aspect term or one of its synonyms.
type AspectSentiment struct {
	Aspect   string         `json:"aspect"`
	Label    SentimentLabel `json:"label"`
	Score    float64        `json:"score"`
	Mentions int            `json:"mentions"`
}

// PlatformAdjustment records the platform tilt applied to the raw ensemble score.
type PlatformAdjustment struct {
	OriginalScore    float64 `json:"original_score"`
	AdjustedScore    float64 `json:"adjusted_score"`
	AdjustmentFactor float64 `json:"adjustment_factor"`
}

// SentimentResult is the full output of the sentiment analyzer. Derived,
// not persisted individually.
type SentimentResult struct {
	Overall          OverallSentiment   `json:"overall"`
	ModelScores      []ModelScore       `json:"model_scores,omitempty"`
	Aspects          []AspectSentiment  `json:"aspects,omitempty"`
	PlatformAdjusted PlatformAdjustment `json:"platform_adjusted"`
	FallbackUsed     bool               `json:"fallback_used,omitempty"`
	AnalyzedAt       time.Time          `json:"analyzed_at"`
}

// Intent enumerates the recognized intent categories.
type Intent string

const (
	IntentComplaint Intent = "COMPLAINT"
	IntentQuestion  Intent = "QUESTION"
	IntentPraise    Intent = "PRAISE"
	IntentPurchase  Intent = "PURCHASE_INTENT"
	IntentRefund    Intent = "REFUND_REQUEST"
	IntentSpam      Intent = "SPAM"
	IntentGeneral   Intent = "GENERAL"
)

// EntityType enumerates extractable entity kinds.
type EntityType string

const (
	EntityProduct EntityType = "product"
	EntityPrice   EntityType = "price"
	EntityTime    EntityType = "time"
	EntityEmail   EntityType = "email"
)

// Entity is a typed span extracted from event text.
type Entity struct {
	Type       EntityType `json:"type"`
	Value      string     `json:"value"`
	Confidence float64    `json:"confidence"`
	Position   int        `json:"position"`
}

// UrgencyLevel buckets the urgency score by five thresholds.
type UrgencyLevel string

const (
	UrgencyMinimal  UrgencyLevel = "minimal"
	UrgencyLow      UrgencyLevel = "low"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyCritical UrgencyLevel = "critical"
)

// Urgency scores how quickly an event needs attention.
type Urgency struct {
	Level   UrgencyLevel `json:"level"`
	Score   float64      `json:"score"` // [0,1]
	Factors []string     `json:"factors,omitempty"`
}

// IntentMatch is a single scored intent candidate.
type IntentMatch struct {
	Intent     Intent   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Reasoning  []string `json:"reasoning,omitempty"`
}

// NextAction is a suggested follow-up derived from the detected intent.
type NextAction struct {
	Action   string `json:"action"`
	Priority int    `json:"priority"` // [1,10]
}

// IntentResult is the full output of the intent classifier.
type IntentResult struct {
	Primary      IntentMatch  `json:"primary"`
	Secondary    *IntentMatch `json:"secondary,omitempty"`
	Entities     []Entity     `json:"entities,omitempty"`
	Urgency      Urgency      `json:"urgency"`
	NextActions  []NextAction `json:"next_actions,omitempty"`
	FallbackUsed bool         `json:"fallback_used,omitempty"`
}

// PriorityComponents are the raw [0,1] inputs to the composite priority score.
type PriorityComponents struct {
	Urgency   float64 `json:"urgency"`
	Impact    float64 `json:"impact"`
	Sentiment float64 `json:"sentiment"`
	Reach     float64 `json:"reach"`
	BrandRisk float64 `json:"brand_risk"`
}

// PriorityBusinessRules records rule effects applied during scoring.
type PriorityBusinessRules struct {
	AutoEscalation   bool     `json:"auto_escalation"`
	TimeDecay        float64  `json:"time_decay"`
	AppliedModifiers []string `json:"applied_modifiers,omitempty"`
}

// PriorityMetadata carries scoring provenance.
type PriorityMetadata struct {
	EventAgeHours float64 `json:"event_age_hours"`
	Confidence    float64 `json:"confidence"`
	Version       string  `json:"version"`
}

// PriorityScore is the weighted composite priority for an event.
// Overall is monotone non-decreasing in each component for fixed others.
type PriorityScore struct {
	Overall       float64               `json:"overall"` // [0,100]
	Components    PriorityComponents    `json:"components"`
	Factors       []string              `json:"factors,omitempty"`
	BusinessRules PriorityBusinessRules `json:"business_rules"`
	Metadata      PriorityMetadata      `json:"metadata"`
}
