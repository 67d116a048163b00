package intent

import (
	"regexp"

	"github.com/ignite/engage/internal/domain"
)

// Per-signal scoring contributions. Regex patterns are the strongest signal,
// then keywords, then context clues.
const (
	keywordWeight = 0.3
	patternWeight = 0.4
	clueWeight    = 0.2
)

// intentRule defines the detection signals for one intent category.
type intentRule struct {
	intent   domain.Intent
	keywords []string
	patterns []*regexp.Regexp
	clues    []string
}

// intentRules is the fixed rule table, total over the recognized intents
// (GENERAL is the zero-score default and needs no rule).
var intentRules = []intentRule{
	{
		intent:   domain.IntentComplaint,
		keywords: []string{"broken", "defective", "terrible", "awful", "worst", "disappointed", "unacceptable", "damaged", "faulty"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(doesn'?t|does not|won'?t|will not) work\b`),
			regexp.MustCompile(`(?i)\bstopped working\b`),
			regexp.MustCompile(`(?i)\bcompletely (broken|useless|ruined)\b`),
			regexp.MustCompile(`(?i)\bnever (buy|order|purchase).*again\b`),
		},
		clues: []string{"issue", "problem", "fix", "support", "help me"},
	},
	{
		intent:   domain.IntentRefund,
		keywords: []string{"refund", "money back", "chargeback", "reimburse", "return it"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(want|need|demand)\s+(a\s+)?refund\b`),
			regexp.MustCompile(`(?i)\bmy money back\b`),
		},
		clues: []string{"receipt", "order number", "purchased", "paid"},
	},
	{
		intent:   domain.IntentQuestion,
		keywords: []string{"how", "what", "when", "where", "why", "which", "can i", "do you"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\?`),
			regexp.MustCompile(`(?i)^(is|are|does|do|can|could|would|will)\b`),
		},
		clues: []string{"wondering", "curious", "anyone know"},
	},
	{
		intent:   domain.IntentPraise,
		keywords: []string{"love", "amazing", "best", "excellent", "perfect", "fantastic", "awesome", "great", "wonderful"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(love|loving) (it|this|your)\b`),
			regexp.MustCompile(`(?i)\bbest .{0,30}\bever\b`),
			regexp.MustCompile(`(?i)\bhighly recommend\b`),
		},
		clues: []string{"thank you", "thanks", "recommend", "five stars", "5 stars"},
	},
	{
		intent:   domain.IntentPurchase,
		keywords: []string{"buy", "purchase", "order", "price", "cost", "available", "in stock", "shipping"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bwhere (can|do) i (buy|get|order)\b`),
			regexp.MustCompile(`(?i)\bhow much (is|does|cost)\b`),
			regexp.MustCompile(`(?i)\btake my money\b`),
		},
		clues: []string{"link", "website", "store", "discount", "coupon"},
	},
	{
		intent:   domain.IntentSpam,
		keywords: []string{"click here", "free money", "winner", "crypto", "forex", "dm me", "follow back"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bcheck (out )?my (profile|bio|page)\b`),
			regexp.MustCompile(`(?i)\bmake \$?\d+.{0,20}(day|week|home)\b`),
		},
		clues: []string{"promo", "subscribe", "giveaway"},
	},
}
