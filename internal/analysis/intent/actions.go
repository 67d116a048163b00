package intent

import "github.com/ignite/engage/internal/domain"

// baseActions maps each intent to its suggested follow-ups with a base
// priority on the [1,10] scale.
var baseActions = map[domain.Intent][]domain.NextAction{
	domain.IntentComplaint: {
		{Action: "acknowledge_issue", Priority: 8},
		{Action: "route_to_support", Priority: 7},
		{Action: "offer_resolution", Priority: 6},
	},
	domain.IntentRefund: {
		{Action: "verify_purchase", Priority: 8},
		{Action: "route_to_billing", Priority: 8},
		{Action: "send_refund_policy", Priority: 5},
	},
	domain.IntentQuestion: {
		{Action: "answer_question", Priority: 6},
		{Action: "link_help_article", Priority: 4},
	},
	domain.IntentPraise: {
		{Action: "thank_author", Priority: 4},
		{Action: "request_review", Priority: 3},
		{Action: "flag_for_reshare", Priority: 2},
	},
	domain.IntentPurchase: {
		{Action: "send_product_link", Priority: 7},
		{Action: "share_promotion", Priority: 5},
	},
	domain.IntentSpam: {
		{Action: "hide_comment", Priority: 3},
		{Action: "report_account", Priority: 2},
	},
	domain.IntentGeneral: {
		{Action: "monitor_thread", Priority: 2},
	},
}

// nextActionsFor returns the action list for the intent with priorities
// shifted by urgency: +1 for high, +1 for critical on top of that, -1 for
// minimal. Priorities stay within [1,10].
func nextActionsFor(intent domain.Intent, level domain.UrgencyLevel) []domain.NextAction {
	base := baseActions[intent]
	if base == nil {
		base = baseActions[domain.IntentGeneral]
	}

	var shift int
	switch level {
	case domain.UrgencyCritical:
		shift = 2
	case domain.UrgencyHigh:
		shift = 1
	case domain.UrgencyMinimal:
		shift = -1
	}

	out := make([]domain.NextAction, len(base))
	for i, a := range base {
		p := a.Priority + shift
		if p < 1 {
			p = 1
		}
		if p > 10 {
			p = 10
		}
		out[i] = domain.NextAction{Action: a.Action, Priority: p}
	}
	return out
}
