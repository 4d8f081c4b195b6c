package domain

import "time"

type RecommendationStatus string

const (
	StatusEligible           RecommendationStatus = "eligible"
	StatusRequirementsNotMet RecommendationStatus = "requirements_not_met"
)

// Recommendation is one surfaced education item or partner offer.
// Ineligible offers are surfaced too, marked requirements_not_met with
// the unmet condition named, never silently omitted.
type Recommendation struct {
	ID             string               `json:"id"`
	UserID         string               `json:"user_id"`
	Type           ItemType             `json:"type"`
	CatalogItemID  string               `json:"catalog_item_id"`
	Title          string               `json:"title"`
	Rationale      string               `json:"rendered_rationale"`
	Rank           int                  `json:"rank"`
	Status         RecommendationStatus `json:"status"`
	UnmetCondition string               `json:"unmet_condition,omitempty"`
}

// SignalRef cites one signal consulted while producing a recommendation,
// together with the threshold it was compared against.
type SignalRef struct {
	SignalName string      `json:"signal_name"`
	Value      SignalValue `json:"value"`
	Threshold  string      `json:"threshold,omitempty"`
}

type GuardrailResults struct {
	ToneCheck        bool `json:"tone_check"`
	EligibilityCheck bool `json:"eligibility_check"`
	NoShaming        bool `json:"no_shaming"`
}

// DecisionTrace is the write-once audit record for one recommendation.
// It cites only the signals actually consulted during classification,
// selection and rendering, each with the exact value from the SignalSet
// that drove the run.
type DecisionTrace struct {
	RecommendationID string           `json:"recommendation_id"`
	PersonaMatch     Persona          `json:"persona_match"`
	MatchedRuleID    string           `json:"matched_rule_id"`
	Window           Window           `json:"window"`
	SignalsUsed      []SignalRef      `json:"signals_used"`
	TemplateID       string           `json:"template_id"`
	EligibilityRule  *Predicate       `json:"eligibility_rule,omitempty"`
	Guardrails       GuardrailResults `json:"guardrail_results"`
	Timestamp        time.Time        `json:"timestamp"`
	Signature        string           `json:"signature,omitempty"`
}

type RejectionReason string

const (
	RejectRenderFailure RejectionReason = "rendering_failure"
	RejectNoShaming     RejectionReason = "no_shaming_violation"
)

// RejectedItem records a catalog item excluded by a fail-closed gate, so
// the exclusion is auditable rather than silent.
type RejectedItem struct {
	CatalogItemID string          `json:"catalog_item_id"`
	Reason        RejectionReason `json:"reason"`
	Detail        string          `json:"detail,omitempty"`
}
