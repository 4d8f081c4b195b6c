package pipeline

import (
	"fmt"
	"time"

	"spendsense/internal/domain"
)

// Classifier thresholds.
const (
	ruleUtilizationThreshold    = 0.50
	ruleSubscriptionMinCount    = 3
	ruleSubscriptionMinTotal30d = 50.0
	ruleSubscriptionMinShare    = 0.10
	ruleIrregularGapDays        = 45.0
	ruleLowBufferMonths         = 1.0
	ruleSavingsGrowthThreshold  = 0.02
	ruleSavingsInflowPerMonth   = 200.0
	ruleSavingsMaxUtilization   = 0.30
)

// PersonaRule is one entry in the classifier's statically ordered rule
// list. Evaluate returns whether the rule matched and the signals it
// consulted, with the thresholds they were compared against.
type PersonaRule struct {
	ID       string
	Persona  domain.Persona
	Evaluate func(domain.SignalSet) (bool, []domain.SignalRef)
}

// personaRules builds the ordered rule list for one window. Evaluation
// order IS the tie-break: there is no scoring function, and the list must
// never be reordered or evaluated in parallel.
func personaRules(window domain.Window) []PersonaRule {
	return []PersonaRule{
		{
			ID:      "rule-1-high-utilization",
			Persona: domain.PersonaHighUtilization,
			Evaluate: func(s domain.SignalSet) (bool, []domain.SignalRef) {
				var refs []domain.SignalRef
				matched := false

				if v, ok := s.Number("credit_utilization_max"); ok && v >= ruleUtilizationThreshold {
					matched = true
					refs = append(refs, signalRef(s, "credit_utilization_max", fmt.Sprintf(">= %.2f", ruleUtilizationThreshold)))
				}
				for _, flag := range []string{"interest_charged", "minimum_payment_only", "has_late_payments"} {
					if s.True(flag) {
						matched = true
						refs = append(refs, signalRef(s, flag, "= true"))
					}
				}
				return matched, refs
			},
		},
		{
			ID:      "rule-2-subscription-heavy",
			Persona: domain.PersonaSubscriptionHeavy,
			Evaluate: func(s domain.SignalSet) (bool, []domain.SignalRef) {
				count, ok := s.Number("recurring_merchant_count")
				if !ok || count < ruleSubscriptionMinCount {
					return false, nil
				}
				refs := []domain.SignalRef{signalRef(s, "recurring_merchant_count", fmt.Sprintf(">= %d", ruleSubscriptionMinCount))}

				if share, ok := s.Number("subscription_share"); ok && share >= ruleSubscriptionMinShare {
					refs = append(refs, signalRef(s, "subscription_share", fmt.Sprintf(">= %.2f", ruleSubscriptionMinShare)))
					return true, refs
				}
				// The absolute-dollar branch only applies in the 30-day window.
				if window == domain.Window30 {
					if total, ok := s.Number("monthly_recurring_total"); ok && total >= ruleSubscriptionMinTotal30d {
						refs = append(refs, signalRef(s, "monthly_recurring_total", fmt.Sprintf(">= %.0f", ruleSubscriptionMinTotal30d)))
						return true, refs
					}
				}
				return false, nil
			},
		},
		{
			ID:      "rule-3-variable-income",
			Persona: domain.PersonaVariableIncomeBudgeter,
			Evaluate: func(s domain.SignalSet) (bool, []domain.SignalRef) {
				var refs []domain.SignalRef
				irregular := false

				if gap, ok := s.Number("income_deposit_gap_days"); ok && gap > ruleIrregularGapDays {
					irregular = true
					refs = append(refs, signalRef(s, "income_deposit_gap_days", fmt.Sprintf("> %.0f", ruleIrregularGapDays)))
				}
				if s.True("income_irregular") {
					irregular = true
					refs = append(refs, signalRef(s, "income_irregular", "= true"))
				}
				if !irregular {
					return false, nil
				}

				buffer, ok := s.Number("cash_flow_buffer")
				if !ok || buffer >= ruleLowBufferMonths {
					return false, nil
				}
				refs = append(refs, signalRef(s, "cash_flow_buffer", fmt.Sprintf("< %.0f", ruleLowBufferMonths)))
				return true, refs
			},
		},
		{
			ID:      "rule-4-savings-builder",
			Persona: domain.PersonaSavingsBuilder,
			Evaluate: func(s domain.SignalSet) (bool, []domain.SignalRef) {
				var refs []domain.SignalRef
				building := false

				if growth, ok := s.Number("savings_growth_rate_90d"); ok && growth >= ruleSavingsGrowthThreshold {
					building = true
					refs = append(refs, signalRef(s, "savings_growth_rate_90d", fmt.Sprintf(">= %.2f", ruleSavingsGrowthThreshold)))
				}
				if inflow, ok := s.Number("savings_net_inflow"); ok && inflow/window.Months() >= ruleSavingsInflowPerMonth {
					building = true
					refs = append(refs, signalRef(s, "savings_net_inflow", fmt.Sprintf(">= %.0f/month", ruleSavingsInflowPerMonth)))
				}
				if !building {
					return false, nil
				}

				// All utilizations must stay low; no credit accounts at
				// all satisfies the condition vacuously.
				if max, ok := s.Number("credit_utilization_max"); ok {
					if max >= ruleSavingsMaxUtilization {
						return false, nil
					}
					refs = append(refs, signalRef(s, "credit_utilization_max", fmt.Sprintf("< %.2f", ruleSavingsMaxUtilization)))
				}
				return true, refs
			},
		},
	}
}

const defaultRuleID = "rule-default-general-wellness"

// ClassifyPersona runs a single evaluation pass over the ordered rule
// list and returns exactly one persona for the (user, window) pair,
// together with the signal citations of the matched rule.
func ClassifyPersona(userID string, window domain.Window, signals domain.SignalSet, asOf time.Time) (domain.PersonaAssignment, []domain.SignalRef) {
	for _, rule := range personaRules(window) {
		matched, refs := rule.Evaluate(signals)
		if matched {
			return domain.PersonaAssignment{
				UserID:        userID,
				Window:        window,
				Persona:       rule.Persona,
				MatchedRuleID: rule.ID,
				ComputedAt:    asOf,
			}, refs
		}
	}

	return domain.PersonaAssignment{
		UserID:        userID,
		Window:        window,
		Persona:       domain.PersonaGeneralWellness,
		MatchedRuleID: defaultRuleID,
		ComputedAt:    asOf,
	}, nil
}

func signalRef(s domain.SignalSet, name, threshold string) domain.SignalRef {
	return domain.SignalRef{SignalName: name, Value: s[name], Threshold: threshold}
}
