package pipeline

import (
	"testing"

	"spendsense/internal/domain"
)

func TestClassifyPersona_HighUtilization(t *testing.T) {
	signals := domain.SignalSet{
		"credit_utilization_max": domain.Number(0.68),
	}

	assignment, refs := ClassifyPersona("u1", domain.Window30, signals, testAsOf)

	if assignment.Persona != domain.PersonaHighUtilization {
		t.Fatalf("expected high_utilization, got %s", assignment.Persona)
	}
	if assignment.MatchedRuleID != "rule-1-high-utilization" {
		t.Errorf("unexpected rule id %s", assignment.MatchedRuleID)
	}
	if len(refs) != 1 || refs[0].SignalName != "credit_utilization_max" {
		t.Errorf("expected one citation of credit_utilization_max, got %+v", refs)
	}
}

func TestClassifyPersona_RuleOrderIsTheTieBreak(t *testing.T) {
	// Qualifies for both high-utilization and savings-builder; the
	// earlier rule must win.
	signals := domain.SignalSet{
		"credit_utilization_max": domain.Number(0.55),
		"savings_net_inflow":     domain.Number(900),
	}

	assignment, _ := ClassifyPersona("u1", domain.Window90, signals, testAsOf)

	if assignment.Persona != domain.PersonaHighUtilization {
		t.Errorf("expected first matching rule to win, got %s", assignment.Persona)
	}
}

func TestClassifyPersona_SubscriptionHeavyByShare(t *testing.T) {
	signals := domain.SignalSet{
		"recurring_merchant_count": domain.Number(8),
		"subscription_share":       domain.Number(0.15),
		"monthly_recurring_total":  domain.Number(203),
	}

	assignment, _ := ClassifyPersona("u1", domain.Window90, signals, testAsOf)

	if assignment.Persona != domain.PersonaSubscriptionHeavy {
		t.Errorf("expected subscription_heavy, got %s", assignment.Persona)
	}
}

func TestClassifyPersona_DollarBranchOnlyIn30DayWindow(t *testing.T) {
	signals := domain.SignalSet{
		"recurring_merchant_count": domain.Number(4),
		"subscription_share":       domain.Number(0.05),
		"monthly_recurring_total":  domain.Number(75),
	}

	in30, _ := ClassifyPersona("u1", domain.Window30, signals, testAsOf)
	if in30.Persona != domain.PersonaSubscriptionHeavy {
		t.Errorf("expected dollar branch to match in 30d window, got %s", in30.Persona)
	}

	in90, _ := ClassifyPersona("u1", domain.Window90, signals, testAsOf)
	if in90.Persona == domain.PersonaSubscriptionHeavy {
		t.Error("dollar branch must not apply outside the 30d window")
	}
}

func TestClassifyPersona_VariableIncomeNeedsLowBuffer(t *testing.T) {
	signals := domain.SignalSet{
		"income_irregular": domain.Flag(true),
		"cash_flow_buffer": domain.Number(0.4),
	}

	assignment, _ := ClassifyPersona("u1", domain.Window90, signals, testAsOf)
	if assignment.Persona != domain.PersonaVariableIncomeBudgeter {
		t.Fatalf("expected variable_income_budgeter, got %s", assignment.Persona)
	}

	signals["cash_flow_buffer"] = domain.Number(2.5)
	assignment, _ = ClassifyPersona("u1", domain.Window90, signals, testAsOf)
	if assignment.Persona == domain.PersonaVariableIncomeBudgeter {
		t.Error("a comfortable buffer must not classify as variable_income_budgeter")
	}
}

func TestClassifyPersona_SavingsBuilder(t *testing.T) {
	signals := domain.SignalSet{
		"savings_net_inflow":      domain.Number(900),
		"savings_growth_rate_90d": domain.Number(0.29),
		"credit_utilization_max":  domain.Number(0.10),
	}

	assignment, _ := ClassifyPersona("u1", domain.Window90, signals, testAsOf)

	if assignment.Persona != domain.PersonaSavingsBuilder {
		t.Fatalf("expected savings_builder, got %s", assignment.Persona)
	}
}

func TestClassifyPersona_SavingsBuilderBlockedByUtilization(t *testing.T) {
	signals := domain.SignalSet{
		"savings_net_inflow":     domain.Number(900),
		"credit_utilization_max": domain.Number(0.45),
	}

	assignment, _ := ClassifyPersona("u1", domain.Window90, signals, testAsOf)

	if assignment.Persona == domain.PersonaSavingsBuilder {
		t.Error("utilization at or above 0.30 must block savings_builder")
	}
}

func TestClassifyPersona_DefaultGeneralWellness(t *testing.T) {
	assignment, refs := ClassifyPersona("u1", domain.Window30, domain.SignalSet{}, testAsOf)

	if assignment.Persona != domain.PersonaGeneralWellness {
		t.Fatalf("expected general_wellness default, got %s", assignment.Persona)
	}
	if assignment.MatchedRuleID != defaultRuleID {
		t.Errorf("expected default rule id, got %s", assignment.MatchedRuleID)
	}
	if len(refs) != 0 {
		t.Errorf("default assignment must cite no signals, got %+v", refs)
	}
}

func TestClassifyPersona_UndefinedSignalNeverSatisfies(t *testing.T) {
	signals := domain.SignalSet{
		"credit_utilization_max":           domain.Number(0.90),
		"credit_utilization_max_undefined": domain.Flag(true),
	}

	assignment, _ := ClassifyPersona("u1", domain.Window30, signals, testAsOf)

	if assignment.Persona == domain.PersonaHighUtilization {
		t.Error("a signal marked undefined must never satisfy a threshold")
	}
}
