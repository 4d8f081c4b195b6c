package pipeline

import (
	"testing"

	"spendsense/internal/catalog"
	"spendsense/internal/domain"
)

func defaultBlocked() map[string]struct{} {
	return map[string]struct{}{"payday_advance": {}, "title_loan": {}}
}

func TestSelectOffers_BlockedCategoryNeverSurfaces(t *testing.T) {
	snapshot := catalog.Default()
	signals := domain.SignalSet{
		"credit_utilization_max": domain.Number(0.68),
		"has_late_payments":      domain.Flag(false),
	}

	selected := SelectOffers(snapshot, domain.PersonaHighUtilization, signals, nil, defaultBlocked(), 10)

	for _, sel := range selected {
		if sel.Item.Category == "payday_advance" {
			t.Fatalf("blocklisted category surfaced: %s", sel.Item.ID)
		}
	}
}

func TestSelectOffers_HeldProductExcluded(t *testing.T) {
	snapshot := catalog.Default()
	signals := domain.SignalSet{
		"recurring_merchant_count": domain.Number(8),
	}
	held := map[string]struct{}{"subscription_manager": {}}

	selected := SelectOffers(snapshot, domain.PersonaSubscriptionHeavy, signals, held, defaultBlocked(), 10)

	for _, sel := range selected {
		if sel.Item.ProductID == "subscription_manager" {
			t.Fatalf("already-held product surfaced: %s", sel.Item.ID)
		}
	}
}

func TestSelectOffers_MinIncomeMarksRequirementsNotMet(t *testing.T) {
	snapshot := catalog.Default()
	signals := domain.SignalSet{
		"monthly_income": domain.Number(900),
	}

	selected := SelectOffers(snapshot, domain.PersonaGeneralWellness, signals, nil, defaultBlocked(), 10)

	var builder *SelectedItem
	for i := range selected {
		if selected[i].Item.ID == "offer-credit-builder" {
			builder = &selected[i]
		}
	}
	if builder == nil {
		t.Fatal("expected offer-credit-builder to be surfaced, not dropped")
	}
	if builder.Status != domain.StatusRequirementsNotMet {
		t.Errorf("expected requirements_not_met, got %s", builder.Status)
	}
	if builder.UnmetCondition != "monthly_income >= 1500" {
		t.Errorf("unexpected unmet condition %q", builder.UnmetCondition)
	}
	if len(builder.Refs) != 1 || builder.Refs[0].SignalName != "monthly_income" {
		t.Errorf("expected the consulted income signal cited, got %+v", builder.Refs)
	}
}

func TestSelectOffers_EligibilityPredicate(t *testing.T) {
	snapshot := catalog.Default()

	eligible := domain.SignalSet{
		"credit_utilization_max": domain.Number(0.68),
		"has_late_payments":      domain.Flag(false),
	}
	selected := SelectOffers(snapshot, domain.PersonaHighUtilization, eligible, nil, defaultBlocked(), 10)
	if len(selected) != 1 || selected[0].Item.ID != "offer-balance-transfer" {
		t.Fatalf("expected the balance transfer offer, got %+v", selected)
	}
	if selected[0].Status != domain.StatusEligible {
		t.Errorf("expected eligible status, got %s", selected[0].Status)
	}

	latePayer := domain.SignalSet{
		"credit_utilization_max": domain.Number(0.68),
		"has_late_payments":      domain.Flag(true),
	}
	selected = SelectOffers(snapshot, domain.PersonaHighUtilization, latePayer, nil, defaultBlocked(), 10)
	if selected[0].Status != domain.StatusRequirementsNotMet {
		t.Errorf("expected requirements_not_met for late payer, got %s", selected[0].Status)
	}
	if selected[0].UnmetCondition != "has_late_payments = false" {
		t.Errorf("unexpected unmet condition %q", selected[0].UnmetCondition)
	}
}

func TestSelectOffers_AbsentSignalFailsButIsNotCited(t *testing.T) {
	snapshot := catalog.Default()

	// No utilization signal at all: the predicate fails and the citation
	// list must not invent a value for the missing signal.
	selected := SelectOffers(snapshot, domain.PersonaHighUtilization, domain.SignalSet{}, nil, defaultBlocked(), 10)

	if len(selected) != 1 {
		t.Fatalf("expected one offer, got %d", len(selected))
	}
	if selected[0].Status != domain.StatusRequirementsNotMet {
		t.Errorf("expected requirements_not_met, got %s", selected[0].Status)
	}
	for _, ref := range selected[0].Refs {
		if ref.SignalName == "credit_utilization_max" {
			t.Error("absent signal must not be cited")
		}
	}
}

func TestSelectEducation_PersonaFilterAndRanking(t *testing.T) {
	snapshot := catalog.Default()

	selected := SelectEducation(snapshot, domain.PersonaHighUtilization, 3, 5)

	if len(selected) != 3 {
		t.Fatalf("expected 3 education items, got %d", len(selected))
	}
	if selected[0].Item.ID != "edu-credit-utilization" {
		t.Errorf("expected priority-1 item first, got %s", selected[0].Item.ID)
	}
	for _, sel := range selected {
		if sel.Status != domain.StatusEligible {
			t.Errorf("education items are always eligible, got %s for %s", sel.Status, sel.Item.ID)
		}
	}
}

func TestSelectEducation_BackfillsFromGeneralWellness(t *testing.T) {
	snapshot := catalog.Default()

	selected := SelectEducation(snapshot, domain.PersonaSubscriptionHeavy, 3, 5)

	if len(selected) < 3 {
		t.Fatalf("expected backfill up to the minimum, got %d items", len(selected))
	}
	ids := make(map[string]bool, len(selected))
	for _, sel := range selected {
		ids[sel.Item.ID] = true
	}
	if !ids["edu-subscription-audit"] || !ids["edu-subscription-share"] {
		t.Errorf("persona-matched items must survive backfill, got %v", ids)
	}
}

func TestSelectEducation_CapsAtMax(t *testing.T) {
	snapshot := catalog.Default()

	selected := SelectEducation(snapshot, domain.PersonaSubscriptionHeavy, 3, 4)

	if len(selected) > 4 {
		t.Errorf("expected at most 4 items, got %d", len(selected))
	}
}
