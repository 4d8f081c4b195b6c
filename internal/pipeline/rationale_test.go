package pipeline

import (
	"strings"
	"testing"

	"spendsense/internal/domain"
)

func testRenderer() *Renderer {
	return NewRenderer(DefaultConfig().Guardrails, testLogger())
}

func utilizationItem() *domain.CatalogItem {
	return &domain.CatalogItem{
		ID:                "edu-credit-utilization",
		Type:              domain.ItemEducation,
		Title:             "Understanding Credit Utilization",
		RationaleTemplate: "Your {card_name} is at {utilization} utilization. Paying it down below 30% can help your score, and you can start with any amount.",
	}
}

func TestRenderer_SubstitutesConcreteValues(t *testing.T) {
	card := testCard("card-1", 3400, 5000)
	card.NumberLast4 = "4523"
	signals := domain.SignalSet{
		"credit_utilization_max":    domain.Number(0.68),
		"credit_utilization_card-1": domain.Number(0.68),
	}

	result := testRenderer().Render(utilizationItem(), signals, []*domain.Account{card})

	if result.Failed {
		t.Fatalf("unexpected failure: %s", result.FailReason)
	}
	if !strings.Contains(result.Text, "68%") {
		t.Errorf("expected concrete utilization in text, got %q", result.Text)
	}
	if !strings.Contains(result.Text, "card ending 4523") {
		t.Errorf("expected masked card name in text, got %q", result.Text)
	}
	if len(result.Refs) == 0 {
		t.Error("expected the substituted signals to be cited")
	}
}

func TestRenderer_MissingPlaceholderFailsClosed(t *testing.T) {
	// No utilization signals at all: the item must be excluded rather
	// than rendered with a blank or default value.
	result := testRenderer().Render(utilizationItem(), domain.SignalSet{}, nil)

	if !result.Failed {
		t.Fatal("expected rendering to fail with no substitutable signals")
	}
	if result.Text != "" {
		t.Errorf("failed render must produce no text, got %q", result.Text)
	}
}

func TestRenderer_DenylistFailsClosed(t *testing.T) {
	item := &domain.CatalogItem{
		ID:                "edu-bad-copy",
		Title:             "Bad Copy",
		RationaleTemplate: "You can stop overspending on subscriptions.",
	}

	result := testRenderer().Render(item, domain.SignalSet{}, nil)

	if !result.Failed {
		t.Fatal("expected denylisted phrase to exclude the item")
	}
	if result.NoShaming {
		t.Error("expected no_shaming check to be recorded as failed")
	}
}

func TestRenderer_ToneMissFallsBackSoft(t *testing.T) {
	item := &domain.CatalogItem{
		ID:                "edu-flat-copy",
		Title:             "Money Basics",
		RationaleTemplate: "Interest accrues daily on revolving balances.",
	}

	result := testRenderer().Render(item, domain.SignalSet{}, nil)

	if result.Failed {
		t.Fatalf("tone miss must not exclude the item: %s", result.FailReason)
	}
	if !result.UsedFallback || result.ToneCheck {
		t.Errorf("expected fallback with tone_check false, got fallback=%t tone=%t", result.UsedFallback, result.ToneCheck)
	}
	if !strings.Contains(result.Text, `"Money Basics"`) {
		t.Errorf("fallback must name the item title, got %q", result.Text)
	}
}

func TestRenderer_UndefinedSignalFailsClosed(t *testing.T) {
	item := &domain.CatalogItem{
		ID:                "edu-subscription-share",
		Title:             "When Subscriptions Crowd Out Your Budget",
		RationaleTemplate: "Recurring charges make up {subscription_share} of your spending. Knowing the number puts you in control of it.",
	}
	signals := domain.SignalSet{
		"subscription_share":           domain.Number(0),
		"subscription_share_undefined": domain.Flag(true),
	}

	result := testRenderer().Render(item, signals, nil)

	if !result.Failed {
		t.Error("an undefined signal must not substitute into a rationale")
	}
}

func TestHighestUtilizationCard(t *testing.T) {
	low := testCard("card-low", 100, 1000)
	high := testCard("card-high", 900, 1000)
	high.NumberLast4 = "9911"
	signals := domain.SignalSet{
		"credit_utilization_card-low":  domain.Number(0.10),
		"credit_utilization_card-high": domain.Number(0.90),
	}

	acc, ok := highestUtilizationCard(renderContext{signals: signals, accounts: []*domain.Account{low, high}})

	if !ok || acc.ID != "card-high" {
		t.Errorf("expected the highest-utilization card, got %+v (ok=%t)", acc, ok)
	}
	if acc.MaskedName() != "card ending 9911" {
		t.Errorf("unexpected masked name %q", acc.MaskedName())
	}
}
