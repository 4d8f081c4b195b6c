package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"spendsense/internal/catalog"
	"spendsense/internal/domain"
	"spendsense/pkg/crypto"
)

func testPipeline() *Pipeline {
	return New(catalog.Default(), DefaultConfig(), crypto.NewSigner("test-key", testLogger()), testLogger())
}

func highUtilizationInput() Input {
	card := testCard("card-1", 3400, 5000)
	card.NumberLast4 = "4523"
	card.MinimumPaymentAmount = decimal.NewFromFloat(68)
	card.LastPaymentAmount = decimal.NewFromFloat(68)

	var txs []*domain.Transaction
	for i, day := range []int{3, 17, 31, 45, 59, 73, 87} {
		txs = append(txs, testTx("pay"+string(rune('a'+i)), day, 1800, "Acme Corp Payroll", "income"))
	}
	for i, day := range []int{8, 38, 68} {
		txs = append(txs, testTx("int"+string(rune('a'+i)), day, -42.30, "Interest Charge", "interest"))
	}

	return Input{
		UserID: "u1",
		AsOf:   testAsOf,
		Transactions: append(txs,
			testTx("g1", 5, -120, "Grocer", "groceries"),
			testTx("g2", 33, -95, "Grocer", "groceries"),
		),
		Accounts: []*domain.Account{
			card,
			{ID: "chk-1", UserID: "u1", Type: domain.AccountChecking, Balance: decimal.NewFromFloat(850)},
		},
		EmployerName: "Acme Corp",
	}
}

func TestPipeline_Run_HighUtilizationBundle(t *testing.T) {
	bundle, err := testPipeline().Run(context.Background(), highUtilizationInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	primary := bundle.Personas[bundle.PrimaryWindow]
	if primary.Persona != domain.PersonaHighUtilization {
		t.Fatalf("expected high_utilization persona, got %s", primary.Persona)
	}
	if len(bundle.Signals) != 3 {
		t.Errorf("expected signals for all 3 windows, got %d", len(bundle.Signals))
	}
	if len(bundle.Recommendations) == 0 {
		t.Fatal("expected recommendations in the bundle")
	}

	for i, rec := range bundle.Recommendations {
		if rec.Rank != i+1 {
			t.Errorf("expected contiguous ranks, got %d at position %d", rec.Rank, i)
		}
		if rec.Rationale == "" {
			t.Errorf("recommendation %s has an empty rationale", rec.ID)
		}
		trace, ok := bundle.Trace(rec.ID)
		if !ok {
			t.Fatalf("no decision trace for recommendation %s", rec.ID)
		}
		if trace.PersonaMatch != primary.Persona || trace.MatchedRuleID != primary.MatchedRuleID {
			t.Errorf("trace persona mismatch for %s: %+v", rec.ID, trace)
		}
		for _, ref := range trace.SignalsUsed {
			actual, present := bundle.Signals[bundle.PrimaryWindow][ref.SignalName]
			if !present || actual != ref.Value {
				t.Errorf("trace for %s cites %s with value %s, signal set has %s (present=%t)",
					rec.ID, ref.SignalName, ref.Value, actual, present)
			}
		}
	}
}

func TestPipeline_Run_Deterministic(t *testing.T) {
	p := testPipeline()

	first, err := p.Run(context.Background(), highUtilizationInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := p.Run(context.Background(), highUtilizationInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Error("identical inputs must produce byte-identical bundles")
	}
}

func TestPipeline_Run_IntegrityFailureIsAtomic(t *testing.T) {
	input := highUtilizationInput()
	input.Accounts = append(input.Accounts, &domain.Account{
		ID:     "card-broken",
		UserID: "u1",
		Type:   domain.AccountCreditCard,
		// Missing credit limit entirely.
	})

	bundle, err := testPipeline().Run(context.Background(), input)

	if bundle != nil {
		t.Fatal("a failed run must publish no bundle")
	}
	var runErr *RunError
	if !errors.As(err, &runErr) || runErr.Code != ReasonIntegrityFailure {
		t.Fatalf("expected integrity_failure run error, got %v", err)
	}
	if !errors.Is(err, ErrIntegrity) {
		t.Errorf("expected error chain to carry ErrIntegrity, got %v", err)
	}
}

func TestPipeline_Run_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bundle, err := testPipeline().Run(ctx, highUtilizationInput())

	if bundle != nil {
		t.Fatal("a cancelled run must publish no bundle")
	}
	var runErr *RunError
	if !errors.As(err, &runErr) || runErr.Code != ReasonCancelled {
		t.Fatalf("expected cancelled run error, got %v", err)
	}
}

func TestPipeline_Run_OffersSurfacedWhenRequirementsNotMet(t *testing.T) {
	// General-wellness user with income below the credit-builder
	// minimum: the offer must appear marked, not vanish.
	input := Input{
		UserID: "u2",
		AsOf:   testAsOf,
		Transactions: []*domain.Transaction{
			testTx("p1", 10, 600, "Oddjobs Payroll", "income"),
			testTx("p2", 45, 600, "Oddjobs Payroll", "income"),
			testTx("g1", 5, -80, "Grocer", "groceries"),
		},
		Accounts: []*domain.Account{
			{ID: "chk-2", UserID: "u2", Type: domain.AccountChecking, Balance: decimal.NewFromFloat(400)},
		},
	}

	bundle, err := testPipeline().Run(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var found bool
	for _, rec := range bundle.Recommendations {
		if rec.CatalogItemID == "offer-credit-builder" {
			found = true
			if rec.Status != domain.StatusRequirementsNotMet {
				t.Errorf("expected requirements_not_met, got %s", rec.Status)
			}
			if rec.UnmetCondition == "" {
				t.Error("unmet condition must be named")
			}
		}
	}
	if !found {
		t.Error("expected offer-credit-builder surfaced with unmet requirements")
	}
}

func TestRecommendationID_Deterministic(t *testing.T) {
	a := recommendationID("u1", "edu-credit-utilization", testAsOf)
	b := recommendationID("u1", "edu-credit-utilization", testAsOf)
	c := recommendationID("u1", "edu-credit-utilization", testAsOf.Add(1e9))

	if a != b {
		t.Error("identical inputs must derive identical IDs")
	}
	if a == c {
		t.Error("a different as-of instant must derive a different ID")
	}
}
