package pipeline

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"spendsense/internal/domain"
	"spendsense/pkg/crypto"
)

// TraceRecorder assembles the write-once audit record for each surviving
// recommendation. Traces cite only the signals actually consulted during
// classification, selection and rendering, and are HMAC-signed so stored
// records are tamper-evident.
type TraceRecorder struct {
	signer *crypto.Signer
	logger *slog.Logger
}

func NewTraceRecorder(signer *crypto.Signer, logger *slog.Logger) *TraceRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &TraceRecorder{signer: signer, logger: logger}
}

// Record builds and signs a DecisionTrace. It fails if any cited signal
// is missing from, or differs from, the signal set that drove the run;
// that invariant is what makes traces checkable after the fact.
func (tr *TraceRecorder) Record(
	rec *domain.Recommendation,
	assignment domain.PersonaAssignment,
	item *domain.CatalogItem,
	refs []domain.SignalRef,
	guardrails domain.GuardrailResults,
	signals domain.SignalSet,
	asOf time.Time,
) (domain.DecisionTrace, error) {
	deduped := dedupeRefs(refs)

	for _, ref := range deduped {
		actual, present := signals[ref.SignalName]
		if !present {
			return domain.DecisionTrace{}, fmt.Errorf("trace cites signal %s absent from signal set", ref.SignalName)
		}
		if actual != ref.Value {
			return domain.DecisionTrace{}, fmt.Errorf("trace cites signal %s with stale value %s (set has %s)",
				ref.SignalName, ref.Value, actual)
		}
	}

	trace := domain.DecisionTrace{
		RecommendationID: rec.ID,
		PersonaMatch:     assignment.Persona,
		MatchedRuleID:    assignment.MatchedRuleID,
		Window:           assignment.Window,
		SignalsUsed:      deduped,
		TemplateID:       item.ID,
		EligibilityRule:  item.Eligibility,
		Guardrails:       guardrails,
		Timestamp:        asOf,
	}

	payload, err := json.Marshal(trace)
	if err != nil {
		return domain.DecisionTrace{}, fmt.Errorf("marshaling trace for signing: %w", err)
	}
	trace.Signature = tr.signer.SignTrace(rec.ID, payload, asOf.Unix())

	return trace, nil
}

// dedupeRefs keeps the first citation of each signal, preserving the
// order in which signals were consulted.
func dedupeRefs(refs []domain.SignalRef) []domain.SignalRef {
	seen := make(map[string]struct{}, len(refs))
	out := make([]domain.SignalRef, 0, len(refs))
	for _, ref := range refs {
		if _, dup := seen[ref.SignalName]; dup {
			continue
		}
		seen[ref.SignalName] = struct{}{}
		out = append(out, ref)
	}
	return out
}
