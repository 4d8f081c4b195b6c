package domain

import "time"

// InsightBundle is the atomic output of one per-user pipeline run.
// Either a complete bundle is emitted or nothing is; no partial or
// degraded bundle ever leaves the pipeline.
type InsightBundle struct {
	UserID          string                       `json:"user_id"`
	AsOf            time.Time                    `json:"as_of"`
	Signals         map[Window]SignalSet         `json:"signals"`
	Personas        map[Window]PersonaAssignment `json:"persona_assignments"`
	PrimaryWindow   Window                       `json:"primary_window"`
	Recommendations []Recommendation             `json:"recommendations"`
	Traces          []DecisionTrace              `json:"decision_traces"`
	Rejected        []RejectedItem               `json:"rejected_items,omitempty"`
}

// Trace returns the decision trace for a recommendation ID, if present.
func (b *InsightBundle) Trace(recommendationID string) (*DecisionTrace, bool) {
	for i := range b.Traces {
		if b.Traces[i].RecommendationID == recommendationID {
			return &b.Traces[i], true
		}
	}
	return nil, false
}
