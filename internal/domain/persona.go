package domain

import "time"

type Persona string

const (
	PersonaHighUtilization        Persona = "high_utilization"
	PersonaSubscriptionHeavy      Persona = "subscription_heavy"
	PersonaVariableIncomeBudgeter Persona = "variable_income_budgeter"
	PersonaSavingsBuilder         Persona = "savings_builder"
	PersonaGeneralWellness        Persona = "general_wellness"
)

// PersonaAssignment is the classifier's terminal output for one
// (user, window) pair. Each window is classified independently, so one
// user may carry different personas per window.
type PersonaAssignment struct {
	UserID        string    `json:"user_id"`
	Window        Window    `json:"window"`
	Persona       Persona   `json:"persona"`
	MatchedRuleID string    `json:"matched_rule_id"`
	ComputedAt    time.Time `json:"computed_at"`
}
