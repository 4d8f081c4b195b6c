// Package catalog holds the static education and offer catalogs. A
// Snapshot is loaded once per run (or per batch of runs) and shared
// read-only across concurrent per-user pipeline executions.
package catalog

import (
	"spendsense/internal/domain"

	"github.com/shopspring/decimal"
)

type Snapshot struct {
	Version   string
	Education []domain.CatalogItem
	Offers    []domain.CatalogItem
}

func money(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

// Default returns the built-in catalog snapshot. Content mirrors the
// seeded production catalog; IDs are stable and referenced by stored
// decision traces, so they must never be reused for different content.
func Default() *Snapshot {
	return &Snapshot{
		Version: "2025-08",
		Education: []domain.CatalogItem{
			{
				ID:                 "edu-credit-utilization",
				Type:               domain.ItemEducation,
				Title:              "Understanding Credit Utilization",
				Category:           "credit",
				ApplicablePersonas: []domain.Persona{domain.PersonaHighUtilization},
				TriggerSignals:     []string{"credit_utilization_max"},
				RationaleTemplate:  "Your {card_name} is at {utilization} utilization. Paying it down below 30% can help your score, and you can start with any amount.",
				Priority:           1,
			},
			{
				ID:                 "edu-interest-costs",
				Type:               domain.ItemEducation,
				Title:              "What Interest Charges Really Cost",
				Category:           "credit",
				ApplicablePersonas: []domain.Persona{domain.PersonaHighUtilization},
				TriggerSignals:     []string{"interest_charged"},
				RationaleTemplate:  "You paid interest charges this period. Understanding how interest accrues helps you take control of what you owe.",
				Priority:           2,
			},
			{
				ID:                 "edu-minimum-payments",
				Type:               domain.ItemEducation,
				Title:              "Why Paying More Than the Minimum Matters",
				Category:           "credit",
				ApplicablePersonas: []domain.Persona{domain.PersonaHighUtilization},
				TriggerSignals:     []string{"minimum_payment_only"},
				RationaleTemplate:  "Your last payment on {card_name} was close to the minimum. Even a small extra amount each month can shorten your payoff time.",
				Priority:           3,
			},
			{
				ID:                 "edu-subscription-audit",
				Type:               domain.ItemEducation,
				Title:              "How to Audit Your Subscriptions",
				Category:           "spending",
				ApplicablePersonas: []domain.Persona{domain.PersonaSubscriptionHeavy},
				TriggerSignals:     []string{"recurring_merchant_count", "monthly_recurring_total"},
				RationaleTemplate:  "You have {subscription_count} recurring services totaling {monthly_recurring_total} per month. A quick audit can free up money for your goals.",
				Priority:           1,
			},
			{
				ID:                 "edu-subscription-share",
				Type:               domain.ItemEducation,
				Title:              "When Subscriptions Crowd Out Your Budget",
				Category:           "spending",
				ApplicablePersonas: []domain.Persona{domain.PersonaSubscriptionHeavy},
				TriggerSignals:     []string{"subscription_share"},
				RationaleTemplate:  "Recurring charges make up {subscription_share} of your spending. Knowing the number puts you in control of it.",
				Priority:           2,
			},
			{
				ID:                 "edu-irregular-income",
				Type:               domain.ItemEducation,
				Title:              "Budgeting on a Variable Income",
				Category:           "budgeting",
				ApplicablePersonas: []domain.Persona{domain.PersonaVariableIncomeBudgeter},
				TriggerSignals:     []string{"income_irregular", "cash_flow_buffer"},
				RationaleTemplate:  "Your deposits arrive on an irregular schedule and your checking buffer covers {cash_flow_buffer} of monthly expenses. A percentage-based budget can smooth the gaps.",
				Priority:           1,
			},
			{
				ID:                 "edu-emergency-fund",
				Type:               domain.ItemEducation,
				Title:              "Building Your Emergency Fund",
				Category:           "savings",
				ApplicablePersonas: []domain.Persona{domain.PersonaVariableIncomeBudgeter, domain.PersonaSavingsBuilder, domain.PersonaGeneralWellness},
				TriggerSignals:     []string{"coverage_months"},
				RationaleTemplate:  "Your savings cover {coverage_months} months of expenses. Every transfer builds your cushion.",
				Priority:           2,
			},
			{
				ID:                 "edu-savings-momentum",
				Type:               domain.ItemEducation,
				Title:              "Keeping Your Savings Momentum",
				Category:           "savings",
				ApplicablePersonas: []domain.Persona{domain.PersonaSavingsBuilder},
				TriggerSignals:     []string{"savings_growth_rate_90d"},
				RationaleTemplate:  "Your savings grew {growth_rate} over the last three months. Automating transfers can keep that momentum going.",
				Priority:           1,
			},
			{
				ID:                 "edu-spending-checkin",
				Type:               domain.ItemEducation,
				Title:              "A Five-Minute Monthly Money Check-In",
				Category:           "wellness",
				ApplicablePersonas: []domain.Persona{domain.PersonaGeneralWellness},
				RationaleTemplate:  "Based on your recent activity, a short monthly check-in is a simple way to stay on top of your money.",
				Priority:           1,
			},
			{
				ID:                 "edu-goal-setting",
				Type:               domain.ItemEducation,
				Title:              "Setting a Savings Goal That Sticks",
				Category:           "wellness",
				ApplicablePersonas: []domain.Persona{domain.PersonaGeneralWellness, domain.PersonaSavingsBuilder},
				RationaleTemplate:  "Based on your recent activity, a concrete savings goal can help you build toward what matters to you.",
				Priority:           2,
			},
		},
		Offers: []domain.CatalogItem{
			{
				ID:                 "offer-balance-transfer",
				Type:               domain.ItemOffer,
				Title:              "0% Intro APR Balance Transfer Card",
				Category:           "credit_card",
				ProductID:          "balance_transfer_card",
				ApplicablePersonas: []domain.Persona{domain.PersonaHighUtilization},
				TriggerSignals:     []string{"credit_utilization_max", "has_late_payments"},
				RationaleTemplate:  "With {card_name} at {utilization} utilization, a balance transfer could reduce the interest you pay while you pay it down.",
				Eligibility: domain.And(
					domain.Compare("credit_utilization_max", ">=", 0.50),
					domain.FlagIs("has_late_payments", false),
				),
				Priority: 1,
			},
			{
				ID:                 "offer-hysa",
				Type:               domain.ItemOffer,
				Title:              "High-Yield Savings Account",
				Category:           "savings_account",
				ProductID:          "high_yield_savings",
				ApplicablePersonas: []domain.Persona{domain.PersonaSavingsBuilder, domain.PersonaGeneralWellness},
				TriggerSignals:     []string{"savings_net_inflow"},
				RationaleTemplate:  "You moved {net_inflow} into savings this period. A high-yield account would earn more on every dollar you set aside.",
				Eligibility:        domain.Compare("savings_net_inflow", ">", 0),
				Priority:           1,
			},
			{
				ID:                 "offer-subscription-manager",
				Type:               domain.ItemOffer,
				Title:              "Subscription Tracking Tool",
				Category:           "budgeting_tool",
				ProductID:          "subscription_manager",
				ApplicablePersonas: []domain.Persona{domain.PersonaSubscriptionHeavy},
				TriggerSignals:     []string{"recurring_merchant_count"},
				RationaleTemplate:  "With {subscription_count} active subscriptions totaling {monthly_recurring_total} a month, a tracking tool makes it easy to keep only what you use.",
				Eligibility:        domain.Compare("recurring_merchant_count", ">=", 3),
				Priority:           2,
			},
			{
				ID:                 "offer-credit-builder",
				Type:               domain.ItemOffer,
				Title:              "Secured Credit Builder Card",
				Category:           "credit_card",
				ProductID:          "credit_builder_card",
				ApplicablePersonas: []domain.Persona{domain.PersonaVariableIncomeBudgeter, domain.PersonaGeneralWellness},
				RationaleTemplate:  "Based on your recent activity, a secured card can build your credit profile while you stay within the deposit you choose.",
				MinMonthlyIncome:   money("1500"),
				Priority:           3,
			},
			{
				ID:                 "offer-premium-checking",
				Type:               domain.ItemOffer,
				Title:              "Premium Checking With Balance Rewards",
				Category:           "checking_account",
				ProductID:          "premium_checking",
				ApplicablePersonas: []domain.Persona{domain.PersonaSavingsBuilder, domain.PersonaGeneralWellness},
				TriggerSignals:     []string{"cash_flow_buffer"},
				RationaleTemplate:  "Your checking buffer covers {cash_flow_buffer} of monthly expenses. Premium checking rewards balances like yours.",
				MinMonthlyIncome:   money("4000"),
				Eligibility:        domain.Compare("cash_flow_buffer", ">=", 1),
				Priority:           4,
			},
			{
				// Blocklisted category; must never be surfaced regardless
				// of persona match or ranking.
				ID:                 "offer-instant-advance",
				Type:               domain.ItemOffer,
				Title:              "Instant Cash Advance",
				Category:           "payday_advance",
				ProductID:          "instant_advance",
				ApplicablePersonas: []domain.Persona{domain.PersonaVariableIncomeBudgeter, domain.PersonaHighUtilization},
				RationaleTemplate:  "Get cash before your next deposit.",
				Priority:           1,
			},
		},
	}
}
