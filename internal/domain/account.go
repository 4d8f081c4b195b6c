package domain

import (
	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountCreditCard AccountType = "credit_card"
)

// Account is a read-only snapshot supplied by the external account store.
// CreditLimit is nil for non-credit accounts; a credit_card account with a
// nil limit is an integrity failure, while a numeric zero limit is a
// data-quality condition handled by the utilization extractor.
type Account struct {
	ID                   string           `json:"id"`
	UserID               string           `json:"user_id"`
	Type                 AccountType      `json:"type"`
	Balance              decimal.Decimal  `json:"balance"`
	CreditLimit          *decimal.Decimal `json:"credit_limit,omitempty"`
	LastPaymentAmount    decimal.Decimal  `json:"last_payment_amount"`
	MinimumPaymentAmount decimal.Decimal  `json:"minimum_payment_amount"`
	IsOverdue            bool             `json:"is_overdue"`
	NumberLast4          string           `json:"account_number_last4,omitempty"`
}

func (a *Account) IsCreditCard() bool {
	return a.Type == AccountCreditCard
}

// MaskedName renders the account as a user-facing identifier,
// e.g. "card ending 4523".
func (a *Account) MaskedName() string {
	if a.NumberLast4 == "" {
		return "your " + string(a.Type) + " account"
	}
	if a.IsCreditCard() {
		return "card ending " + a.NumberLast4
	}
	return "account ending " + a.NumberLast4
}
