package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a read-only record from the external transaction store.
// Amounts are signed: debits negative, credits positive.
type Transaction struct {
	ID         string          `json:"id"`
	AccountID  string          `json:"account_id"`
	UserID     string          `json:"user_id"`
	PostedDate time.Time       `json:"posted_date"`
	Amount     decimal.Decimal `json:"amount"`
	Merchant   string          `json:"merchant_name"`
	Category   string          `json:"category"`
	IsPending  bool            `json:"is_pending"`
}

func (tx *Transaction) IsDebit() bool {
	return tx.Amount.IsNegative()
}

func (tx *Transaction) IsCredit() bool {
	return tx.Amount.IsPositive()
}

// Spend is the sign-normalized magnitude of a debit, zero for credits.
func (tx *Transaction) Spend() decimal.Decimal {
	if tx.IsDebit() {
		return tx.Amount.Neg()
	}
	return decimal.Zero
}
