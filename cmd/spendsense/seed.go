package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"spendsense/internal/domain"
	"spendsense/internal/repository/memory"
)

// seedDemoUsers loads three demo users whose histories land in distinct
// personas: a high-utilization cardholder, a subscription-heavy streamer
// and a steady savings builder.
func seedDemoUsers(
	transactions *memory.TransactionFeed,
	accounts *memory.AccountFeed,
	profiles *memory.ProfileFeed,
	logger *slog.Logger,
) {
	now := time.Now().UTC()
	seedHighUtilizationUser(transactions, accounts, profiles, now)
	seedSubscriptionHeavyUser(transactions, accounts, profiles, now)
	seedSavingsBuilderUser(transactions, accounts, profiles, now)

	logger.Info("Demo users seeded",
		slog.Any("user_ids", []string{"demo-hannah", "demo-marcus", "demo-priya"}))
}

func seedHighUtilizationUser(
	transactions *memory.TransactionFeed,
	accounts *memory.AccountFeed,
	profiles *memory.ProfileFeed,
	now time.Time,
) {
	const userID = "demo-hannah"
	checking := "acc-hannah-checking"
	card := "acc-hannah-visa"

	accounts.Load(userID, []*domain.Account{
		{
			ID:          checking,
			UserID:      userID,
			Type:        domain.AccountChecking,
			Balance:     decimal.NewFromFloat(842.15),
			NumberLast4: "1180",
		},
		{
			ID:                   card,
			UserID:               userID,
			Type:                 domain.AccountCreditCard,
			Balance:              decimal.NewFromFloat(3400),
			CreditLimit:          money(5000),
			LastPaymentAmount:    decimal.NewFromFloat(68),
			MinimumPaymentAmount: decimal.NewFromFloat(68),
			NumberLast4:          "4523",
		},
	})
	profiles.LoadProfile(userID, nil, "Acme Corp")

	var txs []*domain.Transaction
	// Biweekly payroll across the trailing 90 days.
	for i, day := range []int{3, 17, 31, 45, 59, 73, 87} {
		txs = append(txs, seedTx(userID, checking, fmt.Sprintf("hannah-pay-%d", i), now, day, 1800, "Acme Corp Payroll", "income"))
	}
	// Monthly interest charge on the card.
	for i, day := range []int{8, 38, 68} {
		txs = append(txs, seedTx(userID, card, fmt.Sprintf("hannah-interest-%d", i), now, day, -42.30, "Interest Charge", "interest"))
	}
	// Everyday spend.
	for i, day := range []int{2, 11, 26, 44, 57, 79} {
		txs = append(txs, seedTx(userID, checking, fmt.Sprintf("hannah-grocery-%d", i), now, day, -96.40, "Fresh Fields Market", "groceries"))
	}
	for i, day := range []int{6, 29, 52, 81} {
		txs = append(txs, seedTx(userID, card, fmt.Sprintf("hannah-gas-%d", i), now, day, -54.20, "Shell Station 42", "gas"))
	}
	transactions.Load(userID, txs)
}

func seedSubscriptionHeavyUser(
	transactions *memory.TransactionFeed,
	accounts *memory.AccountFeed,
	profiles *memory.ProfileFeed,
	now time.Time,
) {
	const userID = "demo-marcus"
	checking := "acc-marcus-checking"

	accounts.Load(userID, []*domain.Account{
		{
			ID:          checking,
			UserID:      userID,
			Type:        domain.AccountChecking,
			Balance:     decimal.NewFromFloat(2310.55),
			NumberLast4: "7702",
		},
	})
	profiles.LoadProfile(userID, []string{"subscription-manager"}, "Globex")

	subscriptions := []struct {
		merchant string
		amount   float64
	}{
		{"Netflix", 15.49},
		{"Spotify", 11.99},
		{"Hulu", 17.99},
		{"Disney Plus", 13.99},
		{"HBO Max", 15.99},
		{"Planet Fitness", 45.00},
		{"iCloud Storage", 2.99},
		{"Audible", 14.95},
	}

	var txs []*domain.Transaction
	for i, day := range []int{5, 19, 33, 47, 61, 75, 89} {
		txs = append(txs, seedTx(userID, checking, fmt.Sprintf("marcus-pay-%d", i), now, day, 2100, "Globex Payroll", "income"))
	}
	// Each subscription hits monthly, three times inside the 90-day window.
	for i, sub := range subscriptions {
		for j, day := range []int{4, 34, 64} {
			txs = append(txs, seedTx(userID, checking, fmt.Sprintf("marcus-sub-%d-%d", i, j), now, day, -sub.amount, sub.merchant, "subscriptions"))
		}
	}
	// Irregular one-off spend, gaps outside any cadence band.
	for i, day := range []int{2, 14, 39, 60} {
		txs = append(txs, seedTx(userID, checking, fmt.Sprintf("marcus-grocery-%d", i), now, day, -64.80, "Trader Joes", "groceries"))
	}
	txs = append(txs,
		seedTx(userID, checking, "marcus-restaurant-0", now, 9, -48.25, "Mission Taqueria", "dining"),
		seedTx(userID, checking, "marcus-restaurant-1", now, 28, -92.10, "Osteria Nonna", "dining"),
		seedTx(userID, checking, "marcus-restaurant-2", now, 55, -37.60, "Ramen Koji", "dining"),
		seedTx(userID, checking, "marcus-electronics-0", now, 71, -129.99, "Best Buy", "electronics"),
	)
	transactions.Load(userID, txs)
}

func seedSavingsBuilderUser(
	transactions *memory.TransactionFeed,
	accounts *memory.AccountFeed,
	profiles *memory.ProfileFeed,
	now time.Time,
) {
	const userID = "demo-priya"
	checking := "acc-priya-checking"
	savings := "acc-priya-savings"
	card := "acc-priya-card"

	accounts.Load(userID, []*domain.Account{
		{
			ID:          checking,
			UserID:      userID,
			Type:        domain.AccountChecking,
			Balance:     decimal.NewFromFloat(3105.40),
			NumberLast4: "3318",
		},
		{
			ID:          savings,
			UserID:      userID,
			Type:        domain.AccountSavings,
			Balance:     decimal.NewFromFloat(4000),
			NumberLast4: "9014",
		},
		{
			ID:                   card,
			UserID:               userID,
			Type:                 domain.AccountCreditCard,
			Balance:              decimal.NewFromFloat(300),
			CreditLimit:          money(3000),
			LastPaymentAmount:    decimal.NewFromFloat(300),
			MinimumPaymentAmount: decimal.NewFromFloat(25),
			NumberLast4:          "6647",
		},
	})
	profiles.LoadProfile(userID, nil, "Initech")

	var txs []*domain.Transaction
	// Semi-monthly payroll.
	for i, day := range []int{1, 16, 31, 46, 61, 76} {
		txs = append(txs, seedTx(userID, checking, fmt.Sprintf("priya-pay-%d", i), now, day, 1650, "Initech Payroll", "income"))
	}
	// Monthly transfer into savings.
	for i, day := range []int{10, 40, 70} {
		txs = append(txs, seedTx(userID, savings, fmt.Sprintf("priya-save-%d", i), now, day, 300, "Transfer from Checking", "transfer"))
	}
	txs = append(txs,
		seedTx(userID, checking, "priya-sub-0", now, 7, -15.49, "Netflix", "subscriptions"),
		seedTx(userID, checking, "priya-sub-1", now, 37, -15.49, "Netflix", "subscriptions"),
		seedTx(userID, checking, "priya-sub-2", now, 67, -15.49, "Netflix", "subscriptions"),
	)
	for i, day := range []int{3, 21, 42, 66, 85} {
		txs = append(txs, seedTx(userID, checking, fmt.Sprintf("priya-grocery-%d", i), now, day, -88.30, "Harvest Co-op", "groceries"))
	}
	transactions.Load(userID, txs)
}

func seedTx(userID, accountID, id string, now time.Time, daysAgo int, amount float64, merchant, category string) *domain.Transaction {
	return &domain.Transaction{
		ID:         id,
		AccountID:  accountID,
		UserID:     userID,
		PostedDate: now.AddDate(0, 0, -daysAgo),
		Amount:     decimal.NewFromFloat(amount),
		Merchant:   merchant,
		Category:   category,
	}
}

func money(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}
