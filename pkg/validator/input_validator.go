package validator

import (
	"errors"
	"fmt"
	"spendsense/internal/domain"
)

var (
	ErrMissingCreditLimit = errors.New("credit card account has no credit limit")
	ErrUnknownAccountType = errors.New("unknown account type")
	ErrOrphanTransaction  = errors.New("transaction references no account")
	ErrZeroPostedDate     = errors.New("transaction has zero posted date")
)

// InputValidator guards the integrity of a run's inputs. A violation here
// is fatal for the whole per-user run: the atomic-bundle guarantee means
// we fail the run rather than emit a partially wrong signal set.
type InputValidator struct {
	knownTypes map[domain.AccountType]struct{}
}

func NewInputValidator() *InputValidator {
	return &InputValidator{
		knownTypes: map[domain.AccountType]struct{}{
			domain.AccountChecking:   {},
			domain.AccountSavings:    {},
			domain.AccountCreditCard: {},
		},
	}
}

func (v *InputValidator) ValidateAccounts(accounts []*domain.Account) error {
	var errs []error

	for _, acc := range accounts {
		if _, ok := v.knownTypes[acc.Type]; !ok {
			errs = append(errs, fmt.Errorf("%w: account %s type %q", ErrUnknownAccountType, acc.ID, acc.Type))
		}
		// A numeric zero limit falls through to the utilization
		// extractor's data-quality path; a nil limit on a credit card
		// does not and must fail the run.
		if acc.Type == domain.AccountCreditCard && acc.CreditLimit == nil {
			errs = append(errs, fmt.Errorf("%w: account %s", ErrMissingCreditLimit, acc.ID))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (v *InputValidator) ValidateTransactions(txs []*domain.Transaction) error {
	var errs []error

	for _, tx := range txs {
		if tx.AccountID == "" {
			errs = append(errs, fmt.Errorf("%w: transaction %s", ErrOrphanTransaction, tx.ID))
		}
		if tx.PostedDate.IsZero() {
			errs = append(errs, fmt.Errorf("%w: transaction %s", ErrZeroPostedDate, tx.ID))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
