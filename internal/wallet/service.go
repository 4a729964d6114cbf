package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/himalayan-naturals/storefront-backend/pkg/db/models"
	"github.com/himalayan-naturals/storefront-backend/pkg/enums"
	pkgerrors "github.com/himalayan-naturals/storefront-backend/pkg/errors"
	"github.com/himalayan-naturals/storefront-backend/pkg/logger"
	"github.com/himalayan-naturals/storefront-backend/pkg/metrics"
	"github.com/himalayan-naturals/storefront-backend/pkg/outbox"
	"github.com/himalayan-naturals/storefront-backend/pkg/pagination"
)

const (
	defaultTopUpDescription    = "Wallet Top-up"
	defaultWithdrawDescription = "Withdrawal"
)

// Service exposes wallet operations to controllers and the reconcile job.
type Service interface {
	TopUp(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string, txType enums.WalletTransactionType, actor *outbox.ActorRef) (*Posting, error)
	Withdraw(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string, actor *outbox.ActorRef) (*Posting, error)
	Balance(ctx context.Context, userID uuid.UUID) (*BalanceSummary, error)
	LedgerBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	Transactions(ctx context.Context, userID uuid.UUID, params pagination.Params) (*pagination.Page[TransactionDTO], error)
	Reconcile(ctx context.Context, repair bool) (*ReconcileReport, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo    Repository
	ledger  *Ledger
	tx      txRunner
	logg    *logger.Logger
	metrics *metrics.LedgerMetrics
}

// ServiceParams groups the wallet service dependencies.
type ServiceParams struct {
	Repo    Repository
	Ledger  *Ledger
	Tx      txRunner
	Logger  *logger.Logger
	Metrics *metrics.LedgerMetrics
}

// NewService builds the wallet service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("wallet ledger required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    params.Repo,
		ledger:  params.Ledger,
		tx:      params.Tx,
		logg:    params.Logger,
		metrics: params.Metrics,
	}, nil
}

// TopUp credits the wallet. Blank description and type fall back to
// "Wallet Top-up" and deposit.
func (s *service) TopUp(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string, txType enums.WalletTransactionType, actor *outbox.ActorRef) (*Posting, error) {
	if strings.TrimSpace(description) == "" {
		description = defaultTopUpDescription
	}
	if txType == "" {
		txType = enums.WalletTxDeposit
	}
	if !txType.IsCredit() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("type %q cannot credit a wallet", txType))
	}
	return s.apply(ctx, Entry{
		UserID:      userID,
		Amount:      amount,
		Description: strings.TrimSpace(description),
		Type:        txType,
		Actor:       actor,
	}, s.ledger.Credit)
}

// Withdraw debits the wallet. Descriptions mentioning an order are recorded
// as purchases, anything else as a withdrawal.
func (s *service) Withdraw(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string, actor *outbox.ActorRef) (*Posting, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		description = defaultWithdrawDescription
	}
	return s.apply(ctx, Entry{
		UserID:      userID,
		Amount:      amount,
		Description: description,
		Type:        DebitTypeFor(description),
		Actor:       actor,
	}, s.ledger.Debit)
}

// DebitTypeFor classifies a debit by its description.
func DebitTypeFor(description string) enums.WalletTransactionType {
	if strings.Contains(description, "Order") {
		return enums.WalletTxPurchase
	}
	return enums.WalletTxWithdrawal
}

type postFn func(ctx context.Context, tx *gorm.DB, entry Entry) (*Posting, error)

func (s *service) apply(ctx context.Context, entry Entry, post postFn) (*Posting, error) {
	var posting *Posting
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		posting, err = post(ctx, tx, entry)
		return err
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "wallet transaction failed")
		}
		return nil, err
	}

	s.ledger.Observe(posting)
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"user_id":        entry.UserID.String(),
		"transaction_id": posting.Transaction.ID.String(),
		"type":           string(posting.Transaction.Type),
		"amount":         posting.Transaction.Amount.StringFixed(2),
	})
	s.logg.Info(logCtx, "wallet.transaction.recorded")
	return posting, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (*BalanceSummary, error) {
	profile, err := s.repo.FindProfile(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load profile")
	}
	ledgerBalance, err := s.LedgerBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &BalanceSummary{
		UserID:        userID,
		Balance:       profile.WalletBalance,
		LedgerBalance: ledgerBalance,
		InSync:        profile.WalletBalance.Equal(ledgerBalance),
	}, nil
}

// LedgerBalance sums the user's completed transactions. It is the source of
// truth the cached balance is reconciled against.
func (s *service) LedgerBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	totals, err := s.repo.LedgerTotals(ctx, &userID)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum wallet ledger")
	}
	return totals[userID], nil
}

func (s *service) Transactions(ctx context.Context, userID uuid.UUID, params pagination.Params) (*pagination.Page[TransactionDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListTransactions(ctx, userID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list wallet transactions")
	}
	page := pagination.Trim(rows, params.Limit, func(row models.WalletTransaction) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID.String()}
	})
	items := make([]TransactionDTO, 0, len(page.Items))
	for _, row := range page.Items {
		items = append(items, ToTransactionDTO(row))
	}
	return &pagination.Page[TransactionDTO]{Items: items, NextCursor: page.NextCursor}, nil
}

// Reconcile compares every cached balance with its ledger sum. With repair
// set, drifted balances are overwritten by the ledger value under a row lock.
func (s *service) Reconcile(ctx context.Context, repair bool) (*ReconcileReport, error) {
	balances, err := s.repo.ListBalances(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list balances")
	}
	totals, err := s.repo.LedgerTotals(ctx, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum wallet ledger")
	}

	report := &ReconcileReport{Checked: len(balances)}
	var repairErrs error
	for _, b := range balances {
		ledgerBalance := totals[b.ID]
		if b.WalletBalance.Equal(ledgerBalance) {
			continue
		}
		drift := Drift{UserID: b.ID, Cached: b.WalletBalance, LedgerBalance: ledgerBalance}
		if repair && !ledgerBalance.IsNegative() {
			if err := s.repairBalance(ctx, b.ID); err != nil {
				repairErrs = multierr.Append(repairErrs, fmt.Errorf("repair %s: %w", b.ID, err))
			} else {
				drift.Repaired = true
			}
		}
		report.Drifts = append(report.Drifts, drift)

		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"user_id":  b.ID.String(),
			"cached":   b.WalletBalance.StringFixed(2),
			"ledger":   ledgerBalance.StringFixed(2),
			"repaired": drift.Repaired,
		}), "wallet.reconcile.drift")
	}
	s.metrics.SetWalletDrift(len(report.Drifts))
	// A failed repair leaves the drift unrepaired; the report is still returned.
	return report, repairErrs
}

// repairBalance recomputes the ledger sum inside the lock so concurrent
// postings cannot be overwritten with a stale value.
func (s *service) repairBalance(ctx context.Context, userID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.LockProfile(ctx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock profile")
		}
		totals, err := repo.LedgerTotals(ctx, &userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum wallet ledger")
		}
		if err := repo.SetBalance(ctx, userID, totals[userID]); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "repair balance")
		}
		return nil
	})
}
