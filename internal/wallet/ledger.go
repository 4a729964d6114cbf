package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/himalayan-naturals/storefront-backend/pkg/db"
	"github.com/himalayan-naturals/storefront-backend/pkg/db/models"
	"github.com/himalayan-naturals/storefront-backend/pkg/enums"
	pkgerrors "github.com/himalayan-naturals/storefront-backend/pkg/errors"
	"github.com/himalayan-naturals/storefront-backend/pkg/metrics"
	"github.com/himalayan-naturals/storefront-backend/pkg/outbox"
	"github.com/himalayan-naturals/storefront-backend/pkg/outbox/payloads"
)

// Entry describes one balance mutation.
type Entry struct {
	UserID      uuid.UUID
	Amount      decimal.Decimal
	Description string
	Type        enums.WalletTransactionType
	Actor       *outbox.ActorRef
}

// Posting is a ledger row written inside a transaction plus the cached
// balance it produced.
type Posting struct {
	Transaction  models.WalletTransaction
	BalanceAfter decimal.Decimal
}

// Ledger applies balance mutations inside a transaction owned by the caller.
// Orders, referrals and signup share it so every balance change writes a
// transaction row, updates the cached balance and queues an outbox event
// atomically.
type Ledger struct {
	repo    Repository
	outbox  outbox.Emitter
	metrics *metrics.LedgerMetrics
}

// NewLedger wires the ledger with its repository and outbox emitter.
func NewLedger(repo Repository, emitter outbox.Emitter, m *metrics.LedgerMetrics) (*Ledger, error) {
	if repo == nil {
		return nil, errors.New("wallet repository required")
	}
	if emitter == nil {
		return nil, errors.New("outbox emitter required")
	}
	return &Ledger{repo: repo, outbox: emitter, metrics: m}, nil
}

// Credit adds funds. Only credit types are accepted.
func (l *Ledger) Credit(ctx context.Context, tx *gorm.DB, entry Entry) (*Posting, error) {
	if !entry.Type.IsCredit() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction type must be a credit")
	}
	return l.post(ctx, tx, entry)
}

// Debit removes funds, failing with INSUFFICIENT_BALANCE before any write
// when the locked balance does not cover the amount.
func (l *Ledger) Debit(ctx context.Context, tx *gorm.DB, entry Entry) (*Posting, error) {
	if !entry.Type.IsValid() || entry.Type.IsCredit() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction type must be a debit")
	}
	return l.post(ctx, tx, entry)
}

// LockedBalance locks the profile row and returns its cached balance.
func (l *Ledger) LockedBalance(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (decimal.Decimal, error) {
	if tx == nil {
		return decimal.Zero, errors.New("transaction required")
	}
	profile, err := l.repo.WithTx(tx).LockProfile(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock profile")
	}
	return profile.WalletBalance, nil
}

// HasEntry checks the ledger through tx for an entry of txType with description.
func (l *Ledger) HasEntry(ctx context.Context, tx *gorm.DB, userID uuid.UUID, txType enums.WalletTransactionType, description string) (bool, error) {
	return l.repo.WithTx(tx).HasEntry(ctx, userID, txType, description)
}

// Observe counts postings once their transaction has committed.
func (l *Ledger) Observe(postings ...*Posting) {
	for _, p := range postings {
		if p == nil {
			continue
		}
		l.metrics.RecordWalletTransaction(string(p.Transaction.Type), p.Transaction.Amount)
	}
}

func (l *Ledger) post(ctx context.Context, tx *gorm.DB, entry Entry) (*Posting, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	if entry.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	amount := entry.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}

	repo := l.repo.WithTx(tx)
	balance, err := l.LockedBalance(ctx, tx, entry.UserID)
	if err != nil {
		return nil, err
	}

	delta := amount
	if !entry.Type.IsCredit() {
		if balance.LessThan(amount) {
			return nil, insufficientBalance(balance, amount)
		}
		delta = amount.Neg()
	}

	row := models.WalletTransaction{
		ID:          uuid.New(),
		UserID:      entry.UserID,
		Type:        entry.Type,
		Amount:      amount,
		Description: entry.Description,
		Status:      enums.WalletTxStatusCompleted,
		CreatedAt:   time.Now().UTC(),
	}
	if err := repo.InsertTransaction(ctx, &row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert wallet transaction")
	}

	next := balance.Add(delta)
	if err := repo.SetBalance(ctx, entry.UserID, next); err != nil {
		if db.IsCheckViolation(err, BalanceCheckConstraint) {
			return nil, insufficientBalance(balance, amount)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update wallet balance")
	}

	err = l.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventWalletTransactionRecorded,
		AggregateType: enums.AggregateWalletTransaction,
		AggregateID:   row.ID.String(),
		Actor:         entry.Actor,
		Data: payloads.WalletTransactionRecordedEvent{
			TransactionID: row.ID,
			UserID:        row.UserID,
			Type:          row.Type,
			Amount:        row.Amount,
			BalanceAfter:  next,
			Description:   row.Description,
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue wallet event")
	}

	return &Posting{Transaction: row, BalanceAfter: next}, nil
}

func insufficientBalance(balance, amount decimal.Decimal) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientBalance, "Insufficient balance").
		WithDetails(map[string]string{
			"balance":  balance.StringFixed(2),
			"required": amount.StringFixed(2),
		})
}
