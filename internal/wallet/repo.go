package wallet

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/himalayan-naturals/storefront-backend/pkg/db/models"
	"github.com/himalayan-naturals/storefront-backend/pkg/enums"
	"github.com/himalayan-naturals/storefront-backend/pkg/pagination"
)

// BalanceCheckConstraint guards profiles.wallet_balance >= 0.
const BalanceCheckConstraint = "profiles_wallet_balance_non_negative"

// Repository persists wallet balances and the append-only transaction ledger.
// Transactions are never updated or deleted.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	FindProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	SetBalance(ctx context.Context, userID uuid.UUID, balance decimal.Decimal) error
	InsertTransaction(ctx context.Context, txn *models.WalletTransaction) error
	HasEntry(ctx context.Context, userID uuid.UUID, txType enums.WalletTransactionType, description string) (bool, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.WalletTransaction, error)
	LedgerTotals(ctx context.Context, userID *uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
	ListBalances(ctx context.Context) ([]ProfileBalance, error)
}

// ProfileBalance is the cached balance of one profile.
type ProfileBalance struct {
	ID            uuid.UUID       `gorm:"column:id"`
	WalletBalance decimal.Decimal `gorm:"column:wallet_balance"`
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// LockProfile reads the profile row with SELECT ... FOR UPDATE.
func (r *repository) LockProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", userID).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) FindProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) SetBalance(ctx context.Context, userID uuid.UUID, balance decimal.Decimal) error {
	res := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", userID).
		Update("wallet_balance", balance)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) InsertTransaction(ctx context.Context, txn *models.WalletTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

// HasEntry reports whether the user has an entry of txType with exactly
// this description.
func (r *repository) HasEntry(ctx context.Context, userID uuid.UUID, txType enums.WalletTransactionType, description string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Where("user_id = ? AND type = ? AND description = ?", userID, txType, description).
		Count(&count).Error
	return count > 0, err
}

// ListTransactions returns a user's entries newest first.
func (r *repository) ListTransactions(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.WalletTransaction, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var rows []models.WalletTransaction
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type ledgerTotalRow struct {
	UserID uuid.UUID                   `gorm:"column:user_id"`
	Type   enums.WalletTransactionType `gorm:"column:type"`
	Total  decimal.Decimal             `gorm:"column:total"`
}

// LedgerTotals sums completed entries per user, applying the sign of each type.
// A nil userID covers every user with at least one entry.
func (r *repository) LedgerTotals(ctx context.Context, userID *uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	query := r.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Select("user_id, type, SUM(amount) AS total").
		Where("status = ?", enums.WalletTxStatusCompleted).
		Group("user_id, type")
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	var rows []ledgerTotalRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make(map[uuid.UUID]decimal.Decimal)
	for _, row := range rows {
		amount := row.Total
		if !row.Type.IsCredit() {
			amount = amount.Neg()
		}
		totals[row.UserID] = totals[row.UserID].Add(amount)
	}
	return totals, nil
}

func (r *repository) ListBalances(ctx context.Context) ([]ProfileBalance, error) {
	var rows []ProfileBalance
	if err := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Select("id, wallet_balance").
		Order("id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
