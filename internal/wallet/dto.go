package wallet

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/himalayan-naturals/storefront-backend/pkg/db/models"
	"github.com/himalayan-naturals/storefront-backend/pkg/enums"
)

// AdminTopUpDescription labels admin credits posted without a description.
const AdminTopUpDescription = "Admin Top-up"

// TopUpInput is the body of an admin wallet credit. Bonus types are posted
// only by the signup and referral flows.
type TopUpInput struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"max=255"`
	Type        string          `json:"type" validate:"omitempty,oneof=deposit refund"`
}

// WithdrawInput is the body of a wallet debit request.
type WithdrawInput struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"max=255"`
}

// TransactionDTO is the API shape of a ledger entry.
type TransactionDTO struct {
	ID          uuid.UUID                     `json:"id"`
	UserID      uuid.UUID                     `json:"userId"`
	Type        enums.WalletTransactionType   `json:"type"`
	Amount      decimal.Decimal               `json:"amount"`
	Description string                        `json:"description"`
	Status      enums.WalletTransactionStatus `json:"status"`
	Date        time.Time                     `json:"date"`
}

// PostingDTO reports a ledger write and the balance after it.
type PostingDTO struct {
	Transaction TransactionDTO  `json:"transaction"`
	Balance     decimal.Decimal `json:"balance"`
}

// BalanceSummary compares the cached balance with the ledger sum.
type BalanceSummary struct {
	UserID        uuid.UUID       `json:"userId"`
	Balance       decimal.Decimal `json:"balance"`
	LedgerBalance decimal.Decimal `json:"ledgerBalance"`
	InSync        bool            `json:"inSync"`
}

// Drift is a profile whose cached balance disagrees with its ledger.
type Drift struct {
	UserID        uuid.UUID       `json:"userId"`
	Cached        decimal.Decimal `json:"cached"`
	LedgerBalance decimal.Decimal `json:"ledgerBalance"`
	Repaired      bool            `json:"repaired"`
}

// ReconcileReport summarizes a reconcile pass.
type ReconcileReport struct {
	Checked int     `json:"checked"`
	Drifts  []Drift `json:"drifts"`
}

// ToTransactionDTO maps a ledger row onto its API shape.
func ToTransactionDTO(row models.WalletTransaction) TransactionDTO {
	return TransactionDTO{
		ID:          row.ID,
		UserID:      row.UserID,
		Type:        row.Type,
		Amount:      row.Amount,
		Description: row.Description,
		Status:      row.Status,
		Date:        row.CreatedAt,
	}
}

// ToPostingDTO maps a posting onto its API shape.
func ToPostingDTO(p *Posting) PostingDTO {
	return PostingDTO{
		Transaction: ToTransactionDTO(p.Transaction),
		Balance:     p.BalanceAfter,
	}
}
