package enums

import "fmt"

// WalletTransactionType classifies a wallet ledger entry.
type WalletTransactionType string

const (
	WalletTxDeposit       WalletTransactionType = "deposit"
	WalletTxWithdrawal    WalletTransactionType = "withdrawal"
	WalletTxPurchase      WalletTransactionType = "purchase"
	WalletTxRefund        WalletTransactionType = "refund"
	WalletTxReferralBonus WalletTransactionType = "referral_bonus"
	WalletTxSignupBonus   WalletTransactionType = "signup_bonus"
)

var validWalletTransactionTypes = []WalletTransactionType{
	WalletTxDeposit,
	WalletTxWithdrawal,
	WalletTxPurchase,
	WalletTxRefund,
	WalletTxReferralBonus,
	WalletTxSignupBonus,
}

// String implements fmt.Stringer.
func (t WalletTransactionType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known WalletTransactionType.
func (t WalletTransactionType) IsValid() bool {
	for _, candidate := range validWalletTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsCredit reports whether entries of this type increase the balance.
func (t WalletTransactionType) IsCredit() bool {
	switch t {
	case WalletTxDeposit, WalletTxRefund, WalletTxReferralBonus, WalletTxSignupBonus:
		return true
	default:
		return false
	}
}

// ParseWalletTransactionType converts raw input into a WalletTransactionType.
func ParseWalletTransactionType(value string) (WalletTransactionType, error) {
	for _, candidate := range validWalletTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet transaction type %q", value)
}

// WalletTransactionStatus records the settlement state of a ledger entry.
type WalletTransactionStatus string

const (
	WalletTxStatusCompleted WalletTransactionStatus = "completed"
	WalletTxStatusPending   WalletTransactionStatus = "pending"
	WalletTxStatusFailed    WalletTransactionStatus = "failed"
)

// IsValid reports whether the value is a known WalletTransactionStatus.
func (s WalletTransactionStatus) IsValid() bool {
	switch s {
	case WalletTxStatusCompleted, WalletTxStatusPending, WalletTxStatusFailed:
		return true
	default:
		return false
	}
}
