package enums

import "testing"

func TestParsePaymentMethodIgnoresCase(t *testing.T) {
	got, err := ParsePaymentMethod(" bank transfer ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != PaymentMethodBankTransfer {
		t.Fatalf("expected %q, got %q", PaymentMethodBankTransfer, got)
	}
	if _, err := ParsePaymentMethod("card"); err == nil {
		t.Fatal("expected error for unknown method")
	}
}

func TestParseOrderStatus(t *testing.T) {
	got, err := ParseOrderStatus("cancelled")
	if err != nil || got != OrderStatusCancelled {
		t.Fatalf("expected Cancelled, got %q err=%v", got, err)
	}
	if _, err := ParseOrderStatus("Refunded"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestWalletTransactionTypeIsCredit(t *testing.T) {
	credits := []WalletTransactionType{WalletTxDeposit, WalletTxRefund, WalletTxReferralBonus, WalletTxSignupBonus}
	for _, typ := range credits {
		if !typ.IsCredit() {
			t.Fatalf("expected %s to be a credit", typ)
		}
	}
	for _, typ := range []WalletTransactionType{WalletTxWithdrawal, WalletTxPurchase} {
		if typ.IsCredit() {
			t.Fatalf("expected %s to be a debit", typ)
		}
	}
}

func TestProfileRoleRejectsGuest(t *testing.T) {
	if _, err := ParseProfileRole("guest"); err == nil {
		t.Fatal("guest must not be stored on a profile")
	}
	if got, err := ParseProfileRole("ADMIN"); err != nil || got != RoleAdmin {
		t.Fatalf("expected admin, got %q err=%v", got, err)
	}
	if !RoleGuest.IsValid() {
		t.Fatal("guest should still be a valid token role")
	}
}

func TestParsePromoType(t *testing.T) {
	if got, err := ParsePromoType("Percent"); err != nil || got != PromoPercent {
		t.Fatalf("expected percent, got %q err=%v", got, err)
	}
	if _, err := ParsePromoType("bogo"); err == nil {
		t.Fatal("expected error for unknown promo type")
	}
}
