package migrate_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/himalayan-naturals/storefront-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one %s migration, found %d", suffix, len(matches))
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func assertContains(t *testing.T, content string, checks []string) {
	t.Helper()
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestProfilesMigrationGuardsWalletBalance(t *testing.T) {
	assertContains(t, readMigration(t, "create_identities_and_profiles"), []string{
		"CREATE TABLE IF NOT EXISTS identities",
		"CREATE TABLE IF NOT EXISTS profiles",
		"CONSTRAINT profiles_wallet_balance_non_negative CHECK (wallet_balance >= 0)",
		"CONSTRAINT profiles_referral_code_key UNIQUE (referral_code)",
		"CONSTRAINT profiles_no_self_referral",
		"CONSTRAINT identities_email_key UNIQUE (email)",
	})
}

func TestWalletTransactionsMigrationIsAppendOnly(t *testing.T) {
	assertContains(t, readMigration(t, "create_wallet_transactions"), []string{
		"CREATE TABLE IF NOT EXISTS wallet_transactions",
		"CONSTRAINT wallet_transactions_amount_positive CHECK (amount > 0)",
		"'deposit', 'withdrawal', 'purchase', 'refund', 'referral_bonus', 'signup_bonus'",
		"BEFORE UPDATE OR DELETE ON wallet_transactions",
	})
}

func TestOrdersMigrationConstrainsTotals(t *testing.T) {
	assertContains(t, readMigration(t, "create_orders"), []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"customer_details JSONB NOT NULL",
		"items JSONB NOT NULL",
		"CONSTRAINT orders_total_non_negative CHECK (total >= 0)",
		"CONSTRAINT orders_discount_within_subtotal",
		"'COD', 'eSewa', 'Bank Transfer', 'Wallet'",
	})
}

func TestPromoAndSettingsMigrations(t *testing.T) {
	assertContains(t, readMigration(t, "create_promo_codes"), []string{
		"CONSTRAINT promo_codes_code_key UNIQUE (code)",
		"CONSTRAINT promo_codes_code_normalized CHECK (code = upper(btrim(code)))",
	})
	assertContains(t, readMigration(t, "create_site_settings"), []string{
		"referral_bonus_amount NUMERIC(12,2) NOT NULL DEFAULT 200",
		"CONSTRAINT site_settings_singleton CHECK (id = 1)",
	})
}

func TestValidateDirAcceptsRepositoryMigrations(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Wallet Index!")
	if err != nil {
		t.Fatalf("CreateSQLMigration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_wallet_index.sql") {
		t.Fatalf("unexpected migration path %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "init.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename error")
	}
}

func TestEmbeddedMigrationsMatchSourceTree(t *testing.T) {
	if err := migrate.Validate(migrate.Migrations()); err != nil {
		t.Fatalf("embedded migrations invalid: %v", err)
	}
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	embedded, err := fs.Glob(migrate.Migrations(), "*.sql")
	if err != nil {
		t.Fatalf("glob embedded: %v", err)
	}
	if len(onDisk) != len(embedded) {
		t.Fatalf("embedded set has %d files, source tree has %d", len(embedded), len(onDisk))
	}
}

func TestCreateSQLMigrationOrdersAfterNewestFile(t *testing.T) {
	dir := t.TempDir()
	future := "29991231235959_far_future.sql"
	if err := os.WriteFile(filepath.Join(dir, future), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	path, err := migrate.CreateSQLMigration(dir, "next step")
	if err != nil {
		t.Fatalf("CreateSQLMigration: %v", err)
	}
	if filepath.Base(path) <= future {
		t.Fatalf("expected %s to sort after %s", filepath.Base(path), future)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("directory should still validate: %v", err)
	}
}
