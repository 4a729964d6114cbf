// Package dbtest opens throwaway sqlite databases that mirror the Postgres
// schema closely enough for repository and ledger tests.
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/himalayan-naturals/storefront-backend/pkg/db"
)

var schema = []string{
	`CREATE TABLE identities (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		last_login_at DATETIME,
		created_at DATETIME,
		CONSTRAINT identities_email_key UNIQUE (email)
	)`,
	`CREATE TABLE profiles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT,
		address TEXT,
		role TEXT NOT NULL DEFAULT 'user',
		wallet_balance NUMERIC NOT NULL DEFAULT 0,
		referral_code TEXT,
		referred_by TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		CONSTRAINT profiles_role_check CHECK (role IN ('admin', 'user')),
		CONSTRAINT profiles_wallet_balance_non_negative CHECK (wallet_balance >= 0),
		CONSTRAINT profiles_referral_code_key UNIQUE (referral_code),
		CONSTRAINT profiles_no_self_referral CHECK (referred_by IS NULL OR referred_by <> id)
	)`,
	`CREATE TABLE wallet_transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		amount NUMERIC NOT NULL,
		description TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'completed',
		created_at DATETIME,
		CONSTRAINT wallet_transactions_amount_positive CHECK (amount > 0)
	)`,
	`CREATE TRIGGER wallet_transactions_no_update BEFORE UPDATE ON wallet_transactions
	BEGIN SELECT RAISE(ABORT, 'wallet_transactions is append-only'); END`,
	`CREATE TRIGGER wallet_transactions_no_delete BEFORE DELETE ON wallet_transactions
	BEGIN SELECT RAISE(ABORT, 'wallet_transactions is append-only'); END`,
	`CREATE TABLE products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price NUMERIC NOT NULL,
		category TEXT NOT NULL,
		stock INTEGER NOT NULL DEFAULT 10,
		discount TEXT,
		image TEXT NOT NULL DEFAULT '',
		images TEXT NOT NULL DEFAULT '{}',
		rating NUMERIC NOT NULL DEFAULT 0,
		reviews INTEGER NOT NULL DEFAULT 0,
		benefits TEXT,
		usage TEXT,
		ingredients TEXT,
		certifications TEXT NOT NULL DEFAULT '{}',
		tags TEXT NOT NULL DEFAULT '{}',
		bulk_price TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		CONSTRAINT products_stock_non_negative CHECK (stock >= 0)
	)`,
	`CREATE TABLE orders (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		customer_details TEXT NOT NULL,
		items TEXT NOT NULL,
		subtotal NUMERIC NOT NULL,
		discount NUMERIC NOT NULL,
		tax NUMERIC NOT NULL,
		total NUMERIC NOT NULL,
		coupon_code TEXT,
		status TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		date DATETIME NOT NULL,
		created_at DATETIME,
		updated_at DATETIME,
		CONSTRAINT orders_total_non_negative CHECK (total >= 0),
		CONSTRAINT orders_discount_within_subtotal CHECK (discount >= 0 AND discount <= subtotal)
	)`,
	`CREATE TABLE promo_codes (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL,
		type TEXT NOT NULL,
		value NUMERIC NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME,
		CONSTRAINT promo_codes_code_key UNIQUE (code)
	)`,
	`CREATE TABLE posts (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		author TEXT NOT NULL,
		content TEXT NOT NULL,
		image TEXT,
		avatar TEXT,
		likes INTEGER NOT NULL DEFAULT 0,
		comments INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE contact_messages (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT,
		subject TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE site_settings (
		id INTEGER PRIMARY KEY,
		referral_bonus_amount NUMERIC NOT NULL DEFAULT 200,
		seo_title TEXT,
		seo_description TEXT,
		seo_keywords TEXT,
		contact_email TEXT,
		contact_phone TEXT,
		address TEXT,
		announcement TEXT,
		updated_at DATETIME,
		CONSTRAINT site_settings_singleton CHECK (id = 1)
	)`,
	`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`,
}

// Open returns a fresh in-memory database with the storefront schema applied.
// A single connection is kept so transactions and plain reads see the same data.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return conn
}

// OpenClient wraps Open in a *db.Client so services get the real WithTx.
func OpenClient(t testing.TB) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := Open(t)
	return db.Wrap(conn), conn
}
