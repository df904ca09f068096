package database

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenSQLiteRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := OpenSQLite(context.Background(), ""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Migrate(ctx, db.Ledger); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	var applied int
	if err := db.Ledger.GetContext(ctx, &applied, `SELECT COUNT(*) FROM schema_migrations`); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if applied != 1 {
		t.Fatalf("applied migrations = %d, want 1", applied)
	}

	var accounts int
	if err := db.Ledger.GetContext(ctx, &accounts, `SELECT COUNT(*) FROM accounts`); err != nil {
		t.Fatalf("accounts table missing: %v", err)
	}
}
