package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lib/pq"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/kkkkikiki/crowdfund/internal/address"
	"github.com/kkkkikiki/crowdfund/internal/model"
)

var (
	// ErrAccountNotFound is returned when no account lives at an address.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountExists is returned when creating an account at an occupied address.
	ErrAccountExists = errors.New("account already exists")
	// ErrLamportsOutOfRange is returned for balances the database cannot hold.
	ErrLamportsOutOfRange = errors.New("lamports out of range")
)

// DBExecutor interface for database operations (can be *sqlx.DB or *sqlx.Tx)
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Rebind(query string) string
	DriverName() string
}

const accountColumns = `address, lamports, owner, kind, space, data, created_at, updated_at`

// AccountRepository handles ledger account rows
type AccountRepository struct{}

// NewAccountRepository creates a new account repository
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{}
}

// GetAccount retrieves the account at addr. With forUpdate the row stays
// locked until the surrounding transaction ends.
func (r *AccountRepository) GetAccount(ctx context.Context, db DBExecutor, addr address.Address, forUpdate bool) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE address = ?`
	if forUpdate && db.DriverName() == "postgres" {
		query += ` FOR UPDATE`
	}

	var account model.Account
	err := db.GetContext(ctx, &account, db.Rebind(query), addr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
		}
		return nil, fmt.Errorf("failed to get account %s: %w", addr, err)
	}

	return &account, nil
}

// Exists reports whether an account lives at addr
func (r *AccountRepository) Exists(ctx context.Context, db DBExecutor, addr address.Address) (bool, error) {
	var count int
	query := db.Rebind(`SELECT COUNT(*) FROM accounts WHERE address = ?`)
	if err := db.GetContext(ctx, &count, query, addr); err != nil {
		return false, fmt.Errorf("failed to check account %s: %w", addr, err)
	}
	return count > 0, nil
}

// GetBalance returns the lamports held at addr, zero for missing accounts
func (r *AccountRepository) GetBalance(ctx context.Context, db DBExecutor, addr address.Address) (uint64, error) {
	account, err := r.GetAccount(ctx, db, addr, false)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return account.Lamports, nil
}

// CreateAccount inserts a new account. Creating at an occupied address fails
// with ErrAccountExists.
func (r *AccountRepository) CreateAccount(ctx context.Context, db DBExecutor, account *model.Account) error {
	lamports, err := toColumn(account.Lamports)
	if err != nil {
		return err
	}

	now := model.ToMillis(time.Now())
	account.CreatedAt = now
	account.UpdatedAt = now

	query := db.Rebind(`
		INSERT INTO accounts (` + accountColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err = db.ExecContext(ctx, query,
		account.Address, lamports, account.Owner, account.Kind, account.Space,
		account.Data, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrAccountExists, account.Address)
		}
		return fmt.Errorf("failed to create account %s: %w", account.Address, err)
	}

	return nil
}

// UpdateAccount writes back the lamports and data of an existing account
func (r *AccountRepository) UpdateAccount(ctx context.Context, db DBExecutor, account *model.Account) error {
	lamports, err := toColumn(account.Lamports)
	if err != nil {
		return err
	}
	account.UpdatedAt = model.ToMillis(time.Now())

	query := db.Rebind(`
		UPDATE accounts
		SET lamports = ?, kind = ?, data = ?, updated_at = ?
		WHERE address = ?
	`)
	result, err := db.ExecContext(ctx, query, lamports, account.Kind, account.Data, account.UpdatedAt, account.Address)
	if err != nil {
		return fmt.Errorf("failed to update account %s: %w", account.Address, err)
	}

	// Check if any row was actually updated
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, account.Address)
	}

	return nil
}

// LoadRecord retrieves the account at addr and decodes its data into rec
func (r *AccountRepository) LoadRecord(ctx context.Context, db DBExecutor, addr address.Address, rec model.Record, forUpdate bool) (*model.Account, error) {
	account, err := r.GetAccount(ctx, db, addr, forUpdate)
	if err != nil {
		return nil, err
	}
	if err := account.Decode(rec); err != nil {
		return nil, fmt.Errorf("failed to decode account %s: %w", addr, err)
	}
	return account, nil
}

// CreateRecord allocates a program-owned account at addr holding rec. The
// account reserves rec.Space() bytes and starts with lamports.
func (r *AccountRepository) CreateRecord(ctx context.Context, db DBExecutor, addr, program address.Address, lamports uint64, rec model.Record) (*model.Account, error) {
	account := &model.Account{
		Address:  addr,
		Lamports: lamports,
		Owner:    program,
		Space:    rec.Space(),
	}
	if err := account.Encode(rec); err != nil {
		return nil, err
	}
	if err := r.CreateAccount(ctx, db, account); err != nil {
		return nil, err
	}
	return account, nil
}

// SaveRecord encodes rec into account and writes it back
func (r *AccountRepository) SaveRecord(ctx context.Context, db DBExecutor, account *model.Account, rec model.Record) error {
	if err := account.Encode(rec); err != nil {
		return err
	}
	return r.UpdateAccount(ctx, db, account)
}

func toColumn(lamports uint64) (int64, error) {
	if lamports > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d", ErrLamportsOutOfRange, lamports)
	}
	return int64(lamports), nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
