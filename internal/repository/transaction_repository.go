package repository

import (
	"context"
	"fmt"

	"github.com/kkkkikiki/crowdfund/internal/address"
	"github.com/kkkkikiki/crowdfund/internal/model"
)

// TransactionRepository handles donation and withdrawal receipts
type TransactionRepository struct {
	program  address.Address
	accounts *AccountRepository
}

// NewTransactionRepository creates a new receipt repository for program
func NewTransactionRepository(program address.Address, accounts *AccountRepository) *TransactionRepository {
	return &TransactionRepository{program: program, accounts: accounts}
}

// CreateTransaction writes a receipt at addr. Receipts are never updated, so
// an occupied address fails with ErrAccountExists.
func (r *TransactionRepository) CreateTransaction(ctx context.Context, db DBExecutor, addr address.Address, tx *model.Transaction, rent uint64) (*model.Account, error) {
	account, err := r.accounts.CreateRecord(ctx, db, addr, r.program, rent, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to create receipt: %w", err)
	}
	return account, nil
}

// GetTransaction retrieves the receipt at addr
func (r *TransactionRepository) GetTransaction(ctx context.Context, db DBExecutor, addr address.Address) (*model.Transaction, error) {
	var tx model.Transaction
	if _, err := r.accounts.LoadRecord(ctx, db, addr, &tx, false); err != nil {
		return nil, err
	}
	return &tx, nil
}
