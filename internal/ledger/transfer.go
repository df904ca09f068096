package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/bits"

	"github.com/jmoiron/sqlx"

	"github.com/kkkkikiki/crowdfund/internal/address"
	"github.com/kkkkikiki/crowdfund/internal/model"
	"github.com/kkkkikiki/crowdfund/internal/repository"
)

// payer locks the account that funds an instruction. A missing account holds
// no lamports.
func (p *Processor) payer(ctx context.Context, tx *sqlx.Tx, addr address.Address) (*model.Account, error) {
	account, err := p.accounts.GetAccount(ctx, tx, addr, true)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return nil, fmt.Errorf("%w: %s holds no lamports", ErrInsufficientFunds, addr)
	}
	return account, err
}

// receiver locks the account at addr, or returns a new empty system account
// when none exists yet. created reports which case applied.
func (p *Processor) receiver(ctx context.Context, tx *sqlx.Tx, addr address.Address) (account *model.Account, created bool, err error) {
	account, err = p.accounts.GetAccount(ctx, tx, addr, true)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return model.NewSystemAccount(addr, 0), true, nil
	}
	return account, false, err
}

func (p *Processor) saveReceiver(ctx context.Context, tx *sqlx.Tx, account *model.Account, created bool) error {
	if created {
		return p.accounts.CreateAccount(ctx, tx, account)
	}
	return p.accounts.UpdateAccount(ctx, tx, account)
}

func debit(account *model.Account, lamports uint64) error {
	if account.Lamports < lamports {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, account.Address, account.Lamports, lamports)
	}
	account.Lamports -= lamports
	return nil
}

func credit(account *model.Account, lamports uint64) error {
	sum, err := checkedAdd(account.Lamports, lamports)
	if err != nil {
		return err
	}
	account.Lamports = sum
	return nil
}

func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrArithmeticOverflow
	}
	return sum, nil
}

// platformFee returns amount*percent/100 without intermediate overflow.
// percent must not exceed 100.
func platformFee(amount, percent uint64) uint64 {
	hi, lo := bits.Mul64(amount, percent)
	fee, _ := bits.Div64(hi, lo, 100)
	return fee
}
