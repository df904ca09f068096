package ledger

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/kkkkikiki/crowdfund/internal/address"
	"github.com/kkkkikiki/crowdfund/internal/metrics"
	"github.com/kkkkikiki/crowdfund/internal/model"
)

// Genesis funds wallets that do not exist yet. Existing accounts are left
// alone, so running it on every start credits each wallet once. It returns
// the number of accounts created.
func (p *Processor) Genesis(ctx context.Context, balances map[address.Address]uint64) (int, error) {
	created := 0
	var total uint64
	err := p.execute(ctx, instructionGenesis, func(tx *sqlx.Tx) error {
		for addr, lamports := range balances {
			exists, err := p.accounts.Exists(ctx, tx, addr)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			if err := p.accounts.CreateAccount(ctx, tx, model.NewSystemAccount(addr, lamports)); err != nil {
				return err
			}
			if total, err = checkedAdd(total, lamports); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	metrics.RecordLamportsMoved(metrics.FlowGenesis, total)
	p.logger.Info().Int("accounts", created).Uint64("lamports", total).Msg("genesis accounts funded")
	return created, nil
}
