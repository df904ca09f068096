package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kkkkikiki/crowdfund/internal/address"
	"github.com/kkkkikiki/crowdfund/internal/model"
	"github.com/kkkkikiki/crowdfund/internal/repository"
)

// Initialize creates the program state singleton. The caller pays for the
// allocation and becomes the platform address that receives withdrawal fees.
func (p *Processor) Initialize(ctx context.Context, caller address.Address) (*model.ProgramState, error) {
	state := &model.ProgramState{
		Initialized:     true,
		CampaignCount:   0,
		PlatformFee:     p.params.PlatformFee,
		PlatformAddress: caller,
	}

	err := p.execute(ctx, InstructionInitialize, func(tx *sqlx.Tx) error {
		exists, err := p.accounts.Exists(ctx, tx, address.ProgramState(p.program))
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyInitialized
		}

		rent := p.Rent(state.Space())
		payer, err := p.payer(ctx, tx, caller)
		if err != nil {
			return err
		}
		if err := debit(payer, rent); err != nil {
			return err
		}

		if _, err := p.campaigns.CreateProgramState(ctx, tx, state, rent); err != nil {
			if errors.Is(err, repository.ErrAccountExists) {
				return ErrAlreadyInitialized
			}
			return err
		}
		return p.accounts.UpdateAccount(ctx, tx, payer)
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("instruction", InstructionInitialize).
		Stringer("platform_address", caller).
		Uint64("platform_fee", state.PlatformFee).
		Msg("program initialized")
	return state, nil
}

// UpdatePlatformSettings changes the withdrawal fee. Only the platform
// address may call it, and the fee must lie within MinPlatformFee and
// MaxPlatformFee.
func (p *Processor) UpdatePlatformSettings(ctx context.Context, caller address.Address, fee uint64) (*model.ProgramState, error) {
	var state *model.ProgramState
	err := p.execute(ctx, InstructionUpdatePlatformSettings, func(tx *sqlx.Tx) error {
		current, account, err := p.loadProgramState(ctx, tx, true)
		if err != nil {
			return err
		}
		if caller != current.PlatformAddress {
			return ErrUnauthorized
		}
		if fee < MinPlatformFee || fee > MaxPlatformFee {
			return fmt.Errorf("%w: %d", ErrInvalidPlatformFee, fee)
		}

		current.PlatformFee = fee
		if err := p.accounts.SaveRecord(ctx, tx, account, current); err != nil {
			return err
		}
		state = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("instruction", InstructionUpdatePlatformSettings).
		Uint64("platform_fee", fee).
		Msg("platform fee updated")
	return state, nil
}
