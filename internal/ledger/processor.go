// Package ledger implements the crowdfunding program: the instruction
// handlers that validate, authorize and apply every state change to program
// state, campaigns and receipts.
//
// Each instruction runs in a single database transaction. It either applies
// all of its record writes and value transfers or, on any error, none of them.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/kkkkikiki/crowdfund/internal/address"
	"github.com/kkkkikiki/crowdfund/internal/metrics"
	"github.com/kkkkikiki/crowdfund/internal/model"
	"github.com/kkkkikiki/crowdfund/internal/repository"
	"github.com/kkkkikiki/crowdfund/internal/units"
)

// Instruction names, used for metrics, logs and request signing.
const (
	InstructionInitialize             = "initialize"
	InstructionCreateCampaign         = "create_campaign"
	InstructionUpdateCampaign         = "update_campaign"
	InstructionDeleteCampaign         = "delete_campaign"
	InstructionDonate                 = "donate"
	InstructionWithdraw               = "withdraw"
	InstructionUpdatePlatformSettings = "update_platform_settings"
	instructionGenesis                = "genesis"
)

// Platform fee bounds accepted by UpdatePlatformSettings, in percent.
const (
	MinPlatformFee = 1
	MaxPlatformFee = 15
)

// Params are the program parameters fixed at deployment.
type Params struct {
	PlatformFee   uint64 // percent of each withdrawal paid to the platform
	MinDonation   uint64 // lamports
	MinWithdrawal uint64 // lamports
	RentPerByte   uint64 // lamports charged per allocated byte
}

// DefaultParams returns the parameters of the reference deployment.
func DefaultParams() Params {
	return Params{
		PlatformFee:   5,
		MinDonation:   units.LamportsPerSOL,
		MinWithdrawal: units.LamportsPerSOL,
		RentPerByte:   6960,
	}
}

// Processor executes crowdfunding instructions against the ledger database.
type Processor struct {
	db        *sqlx.DB
	program   address.Address
	params    Params
	accounts  *repository.AccountRepository
	campaigns *repository.CampaignRepository
	receipts  *repository.TransactionRepository
	logger    zerolog.Logger
	now       func() time.Time
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the processor logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Processor) { p.logger = logger }
}

// WithClock overrides the clock used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// NewProcessor creates a processor for program backed by db.
func NewProcessor(db *sqlx.DB, program address.Address, params Params, opts ...Option) (*Processor, error) {
	if db == nil {
		return nil, errors.New("ledger database is required")
	}
	if params.PlatformFee > 100 {
		return nil, fmt.Errorf("platform fee must be a percentage, got %d", params.PlatformFee)
	}

	accounts := repository.NewAccountRepository()
	p := &Processor{
		db:        db,
		program:   program,
		params:    params,
		accounts:  accounts,
		campaigns: repository.NewCampaignRepository(program, accounts),
		receipts:  repository.NewTransactionRepository(program, accounts),
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Program returns the address of the program the processor executes.
func (p *Processor) Program() address.Address {
	return p.program
}

// Params returns the deployment parameters.
func (p *Processor) Params() Params {
	return p.params
}

// Rent returns the lamports needed to allocate an account with space data bytes.
func (p *Processor) Rent(space int) uint64 {
	return uint64(model.AccountStorageOverhead+space) * p.params.RentPerByte
}

// execute runs fn inside one database transaction and records its outcome.
func (p *Processor) execute(ctx context.Context, instruction string, fn func(tx *sqlx.Tx) error) error {
	start := time.Now()
	status := "failed"
	defer func() {
		metrics.RecordInstructionDuration(instruction, status, time.Since(start).Seconds())
	}()

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		if errors.Is(err, repository.ErrAccountExists) && !errors.Is(err, ErrAddressCollision) {
			err = fmt.Errorf("%w: %w", ErrAddressCollision, err)
		}
		p.logger.Debug().Err(err).Str("instruction", instruction).Msg("instruction rejected")
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", instruction, err)
	}
	status = "success"
	return nil
}

func (p *Processor) timestamp() uint64 {
	return uint64(p.now().Unix())
}

func (p *Processor) loadProgramState(ctx context.Context, tx *sqlx.Tx, forUpdate bool) (*model.ProgramState, *model.Account, error) {
	state, account, err := p.campaigns.GetProgramState(ctx, tx, forUpdate)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return nil, nil, ErrNotInitialized
	}
	return state, account, err
}

func (p *Processor) loadCampaign(ctx context.Context, tx *sqlx.Tx, cid uint64) (*model.Campaign, *model.Account, error) {
	campaign, account, err := p.campaigns.GetCampaign(ctx, tx, cid, true)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return nil, nil, fmt.Errorf("%w: %d", ErrCampaignNotFound, cid)
	}
	return campaign, account, err
}

// ensureVacant fails with ErrAddressCollision if a record already lives at addr.
func (p *Processor) ensureVacant(ctx context.Context, tx *sqlx.Tx, addr address.Address) error {
	exists, err := p.accounts.Exists(ctx, tx, addr)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrAddressCollision, addr)
	}
	return nil
}
