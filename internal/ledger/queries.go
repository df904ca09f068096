package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/kkkkikiki/crowdfund/internal/address"
	"github.com/kkkkikiki/crowdfund/internal/model"
	"github.com/kkkkikiki/crowdfund/internal/repository"
)

// ProgramState returns the program state singleton.
func (p *Processor) ProgramState(ctx context.Context) (*model.ProgramState, error) {
	state, _, err := p.campaigns.GetProgramState(ctx, p.db, false)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return nil, ErrNotInitialized
	}
	return state, err
}

// Campaign returns campaign cid together with the lamports its account holds.
func (p *Processor) Campaign(ctx context.Context, cid uint64) (*model.Campaign, uint64, error) {
	campaign, account, err := p.campaigns.GetCampaign(ctx, p.db, cid, false)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return nil, 0, fmt.Errorf("%w: %d", ErrCampaignNotFound, cid)
	}
	if err != nil {
		return nil, 0, err
	}
	return campaign, account.Lamports, nil
}

// Transaction returns the receipt stored at addr.
func (p *Processor) Transaction(ctx context.Context, addr address.Address) (*model.Transaction, error) {
	return p.receipts.GetTransaction(ctx, p.db, addr)
}

// Balance returns the lamports held at addr. Unknown addresses hold zero.
func (p *Processor) Balance(ctx context.Context, addr address.Address) (uint64, error) {
	return p.accounts.GetBalance(ctx, p.db, addr)
}
