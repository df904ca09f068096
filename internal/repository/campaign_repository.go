package repository

import (
	"context"
	"fmt"

	"github.com/kkkkikiki/crowdfund/internal/address"
	"github.com/kkkkikiki/crowdfund/internal/model"
)

// CampaignRepository handles program state and campaign records
type CampaignRepository struct {
	program  address.Address
	accounts *AccountRepository
}

// NewCampaignRepository creates a new campaign repository for program
func NewCampaignRepository(program address.Address, accounts *AccountRepository) *CampaignRepository {
	return &CampaignRepository{program: program, accounts: accounts}
}

// GetProgramState retrieves the singleton program state
func (r *CampaignRepository) GetProgramState(ctx context.Context, db DBExecutor, forUpdate bool) (*model.ProgramState, *model.Account, error) {
	var state model.ProgramState
	account, err := r.accounts.LoadRecord(ctx, db, address.ProgramState(r.program), &state, forUpdate)
	if err != nil {
		return nil, nil, err
	}
	return &state, account, nil
}

// CreateProgramState allocates the program state singleton
func (r *CampaignRepository) CreateProgramState(ctx context.Context, db DBExecutor, state *model.ProgramState, rent uint64) (*model.Account, error) {
	account, err := r.accounts.CreateRecord(ctx, db, address.ProgramState(r.program), r.program, rent, state)
	if err != nil {
		return nil, fmt.Errorf("failed to create program state: %w", err)
	}
	return account, nil
}

// CreateCampaign allocates the record of campaign.CID
func (r *CampaignRepository) CreateCampaign(ctx context.Context, db DBExecutor, campaign *model.Campaign, rent uint64) (*model.Account, error) {
	addr := address.Campaign(r.program, campaign.CID)
	account, err := r.accounts.CreateRecord(ctx, db, addr, r.program, rent, campaign)
	if err != nil {
		return nil, fmt.Errorf("failed to create campaign %d: %w", campaign.CID, err)
	}
	return account, nil
}

// GetCampaign retrieves a campaign by ID
func (r *CampaignRepository) GetCampaign(ctx context.Context, db DBExecutor, cid uint64, forUpdate bool) (*model.Campaign, *model.Account, error) {
	var campaign model.Campaign
	account, err := r.accounts.LoadRecord(ctx, db, address.Campaign(r.program, cid), &campaign, forUpdate)
	if err != nil {
		return nil, nil, err
	}
	return &campaign, account, nil
}
