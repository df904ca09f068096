package ledger

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kkkkikiki/crowdfund/internal/address"
	"github.com/kkkkikiki/crowdfund/internal/model"
)

// CampaignInput holds the mutable campaign metadata.
type CampaignInput struct {
	Title       string
	Description string
	ImageURL    string
	Goal        uint64 // lamports
}

func (in CampaignInput) validate() error {
	if len(in.Title) > model.MaxTitleLen {
		return fmt.Errorf("%w: %d bytes", ErrTitleTooLong, len(in.Title))
	}
	if len(in.Description) > model.MaxDescriptionLen {
		return fmt.Errorf("%w: %d bytes", ErrDescriptionTooLong, len(in.Description))
	}
	if len(in.ImageURL) > model.MaxImageURLLen {
		return fmt.Errorf("%w: %d bytes", ErrImageURLTooLong, len(in.ImageURL))
	}
	if in.Goal == 0 {
		return ErrInvalidGoalAmount
	}
	return nil
}

func (in CampaignInput) apply(c *model.Campaign) {
	c.Title = in.Title
	c.Description = in.Description
	c.ImageURL = in.ImageURL
	c.Goal = in.Goal
}

// CreateCampaign allocates campaign campaign_count+1 owned by creator, who
// pays for the allocation.
func (p *Processor) CreateCampaign(ctx context.Context, creator address.Address, in CampaignInput) (*model.Campaign, error) {
	var campaign *model.Campaign
	err := p.execute(ctx, InstructionCreateCampaign, func(tx *sqlx.Tx) error {
		if err := in.validate(); err != nil {
			return err
		}

		state, stateAccount, err := p.loadProgramState(ctx, tx, true)
		if err != nil {
			return err
		}
		cid, err := checkedAdd(state.CampaignCount, 1)
		if err != nil {
			return err
		}
		if err := p.ensureVacant(ctx, tx, address.Campaign(p.program, cid)); err != nil {
			return err
		}

		c := &model.Campaign{
			CID:       cid,
			Creator:   creator,
			Timestamp: p.timestamp(),
			Active:    true,
		}
		in.apply(c)

		rent := p.Rent(c.Space())
		payer, err := p.payer(ctx, tx, creator)
		if err != nil {
			return err
		}
		if err := debit(payer, rent); err != nil {
			return err
		}
		if _, err := p.campaigns.CreateCampaign(ctx, tx, c, rent); err != nil {
			return err
		}
		if err := p.accounts.UpdateAccount(ctx, tx, payer); err != nil {
			return err
		}

		state.CampaignCount = cid
		if err := p.accounts.SaveRecord(ctx, tx, stateAccount, state); err != nil {
			return err
		}
		campaign = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("instruction", InstructionCreateCampaign).
		Uint64("cid", campaign.CID).
		Stringer("creator", creator).
		Uint64("goal", campaign.Goal).
		Msg("campaign created")
	return campaign, nil
}

// UpdateCampaign overwrites the metadata of campaign cid. Only its creator
// may call it; balances, counters and the active flag are left untouched.
func (p *Processor) UpdateCampaign(ctx context.Context, caller address.Address, cid uint64, in CampaignInput) (*model.Campaign, error) {
	var campaign *model.Campaign
	err := p.execute(ctx, InstructionUpdateCampaign, func(tx *sqlx.Tx) error {
		c, account, err := p.loadCampaign(ctx, tx, cid)
		if err != nil {
			return err
		}
		if c.Creator != caller {
			return ErrUnauthorized
		}
		if err := in.validate(); err != nil {
			return err
		}

		in.apply(c)
		if err := p.accounts.SaveRecord(ctx, tx, account, c); err != nil {
			return err
		}
		campaign = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("instruction", InstructionUpdateCampaign).
		Uint64("cid", cid).
		Msg("campaign updated")
	return campaign, nil
}

// DeleteCampaign closes campaign cid to new donations. The record and its
// balance remain; the creator can still withdraw.
func (p *Processor) DeleteCampaign(ctx context.Context, caller address.Address, cid uint64) (*model.Campaign, error) {
	var campaign *model.Campaign
	err := p.execute(ctx, InstructionDeleteCampaign, func(tx *sqlx.Tx) error {
		c, account, err := p.loadCampaign(ctx, tx, cid)
		if err != nil {
			return err
		}
		if c.Creator != caller {
			return ErrUnauthorized
		}
		if !c.Active {
			return ErrInactiveCampaign
		}

		c.Active = false
		if err := p.accounts.SaveRecord(ctx, tx, account, c); err != nil {
			return err
		}
		campaign = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("instruction", InstructionDeleteCampaign).
		Uint64("cid", cid).
		Msg("campaign closed")
	return campaign, nil
}
