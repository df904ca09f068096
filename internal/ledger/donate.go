package ledger

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kkkkikiki/crowdfund/internal/address"
	"github.com/kkkkikiki/crowdfund/internal/metrics"
	"github.com/kkkkikiki/crowdfund/internal/model"
)

// Receipt is the outcome of a donation or withdrawal.
type Receipt struct {
	Address     address.Address
	Transaction *model.Transaction
	Campaign    *model.Campaign
	Fee         uint64 // platform share of a withdrawal, zero for donations
}

// Donate moves amount lamports from donor to campaign cid and records a
// receipt at address.Donation(donor, cid, seq). seq must be the campaign's
// next donation number (donors+1); a stale seq fails with ErrSequenceMismatch
// instead of writing a second receipt for the same slot.
func (p *Processor) Donate(ctx context.Context, donor address.Address, cid, seq, amount uint64) (*Receipt, error) {
	var receipt *Receipt
	err := p.execute(ctx, InstructionDonate, func(tx *sqlx.Tx) error {
		campaign, campaignAccount, err := p.loadCampaign(ctx, tx, cid)
		if err != nil {
			return err
		}
		if !campaign.Active {
			return ErrInactiveCampaign
		}
		if amount < p.params.MinDonation {
			return fmt.Errorf("%w: %d < %d", ErrInvalidDonationAmount, amount, p.params.MinDonation)
		}
		if campaign.AmountRaised >= campaign.Goal {
			return ErrGoalReached
		}
		if seq != campaign.Donors+1 {
			return fmt.Errorf("%w: got %d, next donation is %d", ErrSequenceMismatch, seq, campaign.Donors+1)
		}

		receiptAddr := address.Donation(p.program, donor, cid, seq)
		if err := p.ensureVacant(ctx, tx, receiptAddr); err != nil {
			return err
		}

		record := &model.Transaction{
			Owner:     donor,
			CID:       cid,
			Amount:    amount,
			Timestamp: p.timestamp(),
			Credited:  true,
		}
		rent := p.Rent(record.Space())
		total, err := checkedAdd(amount, rent)
		if err != nil {
			return err
		}

		payer, err := p.payer(ctx, tx, donor)
		if err != nil {
			return err
		}
		if err := debit(payer, total); err != nil {
			return err
		}
		if err := credit(campaignAccount, amount); err != nil {
			return err
		}

		if campaign.AmountRaised, err = checkedAdd(campaign.AmountRaised, amount); err != nil {
			return err
		}
		if campaign.Balance, err = checkedAdd(campaign.Balance, amount); err != nil {
			return err
		}
		campaign.Donors = seq

		if _, err := p.receipts.CreateTransaction(ctx, tx, receiptAddr, record, rent); err != nil {
			return err
		}
		if err := p.accounts.UpdateAccount(ctx, tx, payer); err != nil {
			return err
		}
		if err := p.accounts.SaveRecord(ctx, tx, campaignAccount, campaign); err != nil {
			return err
		}

		receipt = &Receipt{Address: receiptAddr, Transaction: record, Campaign: campaign}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordLamportsMoved(metrics.FlowDonation, amount)
	p.logger.Info().
		Str("instruction", InstructionDonate).
		Uint64("cid", cid).
		Stringer("donor", donor).
		Uint64("amount", amount).
		Uint64("seq", seq).
		Msg("donation credited")
	return receipt, nil
}
