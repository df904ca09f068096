package ledger

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kkkkikiki/crowdfund/internal/address"
	"github.com/kkkkikiki/crowdfund/internal/metrics"
	"github.com/kkkkikiki/crowdfund/internal/model"
)

// Withdraw pays amount lamports out of campaign cid. The platform fee
// (amount * platform_fee / 100) goes to platform, which must match the
// program state, and the remainder goes to the creator. The creator pays for
// the receipt at address.Withdrawal(creator, cid, seq), where seq must be the
// campaign's next withdrawal number. AmountRaised is left unchanged.
func (p *Processor) Withdraw(ctx context.Context, creator address.Address, cid, seq, amount uint64, platform address.Address) (*Receipt, error) {
	var receipt *Receipt
	err := p.execute(ctx, InstructionWithdraw, func(tx *sqlx.Tx) error {
		campaign, campaignAccount, err := p.loadCampaign(ctx, tx, cid)
		if err != nil {
			return err
		}
		if campaign.Creator != creator {
			return ErrUnauthorized
		}
		if amount < p.params.MinWithdrawal {
			return fmt.Errorf("%w: %d < %d", ErrInvalidWithdrawalAmount, amount, p.params.MinWithdrawal)
		}
		if amount > campaign.Balance {
			return fmt.Errorf("%w: requested %d, balance %d", ErrInsufficientBalance, amount, campaign.Balance)
		}

		state, _, err := p.loadProgramState(ctx, tx, false)
		if err != nil {
			return err
		}
		if platform != state.PlatformAddress {
			return ErrInvalidPlatformAddress
		}

		// The campaign account must stay funded for its own allocation.
		reserved := p.Rent(campaignAccount.Space)
		if campaignAccount.Lamports < reserved || amount > campaignAccount.Lamports-reserved {
			return fmt.Errorf("%w: withdrawal exceeds the campaign's usable lamports", ErrInsufficientBalance)
		}

		if seq != campaign.Withdrawals+1 {
			return fmt.Errorf("%w: got %d, next withdrawal is %d", ErrSequenceMismatch, seq, campaign.Withdrawals+1)
		}
		receiptAddr := address.Withdrawal(p.program, creator, cid, seq)
		if err := p.ensureVacant(ctx, tx, receiptAddr); err != nil {
			return err
		}

		fee := platformFee(amount, state.PlatformFee)
		record := &model.Transaction{
			Owner:     creator,
			CID:       cid,
			Amount:    amount,
			Timestamp: p.timestamp(),
			Credited:  true,
		}
		rent := p.Rent(record.Space())

		creatorAccount, err := p.payer(ctx, tx, creator)
		if err != nil {
			return err
		}
		if err := debit(creatorAccount, rent); err != nil {
			return err
		}
		if err := debit(campaignAccount, amount); err != nil {
			return err
		}
		if err := credit(creatorAccount, amount-fee); err != nil {
			return err
		}

		if platform == creator {
			if err := credit(creatorAccount, fee); err != nil {
				return err
			}
		} else {
			platformAccount, created, err := p.receiver(ctx, tx, platform)
			if err != nil {
				return err
			}
			if err := credit(platformAccount, fee); err != nil {
				return err
			}
			if err := p.saveReceiver(ctx, tx, platformAccount, created); err != nil {
				return err
			}
		}

		campaign.Balance -= amount
		campaign.Withdrawals = seq

		if _, err := p.receipts.CreateTransaction(ctx, tx, receiptAddr, record, rent); err != nil {
			return err
		}
		if err := p.accounts.UpdateAccount(ctx, tx, creatorAccount); err != nil {
			return err
		}
		if err := p.accounts.SaveRecord(ctx, tx, campaignAccount, campaign); err != nil {
			return err
		}

		receipt = &Receipt{Address: receiptAddr, Transaction: record, Campaign: campaign, Fee: fee}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordLamportsMoved(metrics.FlowWithdrawal, amount-receipt.Fee)
	metrics.RecordLamportsMoved(metrics.FlowFee, receipt.Fee)
	p.logger.Info().
		Str("instruction", InstructionWithdraw).
		Uint64("cid", cid).
		Uint64("amount", amount).
		Uint64("fee", receipt.Fee).
		Uint64("seq", seq).
		Msg("withdrawal paid")
	return receipt, nil
}
