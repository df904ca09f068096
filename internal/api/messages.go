// Package api defines the crowdfund.v1.LedgerService wire contract: request
// and response messages, the JSON codec and the connect handler and client
// constructors.
package api

import (
	"github.com/kkkkikiki/crowdfund/internal/address"
	"github.com/kkkkikiki/crowdfund/internal/model"
)

// Campaign is a campaign record together with the lamports its account holds.
type Campaign struct {
	*model.Campaign
	Lamports uint64 `json:"lamports,string"`
}

// Receipt describes a stored donation or withdrawal receipt.
type Receipt struct {
	Address address.Address    `json:"address"`
	Record  *model.Transaction `json:"record"`
	Fee     uint64             `json:"fee,string"`
}

type InitializeRequest struct{}

type InitializeResponse struct {
	State *model.ProgramState `json:"state"`
}

type CreateCampaignRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Goal        uint64 `json:"goal,string"`
}

type CreateCampaignResponse struct {
	Campaign *model.Campaign `json:"campaign"`
}

type UpdateCampaignRequest struct {
	CID         uint64 `json:"cid,string"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Goal        uint64 `json:"goal,string"`
}

type UpdateCampaignResponse struct {
	Campaign *model.Campaign `json:"campaign"`
}

type DeleteCampaignRequest struct {
	CID uint64 `json:"cid,string"`
}

type DeleteCampaignResponse struct {
	Campaign *model.Campaign `json:"campaign"`
}

// DonateRequest donates Amount lamports. Seq must be the campaign's next
// donation number, i.e. its donor count plus one.
type DonateRequest struct {
	CID    uint64 `json:"cid,string"`
	Seq    uint64 `json:"seq,string"`
	Amount uint64 `json:"amount,string"`
}

type DonateResponse struct {
	Receipt  *Receipt        `json:"receipt"`
	Campaign *model.Campaign `json:"campaign"`
}

// WithdrawRequest withdraws Amount lamports. Seq must be the campaign's next
// withdrawal number.
type WithdrawRequest struct {
	CID             uint64          `json:"cid,string"`
	Seq             uint64          `json:"seq,string"`
	Amount          uint64          `json:"amount,string"`
	PlatformAddress address.Address `json:"platform_address"`
}

type WithdrawResponse struct {
	Receipt  *Receipt        `json:"receipt"`
	Campaign *model.Campaign `json:"campaign"`
}

type UpdatePlatformSettingsRequest struct {
	PlatformFee uint64 `json:"platform_fee,string"`
}

type UpdatePlatformSettingsResponse struct {
	State *model.ProgramState `json:"state"`
}

type GetProgramStateRequest struct{}

type GetProgramStateResponse struct {
	State *model.ProgramState `json:"state"`
}

type GetCampaignRequest struct {
	CID uint64 `json:"cid,string"`
}

type GetCampaignResponse struct {
	Campaign *Campaign `json:"campaign"`
}

type GetTransactionRequest struct {
	Address address.Address `json:"address"`
}

type GetTransactionResponse struct {
	Receipt *Receipt `json:"receipt"`
}

type GetBalanceRequest struct {
	Address address.Address `json:"address"`
}

type GetBalanceResponse struct {
	Address  address.Address `json:"address"`
	Lamports uint64          `json:"lamports,string"`
	SOL      string          `json:"sol"` // decimal rendering of Lamports
}
