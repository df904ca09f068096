package model

import "github.com/kkkkikiki/crowdfund/internal/address"

// Metadata length limits, in bytes.
const (
	MaxTitleLen       = 64
	MaxDescriptionLen = 512
	MaxImageURLLen    = 256
)

// Campaign represents a funding campaign stored at address.Campaign(cid)
type Campaign struct {
	CID          uint64          `json:"cid,string"`
	Creator      address.Address `json:"creator"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	ImageURL     string          `json:"image_url"`
	Goal         uint64          `json:"goal,string"`
	AmountRaised uint64          `json:"amount_raised,string"` // lifetime total, never decremented
	Timestamp    uint64          `json:"timestamp,string"`     // unix seconds at creation
	Donors       uint64          `json:"donors,string"`        // one per accepted donation
	Withdrawals  uint64          `json:"withdrawals,string"`
	Balance      uint64          `json:"balance,string"` // AmountRaised minus all withdrawals
	Active       bool            `json:"active"`
}

const (
	campaignCID          = 1
	campaignCreator      = 2
	campaignTitle        = 3
	campaignDescription  = 4
	campaignImageURL     = 5
	campaignGoal         = 6
	campaignAmountRaised = 7
	campaignTimestamp    = 8
	campaignDonors       = 9
	campaignWithdrawals  = 10
	campaignBalance      = 11
	campaignActive       = 12
)

func (*Campaign) Kind() Kind { return KindCampaign }

func (*Campaign) Space() int {
	return uintSpace(campaignCID) +
		bytesSpace(campaignCreator, address.Size) +
		bytesSpace(campaignTitle, MaxTitleLen) +
		bytesSpace(campaignDescription, MaxDescriptionLen) +
		bytesSpace(campaignImageURL, MaxImageURLLen) +
		uintSpace(campaignGoal) +
		uintSpace(campaignAmountRaised) +
		uintSpace(campaignTimestamp) +
		uintSpace(campaignDonors) +
		uintSpace(campaignWithdrawals) +
		uintSpace(campaignBalance) +
		boolSpace(campaignActive)
}

func (c *Campaign) MarshalBinary() ([]byte, error) {
	var e encoder
	e.uint(campaignCID, c.CID)
	e.address(campaignCreator, c.Creator)
	e.string(campaignTitle, c.Title)
	e.string(campaignDescription, c.Description)
	e.string(campaignImageURL, c.ImageURL)
	e.uint(campaignGoal, c.Goal)
	e.uint(campaignAmountRaised, c.AmountRaised)
	e.uint(campaignTimestamp, c.Timestamp)
	e.uint(campaignDonors, c.Donors)
	e.uint(campaignWithdrawals, c.Withdrawals)
	e.uint(campaignBalance, c.Balance)
	e.bool(campaignActive, c.Active)
	return e.b, nil
}

func (c *Campaign) UnmarshalBinary(data []byte) error {
	*c = Campaign{}
	return decodeFields(data, func(f field) (err error) {
		switch f.num {
		case campaignCID:
			c.CID, err = f.uint()
		case campaignCreator:
			c.Creator, err = f.address()
		case campaignTitle:
			c.Title, err = f.string()
		case campaignDescription:
			c.Description, err = f.string()
		case campaignImageURL:
			c.ImageURL, err = f.string()
		case campaignGoal:
			c.Goal, err = f.uint()
		case campaignAmountRaised:
			c.AmountRaised, err = f.uint()
		case campaignTimestamp:
			c.Timestamp, err = f.uint()
		case campaignDonors:
			c.Donors, err = f.uint()
		case campaignWithdrawals:
			c.Withdrawals, err = f.uint()
		case campaignBalance:
			c.Balance, err = f.uint()
		case campaignActive:
			c.Active, err = f.bool()
		}
		return err
	})
}
