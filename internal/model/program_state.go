package model

import "github.com/kkkkikiki/crowdfund/internal/address"

// ProgramState is the singleton configuration record of a deployment.
type ProgramState struct {
	Initialized     bool            `json:"initialized"`
	CampaignCount   uint64          `json:"campaign_count,string"`
	PlatformFee     uint64          `json:"platform_fee,string"` // percent of each withdrawal
	PlatformAddress address.Address `json:"platform_address"`
}

const (
	programStateInitialized     = 1
	programStateCampaignCount   = 2
	programStatePlatformFee     = 3
	programStatePlatformAddress = 4
)

func (*ProgramState) Kind() Kind { return KindProgramState }

func (*ProgramState) Space() int {
	return boolSpace(programStateInitialized) +
		uintSpace(programStateCampaignCount) +
		uintSpace(programStatePlatformFee) +
		bytesSpace(programStatePlatformAddress, address.Size)
}

func (s *ProgramState) MarshalBinary() ([]byte, error) {
	var e encoder
	e.bool(programStateInitialized, s.Initialized)
	e.uint(programStateCampaignCount, s.CampaignCount)
	e.uint(programStatePlatformFee, s.PlatformFee)
	e.address(programStatePlatformAddress, s.PlatformAddress)
	return e.b, nil
}

func (s *ProgramState) UnmarshalBinary(data []byte) error {
	*s = ProgramState{}
	return decodeFields(data, func(f field) (err error) {
		switch f.num {
		case programStateInitialized:
			s.Initialized, err = f.bool()
		case programStateCampaignCount:
			s.CampaignCount, err = f.uint()
		case programStatePlatformFee:
			s.PlatformFee, err = f.uint()
		case programStatePlatformAddress:
			s.PlatformAddress, err = f.address()
		}
		return err
	})
}
