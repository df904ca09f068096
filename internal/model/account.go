package model

import (
	"time"

	"github.com/kkkkikiki/crowdfund/internal/address"
)

// Kind tags what an account's data holds.
type Kind string

const (
	KindSystem       Kind = "system"
	KindProgramState Kind = "program_state"
	KindCampaign     Kind = "campaign"
	KindTransaction  Kind = "transaction"
)

// AccountStorageOverhead is the per-account byte overhead charged for
// allocation on top of the reserved data space.
const AccountStorageOverhead = 128

// Account represents one ledger account row in the database
type Account struct {
	Address   address.Address `db:"address" json:"address"`
	Lamports  uint64          `db:"lamports" json:"lamports,string"`
	Owner     address.Address `db:"owner" json:"owner"`
	Kind      Kind            `db:"kind" json:"kind"`
	Space     int             `db:"space" json:"space"`
	Data      []byte          `db:"data" json:"-"`
	CreatedAt int64           `db:"created_at" json:"created_at"` // unix millis
	UpdatedAt int64           `db:"updated_at" json:"updated_at"` // unix millis
}

// NewSystemAccount returns a plain value-holding account.
func NewSystemAccount(addr address.Address, lamports uint64) *Account {
	return &Account{
		Address:  addr,
		Lamports: lamports,
		Owner:    address.System,
		Kind:     KindSystem,
	}
}

// Decode unmarshals the account data into rec after checking its kind.
func (a *Account) Decode(rec Record) error {
	if a.Kind != rec.Kind() {
		return &KindMismatchError{Address: a.Address, Got: a.Kind, Want: rec.Kind()}
	}
	return rec.UnmarshalBinary(a.Data)
}

// Encode stores rec into the account data.
func (a *Account) Encode(rec Record) error {
	data, err := rec.MarshalBinary()
	if err != nil {
		return err
	}
	if a.Space > 0 && len(data) > a.Space {
		return &SpaceExceededError{Address: a.Address, Size: len(data), Space: a.Space}
	}
	a.Kind = rec.Kind()
	a.Data = data
	return nil
}

// ToMillis converts t to the unix millisecond form stored in the database.
func ToMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}
