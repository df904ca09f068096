// Package address implements ledger addresses and deterministic address
// derivation.
//
// Every record the ledger stores lives at an address computed from a namespace
// tag and an ordered list of seeds, so callers can locate state by recomputing
// the address instead of consulting an index.
package address

import (
	"crypto/ed25519"
	"crypto/sha256"
	"database/sql/driver"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"

	"github.com/mr-tron/base58"
)

// Size is the length of an address in bytes.
const Size = 32

// Seed tags used by the crowdfunding program.
const (
	TagProgramState = "program_state"
	TagCampaign     = "campaign"
	TagDonor        = "donor"
	TagWithdraw     = "withdraw"
)

// derivationMarker separates derived addresses from key-derived ones.
const derivationMarker = "ProgramDerivedAddress"

// ErrInvalidAddress is returned when text does not decode to a 32-byte address.
var ErrInvalidAddress = errors.New("invalid address")

// Address identifies an account on the ledger.
type Address [Size]byte

// System is the owner of plain value-holding accounts.
var System Address

// FromPublicKey returns the address controlled by an ed25519 key.
func FromPublicKey(pub ed25519.PublicKey) Address {
	var a Address
	copy(a[:], pub)
	return a
}

// Parse decodes a base58 address.
func Parse(s string) (Address, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(raw) != Size {
		return Address{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidAddress, len(raw), Size)
	}
	var a Address
	copy(a[:], raw)
	return a, nil
}

// String returns the base58 form.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// Bytes returns a copy of the raw address bytes.
func (a Address) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, a[:])
	return b
}

// PublicKey interprets the address as an ed25519 verification key.
func (a Address) PublicKey() ed25519.PublicKey {
	return ed25519.PublicKey(a.Bytes())
}

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool {
	return a == Address{}
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements driver.Valuer so addresses are stored as base58 text.
func (a Address) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner.
func (a *Address) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return a.UnmarshalText([]byte(v))
	case []byte:
		return a.UnmarshalText(v)
	default:
		return fmt.Errorf("scan address: unsupported type %T", src)
	}
}

// U64 encodes v as a little-endian 8-byte seed.
func U64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

// Derive computes the address of a record owned by program from a tag and
// ordered seeds. Each part is length-prefixed, so distinct (tag, seeds)
// combinations never hash the same input.
func Derive(program Address, tag string, seeds ...[]byte) Address {
	h := sha256.New()
	writePart(h, []byte(tag))
	for _, seed := range seeds {
		writePart(h, seed)
	}
	h.Write(program[:])
	h.Write([]byte(derivationMarker))

	var a Address
	copy(a[:], h.Sum(nil))
	return a
}

func writePart(h hash.Hash, part []byte) {
	var prefix [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(prefix[:], uint64(len(part)))
	h.Write(prefix[:n])
	h.Write(part)
}

// ProgramState returns the address of the singleton program state record.
func ProgramState(program Address) Address {
	return Derive(program, TagProgramState)
}

// Campaign returns the address of campaign cid.
func Campaign(program Address, cid uint64) Address {
	return Derive(program, TagCampaign, U64(cid))
}

// Donation returns the address of the seq-th donation receipt on campaign cid.
func Donation(program, donor Address, cid, seq uint64) Address {
	return Derive(program, TagDonor, donor[:], U64(cid), U64(seq))
}

// Withdrawal returns the address of the seq-th withdrawal receipt on campaign cid.
func Withdrawal(program, creator Address, cid, seq uint64) Address {
	return Derive(program, TagWithdraw, creator[:], U64(cid), U64(seq))
}
