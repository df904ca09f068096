package model

import "github.com/kkkkikiki/crowdfund/internal/address"

// Transaction is the write-once receipt of a donation or withdrawal
type Transaction struct {
	Owner     address.Address `json:"owner"` // donor or withdrawing creator
	CID       uint64          `json:"cid,string"`
	Amount    uint64          `json:"amount,string"`
	Timestamp uint64          `json:"timestamp,string"` // unix seconds
	Credited  bool            `json:"credited"`
}

const (
	transactionOwner     = 1
	transactionCID       = 2
	transactionAmount    = 3
	transactionTimestamp = 4
	transactionCredited  = 5
)

func (*Transaction) Kind() Kind { return KindTransaction }

func (*Transaction) Space() int {
	return bytesSpace(transactionOwner, address.Size) +
		uintSpace(transactionCID) +
		uintSpace(transactionAmount) +
		uintSpace(transactionTimestamp) +
		boolSpace(transactionCredited)
}

func (t *Transaction) MarshalBinary() ([]byte, error) {
	var e encoder
	e.address(transactionOwner, t.Owner)
	e.uint(transactionCID, t.CID)
	e.uint(transactionAmount, t.Amount)
	e.uint(transactionTimestamp, t.Timestamp)
	e.bool(transactionCredited, t.Credited)
	return e.b, nil
}

func (t *Transaction) UnmarshalBinary(data []byte) error {
	*t = Transaction{}
	return decodeFields(data, func(f field) (err error) {
		switch f.num {
		case transactionOwner:
			t.Owner, err = f.address()
		case transactionCID:
			t.CID, err = f.uint()
		case transactionAmount:
			t.Amount, err = f.uint()
		case transactionTimestamp:
			t.Timestamp, err = f.uint()
		case transactionCredited:
			t.Credited, err = f.bool()
		}
		return err
	})
}
