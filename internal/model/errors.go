package model

import (
	"fmt"

	"github.com/kkkkikiki/crowdfund/internal/address"
)

// KindMismatchError reports an account holding a different record kind than requested.
type KindMismatchError struct {
	Address address.Address
	Got     Kind
	Want    Kind
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("account %s holds %s, want %s", e.Address, e.Got, e.Want)
}

// SpaceExceededError reports a record that no longer fits its allocation.
type SpaceExceededError struct {
	Address address.Address
	Size    int
	Space   int
}

func (e *SpaceExceededError) Error() string {
	return fmt.Sprintf("account %s: record of %d bytes exceeds %d reserved", e.Address, e.Size, e.Space)
}
