package model

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/kkkkikiki/crowdfund/internal/address"
)

// ErrMalformedRecord is returned when account data cannot be decoded.
var ErrMalformedRecord = errors.New("malformed record")

// Record is a program-owned value stored in an account's data. Records are
// encoded with the protobuf wire format.
type Record interface {
	Kind() Kind
	// Space is the number of data bytes reserved for the record when its
	// account is allocated. An encoded record never exceeds it.
	Space() int
	MarshalBinary() ([]byte, error)
	UnmarshalBinary(data []byte) error
}

type encoder struct {
	b []byte
}

func (e *encoder) uint(num protowire.Number, v uint64) {
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, v)
}

func (e *encoder) bool(num protowire.Number, v bool) {
	e.uint(num, protowire.EncodeBool(v))
}

func (e *encoder) bytes(num protowire.Number, v []byte) {
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendBytes(e.b, v)
}

func (e *encoder) string(num protowire.Number, v string) {
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendString(e.b, v)
}

func (e *encoder) address(num protowire.Number, v address.Address) {
	e.bytes(num, v[:])
}

// field is one decoded wire field.
type field struct {
	num    protowire.Number
	typ    protowire.Type
	varint uint64
	bytes  []byte
}

func (f field) uint() (uint64, error) {
	if f.typ != protowire.VarintType {
		return 0, fmt.Errorf("%w: field %d has wire type %d, want varint", ErrMalformedRecord, f.num, f.typ)
	}
	return f.varint, nil
}

func (f field) bool() (bool, error) {
	v, err := f.uint()
	return protowire.DecodeBool(v), err
}

func (f field) string() (string, error) {
	if f.typ != protowire.BytesType {
		return "", fmt.Errorf("%w: field %d has wire type %d, want bytes", ErrMalformedRecord, f.num, f.typ)
	}
	return string(f.bytes), nil
}

func (f field) address() (address.Address, error) {
	if f.typ != protowire.BytesType || len(f.bytes) != address.Size {
		return address.Address{}, fmt.Errorf("%w: field %d is not an address", ErrMalformedRecord, f.num)
	}
	var a address.Address
	copy(a[:], f.bytes)
	return a, nil
}

// decodeFields walks the wire fields in data. Unknown wire types are skipped.
func decodeFields(data []byte, fn func(f field) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformedRecord, protowire.ParseError(n))
		}
		data = data[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(data)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(data)
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
		}
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformedRecord, protowire.ParseError(n))
		}
		data = data[n:]

		if typ != protowire.VarintType && typ != protowire.BytesType {
			continue
		}
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// Sizing helpers for Space.
func uintSpace(num protowire.Number) int {
	return protowire.SizeTag(num) + protowire.SizeVarint(^uint64(0))
}

func boolSpace(num protowire.Number) int {
	return protowire.SizeTag(num) + protowire.SizeVarint(1)
}

func bytesSpace(num protowire.Number, maxLen int) int {
	return protowire.SizeTag(num) + protowire.SizeBytes(maxLen)
}
