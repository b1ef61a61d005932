// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package btcunit

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	// ErrInvalidRate is returned when a fractional rate cannot be parsed
	// or lies outside of the permitted range.
	ErrInvalidRate = errors.New("invalid rate")

	// ZeroSatPerByte is a fee rate of 0 sat/byte.
	ZeroSatPerByte = NewSatPerByte(0)
)

// SatPerByte is a fee rate expressed in the smallest ledger unit per
// serialized byte. The rate is an arbitrary precision integer so that
// `rate * size` is always exact.
type SatPerByte struct {
	rate Amount
}

// NewSatPerByte creates a new fee rate from a uint64 value.
func NewSatPerByte(rate uint64) SatPerByte {
	return SatPerByte{rate: NewAmount(rate)}
}

// NewSatPerByteFromAmount creates a fee rate from an Amount. The result
// should be checked with Validate if the amount came from a caller.
func NewSatPerByteFromAmount(rate Amount) SatPerByte {
	return SatPerByte{rate: rate}
}

// ParseSatPerByte parses a base-10 integer fee rate.
func ParseSatPerByte(s string) (SatPerByte, error) {
	amt, err := ParseAmount(s)
	if err != nil {
		return SatPerByte{}, err
	}

	return SatPerByte{rate: amt}, nil
}

// Val returns the fee rate as an Amount.
func (s SatPerByte) Val() Amount {
	return s.rate
}

// Validate returns an error if the fee rate is negative.
func (s SatPerByte) Validate() error {
	return s.rate.Validate()
}

// FeeForSize calculates the fee resulting from this fee rate and the given
// size in bytes.
func (s SatPerByte) FeeForSize(size ByteSize) Amount {
	return s.rate.MulUint64(uint64(size))
}

// Equal returns true if the fee rate is equal to the other fee rate.
func (s SatPerByte) Equal(other SatPerByte) bool {
	return s.rate.Equal(other.rate)
}

// GreaterThan returns true if the fee rate is greater than the other fee
// rate.
func (s SatPerByte) GreaterThan(other SatPerByte) bool {
	return s.rate.GreaterThan(other.rate)
}

// LessThan returns true if the fee rate is less than the other fee rate.
func (s SatPerByte) LessThan(other SatPerByte) bool {
	return s.rate.LessThan(other.rate)
}

// String returns a human-readable string of the fee rate.
func (s SatPerByte) String() string {
	return fmt.Sprintf("%v sat/byte", s.rate)
}

// MarshalJSON encodes the fee rate as a decimal string.
func (s SatPerByte) MarshalJSON() ([]byte, error) {
	return s.rate.MarshalJSON()
}

// UnmarshalJSON decodes a fee rate from a decimal string or integer.
func (s *SatPerByte) UnmarshalJSON(data []byte) error {
	return s.rate.UnmarshalJSON(data)
}

// Rate is an exact, non-negative fraction such as a percentage. It is stored
// as a rational number so that applying it to an amount never touches
// floating point.
type Rate struct {
	r *big.Rat
}

// NewRate creates a new rate numerator/denominator. It handles the zero
// denominator case by returning a zero rate.
func NewRate(numerator, denominator uint64) Rate {
	if denominator == 0 {
		return Rate{r: new(big.Rat)}
	}

	return Rate{r: new(big.Rat).SetFrac(
		new(big.Int).SetUint64(numerator),
		new(big.Int).SetUint64(denominator),
	)}
}

// ParseRate parses an exact rate from either a decimal string ("0.004") or a
// fraction ("1/250"). Decimal strings are converted exactly.
func ParseRate(s string) (Rate, error) {
	s = strings.TrimSpace(s)

	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Rate{}, fmt.Errorf("%w: %q", ErrInvalidRate, s)
	}

	if r.Sign() < 0 {
		return Rate{}, fmt.Errorf("%w: %q is negative", ErrInvalidRate,
			s)
	}

	return Rate{r: r}, nil
}

// rat returns the internal rational. The result must be treated as
// read-only.
func (r Rate) rat() *big.Rat {
	if r.r == nil {
		return new(big.Rat)
	}

	return r.r
}

// ApplyTo returns amt * rate, rounded down (truncated) to a whole unit.
func (r Rate) ApplyTo(amt Amount) Amount {
	product := new(big.Rat).Mul(r.rat(), new(big.Rat).SetInt(amt.bigInt()))

	// Extract the numerator and denominator for integer division.
	quotient := new(big.Int).Quo(product.Num(), product.Denom())

	return Amount{v: quotient}
}

// ApplyToSize returns size * rate, rounded down to a whole byte.
func (r Rate) ApplyToSize(size ByteSize) ByteSize {
	scaled := r.ApplyTo(NewAmount(uint64(size)))
	if !scaled.bigInt().IsUint64() {
		return MaxByteSize
	}

	return ByteSize(scaled.bigInt().Uint64())
}

// Cmp compares two rates and returns -1, 0 or +1.
func (r Rate) Cmp(other Rate) int {
	return r.rat().Cmp(other.rat())
}

// IsZero returns true if the rate is zero.
func (r Rate) IsZero() bool {
	return r.rat().Sign() == 0
}

// String returns the rate as a reduced fraction, e.g. "1/250".
func (r Rate) String() string {
	return r.rat().RatString()
}

// MarshalJSON encodes the rate as a fraction string.
func (r Rate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

// UnmarshalJSON decodes a rate from a decimal or fraction string.
func (r *Rate) UnmarshalJSON(data []byte) error {
	parsed, err := ParseRate(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}

	*r = parsed

	return nil
}
