// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package btcunit provides a set of types for dealing with ledger units:
// arbitrary precision amounts, per-byte fee rates, serialized byte sizes and
// exact fractional rates.
package btcunit

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
)

var (
	// ErrInvalidAmount is returned when an amount cannot be parsed as a
	// base-10 integer.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNegativeAmount is returned when an amount that must be
	// non-negative is below zero.
	ErrNegativeAmount = errors.New("negative amount")

	// ErrAmountOverflow is returned when an amount does not fit into the
	// requested fixed-width representation.
	ErrAmountOverflow = errors.New("amount overflow")
)

// zeroInt is the shared read-only representation of a zero amount. It must
// never be handed out to callers or used as a receiver of a mutating call.
var zeroInt = big.NewInt(0)

// Amount is an arbitrary precision integer amount denominated in the
// smallest unit of the ledger. Amount values are immutable: every arithmetic
// method returns a fresh Amount and never modifies its receiver or
// arguments. The zero value is an amount of zero.
//
// Intermediate results such as remainders may go negative, but amounts
// received from callers are expected to pass Validate.
type Amount struct {
	v *big.Int
}

// NewAmount creates a new Amount from a uint64 value.
func NewAmount(val uint64) Amount {
	return Amount{v: new(big.Int).SetUint64(val)}
}

// NewAmountFromBig creates a new Amount holding a copy of the given integer.
// A nil integer yields a zero amount.
func NewAmountFromBig(val *big.Int) Amount {
	if val == nil {
		return Amount{}
	}

	return Amount{v: new(big.Int).Set(val)}
}

// ParseAmount parses a base-10 integer string into a non-negative Amount.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)

	val, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	if val.Sign() < 0 {
		return Amount{}, fmt.Errorf("%w: %s", ErrNegativeAmount, s)
	}

	return Amount{v: val}, nil
}

// bigInt returns the internal integer. The result must be treated as
// read-only.
func (a Amount) bigInt() *big.Int {
	if a.v == nil {
		return zeroInt
	}

	return a.v
}

// BigInt returns a copy of the amount as a big.Int.
func (a Amount) BigInt() *big.Int {
	return new(big.Int).Set(a.bigInt())
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{v: new(big.Int).Add(a.bigInt(), b.bigInt())}
}

// Sub returns a - b. The result may be negative.
func (a Amount) Sub(b Amount) Amount {
	return Amount{v: new(big.Int).Sub(a.bigInt(), b.bigInt())}
}

// Mul returns a * b.
func (a Amount) Mul(b Amount) Amount {
	return Amount{v: new(big.Int).Mul(a.bigInt(), b.bigInt())}
}

// MulUint64 returns a * n.
func (a Amount) MulUint64(n uint64) Amount {
	return Amount{v: new(big.Int).Mul(
		a.bigInt(), new(big.Int).SetUint64(n),
	)}
}

// DivUint64 returns a / n rounded down. Division by zero yields zero.
func (a Amount) DivUint64(n uint64) Amount {
	if n == 0 {
		return Amount{}
	}

	return Amount{v: new(big.Int).Quo(
		a.bigInt(), new(big.Int).SetUint64(n),
	)}
}

// Cmp compares a and b and returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int {
	return a.bigInt().Cmp(b.bigInt())
}

// Sign returns -1, 0 or +1 depending on the sign of the amount.
func (a Amount) Sign() int {
	return a.bigInt().Sign()
}

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool {
	return a.Sign() == 0
}

// IsNegative returns true if the amount is below zero.
func (a Amount) IsNegative() bool {
	return a.Sign() < 0
}

// Equal returns true if a == b.
func (a Amount) Equal(b Amount) bool {
	return a.Cmp(b) == 0
}

// GreaterThan returns true if a > b.
func (a Amount) GreaterThan(b Amount) bool {
	return a.Cmp(b) > 0
}

// GreaterThanOrEqual returns true if a >= b.
func (a Amount) GreaterThanOrEqual(b Amount) bool {
	return a.Cmp(b) >= 0
}

// LessThan returns true if a < b.
func (a Amount) LessThan(b Amount) bool {
	return a.Cmp(b) < 0
}

// LessThanOrEqual returns true if a <= b.
func (a Amount) LessThanOrEqual(b Amount) bool {
	return a.Cmp(b) <= 0
}

// Validate returns ErrNegativeAmount if the amount is below zero.
func (a Amount) Validate() error {
	if a.IsNegative() {
		return fmt.Errorf("%w: %v", ErrNegativeAmount, a)
	}

	return nil
}

// ToBTC converts the amount into a btcutil.Amount for display purposes. An
// error is returned if the value does not fit into an int64.
func (a Amount) ToBTC() (btcutil.Amount, error) {
	if !a.bigInt().IsInt64() {
		return 0, fmt.Errorf("%w: %v does not fit int64",
			ErrAmountOverflow, a)
	}

	return btcutil.Amount(a.bigInt().Int64()), nil
}

// String returns the base-10 representation of the amount.
func (a Amount) String() string {
	return a.bigInt().String()
}

// MarshalJSON encodes the amount as a decimal string so that no precision is
// lost in JSON number handling.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON decodes an amount from either a decimal string or a bare
// JSON integer. Negative values are rejected.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)

	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}

	*a = parsed

	return nil
}

// MinAmount returns the smaller of a and b.
func MinAmount(a, b Amount) Amount {
	if a.LessThanOrEqual(b) {
		return a
	}

	return b
}

// SumAmounts returns the sum of the given amounts.
func SumAmounts(amts ...Amount) Amount {
	total := new(big.Int)
	for _, amt := range amts {
		total.Add(total, amt.bigInt())
	}

	return Amount{v: total}
}
