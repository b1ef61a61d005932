// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/coinselect/pkg/btcunit"
)

var (
	// ErrInvalidFeeRate is returned when the fee rate is not a valid
	// non-negative integer.
	ErrInvalidFeeRate = errors.New("invalid fee rate")

	// ErrInvalidAmount is returned when an input or output value is not a
	// valid non-negative integer.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientFunds is returned when the inputs cannot cover the
	// outputs and the fee.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrOutputTooSmall is returned when an output computed by the
	// engine would be dust.
	ErrOutputTooSmall = errors.New("output too small")

	// ErrSubtractFeeFailed is returned when the fee absorbing outputs
	// cannot cover the fee.
	ErrSubtractFeeFailed = errors.New("subtract fee failed")

	// ErrAssetFundingFailed is returned when at least one asset of a
	// demand could not be funded. No partial result is returned.
	ErrAssetFundingFailed = errors.New("asset funding failed")

	// ErrAllocationMismatch is returned when asset value is not conserved
	// between inputs and allocations, or when an allocation does not
	// match the output list.
	ErrAllocationMismatch = errors.New("allocation mismatch")

	// errNoExactMatch is returned by the exact match selector when it
	// cannot fund the outputs without change. It is never returned to
	// callers of the Selector.
	errNoExactMatch = errors.New("no exact match")
)

// ErrorKind classifies a failed selection.
type ErrorKind uint8

const (
	// InvalidFeeRate means the fee rate is invalid.
	InvalidFeeRate ErrorKind = iota + 1

	// InvalidAmount means a value is invalid.
	InvalidAmount

	// InsufficientFunds means the inputs cannot cover outputs and fee.
	InsufficientFunds

	// OutputTooSmall means a computed output would be dust.
	OutputTooSmall

	// SubtractFeeFailed means fee absorption could not cover the fee.
	SubtractFeeFailed
)

// String returns the name of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case InvalidFeeRate:
		return "INVALID_FEE_RATE"

	case InvalidAmount:
		return "INVALID_AMOUNT"

	case InsufficientFunds:
		return "INSUFFICIENT_FUNDS"

	case OutputTooSmall:
		return "OUTPUT_TOO_SMALL"

	case SubtractFeeFailed:
		return "SUBTRACT_FEE_FAILED"

	default:
		return fmt.Sprintf("ErrorKind(%d)", uint8(k))
	}
}

// sentinel maps the kind to its sentinel error.
func (k ErrorKind) sentinel() error {
	switch k {
	case InvalidFeeRate:
		return ErrInvalidFeeRate

	case InvalidAmount:
		return ErrInvalidAmount

	case InsufficientFunds:
		return ErrInsufficientFunds

	case OutputTooSmall:
		return ErrOutputTooSmall

	case SubtractFeeFailed:
		return ErrSubtractFeeFailed

	default:
		return nil
	}
}

// SelectionError is a failed selection together with its diagnostics. It
// unwraps to the sentinel of its kind, so callers can test it with
// errors.Is and read the details with errors.As.
type SelectionError struct {
	// Kind is the class of the failure.
	Kind ErrorKind

	// Fee is the fee that was required at the point of failure.
	Fee btcunit.Amount

	// Shortfall is the additional input value that would have been
	// needed.
	Shortfall btcunit.Amount

	// InputTotal and OutputTotal are the totals at the point of failure.
	InputTotal  btcunit.Amount
	OutputTotal btcunit.Amount

	// RequiredFee is the minimum fee for the transaction size.
	RequiredFee btcunit.Amount

	// RemainingFee is the part of the fee that fee absorbing outputs
	// could not cover.
	RemainingFee btcunit.Amount

	// MarkedOutputs is the number of fee absorbing outputs.
	MarkedOutputs int

	// RemovedOutputs is the number of fee absorbing outputs that were
	// dropped because they fell to dust.
	RemovedOutputs int

	// Reason is a human readable cause.
	Reason string
}

// Error implements the error interface.
func (e *SelectionError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())

	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}

	switch e.Kind {
	case InsufficientFunds:
		fmt.Fprintf(&b, " (input=%v, output=%v, fee=%v, shortfall=%v)",
			e.InputTotal, e.OutputTotal, e.RequiredFee, e.Shortfall)

	case SubtractFeeFailed:
		fmt.Fprintf(&b, " (fee=%v, remaining=%v, marked=%d, "+
			"removed=%d)", e.Fee, e.RemainingFee, e.MarkedOutputs,
			e.RemovedOutputs)
	}

	return b.String()
}

// Unwrap returns the sentinel error of the kind.
func (e *SelectionError) Unwrap() error {
	return e.Kind.sentinel()
}

// noExactMatchError is the soft failure of the exact match selector. It
// carries the fee accumulated over the scan.
type noExactMatchError struct {
	fee btcunit.Amount
}

// Error implements the error interface.
func (e *noExactMatchError) Error() string {
	return fmt.Sprintf("%v: accumulated fee %v", errNoExactMatch, e.fee)
}

// Unwrap returns errNoExactMatch.
func (e *noExactMatchError) Unwrap() error {
	return errNoExactMatch
}

// insufficientFunds builds an INSUFFICIENT_FUNDS error. The shortfall is
// outputTotal + requiredFee - inputTotal, floored at zero.
func insufficientFunds(inputTotal, outputTotal, requiredFee btcunit.Amount,
	reason string) *SelectionError {

	shortfall := outputTotal.Add(requiredFee).Sub(inputTotal)
	if shortfall.IsNegative() {
		shortfall = btcunit.Amount{}
	}

	return &SelectionError{
		Kind:        InsufficientFunds,
		Fee:         requiredFee,
		Shortfall:   shortfall,
		InputTotal:  inputTotal,
		OutputTotal: outputTotal,
		RequiredFee: requiredFee,
		Reason:      reason,
	}
}
