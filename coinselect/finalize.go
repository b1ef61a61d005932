// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselect

import (
	"github.com/btcsuite/coinselect/pkg/btcunit"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// finalize turns a set of inputs and outputs into a Selection. The data
// bytes are paid for in addition to the transaction size and the reserve
// bytes are kept as headroom when deciding on a change output.
//
// Without fee absorbing outputs, a change output is appended when the
// remainder after the fee exceeds the dust threshold of the change kind.
// With fee absorbing outputs, no change is added and the fee is swept from
// the marked outputs instead. In both modes the inputs must cover the
// outputs before any fee is considered.
func (s *Selector) finalize(inputs []UTXO, outputs []Output,
	rate btcunit.SatPerByte, data,
	reserve btcunit.ByteSize) (*Selection, error) {

	inputTotal := sumInputs(inputs)
	outputTotal := sumOutputs(outputs)

	// Fee absorption can only shrink outputs, it can never make up for
	// missing input value.
	if inputTotal.LessThan(outputTotal) {
		return nil, insufficientFunds(
			inputTotal, outputTotal, btcunit.Amount{},
			"input value is less than output value",
		)
	}

	if countSubtractFee(outputs) > 0 {
		return s.sweepFee(inputs, outputs, rate, data)
	}

	bytes := transactionBytes(inputs, outputs).Add(data)
	feeWithChange := rate.FeeForSize(bytes.Add(reserve))
	remainder := inputTotal.Sub(outputTotal.Add(feeWithChange))

	final := cloneOutputs(outputs)
	if remainder.GreaterThan(dustThreshold(s.cfg.ChangeKind, rate)) {
		log.Tracef("Adding change output of %v", remainder)

		final = append(final, Output{
			Value:    fn.Some(remainder),
			Kind:     s.cfg.ChangeKind,
			IsChange: true,
		})
	}

	// The fee must cover the size at the given rate. At a zero rate a
	// zero fee is valid.
	fee := inputTotal.Sub(sumOutputs(final))
	required := rate.FeeForSize(transactionBytes(inputs, final).Add(data))
	if fee.LessThan(required) {
		return nil, insufficientFunds(
			inputTotal, outputTotal, required,
			"inputs do not cover the fee",
		)
	}

	return &Selection{
		Inputs:  inputs,
		Outputs: final,
		Fee:     fee,
	}, nil
}

// sweepFee deducts the fee from the fee absorbing outputs. Any surplus of
// the inputs over the outputs pays for the fee first. The marked outputs
// are then walked in order, each giving up to its value minus its dust
// threshold. An output that ends up at or below its dust threshold is
// removed and its remaining value is credited towards the fee. The size is
// recomputed once after all removals.
func (s *Selector) sweepFee(inputs []UTXO, outputs []Output,
	rate btcunit.SatPerByte, data btcunit.ByteSize) (*Selection, error) {

	inputTotal := sumInputs(inputs)
	outputTotal := sumOutputs(outputs)

	fee := rate.FeeForSize(transactionBytes(inputs, outputs).Add(data))
	remaining := fee.Sub(inputTotal.Sub(outputTotal))
	if remaining.IsNegative() {
		remaining = btcunit.Amount{}
	}

	var (
		swept     = cloneOutputs(outputs)
		removed   []int
		absorbers []int
		marked    int
	)
	for i := range swept {
		out := &swept[i]
		if !out.SubtractFee {
			continue
		}
		marked++

		value := out.amount()
		dust := dustThreshold(out.Kind, rate)

		deduction := btcunit.Amount{}
		if !remaining.IsZero() {
			maxDeduction := value.Sub(dust)
			if maxDeduction.Sign() > 0 {
				deduction = btcunit.MinAmount(remaining, maxDeduction)
				remaining = remaining.Sub(deduction)
			}
		}

		newValue := value.Sub(deduction)
		if newValue.LessThanOrEqual(dust) {
			log.Debugf("Removing fee absorbing output %d, value %v "+
				"at or below dust %v", i, newValue, dust)

			removed = append(removed, i)

			// The whole output goes to the fee. Crediting more than
			// is outstanding only overpays the fee.
			remaining = remaining.Sub(newValue)
			if remaining.IsNegative() {
				remaining = btcunit.Amount{}
			}

			continue
		}

		out.Value = fn.Some(newValue)
		out.SubtractFee = false

		// Every removal so far lies before this output.
		absorbers = append(absorbers, i-len(removed))
	}

	final := removeOutputs(swept, removed)
	required := rate.FeeForSize(transactionBytes(inputs, final).Add(data))

	if !remaining.IsZero() || len(final) == 0 {
		reason := "fee absorbing outputs cannot cover the fee"
		if remaining.IsZero() {
			reason = "all outputs were removed"
		}

		return nil, &SelectionError{
			Kind:           SubtractFeeFailed,
			Fee:            required,
			RemainingFee:   remaining,
			InputTotal:     inputTotal,
			OutputTotal:    outputTotal,
			RequiredFee:    required,
			MarkedOutputs:  marked,
			RemovedOutputs: len(removed),
			Reason:         reason,
		}
	}

	actualFee := inputTotal.Sub(sumOutputs(final))
	if actualFee.LessThan(required) {
		return nil, insufficientFunds(
			inputTotal, sumOutputs(final), required,
			"swept fee below required fee",
		)
	}

	return &Selection{
		Inputs:  inputs,
		Outputs: final,
		Fee:       actualFee,
		removed:   removed,
		absorbers: absorbers,
	}, nil
}

// removeOutputs returns the outputs without the given ascending indices.
func removeOutputs(outputs []Output, removed []int) []Output {
	if len(removed) == 0 {
		return outputs
	}

	kept := make([]Output, 0, len(outputs)-len(removed))
	next := 0
	for i := range outputs {
		if next < len(removed) && removed[next] == i {
			next++
			continue
		}

		kept = append(kept, outputs[i])
	}

	return kept
}
