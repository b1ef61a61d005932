// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselect

import (
	"errors"

	"github.com/btcsuite/coinselect/pkg/btcunit"
	"github.com/btcsuite/coinselect/txsizes"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// Split spends every UTXO into the outputs. Outputs with a value keep it,
// outputs without one share what remains after the fee in equal parts. A
// share at or below the dust threshold of its output fails with
// OUTPUT_TOO_SMALL, or INSUFFICIENT_FUNDS if the inputs cannot even pay for
// the fee plus one dust value per share.
func (s *Selector) Split(utxos []UTXO, outputs []Output,
	rate btcunit.SatPerByte) (*Selection, error) {

	if err := validateFeeRate(rate); err != nil {
		return nil, err
	}

	fee := rate.FeeForSize(transactionBytes(utxos, outputs))
	if len(outputs) == 0 {
		return nil, insufficientFunds(
			sumInputs(utxos), btcunit.Amount{}, fee,
			"no outputs to split into",
		)
	}

	if err := validateAmounts(utxos, outputs); err != nil {
		var selErr *SelectionError
		if errors.As(err, &selErr) {
			selErr.Fee = fee
		}

		return nil, err
	}

	inputTotal := sumInputs(utxos)
	outputTotal := sumOutputs(outputs)
	remaining := inputTotal.Sub(outputTotal).Sub(fee)
	if remaining.IsNegative() {
		return nil, insufficientFunds(
			inputTotal, outputTotal, fee, "inputs do not cover "+
				"the fixed outputs and the fee",
		)
	}

	var unspecified uint64
	for i := range outputs {
		if outputs[i].Value.IsNone() {
			unspecified++
		}
	}

	reserve := txsizes.OutputSize(s.cfg.ChangeKind).Add(
		changeReserveOverhead,
	)
	if unspecified == 0 {
		return s.finalize(utxos, cloneOutputs(outputs), rate, 0, reserve)
	}

	share := remaining.DivUint64(unspecified)
	filled := cloneOutputs(outputs)
	for i := range filled {
		if filled[i].Value.IsSome() {
			continue
		}

		if share.LessThanOrEqual(dustThreshold(filled[i].Kind, rate)) {
			legacyDust := dustThreshold(txsizes.Legacy, rate)
			required := fee.Add(legacyDust.MulUint64(unspecified))
			if inputTotal.LessThan(required) {
				return nil, insufficientFunds(
					inputTotal, outputTotal, fee,
					"inputs cannot fund one non-dust "+
						"share per output",
				)
			}

			return nil, &SelectionError{
				Kind:        OutputTooSmall,
				Fee:         fee,
				InputTotal:  inputTotal,
				OutputTotal: outputTotal,
				RequiredFee: fee,
				Reason:      "split share " + share.String() + " is dust",
			}
		}

		filled[i].Value = fn.Some(share)
	}

	log.Debugf("Split %v into %d shares of %v", remaining, unspecified,
		share)

	return s.finalize(utxos, filled, rate, 0, reserve)
}
