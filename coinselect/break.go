// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselect

import (
	"github.com/btcsuite/coinselect/pkg/btcunit"
	"github.com/btcsuite/coinselect/txsizes"
)

// Break spends every UTXO into as many copies of the output as the inputs
// can pay for, bounded by the maximum transaction size. The remainder goes
// to change as usual. It fails with INSUFFICIENT_FUNDS if not even one copy
// can be made.
func (s *Selector) Break(utxos []UTXO, output Output,
	rate btcunit.SatPerByte) (*Selection, error) {

	if err := validateFeeRate(rate); err != nil {
		return nil, err
	}

	bytes := transactionBytes(utxos, nil)
	inputTotal := sumInputs(utxos)
	value := output.amount()

	invalid := output.Value.IsNone() || value.Sign() <= 0 ||
		inputTotal.IsZero()
	if err := validateAmounts(utxos, nil); err != nil || invalid {
		return nil, &SelectionError{
			Kind:   InvalidAmount,
			Fee:    rate.FeeForSize(bytes),
			Reason: "break needs a positive output value and inputs",
		}
	}

	output.SubtractFee = false
	outBytes := outputBytes(&output)

	var (
		outputTotal btcunit.Amount
		outputs     []Output
	)
	for bytes.Add(outBytes) <= s.cfg.MaxTxBytes {
		fee := rate.FeeForSize(bytes.Add(outBytes))

		// Did we bust?
		if inputTotal.LessThan(outputTotal.Add(fee).Add(value)) {
			if len(outputs) == 0 {
				return nil, insufficientFunds(
					inputTotal, value, fee,
					"insufficient funds to create even "+
						"one output",
				)
			}

			break
		}

		bytes = bytes.Add(outBytes)
		outputTotal = outputTotal.Add(value)
		outputs = append(outputs, copyOutput(output))
	}

	if len(outputs) == 0 {
		return nil, insufficientFunds(
			inputTotal, value, rate.FeeForSize(bytes.Add(outBytes)),
			"output does not fit the maximum transaction size",
		)
	}

	log.Debugf("Broke %v into %d outputs of %v", inputTotal, len(outputs),
		value)

	reserve := txsizes.OutputSize(s.cfg.ChangeKind).Add(
		changeReserveOverhead,
	)

	return s.finalize(utxos, outputs, rate, 0, reserve)
}
