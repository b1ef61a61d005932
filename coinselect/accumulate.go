// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselect

import (
	"github.com/btcsuite/coinselect/pkg/btcunit"
	"github.com/btcsuite/coinselect/txsizes"
)

// accumulate adds candidates in order until the outputs and fee are
// covered. Candidates whose own input fee exceeds their value are skipped.
//
// When the sweep policy reports a sweep, the stopping rule is relaxed: every
// candidate is added, detrimental ones included, until the candidates are
// exhausted or the maximum transaction size would be exceeded, and the fee
// absorbing outputs pay for the fee.
//
// When any output absorbs the fee, the inputs only need to cover the
// outputs since the finalizer deducts the fee from them.
//
// The inputs and outputs are owned by the call.
func (s *Selector) accumulate(utxos, inputs []UTXO, outputs []Output,
	rate btcunit.SatPerByte, side sideBytes) (*Selection, error) {

	b := s.newBudget(inputs, outputs, rate, side)
	sweep := s.cfg.SweepPolicy.IsSweep(outputs)
	absorbing := countSubtractFee(outputs) > 0

	covered := func() bool {
		if absorbing {
			return b.in.GreaterThanOrEqual(b.out)
		}

		return b.funded()
	}

	if sweep {
		log.Debugf("Sweeping %d candidates into %d outputs", len(utxos),
			len(outputs))
	} else if covered() {
		return s.finalize(inputs, outputs, rate, b.data, b.reserve)
	}

	assetOverhead := txsizes.OutputSize(s.cfg.ChangeKind).Mul(3)
	assetDust := dustThreshold(s.cfg.AssetOutputKind, rate)

	for i := range utxos {
		utxo := &utxos[i]
		size := inputBytes(utxo)
		utxoFee := rate.FeeForSize(size)

		switch {
		case sweep:
			if b.bytes.Add(size) > s.cfg.MaxTxBytes {
				log.Debugf("Sweep reached max tx size %v after %d "+
					"inputs", s.cfg.MaxTxBytes, len(inputs))

				return s.finalize(
					inputs, outputs, rate, b.data, b.reserve,
				)
			}

		case utxoFee.GreaterThan(utxo.Value):
			if i == len(utxos)-1 {
				required := rate.FeeForSize(b.bytes.Add(size))
				return nil, insufficientFunds(
					b.in, b.out, required,
					"last candidate costs more than its value",
				)
			}

			log.Tracef("Skipping detrimental input %v: value %v, "+
				"fee %v", utxo.OutPoint, utxo.Value, utxoFee)

			continue
		}

		b.bytes = b.bytes.Add(size)
		b.in = b.in.Add(utxo.Value)
		inputs = append(inputs, *utxo)

		// An asset input needs an output to return the asset to, a
		// commitment output and one change output as margin.
		if utxo.IsAsset() {
			b.out = b.out.Add(assetDust)
			b.bytes = b.bytes.Add(assetOverhead)
			b.reserve = b.reserve.Add(assetOverhead)
		}

		if !sweep && covered() {
			return s.finalize(inputs, outputs, rate, b.data, b.reserve)
		}
	}

	if sweep {
		return s.finalize(inputs, outputs, rate, b.data, b.reserve)
	}

	required := b.fee()
	if absorbing {
		required = btcunit.Amount{}
	}

	return nil, insufficientFunds(
		b.in, b.out, required, "candidates exhausted",
	)
}
