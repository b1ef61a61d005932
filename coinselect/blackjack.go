// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselect

import (
	"slices"

	"github.com/btcsuite/coinselect/pkg/btcunit"
	"github.com/btcsuite/coinselect/txsizes"
)

// blackjack tries to fund the outputs without producing a change output. It
// only adds a candidate if doing so does not overshoot the outputs plus fee
// by more than the legacy dust threshold, and finalizes as soon as the
// outputs and fee are covered. The candidates must be sorted by descending
// score.
//
// The selector is disabled when any output absorbs the fee, since exact
// matching and fee sweeping are mutually exclusive. When no exact match is
// found, or the only match needs a change output, a noExactMatchError
// carrying the accumulated fee is returned.
//
// The inputs and outputs are owned by the call.
func (s *Selector) blackjack(utxos, inputs []UTXO, outputs []Output,
	rate btcunit.SatPerByte, side sideBytes) (*Selection, error) {

	if countSubtractFee(outputs) > 0 {
		return nil, &noExactMatchError{}
	}

	b := s.newBudget(inputs, outputs, rate, side)
	if b.funded() {
		return s.exactMatch(b, inputs, outputs)
	}

	var (
		changeBytes = txsizes.OutputSize(s.cfg.ChangeKind)
		assetBytes  = txsizes.OutputSize(s.cfg.AssetOutputKind)
		assetDust   = dustThreshold(s.cfg.AssetOutputKind, rate)
		threshold   = dustThreshold(txsizes.Legacy, rate)
	)
	for i := range utxos {
		utxo := &utxos[i]
		size := inputBytes(utxo)
		fee := rate.FeeForSize(b.bytes.Add(size))

		// Would adding the candidate waste value on an unplanned
		// change output?
		limit := b.out.Add(fee).Add(threshold)
		if b.in.Add(utxo.Value).GreaterThan(limit) {
			continue
		}

		b.bytes = b.bytes.Add(size)
		b.in = b.in.Add(utxo.Value)
		inputs = append(inputs, *utxo)

		// An asset input needs an output to return the asset to and a
		// commitment output, plus one change output as margin.
		if utxo.IsAsset() {
			b.out = b.out.Add(assetDust)
			b.bytes = b.bytes.Add(assetBytes.Mul(2)).Add(changeBytes)
			b.reserve = b.reserve.Add(changeBytes)
		}

		if b.funded() {
			return s.exactMatch(b, inputs, outputs)
		}
	}

	return nil, &noExactMatchError{fee: b.fee()}
}

// exactMatch finalizes funded inputs and outputs. Committed inputs can
// overfund the outputs, and the asset margin is not part of the outputs, so
// the finalizer may still add change. Such a result is not an exact match.
func (s *Selector) exactMatch(b *budget, inputs []UTXO,
	outputs []Output) (*Selection, error) {

	sel, err := s.finalize(inputs, outputs, b.rate, b.data, b.reserve)
	if err != nil {
		return nil, err
	}

	if slices.ContainsFunc(sel.Outputs, func(o Output) bool {
		return o.IsChange
	}) {
		return nil, &noExactMatchError{fee: b.fee()}
	}

	return sel, nil
}
