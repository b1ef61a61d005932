// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselect

import (
	"github.com/btcsuite/coinselect/pkg/btcunit"
	"github.com/btcsuite/coinselect/txsizes"
)

// changeReserveOverhead is the headroom reserved on top of the change output
// size when deciding whether a change output fits.
const changeReserveOverhead btcunit.ByteSize = 4

// inputBytes returns the estimated size of spending the UTXO.
func inputBytes(u *UTXO) btcunit.ByteSize {
	return txsizes.InputSize(u.Kind)
}

// outputBytes returns the serialized size of the output. Raw data outputs
// are sized by their payload.
func outputBytes(o *Output) btcunit.ByteSize {
	if o.Script != nil {
		return txsizes.NullDataOutputSize(len(o.Script))
	}

	return txsizes.OutputSize(o.Kind)
}

// transactionBytes returns the estimated size of a transaction spending the
// inputs into the outputs.
func transactionBytes(inputs []UTXO, outputs []Output) btcunit.ByteSize {
	size := txsizes.BaseTxSize
	for i := range inputs {
		size = size.Add(inputBytes(&inputs[i]))
	}
	for i := range outputs {
		size = size.Add(outputBytes(&outputs[i]))
	}

	return size
}

// dustThreshold returns the value below which an output of the given kind
// costs more to spend than it is worth.
func dustThreshold(kind txsizes.OutputKind,
	rate btcunit.SatPerByte) btcunit.Amount {

	return rate.FeeForSize(txsizes.InputSize(kind))
}

// inputScore returns the profitability of spending the UTXO: its value minus
// the fee of its input.
func inputScore(u *UTXO, rate btcunit.SatPerByte) btcunit.Amount {
	return u.Value.Sub(rate.FeeForSize(inputBytes(u)))
}

// sideBytes are the size terms of a selection that are not represented by
// its inputs and outputs.
type sideBytes struct {
	// data is always paid for: memo padding, weighted blob size and
	// extra bytes such as notary signatures.
	data btcunit.ByteSize

	// reserve is the headroom kept for a change output. It only affects
	// whether a change output is added.
	reserve btcunit.ByteSize

	// blob is set when out of band data is attached, which costs an
	// extra output.
	blob bool
}

// sideBytes computes the side terms of a coin request.
func (s *Selector) sideBytes(req *CoinRequest) sideBytes {
	changeBytes := txsizes.OutputSize(s.cfg.ChangeKind)

	side := sideBytes{
		data:    req.ExtraBytes,
		reserve: changeBytes.Add(changeReserveOverhead),
	}

	if req.MemoSize > 0 {
		side.data = side.data.Add(
			txsizes.NullDataOutputSize(int(req.MemoSize)),
		)
	}

	if req.BlobSize > 0 {
		side.data = side.data.Add(s.cfg.BlobWeight.ApplyToSize(
			req.BlobSize,
		))
		side.blob = true
	}

	return side
}

// budget tracks the running totals of a selection.
type budget struct {
	rate btcunit.SatPerByte

	// bytes is the size estimate used to decide whether the inputs
	// cover the outputs.
	bytes btcunit.ByteSize

	// data and reserve are handed to the finalizer.
	data    btcunit.ByteSize
	reserve btcunit.ByteSize

	in  btcunit.Amount
	out btcunit.Amount
}

// newBudget starts a budget from the committed inputs and outputs.
func (s *Selector) newBudget(inputs []UTXO, outputs []Output,
	rate btcunit.SatPerByte, side sideBytes) *budget {

	b := &budget{
		rate:    rate,
		bytes:   transactionBytes(inputs, outputs).Add(side.data),
		data:    side.data,
		reserve: side.reserve,
		in:      sumInputs(inputs),
		out:     sumOutputs(outputs),
	}

	// Attached data is committed to by an extra output. Budget for its
	// dust value and, to be safe, for two outputs worth of bytes.
	if side.blob {
		changeBytes := txsizes.OutputSize(s.cfg.ChangeKind)
		b.out = b.out.Add(dustThreshold(s.cfg.AssetOutputKind, rate))
		b.bytes = b.bytes.Add(changeBytes.Mul(2))
		b.reserve = b.reserve.Add(changeBytes.Mul(2))
	}

	return b
}

// fee returns the fee for the current size estimate.
func (b *budget) fee() btcunit.Amount {
	return b.rate.FeeForSize(b.bytes)
}

// funded returns true if the inputs cover the outputs and the fee.
func (b *budget) funded() bool {
	return b.in.GreaterThanOrEqual(b.out.Add(b.fee()))
}
