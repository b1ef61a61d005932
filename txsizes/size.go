// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txsizes provides the deterministic serialized size estimates used
// by coin selection: per address kind input and output sizes, the size of
// raw-data outputs and the fixed transaction overhead.
package txsizes

import (
	wtxsizes "github.com/btcsuite/btcwallet/wallet/txsizes"
	"github.com/btcsuite/coinselect/pkg/btcunit"
)

const (
	// BaseTxSize is the fixed overhead of a transaction: version, input
	// and output counts and lock time.
	BaseTxSize btcunit.ByteSize = 11

	// LegacyInputSize is the estimated size of a P2PKH input, including
	// the outpoint, a worst-case signature script and the sequence.
	LegacyInputSize btcunit.ByteSize = 147

	// ScriptHashInputSize is the estimated size of a nested P2WPKH input
	// spent through P2SH.
	ScriptHashInputSize btcunit.ByteSize = 91

	// WitnessV0InputSize is the estimated size of a native P2WPKH (bech32)
	// input.
	WitnessV0InputSize btcunit.ByteSize = 68

	// outputValueSize is the size of the 8 byte value and the 1 byte
	// script length prefix that precede every output script.
	outputValueSize = 8 + 1

	// LegacyOutputSize is the serialized size of a P2PKH output.
	LegacyOutputSize btcunit.ByteSize = outputValueSize +
		wtxsizes.P2PKHPkScriptSize

	// ScriptHashOutputSize is the serialized size of a P2SH output.
	ScriptHashOutputSize btcunit.ByteSize = outputValueSize +
		wtxsizes.NestedP2WPKHPkScriptSize

	// WitnessV0OutputSize is the serialized size of a P2WPKH output.
	WitnessV0OutputSize btcunit.ByteSize = outputValueSize +
		wtxsizes.P2WPKHPkScriptSize

	// NullDataOverhead is the size added on top of the payload of a raw
	// data output: an OP_RETURN with a worst-case OP_PUSHDATA2 prefix (5
	// bytes) and the 8 byte value.
	NullDataOverhead btcunit.ByteSize = 5 + 8

	// NotarySignatureSize is the size of a notary signature slot reserved
	// in an asset allocation.
	NotarySignatureSize btcunit.ByteSize = 65
)

// InputSize returns the estimated size of spending an output of the given
// kind. Unknown kinds are estimated as legacy inputs.
func InputSize(kind OutputKind) btcunit.ByteSize {
	switch kind {
	case ScriptHash:
		return ScriptHashInputSize

	case WitnessV0:
		return WitnessV0InputSize

	default:
		return LegacyInputSize
	}
}

// OutputSize returns the serialized size of an output of the given kind.
// Unknown kinds are estimated as legacy outputs.
func OutputSize(kind OutputKind) btcunit.ByteSize {
	switch kind {
	case ScriptHash:
		return ScriptHashOutputSize

	case WitnessV0:
		return WitnessV0OutputSize

	default:
		return LegacyOutputSize
	}
}

// NullDataOutputSize returns the serialized size of a raw data output
// carrying a payload of the given length.
func NullDataOutputSize(payloadLen int) btcunit.ByteSize {
	if payloadLen < 0 {
		payloadLen = 0
	}

	return btcunit.ByteSize(payloadLen).Add(NullDataOverhead)
}
