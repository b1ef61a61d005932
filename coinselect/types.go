// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselect

import (
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/coinselect/asset"
	"github.com/btcsuite/coinselect/pkg/btcunit"
	"github.com/btcsuite/coinselect/txsizes"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// UTXO is a candidate unspent output. It is treated as an immutable value:
// once selected it is copied into the input list of the result.
type UTXO struct {
	// OutPoint identifies the output on chain.
	OutPoint wire.OutPoint

	// Value is the native coin value of the output.
	Value btcunit.Amount

	// Kind is the script class of the output. It determines the
	// estimated size of the input that spends it.
	Kind txsizes.OutputKind

	// Asset is set when the output also carries an asset.
	Asset *asset.Info
}

// IsAsset returns true if the UTXO carries an asset.
func (u *UTXO) IsAsset() bool {
	return u.Asset != nil
}

// Output is a transaction output, either requested by the caller or
// produced by the engine.
type Output struct {
	// Address is the destination. Engine produced change outputs leave it
	// empty for the caller to fill in. This includes the asset change of
	// an asset that was swept in to pay the fee and has no demand entry
	// naming a change address.
	Address string

	// Value is the native coin value. It is only absent for outputs of
	// Split that should receive an equal share of the remainder.
	Value fn.Option[btcunit.Amount]

	// Kind is the script class of the output.
	Kind txsizes.OutputKind

	// Asset is set when the output carries an asset.
	Asset *asset.Info

	// SubtractFee marks the output as fee absorbing: the transaction fee
	// is deducted from its value instead of being funded by inputs.
	SubtractFee bool

	// Script is the payload of a raw data output. When set, the size of
	// the output is derived from the payload length.
	Script []byte

	// IsChange is set on the coin change output appended by the engine.
	IsChange bool

	// AssetChangeIndex is set on asset change outputs and points at the
	// entry of the asset's allocation that tracks this output.
	AssetChangeIndex fn.Option[int]
}

// amount returns the value of the output, or zero if it is unspecified.
func (o *Output) amount() btcunit.Amount {
	return o.Value.UnwrapOr(btcunit.Amount{})
}

// copyOutput returns a copy of the output that does not share its asset
// info or script with the original.
func copyOutput(o Output) Output {
	c := o
	c.Asset = o.Asset.Copy()
	if o.Script != nil {
		c.Script = append([]byte(nil), o.Script...)
	}

	return c
}

// cloneOutputs deep copies a list of outputs so that a selection attempt can
// modify it freely.
func cloneOutputs(outputs []Output) []Output {
	cloned := make([]Output, 0, len(outputs))
	for _, o := range outputs {
		cloned = append(cloned, copyOutput(o))
	}

	return cloned
}

// cloneUTXOs copies a list of UTXOs. UTXOs are never modified, so a shallow
// copy of the slice is enough.
func cloneUTXOs(utxos []UTXO) []UTXO {
	return append(make([]UTXO, 0, len(utxos)), utxos...)
}

// sumInputs returns the total coin value of the given inputs.
func sumInputs(inputs []UTXO) btcunit.Amount {
	total := btcunit.Amount{}
	for _, in := range inputs {
		total = total.Add(in.Value)
	}

	return total
}

// sumOutputs returns the total coin value of the given outputs. Outputs
// without a value count as zero.
func sumOutputs(outputs []Output) btcunit.Amount {
	total := btcunit.Amount{}
	for i := range outputs {
		total = total.Add(outputs[i].amount())
	}

	return total
}

// Selection is a funded coin selection. The invariant
// sum(Inputs) == sum(Outputs) + Fee holds exactly.
type Selection struct {
	// Inputs are the pre-selected inputs followed by the selected
	// candidates, in selection order.
	Inputs []UTXO

	// Outputs are the requested outputs, possibly reduced by fee
	// absorption, followed by any outputs added by the engine.
	Outputs []Output

	// Fee is the fee paid by the transaction.
	Fee btcunit.Amount

	// Allocations are the reconciled asset allocations. They are only
	// set by SelectAssetGas.
	Allocations []*asset.Allocation

	// removed holds the indices of requested outputs that the fee sweep
	// dropped, in ascending order.
	removed []int

	// absorbers holds the indices into Outputs of the fee absorbing
	// outputs that survived the fee sweep, in ascending order.
	absorbers []int
}

// AssetSelection is the result of funding an asset demand.
type AssetSelection struct {
	// Inputs are the asset carrying UTXOs that fund the demand.
	Inputs []UTXO

	// Outputs are the asset outputs, one per payment plus any auxiliary
	// fee and asset change outputs.
	Outputs []Output

	// Allocations are the per asset commitments, in demand order.
	Allocations []*asset.Allocation

	// ExtraBytes are bytes that are not represented by any output but
	// must be paid for, such as reserved notary signatures.
	ExtraBytes btcunit.ByteSize
}

// CoinRequest describes a coin selection.
type CoinRequest struct {
	// UTXOs are the candidates to select from.
	UTXOs []UTXO

	// Inputs are already committed inputs. They are kept and extended,
	// never replaced.
	Inputs []UTXO

	// Outputs are the requested outputs.
	Outputs []Output

	// FeeRate is the fee rate to pay.
	FeeRate btcunit.SatPerByte

	// MemoSize is the length of a memo that will be attached as a raw
	// data output by the caller.
	MemoSize btcunit.ByteSize

	// BlobSize is the size of data attached out of band. It is scaled by
	// the configured blob weight.
	BlobSize btcunit.ByteSize

	// ExtraBytes are additional bytes to pay for, typically the
	// ExtraBytes of a preceding asset selection.
	ExtraBytes btcunit.ByteSize
}

// AssetRequest describes the funding of an asset demand.
type AssetRequest struct {
	// UTXOs are the candidates. Only asset carrying UTXOs are
	// considered.
	UTXOs []UTXO

	// Demand is the ordered asset demand.
	Demand *asset.Demand

	// FeeRate is the fee rate used for the dust value of asset outputs.
	FeeRate btcunit.SatPerByte

	// Kind is the kind of the transaction being funded.
	Kind asset.TxKind

	// Registry provides asset metadata. A nil registry means no asset
	// has auxiliary fees or requires a notary.
	Registry asset.Registry
}

// GasRequest describes a coin selection for a transaction that already
// carries asset allocations. Asset carrying UTXOs may be used to pay for
// the fee, in which case their asset value is returned as asset change.
type GasRequest struct {
	CoinRequest

	// Allocations are the allocations of the transaction, usually those
	// of a preceding asset selection.
	Allocations []*asset.Allocation

	// Kind is the kind of the transaction being funded.
	Kind asset.TxKind

	// Demand is the asset demand the allocations were built from. It is
	// only consulted for kinds exempt from asset funding.
	Demand *asset.Demand
}
