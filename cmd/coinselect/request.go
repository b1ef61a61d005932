// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/coinselect/asset"
	"github.com/btcsuite/coinselect/coinselect"
	"github.com/btcsuite/coinselect/pkg/btcunit"
	"github.com/btcsuite/coinselect/txsizes"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// selectionMode names the engine entry point a request is run through.
type selectionMode string

const (
	modeCoins  selectionMode = "coins"
	modeAssets selectionMode = "assets"
	modeGas    selectionMode = "gas"
	modeSplit  selectionMode = "split"
	modeBreak  selectionMode = "break"
)

var (
	// errUnknownMode is returned for a request with an unsupported mode.
	errUnknownMode = errors.New("unknown mode")

	// errInvalidRequest is returned when a request cannot be turned into
	// engine types.
	errInvalidRequest = errors.New("invalid request")
)

// jsonUTXO is the wire form of a coinselect.UTXO.
type jsonUTXO struct {
	TxID  string             `json:"txid"`
	Vout  uint32             `json:"vout"`
	Value btcunit.Amount     `json:"value"`
	Kind  txsizes.OutputKind `json:"kind,omitempty"`
	Asset *asset.Info        `json:"asset,omitempty"`
}

// jsonOutput is the wire form of a coinselect.Output. A missing value is
// only valid for split requests.
type jsonOutput struct {
	Address          string             `json:"address,omitempty"`
	Value            *btcunit.Amount    `json:"value,omitempty"`
	Kind             txsizes.OutputKind `json:"kind,omitempty"`
	Asset            *asset.Info        `json:"asset,omitempty"`
	SubtractFee      bool               `json:"subtractFee,omitempty"`
	Script           string             `json:"script,omitempty"`
	IsChange         bool               `json:"isChange,omitempty"`
	AssetChangeIndex *int               `json:"assetChangeIndex,omitempty"`
}

// selectionRequest is a single request read from a request file.
type selectionRequest struct {
	Mode        selectionMode        `json:"mode"`
	FeeRate     *btcunit.SatPerByte  `json:"feeRate,omitempty"`
	UTXOs       []jsonUTXO           `json:"utxos"`
	Inputs      []jsonUTXO           `json:"inputs,omitempty"`
	Outputs     []jsonOutput         `json:"outputs,omitempty"`
	MemoSize    btcunit.ByteSize     `json:"memoSize,omitempty"`
	BlobSize    btcunit.ByteSize     `json:"blobSize,omitempty"`
	ExtraBytes  btcunit.ByteSize     `json:"extraBytes,omitempty"`
	TxKind      asset.TxKind         `json:"txKind,omitempty"`
	Demand      *asset.Demand        `json:"demand,omitempty"`
	Allocations []*asset.Allocation  `json:"allocations,omitempty"`
	Registry    asset.StaticRegistry `json:"registry,omitempty"`
}

// selectionFailure describes a failed request.
type selectionFailure struct {
	Kind         string          `json:"kind"`
	Message      string          `json:"message"`
	Fee          *btcunit.Amount `json:"fee,omitempty"`
	Shortfall    *btcunit.Amount `json:"shortfall,omitempty"`
	RemainingFee *btcunit.Amount `json:"remainingFee,omitempty"`
}

// selectionResponse is the outcome of a single request.
type selectionResponse struct {
	Source      string              `json:"source"`
	OK          bool                `json:"ok"`
	Inputs      []jsonUTXO          `json:"inputs,omitempty"`
	Outputs     []jsonOutput        `json:"outputs,omitempty"`
	Fee         *btcunit.Amount     `json:"fee,omitempty"`
	Allocations []*asset.Allocation `json:"allocations,omitempty"`
	ExtraBytes  btcunit.ByteSize    `json:"extraBytes,omitempty"`
	Error       *selectionFailure   `json:"error,omitempty"`
}

// decodeRequest parses a request, rejecting unknown fields.
func decodeRequest(data []byte) (*selectionRequest, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var req selectionRequest
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidRequest, err)
	}

	return &req, nil
}

// toUTXOs converts wire UTXOs into engine UTXOs.
func toUTXOs(utxos []jsonUTXO) ([]coinselect.UTXO, error) {
	converted := make([]coinselect.UTXO, 0, len(utxos))
	for i, u := range utxos {
		hash, err := chainhash.NewHashFromStr(u.TxID)
		if err != nil {
			return nil, fmt.Errorf("%w: utxo %d: %w",
				errInvalidRequest, i, err)
		}

		converted = append(converted, coinselect.UTXO{
			OutPoint: *wire.NewOutPoint(hash, u.Vout),
			Value:    u.Value,
			Kind:     u.Kind,
			Asset:    u.Asset,
		})
	}

	return converted, nil
}

// fromUTXOs converts engine UTXOs into their wire form.
func fromUTXOs(utxos []coinselect.UTXO) []jsonUTXO {
	converted := make([]jsonUTXO, 0, len(utxos))
	for _, u := range utxos {
		converted = append(converted, jsonUTXO{
			TxID:  u.OutPoint.Hash.String(),
			Vout:  u.OutPoint.Index,
			Value: u.Value,
			Kind:  u.Kind,
			Asset: u.Asset,
		})
	}

	return converted
}

// toOutputs converts wire outputs into engine outputs.
func toOutputs(outputs []jsonOutput) ([]coinselect.Output, error) {
	converted := make([]coinselect.Output, 0, len(outputs))
	for i, o := range outputs {
		out := coinselect.Output{
			Address:     o.Address,
			Kind:        o.Kind,
			Asset:       o.Asset,
			SubtractFee: o.SubtractFee,
			IsChange:    o.IsChange,
		}

		if o.Value != nil {
			out.Value = fn.Some(*o.Value)
		}

		if o.AssetChangeIndex != nil {
			out.AssetChangeIndex = fn.Some(*o.AssetChangeIndex)
		}

		if o.Script != "" {
			script, err := hex.DecodeString(o.Script)
			if err != nil {
				return nil, fmt.Errorf("%w: output %d script: %w",
					errInvalidRequest, i, err)
			}
			out.Script = script
		}

		converted = append(converted, out)
	}

	return converted, nil
}

// fromOutputs converts engine outputs into their wire form.
func fromOutputs(outputs []coinselect.Output) []jsonOutput {
	converted := make([]jsonOutput, 0, len(outputs))
	for _, o := range outputs {
		out := jsonOutput{
			Address:     o.Address,
			Kind:        o.Kind,
			Asset:       o.Asset,
			SubtractFee: o.SubtractFee,
			IsChange:    o.IsChange,
		}

		o.Value.WhenSome(func(v btcunit.Amount) {
			out.Value = &v
		})
		o.AssetChangeIndex.WhenSome(func(idx int) {
			out.AssetChangeIndex = &idx
		})

		if o.Script != nil {
			out.Script = hex.EncodeToString(o.Script)
		}

		converted = append(converted, out)
	}

	return converted
}

// failure classifies an engine error for the response.
func failure(err error) *selectionFailure {
	f := &selectionFailure{
		Kind:    "INVALID_REQUEST",
		Message: err.Error(),
	}

	var selErr *coinselect.SelectionError
	switch {
	case errors.As(err, &selErr):
		f.Kind = selErr.Kind.String()
		f.Fee = &selErr.Fee
		f.Shortfall = &selErr.Shortfall
		if selErr.Kind == coinselect.SubtractFeeFailed {
			f.RemainingFee = &selErr.RemainingFee
		}

	case errors.Is(err, coinselect.ErrAssetFundingFailed):
		f.Kind = "ASSET_FUNDING_FAILED"

	case errors.Is(err, coinselect.ErrAllocationMismatch):
		f.Kind = "ALLOCATION_MISMATCH"
	}

	return f
}

// coinRequest assembles the coin request shared by the coin, gas, split
// and break modes.
func (r *selectionRequest) coinRequest(
	rate btcunit.SatPerByte) (*coinselect.CoinRequest, error) {

	utxos, err := toUTXOs(r.UTXOs)
	if err != nil {
		return nil, err
	}

	inputs, err := toUTXOs(r.Inputs)
	if err != nil {
		return nil, err
	}

	outputs, err := toOutputs(r.Outputs)
	if err != nil {
		return nil, err
	}

	return &coinselect.CoinRequest{
		UTXOs:      utxos,
		Inputs:     inputs,
		Outputs:    outputs,
		FeeRate:    rate,
		MemoSize:   r.MemoSize,
		BlobSize:   r.BlobSize,
		ExtraBytes: r.ExtraBytes,
	}, nil
}

// evaluate runs the request through the selector. The fee rate of the
// request takes precedence over the given default.
func evaluate(s *coinselect.Selector, r *selectionRequest,
	defaultRate btcunit.SatPerByte) *selectionResponse {

	rate := defaultRate
	if r.FeeRate != nil {
		rate = *r.FeeRate
	}

	resp, err := dispatch(s, r, rate)
	if err != nil {
		return &selectionResponse{Error: failure(err)}
	}
	resp.OK = true

	return resp
}

// dispatch calls the engine entry point of the request mode.
func dispatch(s *coinselect.Selector, r *selectionRequest,
	rate btcunit.SatPerByte) (*selectionResponse, error) {

	if r.Mode == modeAssets {
		utxos, err := toUTXOs(r.UTXOs)
		if err != nil {
			return nil, err
		}

		req := coinselect.AssetRequest{
			UTXOs:   utxos,
			Demand:  r.Demand,
			FeeRate: rate,
			Kind:    r.TxKind,
		}
		if r.Registry != nil {
			req.Registry = r.Registry
		}

		sel, err := s.SelectAssets(req)
		if err != nil {
			return nil, err
		}

		return &selectionResponse{
			Inputs:      fromUTXOs(sel.Inputs),
			Outputs:     fromOutputs(sel.Outputs),
			Allocations: sel.Allocations,
			ExtraBytes:  sel.ExtraBytes,
		}, nil
	}

	coinReq, err := r.coinRequest(rate)
	if err != nil {
		return nil, err
	}

	var sel *coinselect.Selection
	switch r.Mode {
	case modeCoins:
		sel, err = s.SelectCoins(*coinReq)

	case modeGas:
		sel, err = s.SelectAssetGas(coinselect.GasRequest{
			CoinRequest: *coinReq,
			Allocations: r.Allocations,
			Kind:        r.TxKind,
			Demand:      r.Demand,
		})

	case modeSplit:
		sel, err = s.Split(coinReq.UTXOs, coinReq.Outputs, rate)

	case modeBreak:
		if len(coinReq.Outputs) != 1 {
			return nil, fmt.Errorf("%w: break takes exactly one "+
				"output, got %d", errInvalidRequest,
				len(coinReq.Outputs))
		}
		sel, err = s.Break(coinReq.UTXOs, coinReq.Outputs[0], rate)

	default:
		return nil, fmt.Errorf("%w: %q", errUnknownMode, r.Mode)
	}
	if err != nil {
		return nil, err
	}

	return &selectionResponse{
		Inputs:      fromUTXOs(sel.Inputs),
		Outputs:     fromOutputs(sel.Outputs),
		Fee:         &sel.Fee,
		Allocations: sel.Allocations,
	}, nil
}
