// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package coinselect selects the UTXOs that fund a transaction on a ledger
// that carries a native coin and GUID tagged assets. It decides on change
// and fee, sweeps the fee out of marked outputs, funds asset demands and
// reconciles asset allocations with the selected inputs so that neither
// coin nor asset value is created or destroyed.
package coinselect

import (
	"fmt"
	"slices"

	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/coinselect/asset"
	"github.com/btcsuite/coinselect/pkg/btcunit"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// Selector runs coin and asset selections under a fixed Config. It holds no
// mutable state and is safe for concurrent use.
type Selector struct {
	cfg Config
}

// NewSelector creates a Selector after validating the config.
func NewSelector(cfg Config) (*Selector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Selector{cfg: cfg}, nil
}

// Config returns the config of the selector.
func (s *Selector) Config() Config {
	return s.cfg
}

// validateFeeRate wraps an invalid fee rate into a SelectionError.
func validateFeeRate(rate btcunit.SatPerByte) error {
	if err := rate.Validate(); err != nil {
		return &SelectionError{
			Kind:   InvalidFeeRate,
			Reason: err.Error(),
		}
	}

	return nil
}

// validateAmounts checks every coin and asset value of the given UTXOs and
// outputs.
func validateAmounts(utxos []UTXO, outputs []Output) error {
	invalid := func(what string, err error) error {
		return &SelectionError{
			Kind:   InvalidAmount,
			Reason: fmt.Sprintf("%s: %v", what, err),
		}
	}

	for i := range utxos {
		if err := utxos[i].Value.Validate(); err != nil {
			return invalid(utxos[i].OutPoint.String(), err)
		}

		if utxos[i].IsAsset() {
			err := utxos[i].Asset.Value.Validate()
			if err != nil {
				return invalid(utxos[i].OutPoint.String(), err)
			}
		}
	}

	for i := range outputs {
		err := outputs[i].amount().Validate()
		if err == nil && outputs[i].Asset != nil {
			err = outputs[i].Asset.Value.Validate()
		}
		if err != nil {
			return invalid(fmt.Sprintf("output %d", i), err)
		}
	}

	return nil
}

// validateCoinRequest validates the fee rate and every amount of a coin
// request.
func validateCoinRequest(req *CoinRequest) error {
	if err := validateFeeRate(req.FeeRate); err != nil {
		return err
	}

	for i := range req.Outputs {
		if req.Outputs[i].Value.IsNone() {
			return &SelectionError{
				Kind:   InvalidAmount,
				Reason: fmt.Sprintf("output %d has no value", i),
			}
		}
	}

	if err := validateAmounts(req.UTXOs, req.Outputs); err != nil {
		return err
	}

	return validateAmounts(req.Inputs, nil)
}

// candidates removes committed inputs and duplicates from the pool,
// optionally drops asset carrying UTXOs, and sorts the rest by descending
// score. The sort is stable so equal scores keep the pool order.
func candidates(utxos, inputs []UTXO, rate btcunit.SatPerByte,
	skipAssets bool) []UTXO {

	seen := fn.NewSet[wire.OutPoint]()
	for _, in := range inputs {
		seen.Add(in.OutPoint)
	}

	pool := make([]UTXO, 0, len(utxos))
	for _, utxo := range utxos {
		if seen.Contains(utxo.OutPoint) {
			continue
		}
		if skipAssets && utxo.IsAsset() {
			continue
		}

		seen.Add(utxo.OutPoint)
		pool = append(pool, utxo)
	}

	slices.SortStableFunc(pool, func(a, b UTXO) int {
		return inputScore(&b, rate).Cmp(inputScore(&a, rate))
	})

	return pool
}

// SelectCoins funds the requested outputs from coin only UTXOs. It tries an
// exact match without change first and falls back to accumulating
// candidates. Each attempt works on its own copy of the inputs and outputs,
// so the request is never modified.
func (s *Selector) SelectCoins(req CoinRequest) (*Selection, error) {
	if err := validateCoinRequest(&req); err != nil {
		return nil, err
	}

	pool := candidates(req.UTXOs, req.Inputs, req.FeeRate, true)

	return s.selectCoins(pool, &req)
}

// selectCoins runs the exact match selector and then the accumulator over
// the given pool.
func (s *Selector) selectCoins(pool []UTXO,
	req *CoinRequest) (*Selection, error) {

	side := s.sideBytes(req)

	sel, err := s.blackjack(
		pool, cloneUTXOs(req.Inputs), cloneOutputs(req.Outputs),
		req.FeeRate, side,
	)
	if err == nil {
		log.Debugf("Exact match with %d inputs, fee %v", len(sel.Inputs),
			sel.Fee)

		return sel, nil
	}

	log.Debugf("No exact match (%v), accumulating %d candidates", err,
		len(pool))

	sel, err = s.accumulate(
		pool, cloneUTXOs(req.Inputs), cloneOutputs(req.Outputs),
		req.FeeRate, side,
	)
	if err != nil {
		return nil, err
	}

	log.Debugf("Accumulated %d inputs, fee %v", len(sel.Inputs), sel.Fee)

	return sel, nil
}

// SelectAssets funds an asset demand from asset carrying UTXOs. It first
// requires a single exactly matching UTXO per asset and falls back to
// accumulating UTXOs with asset change. Either every asset of the demand is
// funded or ErrAssetFundingFailed is returned.
func (s *Selector) SelectAssets(req AssetRequest) (*AssetSelection, error) {
	if err := validateFeeRate(req.FeeRate); err != nil {
		return nil, err
	}

	if err := validateAmounts(req.UTXOs, nil); err != nil {
		return nil, err
	}

	err := req.Demand.ForEach(func(guid asset.GUID, r asset.Request) error {
		for _, p := range r.Outputs {
			if err := p.Value.Validate(); err != nil {
				return &SelectionError{
					Kind: InvalidAmount,
					Reason: fmt.Sprintf("asset %v: %v", guid,
						err),
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sel, err := s.fundAssets(&req, fundExact)
	if err == nil {
		return sel, nil
	}

	log.Debugf("Exact asset funding failed (%v), accumulating", err)

	return s.fundAssets(&req, fundAccumulate)
}

// SelectAssetGas funds the fee of a transaction that already carries asset
// allocations. Asset carrying UTXOs are valid candidates: the asset value
// they bring is returned through asset change outputs and the allocations
// are reconciled so that, per asset, the inputs equal the allocations. The
// coin change is then adjusted to pay for any outputs the reconciliation
// added.
func (s *Selector) SelectAssetGas(req GasRequest) (*Selection, error) {
	if err := validateCoinRequest(&req.CoinRequest); err != nil {
		return nil, err
	}

	pool := candidates(req.UTXOs, req.Inputs, req.FeeRate, false)
	side := s.sideBytes(&req.CoinRequest)

	sel, err := s.blackjack(
		pool, cloneUTXOs(req.Inputs), cloneOutputs(req.Outputs),
		req.FeeRate, side,
	)
	if err != nil {
		log.Debugf("No exact match for gas (%v), accumulating", err)

		sel, err = s.accumulate(
			pool, cloneUTXOs(req.Inputs),
			cloneOutputs(req.Outputs), req.FeeRate, side,
		)
		if err != nil {
			return nil, err
		}
	}

	return s.reconcile(sel, &req, side.data)
}

// reconcile runs the allocation synchronizer over a funded selection and
// repairs the coin change afterwards.
func (s *Selector) reconcile(sel *Selection, req *GasRequest,
	data btcunit.ByteSize) (*Selection, error) {

	allocs := asset.CopyAllocations(req.Allocations)
	if err := remapAllocations(allocs, sel.removed); err != nil {
		return nil, err
	}

	before := len(sel.Outputs)
	allocs, outputs, err := s.syncAllocations(
		allocs, sel.Inputs, sel.Outputs, req.FeeRate, req.Kind,
		req.Demand,
	)
	if err != nil {
		return nil, err
	}
	sel.Outputs = outputs

	if len(outputs) > before {
		err := s.rebalanceChange(sel, allocs, req.FeeRate, data)
		if err != nil {
			return nil, err
		}
	}

	if err := verifyAllocations(allocs, sel.Outputs); err != nil {
		return nil, err
	}

	sel.Allocations = allocs

	return sel, nil
}

// rebalanceChange makes the coin change pay for outputs added after the
// selection was finalized. If the change would fall to dust it is dropped
// entirely and the allocations are shifted accordingly.
func (s *Selector) rebalanceChange(sel *Selection,
	allocs []*asset.Allocation, rate btcunit.SatPerByte,
	data btcunit.ByteSize) error {

	inputTotal := sumInputs(sel.Inputs)
	requiredFee := func() btcunit.Amount {
		return rate.FeeForSize(
			transactionBytes(sel.Inputs, sel.Outputs).Add(data),
		)
	}

	fee := inputTotal.Sub(sumOutputs(sel.Outputs))
	required := requiredFee()
	if fee.GreaterThanOrEqual(required) {
		sel.Fee = fee
		return nil
	}

	idx := slices.IndexFunc(sel.Outputs, func(o Output) bool {
		return o.IsChange
	})
	if idx < 0 && len(sel.absorbers) > 0 {
		err := s.absorbDeficit(sel, allocs, rate, fee, required)
		if err != nil {
			return err
		}

		fee = inputTotal.Sub(sumOutputs(sel.Outputs))
		required = requiredFee()
		if fee.LessThan(required) {
			return insufficientFunds(
				inputTotal, sumOutputs(sel.Outputs), required,
				"fee absorbing outputs do not cover the asset "+
					"outputs",
			)
		}
		sel.Fee = fee

		return nil
	}
	if idx < 0 {
		return insufficientFunds(
			inputTotal, sumOutputs(sel.Outputs), required,
			"no change to pay for asset outputs",
		)
	}

	deficit := required.Sub(fee)
	change := sel.Outputs[idx].amount().Sub(deficit)
	if change.GreaterThan(dustThreshold(s.cfg.ChangeKind, rate)) {
		log.Debugf("Reducing change by %v for asset outputs", deficit)

		sel.Outputs[idx].Value = fn.Some(change)
		sel.Fee = inputTotal.Sub(sumOutputs(sel.Outputs))

		return nil
	}

	log.Debugf("Dropping change output %d to pay for asset outputs", idx)

	sel.Outputs = slices.Delete(sel.Outputs, idx, idx+1)
	if err := remapAllocations(allocs, []int{idx}); err != nil {
		return err
	}

	fee = inputTotal.Sub(sumOutputs(sel.Outputs))
	required = requiredFee()
	if fee.LessThan(required) {
		return insufficientFunds(
			inputTotal, sumOutputs(sel.Outputs), required,
			"inputs do not cover the asset outputs",
		)
	}
	sel.Fee = fee

	return nil
}

// absorbDeficit deducts the difference between the paid and the required
// fee from the outputs that absorbed the fee of a sweep, by the rule of the
// fee sweep: each output gives up to its value minus its dust threshold and
// is removed, crediting its remaining value, once it falls to or below it.
// At least one of the outputs has to survive.
func (s *Selector) absorbDeficit(sel *Selection, allocs []*asset.Allocation,
	rate btcunit.SatPerByte, fee, required btcunit.Amount) error {

	deficit := required.Sub(fee)

	var removed []int
	for _, idx := range sel.absorbers {
		if deficit.Sign() <= 0 {
			break
		}

		out := &sel.Outputs[idx]
		value := out.amount()
		dust := dustThreshold(out.Kind, rate)

		if maxDeduction := value.Sub(dust); maxDeduction.Sign() > 0 {
			deduction := btcunit.MinAmount(deficit, maxDeduction)
			deficit = deficit.Sub(deduction)
			value = value.Sub(deduction)
		}

		if value.LessThanOrEqual(dust) {
			log.Debugf("Removing fee absorbing output %d to pay for "+
				"asset outputs", idx)

			removed = append(removed, idx)
			deficit = deficit.Sub(value)

			continue
		}

		log.Debugf("Reducing fee absorbing output %d to %v for asset "+
			"outputs", idx, value)

		out.Value = fn.Some(value)
	}

	if len(removed) == len(sel.absorbers) {
		return insufficientFunds(
			sumInputs(sel.Inputs), sumOutputs(sel.Outputs), required,
			"asset outputs would consume every fee absorbing output",
		)
	}

	sel.Outputs = removeOutputs(sel.Outputs, removed)
	sel.absorbers = slices.DeleteFunc(sel.absorbers, func(idx int) bool {
		_, found := slices.BinarySearch(removed, idx)
		return found
	})
	for i, idx := range sel.absorbers {
		pos, _ := slices.BinarySearch(removed, idx)
		sel.absorbers[i] = idx - pos
	}

	return remapAllocations(allocs, removed)
}
