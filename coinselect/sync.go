// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselect

import (
	"fmt"
	"slices"

	"github.com/btcsuite/coinselect/asset"
	"github.com/btcsuite/coinselect/pkg/btcunit"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// assetFlow is the asset value entering a transaction for one asset.
type assetFlow struct {
	// value is the sum of the positive asset values.
	value btcunit.Amount

	// markers is the number of zero valued ownership markers.
	markers int
}

// allocationSync reconciles the allocations of a transaction with its
// selected inputs. Asset carrying inputs that were picked to pay the fee
// bring asset value that must be returned to the owner, so for every asset
// the value of the inputs has to equal the value of its allocation.
type allocationSync struct {
	cfg    *Config
	kind   asset.TxKind
	demand *asset.Demand
	dust   btcunit.Amount

	allocs  []*asset.Allocation
	outputs []Output
}

// demanded returns the demanded value of an asset that the transaction kind
// creates without inputs, or zero.
func (a *allocationSync) demanded(guid asset.GUID) btcunit.Amount {
	if !a.kind.IsAssetFundingExempt() {
		return btcunit.Amount{}
	}

	req, ok := a.demand.Get(guid)
	if !ok {
		return btcunit.Amount{}
	}

	return req.Total()
}

// addChange appends an asset change output and its allocation entry.
func (a *allocationSync) addChange(alloc *asset.Allocation,
	value btcunit.Amount) {

	req, _ := a.demand.Get(alloc.GUID)

	alloc.Values = append(alloc.Values, asset.AllocationValue{
		Index: len(a.outputs),
		Value: value,
	})
	a.outputs = append(a.outputs, Output{
		Address:          req.ChangeAddress,
		Value:            fn.Some(a.dust),
		Kind:             a.cfg.AssetOutputKind,
		Asset:            &asset.Info{GUID: alloc.GUID, Value: value},
		AssetChangeIndex: fn.Some(len(alloc.Values) - 1),
	})
}

// valueChange returns the index of the first asset change output of the
// asset that carries a positive value. Ownership marker outputs are never
// merged into.
func (a *allocationSync) valueChange(guid asset.GUID) int {
	return slices.IndexFunc(a.outputs, func(o Output) bool {
		return o.Asset != nil && o.Asset.GUID == guid &&
			o.AssetChangeIndex.IsSome() &&
			o.Asset.Value.Sign() > 0
	})
}

// syncAsset adds the surplus of one asset to its change output, creating
// the output if needed, and makes sure an ownership marker that enters the
// transaction also leaves it.
func (a *allocationSync) syncAsset(guid asset.GUID, flow *assetFlow) error {
	alloc := asset.FindAllocation(a.allocs, guid)

	// The asset only appears on the input side: return all of it.
	if alloc == nil {
		log.Debugf("Returning swept in asset %v: value %v, %d markers",
			guid, flow.value, flow.markers)

		alloc = &asset.Allocation{GUID: guid}
		a.allocs = append(a.allocs, alloc)

		if flow.value.Sign() > 0 {
			a.addChange(alloc, flow.value)
		}
		if flow.markers > 0 {
			a.addChange(alloc, btcunit.Amount{})
		}

		return nil
	}

	allocated := alloc.Total()
	diff := flow.value.Sub(allocated).Add(a.demanded(guid))
	if diff.IsNegative() {
		log.Warnf("Asset %v allocates %v but only %v enters", guid,
			allocated, flow.value)

		return fmt.Errorf("%w: asset %v output %v larger than input %v",
			ErrAllocationMismatch, guid, allocated, flow.value)
	}

	if diff.Sign() > 0 {
		idx := a.valueChange(guid)
		if idx < 0 {
			log.Debugf("Adding change output for asset %v: %v", guid,
				diff)

			a.addChange(alloc, diff)
		} else {
			out := &a.outputs[idx]
			slot := out.AssetChangeIndex.UnwrapOr(-1)
			if slot < 0 || slot >= len(alloc.Values) ||
				alloc.Values[slot].Index != idx {

				return fmt.Errorf("%w: asset %v change output %d "+
					"not tracked by allocation entry %d",
					ErrAllocationMismatch, guid, idx, slot)
			}

			log.Debugf("Increasing change output %d of asset %v by %v",
				idx, guid, diff)

			newValue := out.Asset.Value.Add(diff)
			out.Asset = &asset.Info{GUID: guid, Value: newValue}
			alloc.Values[slot].Value = alloc.Values[slot].Value.Add(
				diff,
			)
		}
	}

	if flow.markers > 0 && !hasMarkerEntry(alloc) {
		log.Debugf("Adding ownership marker output for asset %v", guid)

		a.addChange(alloc, btcunit.Amount{})
	}

	return nil
}

// hasMarkerEntry returns true if the allocation commits a zero value to an
// output.
func hasMarkerEntry(alloc *asset.Allocation) bool {
	return slices.ContainsFunc(alloc.Values, func(v asset.AllocationValue) bool {
		return v.Value.IsZero()
	})
}

// syncAllocations reconciles allocations with the inputs, returning the
// updated allocations and outputs. The given slices must be owned by the
// caller since they are modified.
func (s *Selector) syncAllocations(allocs []*asset.Allocation,
	inputs []UTXO, outputs []Output, rate btcunit.SatPerByte,
	kind asset.TxKind, demand *asset.Demand) ([]*asset.Allocation,
	[]Output, error) {

	a := &allocationSync{
		cfg:     &s.cfg,
		kind:    kind,
		demand:  demand,
		dust:    dustThreshold(s.cfg.AssetOutputKind, rate),
		allocs:  allocs,
		outputs: outputs,
	}

	var order []asset.GUID
	flows := make(map[asset.GUID]*assetFlow)
	for _, in := range inputs {
		if !in.IsAsset() {
			continue
		}

		flow, ok := flows[in.Asset.GUID]
		if !ok {
			flow = &assetFlow{}
			flows[in.Asset.GUID] = flow
			order = append(order, in.Asset.GUID)
		}

		if in.Asset.IsOwnershipMarker() {
			flow.markers++
		} else {
			flow.value = flow.value.Add(in.Asset.Value)
		}
	}

	// Assets that are allocated without entering the transaction are
	// only allowed up to the demand of an exempt kind.
	for _, alloc := range allocs {
		if _, ok := flows[alloc.GUID]; ok {
			continue
		}

		allocated := alloc.Total()
		if allocated.GreaterThan(a.demanded(alloc.GUID)) ||
			(!kind.IsAssetFundingExempt() && len(alloc.Values) > 0) {

			return nil, nil, fmt.Errorf("%w: asset %v allocates %v "+
				"without inputs", ErrAllocationMismatch,
				alloc.GUID, allocated)
		}
	}

	for _, guid := range order {
		if err := a.syncAsset(guid, flows[guid]); err != nil {
			return nil, nil, err
		}
	}

	return a.allocs, a.outputs, nil
}

// remapAllocations shifts the output indices of the allocations after the
// given ascending output indices were removed. An allocation pointing at a
// removed output is an error.
func remapAllocations(allocs []*asset.Allocation, removed []int) error {
	if len(removed) == 0 {
		return nil
	}

	for _, alloc := range allocs {
		for i := range alloc.Values {
			idx := alloc.Values[i].Index

			pos, found := slices.BinarySearch(removed, idx)
			if found {
				return fmt.Errorf("%w: asset %v output %d was "+
					"removed", ErrAllocationMismatch,
					alloc.GUID, idx)
			}

			alloc.Values[i].Index = idx - pos
		}
	}

	return nil
}

// verifyAllocations checks that every allocation entry points at an output
// carrying the same asset and value, and that every asset output is tracked
// by exactly one entry.
func verifyAllocations(allocs []*asset.Allocation, outputs []Output) error {
	tracked := make([]int, len(outputs))
	for _, alloc := range allocs {
		for _, v := range alloc.Values {
			if v.Index < 0 || v.Index >= len(outputs) {
				return fmt.Errorf("%w: asset %v index %d out of "+
					"range", ErrAllocationMismatch, alloc.GUID,
					v.Index)
			}

			out := &outputs[v.Index]
			if out.Asset == nil || out.Asset.GUID != alloc.GUID ||
				!out.Asset.Value.Equal(v.Value) {

				return fmt.Errorf("%w: asset %v entry %d (%v) does "+
					"not match output", ErrAllocationMismatch,
					alloc.GUID, v.Index, v.Value)
			}

			tracked[v.Index]++
		}
	}

	for i := range outputs {
		if outputs[i].Asset != nil && tracked[i] != 1 {
			return fmt.Errorf("%w: asset output %d tracked %d times",
				ErrAllocationMismatch, i, tracked[i])
		}
	}

	return nil
}
