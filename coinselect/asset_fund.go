// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselect

import (
	"errors"
	"fmt"
	"slices"

	"github.com/btcsuite/coinselect/asset"
	"github.com/btcsuite/coinselect/pkg/btcunit"
	"github.com/btcsuite/coinselect/txsizes"
	"github.com/lightningnetwork/lnd/fn/v2"
)

var (
	// errNoOwnershipMarker is returned when an ownership operation finds
	// no zero valued marker UTXO for the asset.
	errNoOwnershipMarker = errors.New("no ownership marker")

	// errNoExactAssetMatch is returned when no single UTXO carries
	// exactly the funding target.
	errNoExactAssetMatch = errors.New("no utxo matches the asset target")

	// errInsufficientAsset is returned when all UTXOs of an asset do not
	// reach the funding target.
	errInsufficientAsset = errors.New("insufficient asset balance")
)

// assetFundingMode selects how positive valued asset UTXOs are chosen.
type assetFundingMode uint8

const (
	// fundExact requires a single UTXO equal to the target.
	fundExact assetFundingMode = iota

	// fundAccumulate adds UTXOs by descending value until the target is
	// reached and returns any surplus as asset change.
	fundAccumulate
)

// String returns the name of the mode.
func (m assetFundingMode) String() string {
	if m == fundExact {
		return "exact"
	}

	return "accumulate"
}

// assetFunder funds an asset demand one asset at a time.
type assetFunder struct {
	cfg  *Config
	req  *AssetRequest
	mode assetFundingMode

	// dust is the coin value of every asset output.
	dust btcunit.Amount

	// candidates are the asset carrying UTXOs of the request.
	candidates []UTXO

	sel *AssetSelection
}

// fundAssets funds every asset of the demand in demand order. Either every
// asset is funded or ErrAssetFundingFailed is returned.
func (s *Selector) fundAssets(req *AssetRequest,
	mode assetFundingMode) (*AssetSelection, error) {

	f := &assetFunder{
		cfg:  &s.cfg,
		req:  req,
		mode: mode,
		dust: dustThreshold(s.cfg.AssetOutputKind, req.FeeRate),
		sel:  &AssetSelection{},
	}
	for _, utxo := range req.UTXOs {
		if utxo.IsAsset() {
			f.candidates = append(f.candidates, utxo)
		}
	}

	err := req.Demand.ForEach(f.fundAsset)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrAssetFundingFailed,
			mode, err)
	}

	return f.sel, nil
}

// lookup returns the registry record of the asset, or an empty record.
func (f *assetFunder) lookup(guid asset.GUID) asset.RegistryRecord {
	if f.req.Registry == nil {
		return asset.RegistryRecord{}
	}

	return f.req.Registry.LookupAsset(guid).UnwrapOr(
		asset.RegistryRecord{},
	)
}

// addOutput appends an asset output of the given asset value and records it
// in the allocation. Change outputs point back at their allocation entry.
func (f *assetFunder) addOutput(alloc *asset.Allocation, address string,
	value btcunit.Amount, change bool) {

	alloc.Values = append(alloc.Values, asset.AllocationValue{
		Index: len(f.sel.Outputs),
		Value: value,
	})

	out := Output{
		Address: address,
		Value:   fn.Some(f.dust),
		Kind:    f.cfg.AssetOutputKind,
		Asset:   &asset.Info{GUID: alloc.GUID, Value: value},
	}
	if change {
		out.AssetChangeIndex = fn.Some(len(alloc.Values) - 1)
	}

	f.sel.Outputs = append(f.sel.Outputs, out)
}

// fundAsset emits the outputs of one asset and, unless the transaction kind
// is exempt, selects the inputs that fund them.
func (f *assetFunder) fundAsset(guid asset.GUID, req asset.Request) error {
	alloc := &asset.Allocation{GUID: guid}
	for _, p := range req.Outputs {
		f.addOutput(
			alloc, p.Address, p.Value, p.Address == req.ChangeAddress,
		)
	}

	kind := f.req.Kind
	if kind.IsAssetFundingExempt() {
		log.Tracef("Asset %v needs no funding for %v", guid, kind)

		f.sel.Allocations = append(f.sel.Allocations, alloc)

		return nil
	}

	record := f.lookup(guid)

	target := req.Total()
	if kind.IsOwnershipOperation() {
		target = btcunit.Amount{}
	}

	if kind.RequiresAuxiliaryFee() && record.AuxFees != nil {
		auxFee, err := record.AuxFees.Fee(req.Total())
		if err != nil {
			return fmt.Errorf("asset %v: %w", guid, err)
		}

		if auxFee.Sign() > 0 {
			log.Debugf("Asset %v pays auxiliary fee %v to %s", guid,
				auxFee, record.AuxFees.Address)

			f.addOutput(alloc, record.AuxFees.Address, auxFee, false)
			target = target.Add(auxFee)
		}
	}

	markers, balances := f.partition(guid)

	switch {
	case kind.IsOwnershipOperation():
		if len(markers) == 0 {
			return fmt.Errorf("asset %v: %w", guid,
				errNoOwnershipMarker)
		}
		f.sel.Inputs = append(f.sel.Inputs, markers[0])

	case f.mode == fundExact:
		idx := slices.IndexFunc(balances, func(u UTXO) bool {
			return u.Asset.Value.Equal(target)
		})
		if idx < 0 {
			return fmt.Errorf("asset %v target %v: %w", guid, target,
				errNoExactAssetMatch)
		}
		f.sel.Inputs = append(f.sel.Inputs, balances[idx])

	default:
		inAccum := btcunit.Amount{}
		for _, utxo := range balances {
			if inAccum.GreaterThanOrEqual(target) {
				break
			}

			inAccum = inAccum.Add(utxo.Asset.Value)
			f.sel.Inputs = append(f.sel.Inputs, utxo)
		}

		if inAccum.LessThan(target) {
			return fmt.Errorf("asset %v has %v of %v: %w", guid,
				inAccum, target, errInsufficientAsset)
		}

		if inAccum.GreaterThan(target) {
			f.addOutput(
				alloc, req.ChangeAddress, inAccum.Sub(target),
				true,
			)
		}
	}

	if record.RequireNotary {
		alloc.NotarySig = make([]byte, txsizes.NotarySignatureSize)
		f.sel.ExtraBytes = f.sel.ExtraBytes.Add(
			txsizes.NotarySignatureSize,
		)
	}

	f.sel.Allocations = append(f.sel.Allocations, alloc)

	return nil
}

// partition splits the candidates of an asset into zero valued ownership
// markers and positive balances. Balances are sorted by descending asset
// value, keeping the candidate order between equal values.
func (f *assetFunder) partition(guid asset.GUID) ([]UTXO, []UTXO) {
	var markers, balances []UTXO
	for _, utxo := range f.candidates {
		switch {
		case utxo.Asset.GUID != guid:
			continue

		case utxo.Asset.IsOwnershipMarker():
			markers = append(markers, utxo)

		default:
			balances = append(balances, utxo)
		}
	}

	slices.SortStableFunc(balances, func(a, b UTXO) int {
		return b.Asset.Value.Cmp(a.Asset.Value)
	})

	return markers, balances
}
