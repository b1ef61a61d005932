// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package asset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTxKind is returned when a transaction kind string is not
// recognized.
var ErrUnknownTxKind = errors.New("unknown transaction kind")

// TxKind classifies the transaction being funded. It decides whether asset
// outputs must be backed by asset inputs, whether ownership markers or
// balances are consumed, and whether auxiliary fees apply.
type TxKind uint8

const (
	// TxKindCoinSend is a plain native coin transfer.
	TxKindCoinSend TxKind = iota

	// TxKindAssetActivate creates a new asset and its ownership marker.
	TxKindAssetActivate

	// TxKindAssetUpdate updates asset metadata by spending the ownership
	// marker.
	TxKindAssetUpdate

	// TxKindAssetSend transfers the ownership marker of an asset.
	TxKindAssetSend

	// TxKindAllocationSend transfers asset balances.
	TxKindAllocationSend

	// TxKindAllocationMint mints an allocation backed by a proof from
	// another chain.
	TxKindAllocationMint

	// TxKindAllocationBurnToCoin burns an asset balance back into native
	// coin.
	TxKindAllocationBurnToCoin

	// TxKindCoinBurnToAllocation burns native coin into an asset
	// allocation.
	TxKindCoinBurnToAllocation
)

// txKindNames maps kinds to their canonical names.
var txKindNames = map[TxKind]string{
	TxKindCoinSend:             "COIN_SEND",
	TxKindAssetActivate:        "ASSET_ACTIVATE",
	TxKindAssetUpdate:          "ASSET_UPDATE",
	TxKindAssetSend:            "ASSET_SEND",
	TxKindAllocationSend:       "ALLOCATION_SEND",
	TxKindAllocationMint:       "ALLOCATION_MINT",
	TxKindAllocationBurnToCoin: "ALLOCATION_BURN_TO_COIN",
	TxKindCoinBurnToAllocation: "COIN_BURN_TO_ALLOCATION",
}

// String returns the canonical name of the kind.
func (k TxKind) String() string {
	if name, ok := txKindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("TxKind(%d)", uint8(k))
}

// ParseTxKind parses a canonical kind name, case-insensitively.
func ParseTxKind(s string) (TxKind, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for kind, name := range txKindNames {
		if name == want {
			return kind, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownTxKind, s)
}

// MarshalText implements encoding.TextMarshaler.
func (k TxKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *TxKind) UnmarshalText(text []byte) error {
	kind, err := ParseTxKind(string(text))
	if err != nil {
		return err
	}

	*k = kind

	return nil
}

// IsAssetFundingExempt returns true for kinds whose asset outputs are
// created without matching asset inputs: activation, mint and burning coin
// into an allocation.
func (k TxKind) IsAssetFundingExempt() bool {
	switch k {
	case TxKindAssetActivate, TxKindAllocationMint,
		TxKindCoinBurnToAllocation:

		return true

	default:
		return false
	}
}

// IsOwnershipOperation returns true for asset management kinds. These are
// funded by a single zero-valued ownership marker, never by a balance.
func (k TxKind) IsOwnershipOperation() bool {
	switch k {
	case TxKindAssetActivate, TxKindAssetUpdate, TxKindAssetSend:
		return true

	default:
		return false
	}
}

// RequiresAuxiliaryFee returns true for kinds that pay the auxiliary fee
// schedule of an asset, if it has one.
func (k TxKind) RequiresAuxiliaryFee() bool {
	return k == TxKindAllocationSend
}
