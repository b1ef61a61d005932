// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package asset defines the asset side of coin selection: asset identifiers,
// per-transaction allocation records, the ordered demand map that drives
// asset funding, transaction kinds and the read-only asset registry.
package asset

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/btcsuite/coinselect/pkg/btcunit"
)

var (
	// ErrInvalidGUID is returned when an asset GUID cannot be parsed.
	ErrInvalidGUID = errors.New("invalid asset guid")
)

// GUID is the unique identifier of an asset layered on top of the native
// coin.
type GUID uint64

// ParseGUID parses a base-10 asset GUID.
func ParseGUID(s string) (GUID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidGUID, s)
	}

	return GUID(v), nil
}

// String returns the base-10 representation of the GUID.
func (g GUID) String() string {
	return strconv.FormatUint(uint64(g), 10)
}

// MarshalText implements encoding.TextMarshaler so GUIDs can be used as
// JSON object keys and values.
func (g GUID) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *GUID) UnmarshalText(text []byte) error {
	parsed, err := ParseGUID(string(text))
	if err != nil {
		return err
	}

	*g = parsed

	return nil
}

// Info tags an output with the asset it carries and the asset amount. A zero
// Value denotes an ownership marker rather than a spendable balance.
type Info struct {
	// GUID is the asset carried by the output.
	GUID GUID `json:"assetGuid"`

	// Value is the asset amount carried by the output.
	Value btcunit.Amount `json:"value"`
}

// IsOwnershipMarker returns true if the info describes a zero-valued
// ownership marker.
func (i *Info) IsOwnershipMarker() bool {
	return i.Value.IsZero()
}

// Copy returns a copy of the info.
func (i *Info) Copy() *Info {
	if i == nil {
		return nil
	}

	c := *i

	return &c
}

// AllocationValue is a single entry of an allocation: the index of the
// transaction output and the asset amount committed to it.
type AllocationValue struct {
	// Index is the position of the output in the transaction.
	Index int `json:"n"`

	// Value is the asset amount committed to the output.
	Value btcunit.Amount `json:"value"`
}

// Allocation records which outputs of a transaction, and with which
// amounts, make up the on-chain commitment of an asset. Entries are only
// ever appended while funding.
type Allocation struct {
	// GUID is the asset this allocation belongs to.
	GUID GUID `json:"assetGuid"`

	// Values are the committed outputs in the order they were added.
	Values []AllocationValue `json:"values"`

	// NotarySig is either nil or a zero-filled placeholder of
	// NotarySignatureSize bytes reserved for a notary signature.
	NotarySig []byte `json:"notarySig,omitempty"`
}

// Total returns the sum of all committed values.
func (a *Allocation) Total() btcunit.Amount {
	total := btcunit.Amount{}
	for _, v := range a.Values {
		total = total.Add(v.Value)
	}

	return total
}

// Copy returns a deep copy of the allocation.
func (a *Allocation) Copy() *Allocation {
	c := &Allocation{
		GUID:   a.GUID,
		Values: append([]AllocationValue(nil), a.Values...),
	}
	if a.NotarySig != nil {
		c.NotarySig = append([]byte(nil), a.NotarySig...)
	}

	return c
}

// CopyAllocations returns a deep copy of a list of allocations.
func CopyAllocations(allocs []*Allocation) []*Allocation {
	if allocs == nil {
		return nil
	}

	copied := make([]*Allocation, 0, len(allocs))
	for _, a := range allocs {
		copied = append(copied, a.Copy())
	}

	return copied
}

// FindAllocation returns the allocation for the given GUID, or nil.
func FindAllocation(allocs []*Allocation, guid GUID) *Allocation {
	for _, a := range allocs {
		if a.GUID == guid {
			return a
		}
	}

	return nil
}
