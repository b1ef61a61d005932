// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package asset

import (
	"github.com/lightningnetwork/lnd/fn/v2"
)

// RegistryRecord is the read-only metadata of an asset that influences
// funding.
type RegistryRecord struct {
	// AuxFees is the optional auxiliary fee schedule charged on
	// allocation sends.
	AuxFees *AuxFeeSchedule `json:"auxFees,omitempty"`

	// RequireNotary is set when the asset requires a notary signature on
	// every allocation.
	RequireNotary bool `json:"requireNotary,omitempty"`
}

// Registry looks up asset metadata by GUID.
type Registry interface {
	// LookupAsset returns the record of the given asset, if known.
	LookupAsset(guid GUID) fn.Option[RegistryRecord]
}

// StaticRegistry is a Registry backed by an in-memory map.
type StaticRegistry map[GUID]RegistryRecord

// LookupAsset returns the record of the given asset, if known.
func (r StaticRegistry) LookupAsset(guid GUID) fn.Option[RegistryRecord] {
	record, ok := r[guid]
	if !ok {
		return fn.None[RegistryRecord]()
	}

	return fn.Some(record)
}

// A compile time check to ensure StaticRegistry implements Registry.
var _ Registry = (StaticRegistry)(nil)
