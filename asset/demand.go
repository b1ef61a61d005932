// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package asset

import (
	"encoding/json"
	"fmt"

	"github.com/btcsuite/coinselect/pkg/btcunit"
)

// Payment is a single requested asset output.
type Payment struct {
	// Address is the destination of the asset output.
	Address string `json:"address"`

	// Value is the asset amount to send.
	Value btcunit.Amount `json:"value"`
}

// Request is the demand for a single asset: where to send it and where any
// asset change goes.
type Request struct {
	// ChangeAddress receives asset change. A payment to this address is
	// treated as the change slot of the asset.
	ChangeAddress string `json:"changeAddress"`

	// Outputs are the requested payments in order.
	Outputs []Payment `json:"outputs"`
}

// Total returns the sum of all requested payment values.
func (r Request) Total() btcunit.Amount {
	total := btcunit.Amount{}
	for _, p := range r.Outputs {
		total = total.Add(p.Value)
	}

	return total
}

// Demand maps asset GUIDs to their requests while remembering insertion
// order. The order is observable: it determines the order in which assets
// are funded and therefore the output indices assigned to them.
type Demand struct {
	order   []GUID
	entries map[GUID]Request
}

// NewDemand creates an empty demand map.
func NewDemand() *Demand {
	return &Demand{
		entries: make(map[GUID]Request),
	}
}

// Set adds or replaces the request for a GUID. Replacing keeps the original
// position of the GUID.
func (d *Demand) Set(guid GUID, req Request) {
	if d.entries == nil {
		d.entries = make(map[GUID]Request)
	}

	if _, ok := d.entries[guid]; !ok {
		d.order = append(d.order, guid)
	}

	d.entries[guid] = req
}

// Get returns the request for a GUID.
func (d *Demand) Get(guid GUID) (Request, bool) {
	if d == nil {
		return Request{}, false
	}

	req, ok := d.entries[guid]

	return req, ok
}

// Len returns the number of assets in the demand.
func (d *Demand) Len() int {
	if d == nil {
		return 0
	}

	return len(d.order)
}

// GUIDs returns the GUIDs in insertion order.
func (d *Demand) GUIDs() []GUID {
	if d == nil {
		return nil
	}

	return append([]GUID(nil), d.order...)
}

// ForEach calls f for every GUID in insertion order and stops at the first
// error.
func (d *Demand) ForEach(f func(GUID, Request) error) error {
	if d == nil {
		return nil
	}

	for _, guid := range d.order {
		if err := f(guid, d.entries[guid]); err != nil {
			return err
		}
	}

	return nil
}

// demandEntry is the JSON form of one demand entry. Demand is encoded as an
// array so that the order survives a round trip.
type demandEntry struct {
	GUID GUID `json:"assetGuid"`
	Request
}

// MarshalJSON encodes the demand as an ordered array.
func (d *Demand) MarshalJSON() ([]byte, error) {
	entries := make([]demandEntry, 0, d.Len())
	_ = d.ForEach(func(guid GUID, req Request) error {
		entries = append(entries, demandEntry{GUID: guid, Request: req})
		return nil
	})

	return json.Marshal(entries)
}

// UnmarshalJSON decodes an ordered array of demand entries. Duplicate GUIDs
// are rejected.
func (d *Demand) UnmarshalJSON(data []byte) error {
	var entries []demandEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}

	*d = Demand{entries: make(map[GUID]Request, len(entries))}
	for _, e := range entries {
		if _, ok := d.entries[e.GUID]; ok {
			return fmt.Errorf("duplicate asset %v in demand", e.GUID)
		}

		d.Set(e.GUID, e.Request)
	}

	return nil
}
