// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselect

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/coinselect/pkg/btcunit"
	"github.com/btcsuite/coinselect/txsizes"
)

const (
	// DefaultMaxTxBytes is the default size bound of a sweep.
	DefaultMaxTxBytes btcunit.ByteSize = 99_000
)

var (
	// DefaultBlobWeight is the default factor applied to the size of
	// data attached out of band.
	DefaultBlobWeight = btcunit.NewRate(1, 100)

	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = errors.New("invalid config")
)

// Config holds the policy of a Selector.
type Config struct {
	// ChangeKind is the script class of coin change outputs.
	ChangeKind txsizes.OutputKind

	// AssetOutputKind is the script class of asset outputs. Their coin
	// value is the dust threshold of this kind.
	AssetOutputKind txsizes.OutputKind

	// MaxTxBytes bounds the estimated size of a sweep.
	MaxTxBytes btcunit.ByteSize

	// SweepPolicy decides when the accumulator sweeps.
	SweepPolicy SweepPolicy

	// BlobWeight scales the size of data attached out of band.
	BlobWeight btcunit.Rate
}

// DefaultConfig returns the default selection policy: legacy change
// outputs, bech32 asset outputs, a 99,000 byte sweep bound, majority sweep
// detection and blobs weighted at 1/100.
func DefaultConfig() Config {
	return Config{
		ChangeKind:      txsizes.Legacy,
		AssetOutputKind: txsizes.WitnessV0,
		MaxTxBytes:      DefaultMaxTxBytes,
		SweepPolicy:     SweepMajority,
		BlobWeight:      DefaultBlobWeight,
	}
}

// Validate checks the config for sanity.
func (c *Config) Validate() error {
	if !c.ChangeKind.IsValid() {
		return fmt.Errorf("%w: unknown change kind %v",
			ErrInvalidConfig, c.ChangeKind)
	}

	if !c.AssetOutputKind.IsValid() {
		return fmt.Errorf("%w: unknown asset output kind %v",
			ErrInvalidConfig, c.AssetOutputKind)
	}

	if c.MaxTxBytes == 0 || c.MaxTxBytes > blockchain.MaxBlockBaseSize {
		return fmt.Errorf("%w: max tx bytes %v outside (0, %d]",
			ErrInvalidConfig, c.MaxTxBytes,
			blockchain.MaxBlockBaseSize)
	}

	if c.SweepPolicy == nil {
		return fmt.Errorf("%w: missing sweep policy", ErrInvalidConfig)
	}

	return nil
}
