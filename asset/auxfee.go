// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package asset

import (
	"errors"
	"fmt"

	"github.com/btcsuite/coinselect/pkg/btcunit"
)

// ErrInvalidSchedule is returned when an auxiliary fee schedule is
// malformed.
var ErrInvalidSchedule = errors.New("invalid auxiliary fee schedule")

// maxTierRate is the largest rate a tier may charge (100%).
var maxTierRate = btcunit.NewRate(1, 1)

// FeeTier is one bracket of a progressive fee schedule. The bracket covers
// amounts in [Bound, next tier's Bound); the last bracket is unbounded.
type FeeTier struct {
	// Bound is the inclusive lower bound of the bracket.
	Bound btcunit.Amount `json:"bound"`

	// Rate is the fraction charged on the part of the amount inside the
	// bracket.
	Rate btcunit.Rate `json:"rate"`
}

// AuxFeeSchedule is the auxiliary fee an asset charges on allocation sends,
// paid in the asset itself to Address.
type AuxFeeSchedule struct {
	// Address receives the auxiliary fee output.
	Address string `json:"address"`

	// Tiers are the brackets in ascending order of Bound. The first
	// bound must be zero.
	Tiers []FeeTier `json:"tiers"`
}

// Validate checks that the tiers start at zero, ascend strictly and carry
// rates within [0, 1].
func (s *AuxFeeSchedule) Validate() error {
	if len(s.Tiers) == 0 {
		return fmt.Errorf("%w: no tiers", ErrInvalidSchedule)
	}

	if !s.Tiers[0].Bound.IsZero() {
		return fmt.Errorf("%w: first bound must be zero, got %v",
			ErrInvalidSchedule, s.Tiers[0].Bound)
	}

	for i, tier := range s.Tiers {
		if tier.Rate.Cmp(maxTierRate) > 0 {
			return fmt.Errorf("%w: tier %d rate %v exceeds 1",
				ErrInvalidSchedule, i, tier.Rate)
		}

		if i == 0 {
			continue
		}

		if tier.Bound.LessThanOrEqual(s.Tiers[i-1].Bound) {
			return fmt.Errorf("%w: tier %d bound %v not above %v",
				ErrInvalidSchedule, i, tier.Bound,
				s.Tiers[i-1].Bound)
		}
	}

	return nil
}

// Fee computes the progressive fee on the given total. Every bracket below
// the one containing total contributes (nextBound - bound) * rate, and the
// containing bracket contributes (total - bound) * rate. Each contribution
// is truncated to a whole unit.
func (s *AuxFeeSchedule) Fee(total btcunit.Amount) (btcunit.Amount, error) {
	if err := s.Validate(); err != nil {
		return btcunit.Amount{}, err
	}

	fee := btcunit.Amount{}
	for i, tier := range s.Tiers {
		last := i == len(s.Tiers)-1

		// The amount lies inside this bracket.
		if last || total.LessThan(s.Tiers[i+1].Bound) {
			portion := total.Sub(tier.Bound)
			fee = fee.Add(tier.Rate.ApplyTo(portion))

			break
		}

		width := s.Tiers[i+1].Bound.Sub(tier.Bound)
		fee = fee.Add(tier.Rate.ApplyTo(width))
	}

	return fee, nil
}
