// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coinselect

// SweepPolicy decides whether a set of outputs asks for a sweep. A sweep
// spends every candidate, bounded by the maximum transaction size, and lets
// the fee absorbing outputs pay for the fee instead of stopping at the first
// candidate that covers the outputs.
type SweepPolicy interface {
	// IsSweep returns true if the outputs should be funded as a sweep.
	IsSweep(outputs []Output) bool
}

// SweepPolicyFunc adapts a plain function to the SweepPolicy interface.
type SweepPolicyFunc func(outputs []Output) bool

// IsSweep calls f(outputs).
func (f SweepPolicyFunc) IsSweep(outputs []Output) bool {
	return f(outputs)
}

var (
	// SweepMajority treats the selection as a sweep when all or a strict
	// majority of the outputs absorb the fee.
	SweepMajority SweepPolicy = SweepPolicyFunc(func(outputs []Output) bool {
		flagged := countSubtractFee(outputs)
		return flagged > 0 && 2*flagged > len(outputs)
	})

	// SweepAllFlagged only sweeps when every output absorbs the fee.
	SweepAllFlagged SweepPolicy = SweepPolicyFunc(func(outputs []Output) bool {
		flagged := countSubtractFee(outputs)
		return flagged > 0 && flagged == len(outputs)
	})

	// SweepDisabled never sweeps.
	SweepDisabled SweepPolicy = SweepPolicyFunc(func([]Output) bool {
		return false
	})
)

// countSubtractFee returns the number of fee absorbing outputs.
func countSubtractFee(outputs []Output) int {
	var n int
	for i := range outputs {
		if outputs[i].SubtractFee {
			n++
		}
	}

	return n
}
