package coinselect

import (
	"testing"

	"github.com/btcsuite/coinselect/asset"
	"github.com/btcsuite/coinselect/pkg/btcunit"
	"github.com/btcsuite/coinselect/txsizes"
	"github.com/stretchr/testify/require"
)

// TestFinalizeSweep checks the fee sweep over fee absorbing outputs.
func TestFinalizeSweep(t *testing.T) {
	t.Parallel()

	s := newTestSelector(t)

	testCases := []struct {
		name           string
		inputs         []UTXO
		outputs        []Output
		rate           uint64
		expectedValues []string
		expectedFee    uint64
		expectedRemove []int
		expectedAbsorb []int
		expectedErr    ErrorKind
		remainingFee   uint64
		removedOutputs int
	}{
		{
			name:           "single output pays the fee",
			inputs:         []UTXO{coinUTXO(1, 60_000)},
			outputs:        []Output{sweepTo("a", 60_000)},
			rate:           10,
			expectedValues: []string{"58080"},
			expectedFee:    1920,
			expectedAbsorb: []int{0},
		},
		{
			name:           "surplus pays first",
			inputs:         []UTXO{coinUTXO(1, 61_000)},
			outputs:        []Output{sweepTo("a", 60_000)},
			rate:           10,
			expectedValues: []string{"59080"},
			expectedFee:    1920,
			expectedAbsorb: []int{0},
		},
		{
			// The first output drops to dust and is removed, its
			// value is credited and the second output pays the
			// rest.
			name:   "dust output is removed",
			inputs: []UTXO{coinUTXO(1, 51_600)},
			outputs: []Output{
				sweepTo("a", 1600), sweepTo("b", 50_000),
			},
			rate:           10,
			expectedValues: []string{"49340"},
			expectedFee:    2260,
			expectedRemove: []int{0},
			expectedAbsorb: []int{0},
		},
		{
			name:   "remaining fee not covered",
			inputs: []UTXO{coinUTXO(1, 12_000)},
			outputs: []Output{
				payTo("a", 10_000), sweepTo("b", 2000),
			},
			rate:           10,
			expectedErr:    SubtractFeeFailed,
			remainingFee:   260,
			removedOutputs: 1,
		},
		{
			name:           "every output removed",
			inputs:         []UTXO{coinUTXO(1, 2000)},
			outputs:        []Output{sweepTo("a", 2000)},
			rate:           10,
			expectedErr:    SubtractFeeFailed,
			removedOutputs: 1,
		},
		{
			name:        "absorption cannot create value",
			inputs:      []UTXO{coinUTXO(1, 1000)},
			outputs:     []Output{sweepTo("a", 5000)},
			rate:        100,
			expectedErr: InsufficientFunds,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := rate(tc.rate)
			sel, err := s.finalize(tc.inputs, tc.outputs, r, 0, 38)
			if tc.expectedErr != 0 {
				selErr := requireSelectionErr(
					t, err, tc.expectedErr,
				)
				require.Equal(t, amt(tc.remainingFee).String(),
					selErr.RemainingFee.String())
				require.Equal(t, tc.removedOutputs,
					selErr.RemovedOutputs)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.expectedValues, values(sel.Outputs))
			require.Equal(t, amt(tc.expectedFee).String(),
				sel.Fee.String())
			require.Equal(t, tc.expectedRemove, sel.removed)
			require.Equal(t, tc.expectedAbsorb, sel.absorbers)
			requireConserved(t, sel, r, 0)

			for _, o := range sel.Outputs {
				require.False(t, o.SubtractFee)
				require.True(t, o.amount().GreaterThan(
					dustThreshold(o.Kind, r),
				))
			}

			// The caller's outputs keep their flags.
			require.True(t, tc.outputs[len(tc.outputs)-1].SubtractFee)
		})
	}
}

// TestFinalizeChange checks the change decision and the data bytes.
func TestFinalizeChange(t *testing.T) {
	t.Parallel()

	s := newTestSelector(t)

	// 106,001 at 5 sat/byte leaves change of 4,851.
	sel, err := s.finalize(
		[]UTXO{coinUTXO(1, 106_001)}, []Output{payTo("a", 100_000)},
		rate(5), 0, 38,
	)
	require.NoError(t, err)
	require.Equal(t, []string{"100000", "4851"}, values(sel.Outputs))
	require.True(t, sel.Outputs[1].IsChange)
	require.Equal(t, txsizes.Legacy, sel.Outputs[1].Kind)

	// Data bytes are paid for: 100 extra bytes at 5 sat/byte.
	sel, err = s.finalize(
		[]UTXO{coinUTXO(1, 106_001)}, []Output{payTo("a", 100_000)},
		rate(5), 100, 38,
	)
	require.NoError(t, err)
	require.Equal(t, []string{"100000", "4351"}, values(sel.Outputs))
	requireConserved(t, sel, rate(5), 100)

	// The inputs cover the outputs but not the fee.
	_, err = s.finalize(
		[]UTXO{coinUTXO(1, 100_500)}, []Output{payTo("a", 100_000)},
		rate(5), 0, 38,
	)
	selErr := requireSelectionErr(t, err, InsufficientFunds)
	require.Equal(t, "960", selErr.RequiredFee.String())
	require.Equal(t, "460", selErr.Shortfall.String())

	// A segwit change kind changes the change output and its reserve.
	cfg := DefaultConfig()
	cfg.ChangeKind = txsizes.WitnessV0
	segwit, err := NewSelector(cfg)
	require.NoError(t, err)

	side := segwit.sideBytes(&CoinRequest{})
	require.Equal(t, btcunit.ByteSize(35), side.reserve)

	sel, err = segwit.finalize(
		[]UTXO{coinUTXO(1, 106_001)}, []Output{payTo("a", 100_000)},
		rate(5), 0, side.reserve,
	)
	require.NoError(t, err)
	require.Equal(t, txsizes.WitnessV0, sel.Outputs[1].Kind)
	require.Equal(t, "4866", sel.Outputs[1].amount().String())

	// At a zero fee rate a zero fee covers the transaction, and any
	// remainder is returned as change.
	sel, err = s.finalize(
		[]UTXO{coinUTXO(1, 1000)}, []Output{payTo("a", 1000)},
		rate(0), 0, 38,
	)
	require.NoError(t, err)
	require.Equal(t, []string{"1000"}, values(sel.Outputs))
	require.True(t, sel.Fee.IsZero())

	sel, err = s.finalize(
		[]UTXO{coinUTXO(1, 1500)}, []Output{payTo("a", 1000)},
		rate(0), 0, 38,
	)
	require.NoError(t, err)
	require.Equal(t, []string{"1000", "500"}, values(sel.Outputs))
	require.True(t, sel.Fee.IsZero())
}

// TestRemapAllocations checks index shifting after output removal.
func TestRemapAllocations(t *testing.T) {
	t.Parallel()

	allocs := []*asset.Allocation{{
		GUID: 1,
		Values: []asset.AllocationValue{
			{Index: 1, Value: amt(5)},
			{Index: 4, Value: amt(6)},
		},
	}}

	require.NoError(t, remapAllocations(allocs, []int{0, 2, 3}))
	require.Equal(t, 0, allocs[0].Values[0].Index)
	require.Equal(t, 1, allocs[0].Values[1].Index)

	err := remapAllocations(allocs, []int{1})
	require.ErrorIs(t, err, ErrAllocationMismatch)
}

// TestVerifyAllocations checks the bookkeeping cross check between
// allocations and outputs.
func TestVerifyAllocations(t *testing.T) {
	t.Parallel()

	outputs := []Output{
		assetOut(1, 10, 680), payTo("a", 5000), assetOut(2, 0, 680),
	}
	good := []*asset.Allocation{
		{GUID: 1, Values: []asset.AllocationValue{{Index: 0, Value: amt(10)}}},
		{GUID: 2, Values: []asset.AllocationValue{{Index: 2, Value: amt(0)}}},
	}
	require.NoError(t, verifyAllocations(good, outputs))

	testCases := []struct {
		name   string
		allocs []*asset.Allocation
	}{
		{
			name: "out of range",
			allocs: []*asset.Allocation{
				{GUID: 1, Values: []asset.AllocationValue{{Index: 9}}},
			},
		},
		{
			name: "coin output",
			allocs: []*asset.Allocation{
				{GUID: 1, Values: []asset.AllocationValue{{Index: 1}}},
			},
		},
		{
			name: "value mismatch",
			allocs: []*asset.Allocation{
				{GUID: 1, Values: []asset.AllocationValue{
					{Index: 0, Value: amt(11)},
				}},
				good[1],
			},
		},
		{
			name:   "untracked asset output",
			allocs: good[:1],
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := verifyAllocations(tc.allocs, outputs)
			require.ErrorIs(t, err, ErrAllocationMismatch)
		})
	}
}

// TestSweepPolicies checks the built in sweep policies.
func TestSweepPolicies(t *testing.T) {
	t.Parallel()

	f, n := sweepTo("a", 1), payTo("b", 1)

	testCases := []struct {
		name     string
		outputs  []Output
		majority bool
		all      bool
	}{
		{name: "none"},
		{name: "single flagged", outputs: []Output{f}, majority: true, all: true},
		{name: "half flagged", outputs: []Output{f, n}},
		{name: "majority flagged", outputs: []Output{f, f, n}, majority: true},
		{name: "all flagged", outputs: []Output{f, f}, majority: true, all: true},
		{name: "unflagged", outputs: []Output{n}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.majority, SweepMajority.IsSweep(tc.outputs))
			require.Equal(t, tc.all, SweepAllFlagged.IsSweep(tc.outputs))
			require.False(t, SweepDisabled.IsSweep(tc.outputs))
		})
	}
}

// TestConfigValidate checks config validation.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	testCases := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero max bytes", func(c *Config) { c.MaxTxBytes = 0 }},
		{"max bytes above block", func(c *Config) {
			c.MaxTxBytes = 1_000_001
		}},
		{"no sweep policy", func(c *Config) { c.SweepPolicy = nil }},
		{"bad change kind", func(c *Config) {
			c.ChangeKind = txsizes.OutputKind(9)
		}},
		{"bad asset kind", func(c *Config) {
			c.AssetOutputKind = txsizes.OutputKind(9)
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tc.modify(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

			_, err := NewSelector(cfg)
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
