package coinselect

import (
	"testing"

	"github.com/btcsuite/coinselect/pkg/btcunit"
	"github.com/stretchr/testify/require"
)

// TestBreak checks breaking UTXOs into copies of an output.
func TestBreak(t *testing.T) {
	t.Parallel()

	s := newTestSelector(t)

	sel, err := s.Break(
		[]UTXO{coinUTXO(1, 100_000)}, sweepTo("a", 10_000), rate(10),
	)
	require.NoError(t, err)
	require.Len(t, sel.Outputs, 10)

	for _, o := range sel.Outputs[:9] {
		require.Equal(t, "10000", o.amount().String())
		require.False(t, o.SubtractFee)
		require.False(t, o.IsChange)
	}
	require.True(t, sel.Outputs[9].IsChange)
	require.Equal(t, "4980", sel.Outputs[9].amount().String())
	require.Equal(t, "5020", sel.Fee.String())
	requireConserved(t, sel, rate(10), 0)
}

// TestBreakFailures checks the failure modes of Break.
func TestBreakFailures(t *testing.T) {
	t.Parallel()

	s := newTestSelector(t)

	_, err := s.Break(
		[]UTXO{coinUTXO(1, 5000)}, payTo("a", 10_000), rate(10),
	)
	selErr := requireSelectionErr(t, err, InsufficientFunds)
	require.Equal(t, "6920", selErr.Shortfall.String())

	_, err = s.Break(
		[]UTXO{coinUTXO(1, 5000)}, payTo("a", 0), rate(10),
	)
	requireSelectionErr(t, err, InvalidAmount)

	_, err = s.Break(nil, payTo("a", 1000), rate(10))
	requireSelectionErr(t, err, InvalidAmount)

	_, err = s.Break(
		[]UTXO{coinUTXO(1, 5000)}, Output{Address: "a"}, rate(10),
	)
	requireSelectionErr(t, err, InvalidAmount)

	negative := btcunit.NewAmount(0).Sub(btcunit.NewAmount(1))
	_, err = s.Break(
		[]UTXO{coinUTXO(1, 5000)}, payTo("a", 1000),
		btcunit.NewSatPerByteFromAmount(negative),
	)
	requireSelectionErr(t, err, InvalidFeeRate)
}

// TestBreakMaxTxBytes checks that Break stops at the size bound.
func TestBreakMaxTxBytes(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.MaxTxBytes = 300

	s, err := NewSelector(cfg)
	require.NoError(t, err)

	// 11 + 147 + 4 * 34 = 294 bytes, a fifth copy would not fit.
	sel, err := s.Break(
		[]UTXO{coinUTXO(1, 100_000)}, payTo("a", 10_000), rate(10),
	)
	require.NoError(t, err)

	var copies int
	for _, o := range sel.Outputs {
		if !o.IsChange {
			copies++
		}
	}
	require.Equal(t, 4, copies)
	requireConserved(t, sel, rate(10), 0)

	cfg.MaxTxBytes = 150
	s, err = NewSelector(cfg)
	require.NoError(t, err)

	_, err = s.Break(
		[]UTXO{coinUTXO(1, 100_000)}, payTo("a", 10_000), rate(10),
	)
	requireSelectionErr(t, err, InsufficientFunds)
}
