package btcunit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFeeForSize checks that the fee for a given size is the exact product
// of the rate and the size.
func TestFeeForSize(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		rate     SatPerByte
		size     ByteSize
		expected Amount
	}{
		{
			name:     "zero rate",
			rate:     ZeroSatPerByte,
			size:     226,
			expected: NewAmount(0),
		},
		{
			name:     "10 sat/byte",
			rate:     NewSatPerByte(10),
			size:     192,
			expected: NewAmount(1920),
		},
		{
			name:     "zero size",
			rate:     NewSatPerByte(527),
			size:     0,
			expected: NewAmount(0),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.True(t, tc.expected.Equal(tc.rate.FeeForSize(tc.size)))
		})
	}

	// A rate beyond 64 bits must not overflow.
	huge, err := ParseSatPerByte("18446744073709551616")
	require.NoError(t, err)
	require.Equal(t, "36893488147419103232",
		huge.FeeForSize(2).String())
}

// TestSatPerByteComparisons checks the comparison helpers and validation.
func TestSatPerByteComparisons(t *testing.T) {
	t.Parallel()

	low := NewSatPerByte(1)
	high := NewSatPerByte(2)

	require.True(t, low.LessThan(high))
	require.True(t, high.GreaterThan(low))
	require.True(t, low.Equal(NewSatPerByte(1)))
	require.NoError(t, low.Validate())
	require.Equal(t, "2 sat/byte", high.String())

	negative := NewSatPerByteFromAmount(NewAmount(1).Sub(NewAmount(2)))
	require.ErrorIs(t, negative.Validate(), ErrNegativeAmount)

	_, err := ParseSatPerByte("-5")
	require.ErrorIs(t, err, ErrNegativeAmount)

	_, err = ParseSatPerByte("1.5")
	require.ErrorIs(t, err, ErrInvalidAmount)
}

// TestRateApplyTo makes sure fractional rates are applied exactly and
// truncated towards zero.
func TestRateApplyTo(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		rate     string
		amount   uint64
		expected uint64
	}{
		{
			name:     "one percent",
			rate:     "0.01",
			amount:   1_000_000_000,
			expected: 10_000_000,
		},
		{
			name:     "fraction notation",
			rate:     "1/250",
			amount:   24_000_000_000,
			expected: 96_000_000,
		},
		{
			name:     "seven basis points of a thousandth",
			rate:     "0.00007",
			amount:   100_001,
			expected: 7,
		},
		{
			name:     "zero rate",
			rate:     "0",
			amount:   12345,
			expected: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r, err := ParseRate(tc.rate)
			require.NoError(t, err)

			got := r.ApplyTo(NewAmount(tc.amount))
			require.Equal(t, NewAmount(tc.expected).String(),
				got.String())
		})
	}
}

// TestRateParsing checks rate parsing, size scaling and JSON encoding.
func TestRateParsing(t *testing.T) {
	t.Parallel()

	_, err := ParseRate("-0.1")
	require.ErrorIs(t, err, ErrInvalidRate)

	_, err = ParseRate("abc")
	require.ErrorIs(t, err, ErrInvalidRate)

	r := NewRate(1, 100)
	require.Equal(t, "1/100", r.String())
	require.Equal(t, ByteSize(12), r.ApplyToSize(1250))
	require.True(t, NewRate(5, 0).IsZero())
	require.Zero(t, r.Cmp(NewRate(2, 200)))

	encoded, err := json.Marshal(r)
	require.NoError(t, err)
	require.JSONEq(t, `"1/100"`, string(encoded))

	var decoded Rate
	require.NoError(t, json.Unmarshal([]byte(`"0.004"`), &decoded))
	require.Zero(t, decoded.Cmp(NewRate(1, 250)))
}
