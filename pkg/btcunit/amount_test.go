package btcunit

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/require"
)

// TestParseAmount checks that only non-negative base-10 integers are
// accepted.
func TestParseAmount(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		input     string
		expected  string
		expectErr error
	}{
		{
			name:     "plain integer",
			input:    "102001",
			expected: "102001",
		},
		{
			name:     "beyond 64 bits",
			input:    "340282366920938463463374607431768211456",
			expected: "340282366920938463463374607431768211456",
		},
		{
			name:     "surrounding whitespace",
			input:    " 7 ",
			expected: "7",
		},
		{
			name:      "negative",
			input:     "-1",
			expectErr: ErrNegativeAmount,
		},
		{
			name:      "decimal",
			input:     "1.1",
			expectErr: ErrInvalidAmount,
		},
		{
			name:      "empty",
			input:     "",
			expectErr: ErrInvalidAmount,
		},
		{
			name:      "not a number",
			input:     "NaN",
			expectErr: ErrInvalidAmount,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			amt, err := ParseAmount(tc.input)
			if tc.expectErr != nil {
				require.ErrorIs(t, err, tc.expectErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.expected, amt.String())
		})
	}
}

// TestAmountArithmetic checks that arithmetic never mutates its operands.
func TestAmountArithmetic(t *testing.T) {
	t.Parallel()

	a := NewAmount(106_001)
	b := NewAmount(100_000)

	require.Equal(t, "206001", a.Add(b).String())
	require.Equal(t, "6001", a.Sub(b).String())
	require.Equal(t, "-6001", b.Sub(a).String())
	require.True(t, b.Sub(a).IsNegative())
	require.Equal(t, "1060010", a.MulUint64(10).String())
	require.Equal(t, "35333", a.DivUint64(3).String())
	require.True(t, a.DivUint64(0).IsZero())
	require.Equal(t, "10600100000", a.Mul(NewAmount(100_000)).String())

	// The operands must be untouched.
	require.Equal(t, "106001", a.String())
	require.Equal(t, "100000", b.String())

	require.True(t, b.LessThan(a))
	require.True(t, a.GreaterThanOrEqual(a))
	require.True(t, MinAmount(a, b).Equal(b))
	require.Equal(t, "206001", SumAmounts(a, b).String())
	require.True(t, Amount{}.IsZero())
	require.True(t, SumAmounts().IsZero())

	// Copies handed out must not alias the internal value.
	bi := a.BigInt()
	bi.SetInt64(1)
	require.Equal(t, "106001", a.String())
	require.Equal(t, "5", NewAmountFromBig(big.NewInt(5)).String())
	require.True(t, NewAmountFromBig(nil).IsZero())
}

// TestAmountJSON checks that amounts round-trip as decimal strings and that
// bare JSON integers are accepted.
func TestAmountJSON(t *testing.T) {
	t.Parallel()

	encoded, err := json.Marshal(NewAmount(4851))
	require.NoError(t, err)
	require.Equal(t, `"4851"`, string(encoded))

	var decoded Amount
	require.NoError(t, json.Unmarshal([]byte(`1150`), &decoded))
	require.Equal(t, "1150", decoded.String())

	require.ErrorIs(t, json.Unmarshal([]byte(`"-3"`), &decoded),
		ErrNegativeAmount)
}

// TestAmountToBTC checks the conversion into btcutil.Amount.
func TestAmountToBTC(t *testing.T) {
	t.Parallel()

	btc, err := NewAmount(btcutil.SatoshiPerBitcoin).ToBTC()
	require.NoError(t, err)
	require.Equal(t, "1 BTC", btc.String())

	huge, err := ParseAmount("9223372036854775808")
	require.NoError(t, err)

	_, err = huge.ToBTC()
	require.ErrorIs(t, err, ErrAmountOverflow)

	require.ErrorIs(t, NewAmount(1).Sub(NewAmount(2)).Validate(),
		ErrNegativeAmount)
}
