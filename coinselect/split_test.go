package coinselect

import (
	"testing"

	"github.com/btcsuite/coinselect/pkg/btcunit"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"
)

// share returns a legacy output without a value.
func share(address string) Output {
	return Output{Address: address}
}

// countUnspecified returns the number of outputs without a value.
func countUnspecified(outputs []Output) int {
	var n int
	for i := range outputs {
		if outputs[i].Value.IsNone() {
			n++
		}
	}

	return n
}

// TestSplit checks splitting UTXOs into equal shares.
func TestSplit(t *testing.T) {
	t.Parallel()

	s := newTestSelector(t)

	testCases := []struct {
		name           string
		utxos          []UTXO
		outputs        []Output
		expectedValues []string
		expectedFee    string
		expectedErr    ErrorKind
	}{
		{
			name: "two inputs into two shares",
			utxos: []UTXO{
				coinUTXO(1, 10_000), coinUTXO(2, 20_000),
			},
			outputs:        []Output{share("a"), share("b")},
			expectedValues: []string{"13135", "13135"},
			expectedFee:    "3730",
		},
		{
			// The odd unit left over by the division goes to the
			// fee.
			name:           "uneven remainder",
			utxos:          []UTXO{coinUTXO(1, 10_001)},
			outputs:        []Output{share("a"), share("b")},
			expectedValues: []string{"3870", "3870"},
			expectedFee:    "2261",
		},
		{
			name:  "fixed output keeps its value",
			utxos: []UTXO{coinUTXO(1, 20_000)},
			outputs: []Output{
				payTo("a", 5000), share("b"),
			},
			expectedValues: []string{"5000", "12740"},
			expectedFee:    "2260",
		},
		{
			name:        "share is dust",
			utxos:       []UTXO{coinUTXO(1, 5200)},
			outputs:     []Output{share("a"), share("b")},
			expectedErr: OutputTooSmall,
		},
		{
			name:        "not enough for one share each",
			utxos:       []UTXO{coinUTXO(1, 5000)},
			outputs:     []Output{share("a"), share("b")},
			expectedErr: InsufficientFunds,
		},
		{
			name:        "fixed outputs exceed the inputs",
			utxos:       []UTXO{coinUTXO(1, 5000)},
			outputs:     []Output{payTo("a", 5000), share("b")},
			expectedErr: InsufficientFunds,
		},
		{
			name:        "no outputs",
			utxos:       []UTXO{coinUTXO(1, 5000)},
			expectedErr: InsufficientFunds,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			unspecified := countUnspecified(tc.outputs)

			sel, err := s.Split(tc.utxos, tc.outputs, rate(10))
			if tc.expectedErr != 0 {
				requireSelectionErr(t, err, tc.expectedErr)
				require.Nil(t, sel)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.expectedValues, values(sel.Outputs))
			require.Equal(t, tc.expectedFee, sel.Fee.String())
			require.Len(t, sel.Inputs, len(tc.utxos))
			requireConserved(t, sel, rate(10), 0)

			// The shares are filled on copies.
			require.Equal(t, unspecified, countUnspecified(tc.outputs))
			require.Zero(t, countUnspecified(sel.Outputs))
		})
	}
}

// TestSplitInvalid checks that validation errors of Split carry the fee.
func TestSplitInvalid(t *testing.T) {
	t.Parallel()

	s := newTestSelector(t)

	negative := btcunit.NewAmount(1).Sub(btcunit.NewAmount(2))
	bad := Output{Address: "a", Value: fn.Some(negative)}

	_, err := s.Split([]UTXO{coinUTXO(1, 10_000)}, []Output{bad}, rate(10))
	selErr := requireSelectionErr(t, err, InvalidAmount)
	require.Equal(t, "1920", selErr.Fee.String())

	invalidRate := btcunit.NewSatPerByteFromAmount(negative)
	_, err = s.Split([]UTXO{coinUTXO(1, 10_000)}, []Output{share("a")},
		invalidRate)
	requireSelectionErr(t, err, InvalidFeeRate)
}
