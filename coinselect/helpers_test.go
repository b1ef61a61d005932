package coinselect

import (
	"encoding/binary"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/coinselect/asset"
	"github.com/btcsuite/coinselect/pkg/btcunit"
	"github.com/btcsuite/coinselect/txsizes"
	"github.com/davecgh/go-spew/spew"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// amt is a shorthand for btcunit.NewAmount.
func amt(v uint64) btcunit.Amount {
	return btcunit.NewAmount(v)
}

// rate is a shorthand for btcunit.NewSatPerByte.
func rate(v uint64) btcunit.SatPerByte {
	return btcunit.NewSatPerByte(v)
}

// testOutPoint returns a unique outpoint for the given id.
func testOutPoint(id uint32) wire.OutPoint {
	var seed [4]byte
	binary.BigEndian.PutUint32(seed[:], id)

	return wire.OutPoint{
		Hash:  chainhash.DoubleHashH(seed[:]),
		Index: id,
	}
}

// coinUTXO returns a legacy coin only UTXO.
func coinUTXO(id uint32, value uint64) UTXO {
	return UTXO{
		OutPoint: testOutPoint(id),
		Value:    amt(value),
	}
}

// assetUTXO returns a legacy UTXO carrying an asset.
func assetUTXO(id uint32, value uint64, guid asset.GUID,
	assetValue uint64) UTXO {

	u := coinUTXO(id, value)
	u.Asset = &asset.Info{GUID: guid, Value: amt(assetValue)}

	return u
}

// payTo returns a legacy output of the given value.
func payTo(address string, value uint64) Output {
	return Output{
		Address: address,
		Value:   fn.Some(amt(value)),
	}
}

// sweepTo returns a fee absorbing legacy output of the given value.
func sweepTo(address string, value uint64) Output {
	o := payTo(address, value)
	o.SubtractFee = true

	return o
}

// assetOut returns a bech32 asset output carrying the given coin value.
func assetOut(guid asset.GUID, assetValue, value uint64) Output {
	return Output{
		Address: "asset",
		Value:   fn.Some(amt(value)),
		Kind:    txsizes.WitnessV0,
		Asset:   &asset.Info{GUID: guid, Value: amt(assetValue)},
	}
}

// newTestSelector returns a selector with the default config.
func newTestSelector(t *testing.T) *Selector {
	t.Helper()

	s, err := NewSelector(DefaultConfig())
	require.NoError(t, err)

	return s
}

// values returns the coin values of the outputs as strings.
func values(outputs []Output) []string {
	vals := make([]string, 0, len(outputs))
	for i := range outputs {
		vals = append(vals, outputs[i].amount().String())
	}

	return vals
}

// requireConserved asserts sum(inputs) == sum(outputs) + fee and that the
// fee covers the size of the transaction.
func requireConserved(t *testing.T, sel *Selection, r btcunit.SatPerByte,
	data btcunit.ByteSize) {

	t.Helper()

	in := sumInputs(sel.Inputs)
	out := sumOutputs(sel.Outputs)
	require.True(t, in.Equal(out.Add(sel.Fee)),
		"value not conserved: %v", spew.Sdump(sel))

	required := r.FeeForSize(transactionBytes(sel.Inputs, sel.Outputs).Add(
		data,
	))
	require.True(t, sel.Fee.GreaterThanOrEqual(required),
		"fee %v below required %v: %v", sel.Fee, required,
		spew.Sdump(sel))
}

// requireSelectionErr asserts the error is a SelectionError of the given
// kind and returns it.
func requireSelectionErr(t *testing.T, err error,
	kind ErrorKind) *SelectionError {

	t.Helper()

	require.ErrorIs(t, err, kind.sentinel())

	var selErr *SelectionError
	require.ErrorAs(t, err, &selErr)
	require.Equal(t, kind, selErr.Kind)

	return selErr
}

// mockRegistry is an asset.Registry backed by testify's mock.
type mockRegistry struct {
	mock.Mock
}

// LookupAsset returns the mocked record.
func (m *mockRegistry) LookupAsset(
	guid asset.GUID) fn.Option[asset.RegistryRecord] {

	args := m.Called(guid)
	return args.Get(0).(fn.Option[asset.RegistryRecord])
}

// A compile time check to ensure mockRegistry implements asset.Registry.
var _ asset.Registry = (*mockRegistry)(nil)
