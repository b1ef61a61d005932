package btcunit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestByteSizeArithmetic checks that byte size arithmetic saturates instead
// of wrapping around.
func TestByteSizeArithmetic(t *testing.T) {
	t.Parallel()

	require.Equal(t, ByteSize(192), ByteSize(45).Add(147))
	require.Equal(t, MaxByteSize, MaxByteSize.Add(1))
	require.Equal(t, ByteSize(0), ByteSize(10).Sub(11))
	require.Equal(t, ByteSize(96), ByteSize(32).Mul(3))
	require.Equal(t, MaxByteSize, (MaxByteSize / 2).Mul(3))
}

// TestByteSizeStringer tests the stringer method of the byte size type.
func TestByteSizeStringer(t *testing.T) {
	t.Parallel()

	require.Equal(t, "226 bytes", ByteSize(226).String())
}
