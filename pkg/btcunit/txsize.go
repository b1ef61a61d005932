// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package btcunit

import (
	"fmt"
	"math"
)

// MaxByteSize is the largest representable ByteSize. Additions saturate at
// this value instead of wrapping around.
const MaxByteSize = ByteSize(math.MaxUint64)

// ByteSize expresses the estimated serialized size of a transaction, or of a
// part of one, in bytes.
type ByteSize uint64

// Add returns b + other, saturating at MaxByteSize.
func (b ByteSize) Add(other ByteSize) ByteSize {
	if other > MaxByteSize-b {
		return MaxByteSize
	}

	return b + other
}

// Sub returns b - other, floored at zero.
func (b ByteSize) Sub(other ByteSize) ByteSize {
	if other > b {
		return 0
	}

	return b - other
}

// Mul returns b * n, saturating at MaxByteSize.
func (b ByteSize) Mul(n uint64) ByteSize {
	if n != 0 && uint64(b) > math.MaxUint64/n {
		return MaxByteSize
	}

	return b * ByteSize(n)
}

// String returns the string representation of the byte size.
func (b ByteSize) String() string {
	return fmt.Sprintf("%d bytes", uint64(b))
}
