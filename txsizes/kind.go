// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txsizes

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownOutputKind is returned when an output kind string is not
// recognized.
var ErrUnknownOutputKind = errors.New("unknown output kind")

// OutputKind is the address/script class of an output. It determines the
// estimated size of the output itself and of the input that later spends
// it.
type OutputKind uint8

const (
	// Legacy is a pay-to-pubkey-hash output. This is the zero value and
	// the fallback for unclassified outputs.
	Legacy OutputKind = iota

	// ScriptHash is a pay-to-script-hash output wrapping a witness
	// program.
	ScriptHash

	// WitnessV0 is a native segwit v0 (bech32) pay-to-witness-pubkey-hash
	// output.
	WitnessV0
)

// String returns the canonical name of the output kind.
func (k OutputKind) String() string {
	switch k {
	case Legacy:
		return "LEGACY"

	case ScriptHash:
		return "P2SH"

	case WitnessV0:
		return "BECH32"

	default:
		return fmt.Sprintf("OutputKind(%d)", uint8(k))
	}
}

// IsValid returns true if the kind is one of the known output kinds.
func (k OutputKind) IsValid() bool {
	return k <= WitnessV0
}

// ParseOutputKind parses the canonical name of an output kind. The match is
// case-insensitive and the empty string maps to Legacy.
func ParseOutputKind(s string) (OutputKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "LEGACY", "P2PKH":
		return Legacy, nil

	case "P2SH", "SCRIPTHASH":
		return ScriptHash, nil

	case "BECH32", "P2WPKH", "SEGWIT":
		return WitnessV0, nil

	default:
		return Legacy, fmt.Errorf("%w: %q", ErrUnknownOutputKind, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k OutputKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *OutputKind) UnmarshalText(text []byte) error {
	kind, err := ParseOutputKind(string(text))
	if err != nil {
		return err
	}

	*k = kind

	return nil
}
