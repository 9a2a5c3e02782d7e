// Package fhe defines the boundary to the encrypted value layer: opaque typed
// ciphertext handles, the operations the engine evaluates over them, and the
// signed artefacts (input proofs, decryption requests and attestations) that
// cross the boundary.
package fhe

import (
	"fmt"

	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/common/hexutil"
)

// Type is the plaintext type of an encrypted value.
type Type uint8

const (
	TypeBool   Type = 0
	TypeUint8  Type = 2
	TypeUint64 Type = 5
)

// Bits returns the plaintext bit width of t.
func (t Type) Bits() uint {
	switch t {
	case TypeBool:
		return 1
	case TypeUint8:
		return 8
	case TypeUint64:
		return 64
	}
	return 0
}

// Valid reports whether t is a supported type.
func (t Type) Valid() bool { return t.Bits() != 0 }

func (t Type) String() string {
	switch t {
	case TypeBool:
		return "ebool"
	case TypeUint8:
		return "euint8"
	case TypeUint64:
		return "euint64"
	}
	return fmt.Sprintf("etype(%d)", uint8(t))
}

// HandleLength is the size of a ciphertext handle.
const HandleLength = 32

// HandleVersion is stamped into the last byte of every handle.
const HandleVersion = 0

// Handle is an opaque reference to a ciphertext held by the encrypted value
// layer. Byte 30 carries the plaintext type and byte 31 the handle version;
// the first 30 bytes are a digest identifying the ciphertext.
type Handle [HandleLength]byte

// NewHandle builds a handle of type t from the leading 30 bytes of digest.
func NewHandle(digest common.Hash, t Type) Handle {
	var h Handle
	copy(h[:30], digest[:30])
	h[30] = byte(t)
	h[31] = HandleVersion
	return h
}

// Type returns the plaintext type encoded in the handle.
func (h Handle) Type() Type { return Type(h[30]) }

// Version returns the handle format version.
func (h Handle) Version() uint8 { return h[31] }

// IsZero reports whether h is the unset handle.
func (h Handle) IsZero() bool { return h == Handle{} }

// Hash returns the handle as a storage word.
func (h Handle) Hash() common.Hash { return common.Hash(h) }

// HandleFromHash converts a storage word back into a handle.
func HandleFromHash(w common.Hash) Handle { return Handle(w) }

func (h Handle) Hex() string    { return hexutil.Encode(h[:]) }
func (h Handle) String() string { return h.Hex() }

// TerminalString implements log.TerminalStringer.
func (h Handle) TerminalString() string {
	return fmt.Sprintf("%x..%x", h[:3], h[27:30])
}

// MarshalText returns the hex representation of h.
func (h Handle) MarshalText() ([]byte, error) {
	return hexutil.Bytes(h[:]).MarshalText()
}

// UnmarshalText parses a handle in hex syntax.
func (h *Handle) UnmarshalText(input []byte) error {
	return hexutil.UnmarshalFixedText("Handle", input, h[:])
}
