package fhe

import "errors"

var (
	// ErrPermissionDenied is returned when a principal without a decrypt grant
	// asks for the plaintext of a ciphertext.
	ErrPermissionDenied = errors.New("permission denied")

	ErrInvalidProof         = errors.New("invalid input proof")
	ErrInvalidAttestation   = errors.New("invalid decryption attestation")
	ErrInvalidAuthorization = errors.New("invalid decryption authorization")
	ErrUnknownHandle        = errors.New("unknown ciphertext handle")
	ErrTypeMismatch         = errors.New("ciphertext type mismatch")
	ErrUnsupportedType      = errors.New("unsupported ciphertext type")
)
