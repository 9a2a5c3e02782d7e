package coprocessor

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/Hazem-dh/FHEarts/crypto"
	"github.com/Hazem-dh/FHEarts/fhe"
	"github.com/Hazem-dh/FHEarts/matchdb"
)

// ciphertextPrefix + handle -> nonce || sealed plaintext
var ciphertextPrefix = []byte("c")

// sealer keeps ciphertext plaintexts sealed at rest. Every value is bound to
// its handle through the AEAD additional data, so a sealed blob cannot be
// replayed under another handle.
type sealer struct {
	db   matchdb.KeyValueStore
	aead cipherAEAD
}

type cipherAEAD interface {
	NonceSize() int
	Overhead() int
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
}

func newSealer(db matchdb.KeyValueStore, key []byte) (*sealer, error) {
	aead, err := chacha20poly1305.NewX(crypto.Keccak256([]byte("fhearts-seal-v1"), key))
	if err != nil {
		return nil, err
	}
	return &sealer{db: db, aead: aead}, nil
}

func storeKey(h fhe.Handle) []byte {
	return append(append([]byte{}, ciphertextPrefix...), h[:]...)
}

func (s *sealer) has(h fhe.Handle) (bool, error) {
	return s.db.Has(storeKey(h))
}

func (s *sealer) put(h fhe.Handle, value uint64) error {
	nonce, err := crypto.RandomBytes(s.aead.NonceSize())
	if err != nil {
		return err
	}
	var plain [8]byte
	binary.BigEndian.PutUint64(plain[:], value)
	blob := s.aead.Seal(nonce, nonce, plain[:], h[:])
	return s.db.Put(storeKey(h), blob)
}

func (s *sealer) get(h fhe.Handle) (uint64, error) {
	blob, err := s.db.Get(storeKey(h))
	if errors.Is(err, matchdb.ErrNotFound) {
		return 0, fmt.Errorf("%w: %v", fhe.ErrUnknownHandle, h)
	}
	if err != nil {
		return 0, err
	}
	ns := s.aead.NonceSize()
	if len(blob) < ns+s.aead.Overhead() {
		return 0, fmt.Errorf("coprocessor: truncated ciphertext for %v", h)
	}
	plain, err := s.aead.Open(nil, blob[:ns], blob[ns:], h[:])
	if err != nil {
		return 0, fmt.Errorf("coprocessor: ciphertext for %v failed authentication", h)
	}
	if len(plain) != 8 {
		return 0, fmt.Errorf("coprocessor: malformed plaintext for %v", h)
	}
	return binary.BigEndian.Uint64(plain), nil
}
