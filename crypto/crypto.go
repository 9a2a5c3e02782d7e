// Package crypto wraps the hashing and signature primitives used for
// participant identities, operation signing and coprocessor attestations.
package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"golang.org/x/crypto/sha3"

	"github.com/Hazem-dh/FHEarts/common"
)

// Sizes of serialized keys and signatures.
const (
	PrivateKeyLength = 32
	PubKeyLength     = schnorr.PubKeyBytesLen
	SignatureLength  = schnorr.SignatureSize
	DigestLength     = 32
)

var (
	errInvalidPrivKey = errors.New("invalid private key")
	errInvalidDigest  = errors.New("sign: digest must be 32 bytes")
)

// Keccak256 calculates and returns the Keccak256 hash of the input data.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Hash calculates and returns the Keccak256 hash of the input data,
// converting it to an internal Hash data structure.
func Keccak256Hash(data ...[]byte) (h common.Hash) {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	d.Sum(h[:0])
	return h
}

// GenerateKey creates a new secp256k1 private key.
func GenerateKey() (*btcec.PrivateKey, error) {
	return btcec.NewPrivateKey()
}

// ToKey creates a private key with the given 32 byte scalar.
func ToKey(d []byte) (*btcec.PrivateKey, error) {
	if len(d) != PrivateKeyLength {
		return nil, fmt.Errorf("invalid length, need %d bytes", PrivateKeyLength)
	}
	priv, _ := btcec.PrivKeyFromBytes(d)
	if priv.Key.IsZero() {
		return nil, errInvalidPrivKey
	}
	return priv, nil
}

// HexToKey parses a hex encoded secp256k1 private key.
func HexToKey(hexkey string) (*btcec.PrivateKey, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(hexkey, "0x"))
	if byteErr, ok := err.(hex.InvalidByteError); ok {
		return nil, fmt.Errorf("invalid hex character %q in private key", byte(byteErr))
	} else if err != nil {
		return nil, errors.New("invalid hex data for private key")
	}
	return ToKey(b)
}

// FromKey exports a private key into its 32 byte scalar form.
func FromKey(priv *btcec.PrivateKey) []byte {
	if priv == nil {
		return nil
	}
	return priv.Serialize()
}

// LoadKey loads a hex encoded private key from the given file.
func LoadKey(file string) (*btcec.PrivateKey, error) {
	fd, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	buf := make([]byte, 2*PrivateKeyLength)
	if _, err := io.ReadFull(fd, buf); err != nil {
		return nil, err
	}
	return HexToKey(string(buf))
}

// SaveKey saves a private key to the given file with restrictive permissions.
func SaveKey(file string, key *btcec.PrivateKey) error {
	k := hex.EncodeToString(FromKey(key))
	return os.WriteFile(file, []byte(k), 0600)
}

// FromPubkey serializes a public key in x-only form.
func FromPubkey(pub *btcec.PublicKey) []byte {
	if pub == nil {
		return nil
	}
	return schnorr.SerializePubKey(pub)
}

// UnmarshalPubkey parses an x-only public key.
func UnmarshalPubkey(pub []byte) (*btcec.PublicKey, error) {
	return schnorr.ParsePubKey(pub)
}

// PubkeyToAddress derives the participant address of a public key.
func PubkeyToAddress(p *btcec.PublicKey) common.Address {
	return common.BytesToAddress(Keccak256(schnorr.SerializePubKey(p))[12:])
}

// PubkeyBytesToAddress derives an address from a serialized x-only key.
func PubkeyBytesToAddress(pub []byte) (common.Address, error) {
	p, err := UnmarshalPubkey(pub)
	if err != nil {
		return common.Address{}, err
	}
	return PubkeyToAddress(p), nil
}

// Sign produces a BIP-340 schnorr signature over a 32 byte digest.
func Sign(digest []byte, priv *btcec.PrivateKey) ([]byte, error) {
	if len(digest) != DigestLength {
		return nil, errInvalidDigest
	}
	sig, err := schnorr.Sign(priv, digest)
	if err != nil {
		return nil, err
	}
	return sig.Serialize(), nil
}

// VerifySignature checks that sig is a valid signature of digest by pubkey.
func VerifySignature(pubkey, digest, sig []byte) bool {
	if len(digest) != DigestLength || len(sig) != SignatureLength {
		return false
	}
	pub, err := schnorr.ParsePubKey(pubkey)
	if err != nil {
		return false
	}
	s, err := schnorr.ParseSignature(sig)
	if err != nil {
		return false
	}
	return s.Verify(digest, pub)
}

// RandomBytes returns n bytes read from the system entropy source.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, err
	}
	return b, nil
}
