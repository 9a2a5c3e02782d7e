// Copyright 2014 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package keystore keeps participant keys in passphrase-encrypted files.
package keystore

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/google/uuid"
	"github.com/tyler-smith/go-bip39"

	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/crypto"
)

const (
	version = 1

	// DefaultMnemonicBits is the entropy of generated mnemonics.
	DefaultMnemonicBits = 128
)

// mnemonicDomain separates participant keys derived from a BIP-39 seed from
// any other use of the same seed.
var mnemonicDomain = []byte("fhearts-participant-key")

type Key struct {
	Id uuid.UUID // Version 4 "random" for unique id not derived from key data
	// to simplify lookups we also store the address
	Address common.Address
	// we only store privkey as pubkey/address can be derived from it
	// privkey in this struct is always in plaintext.
	PrivateKey *btcec.PrivateKey
}

type plainKeyJSON struct {
	Address    string `json:"address"`
	PrivateKey string `json:"privatekey"`
	Id         string `json:"id"`
	Version    int    `json:"version"`
}

func (k *Key) MarshalJSON() (j []byte, err error) {
	jStruct := plainKeyJSON{
		hex.EncodeToString(k.Address[:]),
		hex.EncodeToString(crypto.FromKey(k.PrivateKey)),
		k.Id.String(),
		version,
	}
	return json.Marshal(jStruct)
}

func (k *Key) UnmarshalJSON(j []byte) (err error) {
	keyJSON := new(plainKeyJSON)
	if err := json.Unmarshal(j, &keyJSON); err != nil {
		return err
	}
	k.Id, err = uuid.Parse(keyJSON.Id)
	if err != nil {
		return err
	}
	privkey, err := crypto.HexToKey(keyJSON.PrivateKey)
	if err != nil {
		return err
	}
	addr, err := hex.DecodeString(keyJSON.Address)
	if err != nil {
		return err
	}
	k.PrivateKey = privkey
	k.Address = common.BytesToAddress(addr)
	if derived := crypto.PubkeyToAddress(privkey.PubKey()); derived != k.Address {
		return fmt.Errorf("key address mismatch: have %v, derived %v", k.Address, derived)
	}
	return nil
}

func newKeyFromPrivate(priv *btcec.PrivateKey) (*Key, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("could not create random uuid: %w", err)
	}
	return &Key{
		Id:         id,
		Address:    crypto.PubkeyToAddress(priv.PubKey()),
		PrivateKey: priv,
	}, nil
}

// NewKey generates a participant key from rand.
func NewKey(rand io.Reader) (*Key, error) {
	var seed [crypto.PrivateKeyLength]byte
	for {
		if _, err := io.ReadFull(rand, seed[:]); err != nil {
			return nil, err
		}
		if priv, err := crypto.ToKey(seed[:]); err == nil {
			return newKeyFromPrivate(priv)
		}
	}
}

// NewKeyFromPrivate wraps an existing private key.
func NewKeyFromPrivate(priv *btcec.PrivateKey) (*Key, error) {
	return newKeyFromPrivate(priv)
}

// GenerateMnemonic returns a fresh BIP-39 mnemonic with the given entropy.
func GenerateMnemonic(bits int) (string, error) {
	switch bits {
	case 128, 160, 192, 224, 256:
	default:
		return "", fmt.Errorf("invalid mnemonic bits %d (allowed: 128,160,192,224,256)", bits)
	}
	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// NewKeyFromMnemonic deterministically derives a participant key from a
// BIP-39 mnemonic and optional passphrase.
func NewKeyFromMnemonic(mnemonic, passphrase string) (*Key, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	d := crypto.Keccak256(mnemonicDomain, seed)
	for counter := byte(0); ; counter++ {
		if priv, err := crypto.ToKey(d); err == nil {
			return newKeyFromPrivate(priv)
		}
		d = crypto.Keccak256(mnemonicDomain, seed, []byte{counter})
	}
}
