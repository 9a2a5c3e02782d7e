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

package keystore

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/crypto"
)

const (
	keyHeaderKDF = "scrypt"

	// StandardScryptN is the N parameter of Scrypt encryption algorithm, using 256MB
	// memory and taking approximately 1s CPU time on a modern processor.
	StandardScryptN = 1 << 18

	// StandardScryptP is the P parameter of Scrypt encryption algorithm, using 256MB
	// memory and taking approximately 1s CPU time on a modern processor.
	StandardScryptP = 1

	// LightScryptN is the N parameter of Scrypt encryption algorithm, using 4MB
	// memory and taking approximately 100ms CPU time on a modern processor.
	LightScryptN = 1 << 12

	// LightScryptP is the P parameter of Scrypt encryption algorithm, using 4MB
	// memory and taking approximately 100ms CPU time on a modern processor.
	LightScryptP = 6

	scryptR     = 8
	scryptDKLen = chacha20poly1305.KeySize

	cipherName = "xchacha20-poly1305"
)

// ErrDecrypt is returned for a wrong passphrase or a corrupted key file.
var ErrDecrypt = errors.New("could not decrypt key with given password")

type encryptedKeyJSON struct {
	Address string     `json:"address"`
	Crypto  CryptoJSON `json:"crypto"`
	Id      string     `json:"id"`
	Version int        `json:"version"`
}

type CryptoJSON struct {
	Cipher       string                 `json:"cipher"`
	CipherText   string                 `json:"ciphertext"`
	CipherParams cipherparamsJSON       `json:"cipherparams"`
	KDF          string                 `json:"kdf"`
	KDFParams    map[string]interface{} `json:"kdfparams"`
}

type cipherparamsJSON struct {
	Nonce string `json:"nonce"`
}

// EncryptDataV1 encrypts data with a key derived from auth. ad is
// authenticated but not encrypted.
func EncryptDataV1(data, auth, ad []byte, scryptN, scryptP int) (CryptoJSON, error) {
	salt, err := crypto.RandomBytes(32)
	if err != nil {
		return CryptoJSON{}, err
	}
	derivedKey, err := scrypt.Key(auth, salt, scryptN, scryptR, scryptP, scryptDKLen)
	if err != nil {
		return CryptoJSON{}, err
	}
	aead, err := chacha20poly1305.NewX(derivedKey)
	if err != nil {
		return CryptoJSON{}, err
	}
	nonce, err := crypto.RandomBytes(aead.NonceSize())
	if err != nil {
		return CryptoJSON{}, err
	}
	cipherText := aead.Seal(nil, nonce, data, ad)

	scryptParamsJSON := make(map[string]interface{}, 5)
	scryptParamsJSON["n"] = scryptN
	scryptParamsJSON["r"] = scryptR
	scryptParamsJSON["p"] = scryptP
	scryptParamsJSON["dklen"] = scryptDKLen
	scryptParamsJSON["salt"] = hex.EncodeToString(salt)
	return CryptoJSON{
		Cipher:       cipherName,
		CipherText:   hex.EncodeToString(cipherText),
		CipherParams: cipherparamsJSON{Nonce: hex.EncodeToString(nonce)},
		KDF:          keyHeaderKDF,
		KDFParams:    scryptParamsJSON,
	}, nil
}

// EncryptKey encrypts a key using the specified scrypt parameters into a json
// blob that can be decrypted later on.
func EncryptKey(key *Key, auth string, scryptN, scryptP int) ([]byte, error) {
	cryptoStruct, err := EncryptDataV1(crypto.FromKey(key.PrivateKey), []byte(auth), key.Address[:], scryptN, scryptP)
	if err != nil {
		return nil, err
	}
	return json.Marshal(encryptedKeyJSON{
		hex.EncodeToString(key.Address[:]),
		cryptoStruct,
		key.Id.String(),
		version,
	})
}

// DecryptKey decrypts a key from a json blob, returning the private key itself.
func DecryptKey(keyjson []byte, auth string) (*Key, error) {
	var k encryptedKeyJSON
	if err := json.Unmarshal(keyjson, &k); err != nil {
		return nil, err
	}
	if k.Version != version {
		return nil, fmt.Errorf("version not supported: %v", k.Version)
	}
	addr, err := hex.DecodeString(k.Address)
	if err != nil {
		return nil, err
	}
	keyBytes, err := DecryptDataV1(k.Crypto, auth, addr)
	if err != nil {
		return nil, err
	}
	priv, err := crypto.ToKey(keyBytes)
	if err != nil {
		return nil, err
	}
	key := &Key{PrivateKey: priv, Address: crypto.PubkeyToAddress(priv.PubKey())}
	if key.Address != common.BytesToAddress(addr) {
		return nil, ErrDecrypt
	}
	if err := key.Id.UnmarshalText([]byte(k.Id)); err != nil {
		return nil, err
	}
	return key, nil
}

// DecryptDataV1 reverses EncryptDataV1.
func DecryptDataV1(cryptoJson CryptoJSON, auth string, ad []byte) ([]byte, error) {
	if cryptoJson.Cipher != cipherName {
		return nil, fmt.Errorf("cipher not supported: %v", cryptoJson.Cipher)
	}
	if cryptoJson.KDF != keyHeaderKDF {
		return nil, fmt.Errorf("unsupported KDF: %s", cryptoJson.KDF)
	}
	nonce, err := hex.DecodeString(cryptoJson.CipherParams.Nonce)
	if err != nil {
		return nil, err
	}
	cipherText, err := hex.DecodeString(cryptoJson.CipherText)
	if err != nil {
		return nil, err
	}
	derivedKey, err := getKDFKey(cryptoJson, auth)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(derivedKey)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, ErrDecrypt
	}
	plainText, err := aead.Open(nil, nonce, cipherText, ad)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plainText, nil
}

func getKDFKey(cryptoJSON CryptoJSON, auth string) ([]byte, error) {
	salt, err := hex.DecodeString(ensureString(cryptoJSON.KDFParams["salt"]))
	if err != nil {
		return nil, err
	}
	dkLen := ensureInt(cryptoJSON.KDFParams["dklen"])
	n := ensureInt(cryptoJSON.KDFParams["n"])
	r := ensureInt(cryptoJSON.KDFParams["r"])
	p := ensureInt(cryptoJSON.KDFParams["p"])
	return scrypt.Key([]byte(auth), salt, n, r, p, dkLen)
}

// ensureInt accepts both freshly built params and decoded JSON numbers.
func ensureInt(x interface{}) int {
	switch v := x.(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func ensureString(x interface{}) string {
	s, _ := x.(string)
	return s
}

// StoreKey encrypts key with auth and writes it to file, refusing to
// overwrite an existing file.
func StoreKey(file string, key *Key, auth string, scryptN, scryptP int) error {
	keyjson, err := EncryptKey(key, auth, scryptN, scryptP)
	if err != nil {
		return err
	}
	if _, err := os.Stat(file); err == nil {
		return fmt.Errorf("keyfile already exists at %s", file)
	}
	if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
		return err
	}
	return os.WriteFile(file, keyjson, 0600)
}

// LoadKey reads and decrypts the key stored in file.
func LoadKey(file, auth string) (*Key, error) {
	keyjson, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return DecryptKey(keyjson, auth)
}
