package crypto

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

const testPrivHex = "289c2857d4598e37fb9647507e47a309d6133539bf21a8b9cb6df88fd5232032"

func TestKeccak256(t *testing.T) {
	want, _ := hex.DecodeString("c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")
	if got := Keccak256(nil); !bytes.Equal(got, want) {
		t.Fatalf("keccak(empty) mismatch: have %x want %x", got, want)
	}
	if Keccak256Hash([]byte("a"), []byte("b")) != Keccak256Hash([]byte("ab")) {
		t.Fatalf("multi-part hash differs from concatenated hash")
	}
}

func TestSignAndVerify(t *testing.T) {
	key, err := HexToKey(testPrivHex)
	if err != nil {
		t.Fatalf("failed to parse key: %v", err)
	}
	digest := Keccak256([]byte("fhearts"))
	sig, err := Sign(digest, key)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if len(sig) != SignatureLength {
		t.Fatalf("unexpected signature length %d", len(sig))
	}
	pub := FromPubkey(key.PubKey())
	if !VerifySignature(pub, digest, sig) {
		t.Fatalf("signature verification failed")
	}
	sig[0] ^= 0xff
	if VerifySignature(pub, digest, sig) {
		t.Fatalf("mutated signature unexpectedly verified")
	}
	if _, err := Sign(digest[:31], key); err == nil {
		t.Fatalf("expected short digest to be rejected")
	}
}

func TestPubkeyToAddress(t *testing.T) {
	key, err := HexToKey(testPrivHex)
	if err != nil {
		t.Fatalf("failed to parse key: %v", err)
	}
	addr := PubkeyToAddress(key.PubKey())
	again, err := PubkeyBytesToAddress(FromPubkey(key.PubKey()))
	if err != nil {
		t.Fatalf("failed to parse pubkey: %v", err)
	}
	if addr != again {
		t.Fatalf("address mismatch: %v != %v", addr, again)
	}
	if addr.IsZero() {
		t.Fatalf("derived zero address")
	}
}

func TestInvalidKeys(t *testing.T) {
	if _, err := HexToKey("0x00"); err == nil {
		t.Fatalf("expected short key error")
	}
	if _, err := ToKey(make([]byte, 32)); err == nil {
		t.Fatalf("expected zero key error")
	}
	if _, err := HexToKey("zz9c2857d4598e37fb9647507e47a309d6133539bf21a8b9cb6df88fd5232032"); err == nil {
		t.Fatalf("expected hex error")
	}
}

func TestSaveLoadKey(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	file := filepath.Join(t.TempDir(), "key")
	if err := SaveKey(file, key); err != nil {
		t.Fatalf("save: %v", err)
	}
	if fi, err := os.Stat(file); err != nil || fi.Mode().Perm() != 0600 {
		t.Fatalf("unexpected file mode: %v %v", fi, err)
	}
	loaded, err := LoadKey(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !bytes.Equal(FromKey(loaded), FromKey(key)) {
		t.Fatalf("loaded key mismatch")
	}
}
