package common

import (
	"encoding/json"
	"testing"
)

func TestAddressCropsFromLeft(t *testing.T) {
	a := BytesToAddress(make([]byte, 32))
	if !a.IsZero() {
		t.Fatalf("expected zero address, got %v", a)
	}
	b := BytesToAddress([]byte{0x01, 0x02})
	if b[AddressLength-1] != 0x02 || b[AddressLength-2] != 0x01 {
		t.Fatalf("unexpected right alignment: %x", b)
	}
}

func TestHexToAddress(t *testing.T) {
	a := HexToAddress("0x0000000000000000000000000000000046484531")
	if a.Hex() != "0x0000000000000000000000000000000046484531" {
		t.Fatalf("hex mismatch: %s", a.Hex())
	}
	if !IsHexAddress("0x0000000000000000000000000000000046484531") {
		t.Fatalf("expected valid hex address")
	}
	if IsHexAddress("0x1234") {
		t.Fatalf("short address accepted")
	}
}

func TestHashJSON(t *testing.T) {
	h := HexToHash("0xabcdef")
	enc, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var dec Hash
	if err := json.Unmarshal(enc, &dec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if dec != h {
		t.Fatalf("json mismatch: have %v want %v", dec, h)
	}
	if err := json.Unmarshal([]byte(`"0x1234"`), &dec); err == nil {
		t.Fatalf("expected length error")
	}
}
