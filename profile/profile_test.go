package profile

import (
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/Hazem-dh/FHEarts/acl"
	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/core/state"
	"github.com/Hazem-dh/FHEarts/crypto"
	"github.com/Hazem-dh/FHEarts/fhe"
	"github.com/Hazem-dh/FHEarts/fhe/coprocessor"
	"github.com/Hazem-dh/FHEarts/matchdb/memorydb"
	"github.com/Hazem-dh/FHEarts/params"
	"github.com/Hazem-dh/FHEarts/registry"
)

var sampleValues = Values{1, 0, 5551234, 25, 7, 1, 0, 2, 3, 5}

func newCoprocessor(t *testing.T) *coprocessor.Coprocessor {
	t.Helper()
	key, _ := crypto.GenerateKey()
	cp, err := coprocessor.New(memorydb.New(), coprocessor.Config{Key: key, Target: params.EngineAddress})
	if err != nil {
		t.Fatalf("coprocessor: %v", err)
	}
	return cp
}

func submit(t *testing.T, cp *coprocessor.Coprocessor, owner common.Address, v Values) ([]fhe.Handle, *fhe.InputProof) {
	t.Helper()
	handles, proof, err := cp.EncryptInput(owner, v.Inputs())
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	return handles, proof
}

func TestVerifySubmission(t *testing.T) {
	cp := newCoprocessor(t)
	owner := common.HexToAddress("0xa1")
	handles, proof := submit(t, cp, owner, sampleValues)

	v, err := Verify(cp.Verifier(), owner, handles, proof)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if v.Get(PhoneDigits).Type() != fhe.TypeUint64 || v.Get(Age).Type() != fhe.TypeUint8 {
		t.Fatalf("unexpected field types")
	}
	if _, err := Verify(cp.Verifier(), common.HexToAddress("0xb0"), handles, proof); !errors.Is(err, fhe.ErrInvalidProof) {
		t.Fatalf("expected proof bound to owner, got %v", err)
	}
	if _, err := Verify(cp.Verifier(), owner, handles[:3], proof); !errors.Is(err, fhe.ErrInvalidProof) {
		t.Fatalf("expected short vector to fail, got %v", err)
	}
	swapped := append([]fhe.Handle(nil), handles...)
	swapped[PhoneDigits], swapped[Age] = swapped[Age], swapped[PhoneDigits]
	if _, err := Verify(cp.Verifier(), owner, swapped, proof); !errors.Is(err, fhe.ErrInvalidProof) {
		t.Fatalf("expected mistyped fields to fail, got %v", err)
	}
}

func TestRegisterAndReplace(t *testing.T) {
	cp := newCoprocessor(t)
	db := state.New(memorydb.New(), 1)
	owner := common.HexToAddress("0xa1")
	handles, proof := submit(t, cp, owner, sampleValues)
	v, _ := VectorFromHandles(handles)

	if _, err := Load(db, owner); !errors.Is(err, registry.ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
	if err := Register(db, owner, v, proof); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := Register(db, owner, v, proof); !errors.Is(err, registry.ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
	loaded, err := Load(db, owner)
	if err != nil || loaded != v {
		t.Fatalf("load mismatch: %v", err)
	}
	for _, h := range v {
		if !acl.IsAllowed(db, h, owner) {
			t.Fatalf("missing grant on %v", h)
		}
		// Each field at rest is readable by its owner only.
		for _, other := range []common.Address{params.EngineAddress, common.HexToAddress("0xb0")} {
			if acl.IsAllowed(db, h, other) {
				t.Fatalf("grant on %v leaked to %v", h, other)
			}
		}
	}

	newHandles, newProof := submit(t, cp, owner, sampleValues)
	nv, _ := VectorFromHandles(newHandles)
	old, err := Replace(db, owner, nv, newProof)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if old != v {
		t.Fatalf("replace returned wrong previous vector")
	}
	for i := range v {
		if acl.IsAllowed(db, v[i], owner) {
			t.Fatalf("stale grant on %s", Field(i))
		}
		if !acl.IsAllowed(db, nv[i], owner) {
			t.Fatalf("missing grant on new %s", Field(i))
		}
	}
	if _, err := Replace(db, common.HexToAddress("0xb0"), nv, newProof); !errors.Is(err, registry.ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
}

func TestOwnerCanDecryptOwnProfile(t *testing.T) {
	cp := newCoprocessor(t)
	db := state.New(memorydb.New(), 1)
	key, _ := crypto.GenerateKey()
	owner := crypto.PubkeyToAddress(key.PubKey())
	handles, proof := submit(t, cp, owner, sampleValues)
	v, _ := VectorFromHandles(handles)
	Register(db, owner, v, proof)

	got := decryptAll(t, cp, db, key, v.Contact())
	if got[0] != 1 || got[1] != 0 || got[2] != 5551234 {
		t.Fatalf("unexpected contact plaintexts %v", got)
	}
	stranger, _ := crypto.GenerateKey()
	req, _ := fhe.NewDecryptRequest(stranger, v.Get(Age))
	if _, err := cp.UserDecrypt(req, acl.NewView(db)); !errors.Is(err, fhe.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
}

func decryptAll(t *testing.T, cp *coprocessor.Coprocessor, db *state.StateDB, key *btcec.PrivateKey, hs []fhe.Handle) []uint64 {
	t.Helper()
	req, err := fhe.NewDecryptRequest(key, hs...)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	atts, err := cp.UserDecrypt(req, acl.NewView(db))
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	out := make([]uint64, len(atts))
	for i, a := range atts {
		out[i] = a.Value
	}
	return out
}

func TestParseField(t *testing.T) {
	f, err := ParseField("InterestedIn")
	if err != nil || f != InterestedIn {
		t.Fatalf("parse: %v %v", f, err)
	}
	if _, err := ParseField("height"); err == nil {
		t.Fatalf("expected unknown field error")
	}
}
