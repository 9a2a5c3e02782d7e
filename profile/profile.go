// Package profile is the store of encrypted attribute vectors. Each stored
// handle is granted to its owner and to the engine, which evaluates the
// matching circuits over it; nobody else can decrypt it until the consent
// protocol extends a grant.
package profile

import (
	"errors"
	"fmt"

	"github.com/Hazem-dh/FHEarts/acl"
	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/core/vm"
	"github.com/Hazem-dh/FHEarts/crypto"
	"github.com/Hazem-dh/FHEarts/fhe"
	"github.com/Hazem-dh/FHEarts/log"
	"github.com/Hazem-dh/FHEarts/params"
	"github.com/Hazem-dh/FHEarts/registry"
)

var errFieldCount = errors.New("wrong number of profile handles")

// Vector is the encrypted attribute vector of a participant, indexed by Field.
type Vector [NumFields]fhe.Handle

// Get returns the handle of f.
func (v *Vector) Get(f Field) fhe.Handle { return v[f] }

// Handles returns the handles as a slice in field order.
func (v *Vector) Handles() []fhe.Handle {
	return append([]fhe.Handle(nil), v[:]...)
}

// Contact returns the handles of the contact fields.
func (v *Vector) Contact() []fhe.Handle {
	out := make([]fhe.Handle, len(ContactFields))
	for i, f := range ContactFields {
		out[i] = v[f]
	}
	return out
}

// VectorFromHandles checks that handles form a well-typed vector.
func VectorFromHandles(handles []fhe.Handle) (Vector, error) {
	var v Vector
	if len(handles) != NumFields {
		return v, fmt.Errorf("%w: %v: have %d, want %d", fhe.ErrInvalidProof, errFieldCount, len(handles), NumFields)
	}
	for i, h := range handles {
		if want := Field(i).Type(); h.Type() != want {
			return v, fmt.Errorf("%w: %s is %v, want %v", fhe.ErrInvalidProof, Field(i), h.Type(), want)
		}
		v[i] = h
	}
	return v, nil
}

// Verify authenticates a submission by owner and returns its vector.
func Verify(verifier fhe.InputVerifier, owner common.Address, handles []fhe.Handle, proof *fhe.InputProof) (Vector, error) {
	v, err := VectorFromHandles(handles)
	if err != nil {
		return v, err
	}
	if err := verifier.VerifyInput(proof, owner, handles); err != nil {
		return v, err
	}
	return v, nil
}

// fieldSlot hashes (addr[20B] || 0x00 || "field" || index).
func fieldSlot(addr common.Address, f Field) common.Hash {
	key := make([]byte, 0, 27)
	key = append(key, addr.Bytes()...)
	key = append(key, 0x00)
	key = append(key, "field"...)
	key = append(key, byte(f))
	return common.BytesToHash(crypto.Keccak256(key))
}

func proofSlot(addr common.Address) common.Hash {
	return common.BytesToHash(crypto.Keccak256(addr.Bytes(), []byte{0x00}, []byte("proof")))
}

// Exists reports whether owner has a stored profile.
func Exists(db vm.StateDB, owner common.Address) bool {
	return !db.GetState(params.ProfileAddress, proofSlot(owner)).IsZero()
}

// Load returns owner's vector.
func Load(db vm.StateDB, owner common.Address) (Vector, error) {
	var v Vector
	if !Exists(db, owner) {
		return v, registry.ErrNotRegistered
	}
	for i := range v {
		v[i] = fhe.HandleFromHash(db.GetState(params.ProfileAddress, fieldSlot(owner, Field(i))))
	}
	return v, nil
}

// Register stores owner's first vector.
func Register(db vm.StateDB, owner common.Address, v Vector, proof *fhe.InputProof) error {
	if Exists(db, owner) {
		return registry.ErrAlreadyRegistered
	}
	if proof == nil {
		return fhe.ErrInvalidProof
	}
	store(db, owner, v, proof)
	log.Debug("Stored profile", "owner", owner)
	return nil
}

// Replace overwrites owner's vector and returns the previous one. The owner's
// grants on the previous handles are revoked.
func Replace(db vm.StateDB, owner common.Address, v Vector, proof *fhe.InputProof) (Vector, error) {
	old, err := Load(db, owner)
	if err != nil {
		return old, err
	}
	if proof == nil {
		return old, fhe.ErrInvalidProof
	}
	acl.RevokeAll(db, owner, old[:]...)
	store(db, owner, v, proof)
	log.Debug("Replaced profile", "owner", owner)
	return old, nil
}

func store(db vm.StateDB, owner common.Address, v Vector, proof *fhe.InputProof) {
	for i, h := range v {
		db.SetState(params.ProfileAddress, fieldSlot(owner, Field(i)), h.Hash())
	}
	// The digest of the registration proof doubles as the existence marker.
	db.SetState(params.ProfileAddress, proofSlot(owner), crypto.Keccak256Hash([]byte("proof"), proof.Signature))
	acl.AllowAll(db, owner, v[:]...)
}
