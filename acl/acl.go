// Package acl keeps the decrypt grant table: one ledger slot per
// (ciphertext handle, principal) pair.
package acl

import (
	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/core/vm"
	"github.com/Hazem-dh/FHEarts/crypto"
	"github.com/Hazem-dh/FHEarts/fhe"
	"github.com/Hazem-dh/FHEarts/log"
	"github.com/Hazem-dh/FHEarts/params"
)

var granted = common.Hash{31: 1}

// grantSlot hashes ("acl" || 0x00 || handle[32B] || principal[20B]).
func grantSlot(h fhe.Handle, who common.Address) common.Hash {
	key := make([]byte, 0, 4+fhe.HandleLength+common.AddressLength)
	key = append(key, "acl\x00"...)
	key = append(key, h[:]...)
	key = append(key, who[:]...)
	return common.BytesToHash(crypto.Keccak256(key))
}

// Allow grants who the right to decrypt h.
func Allow(db vm.StateDB, h fhe.Handle, who common.Address) {
	if h.IsZero() {
		return
	}
	log.Trace("Granted decrypt", "handle", h, "to", who)
	db.SetState(params.ACLAddress, grantSlot(h, who), granted)
}

// AllowAll grants who every handle in hs.
func AllowAll(db vm.StateDB, who common.Address, hs ...fhe.Handle) {
	for _, h := range hs {
		Allow(db, h, who)
	}
}

// Revoke removes who's grant on h.
func Revoke(db vm.StateDB, h fhe.Handle, who common.Address) {
	if h.IsZero() {
		return
	}
	log.Trace("Revoked decrypt", "handle", h, "from", who)
	db.SetState(params.ACLAddress, grantSlot(h, who), common.Hash{})
}

// RevokeAll removes who's grants on every handle in hs.
func RevokeAll(db vm.StateDB, who common.Address, hs ...fhe.Handle) {
	for _, h := range hs {
		Revoke(db, h, who)
	}
}

// IsAllowed reports whether who may decrypt h.
func IsAllowed(db vm.StateDB, h fhe.Handle, who common.Address) bool {
	if h.IsZero() {
		return false
	}
	return db.GetState(params.ACLAddress, grantSlot(h, who)) == granted
}

// View exposes the grant table of a state to the encrypted value layer.
type View struct {
	db vm.StateDB
}

var _ fhe.ACL = View{}

// NewView wraps db.
func NewView(db vm.StateDB) View { return View{db: db} }

// IsAllowed implements fhe.ACL.
func (v View) IsAllowed(h fhe.Handle, who common.Address) bool {
	return IsAllowed(v.db, h, who)
}
