package consent

import (
	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/core/vm"
	"github.com/Hazem-dh/FHEarts/crypto"
	"github.com/Hazem-dh/FHEarts/params"
)

// pairSlot hashes (relation || 0x00 || from[20B] || to[20B]) for a directed relation.
func pairSlot(relation string, from, to common.Address) common.Hash {
	key := make([]byte, 0, len(relation)+1+2*common.AddressLength)
	key = append(key, relation...)
	key = append(key, 0x00)
	key = append(key, from.Bytes()...)
	key = append(key, to.Bytes()...)
	return common.BytesToHash(crypto.Keccak256(key))
}

func readEdge(db vm.StateDB, relation string, from, to common.Address) bool {
	return db.GetState(params.ConsentAddress, pairSlot(relation, from, to))[31] == 1
}

func writeEdge(db vm.StateDB, relation string, from, to common.Address, v bool) {
	var val common.Hash
	if v {
		val[31] = 1
	}
	db.SetState(params.ConsentAddress, pairSlot(relation, from, to), val)
}

const (
	relConfirmed = "confirmed"
	relConsented = "consented"
)

// IsConfirmed reports whether from confirmed to as their match.
func IsConfirmed(db vm.StateDB, from, to common.Address) bool {
	return readEdge(db, relConfirmed, from, to)
}

// IsMutualMatch reports whether a and b confirmed each other.
func IsMutualMatch(db vm.StateDB, a, b common.Address) bool {
	return IsConfirmed(db, a, b) && IsConfirmed(db, b, a)
}

// HasConsented reports whether from agreed to disclose their phone to to.
func HasConsented(db vm.StateDB, from, to common.Address) bool {
	return readEdge(db, relConsented, from, to)
}

// HasMutualPhoneConsent reports whether a and b agreed to disclose their
// phones to each other.
func HasMutualPhoneConsent(db vm.StateDB, a, b common.Address) bool {
	return HasConsented(db, a, b) && HasConsented(db, b, a)
}
