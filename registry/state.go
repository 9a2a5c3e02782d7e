package registry

import (
	"encoding/binary"

	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/core/vm"
	"github.com/Hazem-dh/FHEarts/crypto"
	"github.com/Hazem-dh/FHEarts/params"
)

// participantSlot hashes (addr[20B] || 0x00 || field) for a per-participant storage slot.
func participantSlot(addr common.Address, field string) common.Hash {
	key := make([]byte, 0, 21+len(field))
	key = append(key, addr.Bytes()...)
	key = append(key, 0x00)
	key = append(key, field...)
	return common.BytesToHash(crypto.Keccak256(key))
}

// slotCountSlot stores the highest slot index handed out so far (uint64).
var slotCountSlot = common.BytesToHash(crypto.Keccak256([]byte("registry\x00slotCount")))

// activeCountSlot stores the number of registered, active participants (uint64).
var activeCountSlot = common.BytesToHash(crypto.Keccak256([]byte("registry\x00activeCount")))

// addressSlot returns the slot holding the identity assigned slot index i.
func addressSlot(i uint64) common.Hash {
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], i)
	return common.BytesToHash(
		crypto.Keccak256(append([]byte("registry\x00address\x00"), idx[:]...)))
}

func readUint64(db vm.StateDB, slot common.Hash) uint64 {
	return db.GetState(params.RegistryAddress, slot).Big64()
}

func writeUint64(db vm.StateDB, slot common.Hash, v uint64) {
	db.SetState(params.RegistryAddress, slot, common.Uint64ToHash(v))
}

func readBool(db vm.StateDB, slot common.Hash) bool {
	return db.GetState(params.RegistryAddress, slot)[31] == 1
}

func writeBool(db vm.StateDB, slot common.Hash, v bool) {
	var val common.Hash
	if v {
		val[31] = 1
	}
	db.SetState(params.RegistryAddress, slot, val)
}

func readAddressAt(db vm.StateDB, i uint64) common.Address {
	raw := db.GetState(params.RegistryAddress, addressSlot(i))
	return common.BytesToAddress(raw[12:]) // address is right-aligned
}

func writeAddressAt(db vm.StateDB, i uint64, addr common.Address) {
	var val common.Hash
	copy(val[12:], addr.Bytes())
	db.SetState(params.RegistryAddress, addressSlot(i), val)
}
