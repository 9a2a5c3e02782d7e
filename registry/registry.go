// Package registry maintains the bijection between participant identities
// and dense slot indices, the per-identity active flag and the active count.
//
// Slots are handed out from params.FirstSlot upwards and are never reused;
// slot params.NoMatchIndex is never assigned.
package registry

import (
	"errors"

	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/core/vm"
	"github.com/Hazem-dh/FHEarts/log"
	"github.com/Hazem-dh/FHEarts/params"
)

var (
	ErrAlreadyRegistered = errors.New("already registered")
	ErrNotRegistered     = errors.New("not registered")
	ErrZeroIdentity      = errors.New("zero identity")
)

// Register assigns the next slot to addr and marks it active.
func Register(db vm.StateDB, addr common.Address) (uint64, error) {
	if addr.IsZero() {
		return 0, ErrZeroIdentity
	}
	if IsRegistered(db, addr) {
		return 0, ErrAlreadyRegistered
	}
	index := readUint64(db, slotCountSlot) + 1
	writeUint64(db, slotCountSlot, index)
	writeUint64(db, participantSlot(addr, "index"), index)
	writeAddressAt(db, index, addr)
	writeBool(db, participantSlot(addr, "active"), true)
	writeUint64(db, activeCountSlot, readUint64(db, activeCountSlot)+1)

	log.Debug("Registered participant", "addr", addr, "index", index)
	return index, nil
}

// Deactivate clears addr's active flag. It reports whether the flag changed.
func Deactivate(db vm.StateDB, addr common.Address) (bool, error) {
	return setActive(db, addr, false)
}

// Reactivate sets addr's active flag. It reports whether the flag changed.
func Reactivate(db vm.StateDB, addr common.Address) (bool, error) {
	return setActive(db, addr, true)
}

func setActive(db vm.StateDB, addr common.Address, active bool) (bool, error) {
	if !IsRegistered(db, addr) {
		return false, ErrNotRegistered
	}
	slot := participantSlot(addr, "active")
	if readBool(db, slot) == active {
		return false, nil
	}
	writeBool(db, slot, active)
	count := readUint64(db, activeCountSlot)
	if active {
		count++
	} else {
		count--
	}
	writeUint64(db, activeCountSlot, count)
	log.Debug("Changed participant status", "addr", addr, "active", active, "activeCount", count)
	return true, nil
}

// IsRegistered reports whether addr holds a slot.
func IsRegistered(db vm.StateDB, addr common.Address) bool {
	return IndexOf(db, addr) != params.NoMatchIndex
}

// IsActive reports whether addr is registered and active.
func IsActive(db vm.StateDB, addr common.Address) bool {
	return IsRegistered(db, addr) && readBool(db, participantSlot(addr, "active"))
}

// IndexOf returns addr's slot, or params.NoMatchIndex if it has none.
func IndexOf(db vm.StateDB, addr common.Address) uint64 {
	return readUint64(db, participantSlot(addr, "index"))
}

// AddressOf returns the identity holding slot index, or the zero address for
// an unassigned slot.
func AddressOf(db vm.StateDB, index uint64) common.Address {
	if index == params.NoMatchIndex || index > SlotCount(db) {
		return common.Address{}
	}
	return readAddressAt(db, index)
}

// ActiveCount returns the number of registered, active participants.
func ActiveCount(db vm.StateDB) uint64 {
	return readUint64(db, activeCountSlot)
}

// SlotCount returns the highest slot index assigned so far.
func SlotCount(db vm.StateDB) uint64 {
	return readUint64(db, slotCountSlot)
}

// Participants returns every registered identity in slot order.
func Participants(db vm.StateDB) []common.Address {
	n := SlotCount(db)
	out := make([]common.Address, 0, n)
	for i := params.FirstSlot; i <= n; i++ {
		out = append(out, readAddressAt(db, i))
	}
	return out
}
