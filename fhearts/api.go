package fhearts

import (
	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/consent"
	"github.com/Hazem-dh/FHEarts/core/vm"
	"github.com/Hazem-dh/FHEarts/fhe"
	"github.com/Hazem-dh/FHEarts/matching"
	"github.com/Hazem-dh/FHEarts/profile"
	"github.com/Hazem-dh/FHEarts/registry"
)

// Record is a participant's published match record.
type Record = matching.Record

// MatchStatus summarises a participant's search.
type MatchStatus struct {
	MatchCount uint64 `json:"matchCount"` // 1 when a valid match record is held
	Cursor     uint64 `json:"cursor"`     // next slot of an in-progress search, 0 if none
	Complete   bool   `json:"complete"`   // a search finished and none is in progress
}

// IsRegistered reports whether who holds a slot.
func IsRegistered(db vm.StateDB, who common.Address) bool {
	return registry.IsRegistered(db, who)
}

// ActiveUsersCount returns the number of active participants.
func ActiveUsersCount(db vm.StateDB) uint64 { return registry.ActiveCount(db) }

// IndexOf returns who's slot, or 0.
func IndexOf(db vm.StateDB, who common.Address) uint64 { return registry.IndexOf(db, who) }

// AddressOf returns the identity at index, or the zero address.
func AddressOf(db vm.StateDB, index uint64) common.Address { return registry.AddressOf(db, index) }

// MatchRecord returns who's match record.
func MatchRecord(db vm.StateDB, who common.Address) (Record, error) {
	if !registry.IsRegistered(db, who) {
		return Record{}, ErrNotRegistered
	}
	return matching.ReadRecord(db, who), nil
}

// GetMatchStatus returns the progress of who's search.
func GetMatchStatus(db vm.StateDB, who common.Address) (MatchStatus, error) {
	if !registry.IsRegistered(db, who) {
		return MatchStatus{}, ErrNotRegistered
	}
	count, cursor, complete := matching.Status(db, who)
	return MatchStatus{MatchCount: count, Cursor: cursor, Complete: complete}, nil
}

// PendingRequests returns the participants waiting for who's response.
func PendingRequests(db vm.StateDB, who common.Address) []common.Address {
	return consent.PendingRequests(db, who)
}

// IsConfirmed reports whether from confirmed to.
func IsConfirmed(db vm.StateDB, from, to common.Address) bool {
	return consent.IsConfirmed(db, from, to)
}

// IsMutualMatch reports whether a and b confirmed each other.
func IsMutualMatch(db vm.StateDB, a, b common.Address) bool {
	return consent.IsMutualMatch(db, a, b)
}

// HasPhoneConsent reports whether from consented to disclose their phone to to.
func HasPhoneConsent(db vm.StateDB, from, to common.Address) bool {
	return consent.HasConsented(db, from, to)
}

// HasMutualPhoneConsent reports whether a and b consented to each other.
func HasMutualPhoneConsent(db vm.StateDB, a, b common.Address) bool {
	return consent.HasMutualPhoneConsent(db, a, b)
}

// GetProfile returns owner's handle bundle. Only the owner may read it.
func GetProfile(db vm.StateDB, reader, owner common.Address) (profile.Vector, error) {
	if reader != owner {
		return profile.Vector{}, ErrPermissionDenied
	}
	return profile.Load(db, owner)
}

// GetContactHandles returns the handles of owner's contact fields, in
// profile.ContactFields order. A reader other than the owner needs mutual
// phone consent with them.
func GetContactHandles(db vm.StateDB, reader, owner common.Address) ([]fhe.Handle, error) {
	if reader != owner && !consent.HasMutualPhoneConsent(db, reader, owner) {
		return nil, ErrPermissionDenied
	}
	v, err := profile.Load(db, owner)
	if err != nil {
		return nil, err
	}
	return v.Contact(), nil
}
