package matching

import (
	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/core/vm"
	"github.com/Hazem-dh/FHEarts/crypto"
	"github.com/Hazem-dh/FHEarts/fhe"
	"github.com/Hazem-dh/FHEarts/params"
)

// Record is the published result of a participant's latest search.
//
// IsValid means the search completed over at least one active candidate, not
// that a match exists: when no candidate was eligible BestIndex decrypts to
// NoMatchIndex (0), which is the only way to tell.
type Record struct {
	BestScore   fhe.Handle `json:"bestScore"`
	BestIndex   fhe.Handle `json:"bestIndex"`
	IsValid     bool       `json:"isValid"`
	HasSearched bool       `json:"hasSearched"`
}

// searchState is the running fold of a search spanning several batches.
type searchState struct {
	bestScore fhe.Handle
	bestIndex fhe.Handle
	hasBest   fhe.Handle
	cursor    uint64 // next slot to scan, 0 when no search is in progress
	scanned   uint64 // candidates folded so far
}

func (s searchState) inProgress() bool { return s.cursor != 0 }

// matchSlot hashes (addr[20B] || 0x00 || field) for a per-participant storage slot.
func matchSlot(addr common.Address, field string) common.Hash {
	key := make([]byte, 0, 21+len(field))
	key = append(key, addr.Bytes()...)
	key = append(key, 0x00)
	key = append(key, field...)
	return common.BytesToHash(crypto.Keccak256(key))
}

func readHandle(db vm.StateDB, addr common.Address, field string) fhe.Handle {
	return fhe.HandleFromHash(db.GetState(params.MatchAddress, matchSlot(addr, field)))
}

func writeHandle(db vm.StateDB, addr common.Address, field string, h fhe.Handle) {
	db.SetState(params.MatchAddress, matchSlot(addr, field), h.Hash())
}

func readUint64(db vm.StateDB, addr common.Address, field string) uint64 {
	return db.GetState(params.MatchAddress, matchSlot(addr, field)).Big64()
}

func writeUint64(db vm.StateDB, addr common.Address, field string, v uint64) {
	db.SetState(params.MatchAddress, matchSlot(addr, field), common.Uint64ToHash(v))
}

// Record flags are packed into one word.
const (
	flagValid    = 1 << 0
	flagSearched = 1 << 1
)

// ReadRecord returns addr's match record. A participant that never searched
// has the zero record.
func ReadRecord(db vm.StateDB, addr common.Address) Record {
	flags := readUint64(db, addr, "flags")
	return Record{
		BestScore:   readHandle(db, addr, "bestScore"),
		BestIndex:   readHandle(db, addr, "bestIndex"),
		IsValid:     flags&flagValid != 0,
		HasSearched: flags&flagSearched != 0,
	}
}

func writeRecord(db vm.StateDB, addr common.Address, r Record) {
	writeHandle(db, addr, "bestScore", r.BestScore)
	writeHandle(db, addr, "bestIndex", r.BestIndex)
	var flags uint64
	if r.IsValid {
		flags |= flagValid
	}
	if r.HasSearched {
		flags |= flagSearched
	}
	writeUint64(db, addr, "flags", flags)
}

func readSearch(db vm.StateDB, addr common.Address) searchState {
	return searchState{
		bestScore: readHandle(db, addr, "search.bestScore"),
		bestIndex: readHandle(db, addr, "search.bestIndex"),
		hasBest:   readHandle(db, addr, "search.hasBest"),
		cursor:    readUint64(db, addr, "search.cursor"),
		scanned:   readUint64(db, addr, "search.scanned"),
	}
}

func writeSearch(db vm.StateDB, addr common.Address, s searchState) {
	writeHandle(db, addr, "search.bestScore", s.bestScore)
	writeHandle(db, addr, "search.bestIndex", s.bestIndex)
	writeHandle(db, addr, "search.hasBest", s.hasBest)
	writeUint64(db, addr, "search.cursor", s.cursor)
	writeUint64(db, addr, "search.scanned", s.scanned)
}

// Invalidate marks addr's record invalid, keeping its handles and the
// fact that a search happened.
func Invalidate(db vm.StateDB, addr common.Address) {
	r := ReadRecord(db, addr)
	r.IsValid = false
	writeRecord(db, addr, r)
}

// ResetRecord erases addr's record and any search in progress.
func ResetRecord(db vm.StateDB, addr common.Address) {
	writeRecord(db, addr, Record{})
	writeSearch(db, addr, searchState{})
}

// ResetSearch discards addr's search in progress. It reports whether there
// was one.
func ResetSearch(db vm.StateDB, addr common.Address) bool {
	if !readSearch(db, addr).inProgress() {
		return false
	}
	writeSearch(db, addr, searchState{})
	return true
}

// Status summarises addr's search: matchCount is 1 while a valid record
// exists, cursor is the next slot an in-progress search will scan and
// complete holds when a search finished and none is running.
func Status(db vm.StateDB, addr common.Address) (matchCount uint64, cursor uint64, complete bool) {
	r := ReadRecord(db, addr)
	s := readSearch(db, addr)
	if r.IsValid {
		matchCount = 1
	}
	return matchCount, s.cursor, r.HasSearched && !s.inProgress()
}
