// Package state provides the slot store the engine's components keep their
// state in, with journaled snapshots so that operations apply atomically.
package state

import (
	"fmt"
	"sort"

	"github.com/VictoriaMetrics/fastcache"

	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/core/types"
	"github.com/Hazem-dh/FHEarts/crypto"
	"github.com/Hazem-dh/FHEarts/log"
	"github.com/Hazem-dh/FHEarts/matchdb"
	"github.com/Hazem-dh/FHEarts/params"
)

// storagePrefix + address + slot -> 32 byte value
var storagePrefix = []byte("s")

type slotKey struct {
	addr common.Address
	slot common.Hash
}

func (k slotKey) dbKey() []byte {
	key := make([]byte, 0, len(storagePrefix)+common.AddressLength+common.HashLength)
	key = append(key, storagePrefix...)
	key = append(key, k.addr[:]...)
	return append(key, k.slot[:]...)
}

type revision struct {
	id           int
	journalIndex int
}

// StateDB holds the uncommitted slot writes of the operation being applied on
// top of a persistent key/value store. Clean slots read from the store are
// kept in a fastcache.
//
// StateDB is not safe for concurrent use; the ledger serializes access.
type StateDB struct {
	db    matchdb.KeyValueStore
	clean *fastcache.Cache

	dirty map[slotKey]common.Hash
	logs  []*types.Log

	journal        *journal
	validRevisions []revision
	nextRevisionId int

	dbErr error
}

// New creates a state database on top of db with a clean cache of cacheMB
// megabytes.
func New(db matchdb.KeyValueStore, cacheMB int) *StateDB {
	if cacheMB <= 0 {
		cacheMB = params.DefaultStateCacheMB
	}
	return &StateDB{
		db:      db,
		clean:   fastcache.New(cacheMB * 1024 * 1024),
		dirty:   make(map[slotKey]common.Hash),
		journal: new(journal),
	}
}

// setError remembers the first non-nil error it is called with.
func (s *StateDB) setError(err error) {
	if s.dbErr == nil {
		s.dbErr = err
	}
}

// Error returns the first database error encountered while reading state.
func (s *StateDB) Error() error {
	return s.dbErr
}

// GetState retrieves a value from the given account's storage.
func (s *StateDB) GetState(addr common.Address, slot common.Hash) common.Hash {
	key := slotKey{addr, slot}
	if v, ok := s.dirty[key]; ok {
		return v
	}
	return s.GetCommittedState(addr, slot)
}

// GetCommittedState retrieves a value from the given account's committed
// storage, ignoring uncommitted writes.
func (s *StateDB) GetCommittedState(addr common.Address, slot common.Hash) common.Hash {
	dbKey := slotKey{addr, slot}.dbKey()
	if enc, ok := s.clean.HasGet(nil, dbKey); ok {
		return common.BytesToHash(enc)
	}
	enc, err := s.db.Get(dbKey)
	if err != nil && err != matchdb.ErrNotFound {
		s.setError(fmt.Errorf("state: read %x: %w", dbKey, err))
		return common.Hash{}
	}
	s.clean.Set(dbKey, enc)
	return common.BytesToHash(enc)
}

// SetState writes a storage slot. Writing the zero hash deletes the slot on
// commit.
func (s *StateDB) SetState(addr common.Address, slot common.Hash, value common.Hash) {
	key := slotKey{addr, slot}
	prev, dirty := s.dirty[key]
	if !dirty {
		prev = s.GetCommittedState(addr, slot)
	}
	if dirty && prev == value {
		return
	}
	s.journal.append(storageChange{key: key, prev: prev, prevDirty: dirty})
	s.dirty[key] = value
}

// nonceSlot returns the slot of addr's nonce in the nonce account.
func nonceSlot(addr common.Address) common.Hash {
	return crypto.Keccak256Hash(addr.Bytes(), []byte("nonce"))
}

// GetNonce returns the next operation nonce expected from addr.
func (s *StateDB) GetNonce(addr common.Address) uint64 {
	return s.GetState(params.NonceAddress, nonceSlot(addr)).Big64()
}

// SetNonce sets the next operation nonce expected from addr.
func (s *StateDB) SetNonce(addr common.Address, nonce uint64) {
	s.SetState(params.NonceAddress, nonceSlot(addr), common.Uint64ToHash(nonce))
}

// AddLog appends an event to the logs of the operation being applied.
func (s *StateDB) AddLog(l *types.Log) {
	s.journal.append(addLogChange{})
	l.Index = uint(len(s.logs))
	s.logs = append(s.logs, l)
}

// Logs returns the events collected since the last TakeLogs.
func (s *StateDB) Logs() []*types.Log {
	return s.logs
}

// TakeLogs returns the collected events and resets the log buffer.
func (s *StateDB) TakeLogs() []*types.Log {
	logs := s.logs
	s.logs = nil
	return logs
}

// Snapshot returns an identifier for the current revision of the state.
func (s *StateDB) Snapshot() int {
	id := s.nextRevisionId
	s.nextRevisionId++
	s.validRevisions = append(s.validRevisions, revision{id, s.journal.length()})
	return id
}

// RevertToSnapshot reverts all state changes made since the given revision.
func (s *StateDB) RevertToSnapshot(revid int) {
	// Find the snapshot in the stack of valid snapshots.
	idx := sort.Search(len(s.validRevisions), func(i int) bool {
		return s.validRevisions[i].id >= revid
	})
	if idx == len(s.validRevisions) || s.validRevisions[idx].id != revid {
		panic(fmt.Errorf("revision id %v cannot be reverted", revid))
	}
	snapshot := s.validRevisions[idx].journalIndex

	// Replay the journal to undo changes and remove invalidated snapshots
	s.journal.revert(s, snapshot)
	s.validRevisions = s.validRevisions[:idx]
}

// Commit writes all dirty slots to the backing store in a single batch and
// clears the journal. Collected logs are left for TakeLogs.
func (s *StateDB) Commit() error {
	if s.dbErr != nil {
		return s.dbErr
	}
	batch := s.db.NewBatch()
	for key, value := range s.dirty {
		if value.IsZero() {
			if err := batch.Delete(key.dbKey()); err != nil {
				return err
			}
		} else if err := batch.Put(key.dbKey(), value[:]); err != nil {
			return err
		}
	}
	if err := batch.Write(); err != nil {
		return err
	}
	for key, value := range s.dirty {
		if value.IsZero() {
			s.clean.Set(key.dbKey(), nil)
		} else {
			s.clean.Set(key.dbKey(), value[:])
		}
	}
	log.Trace("Committed state", "slots", len(s.dirty))
	s.resetJournal()
	return nil
}

// Discard drops every uncommitted change, collected log and remembered
// database error.
func (s *StateDB) Discard() {
	s.resetJournal()
	s.logs = nil
	s.dbErr = nil
}

func (s *StateDB) resetJournal() {
	s.dirty = make(map[slotKey]common.Hash)
	s.journal = new(journal)
	s.validRevisions = s.validRevisions[:0]
}
