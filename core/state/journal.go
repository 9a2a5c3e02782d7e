package state

import (
	"github.com/Hazem-dh/FHEarts/common"
)

// journalEntry is a modification entry in the state change journal that can be
// reverted on demand.
type journalEntry interface {
	// revert undoes the changes introduced by this journal entry.
	revert(*StateDB)
}

// journal contains the list of state modifications applied since the last state
// commit. These are tracked to be able to be reverted in the case of a failed
// operation.
type journal struct {
	entries []journalEntry
}

// append inserts a new modification entry to the end of the change journal.
func (j *journal) append(entry journalEntry) {
	j.entries = append(j.entries, entry)
}

// revert undoes a batch of journalled modifications.
func (j *journal) revert(statedb *StateDB, snapshot int) {
	for i := len(j.entries) - 1; i >= snapshot; i-- {
		j.entries[i].revert(statedb)
	}
	j.entries = j.entries[:snapshot]
}

// length returns the current number of entries in the journal.
func (j *journal) length() int {
	return len(j.entries)
}

type (
	storageChange struct {
		key       slotKey
		prev      common.Hash
		prevDirty bool
	}
	addLogChange struct{}
)

func (ch storageChange) revert(s *StateDB) {
	if ch.prevDirty {
		s.dirty[ch.key] = ch.prev
	} else {
		delete(s.dirty, ch.key)
	}
}

func (ch addLogChange) revert(s *StateDB) {
	s.logs = s.logs[:len(s.logs)-1]
}
