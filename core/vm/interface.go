package vm

import (
	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/core/types"
)

// StateDB is the view of ledger state that operation handlers run against.
// All engine state is kept in 32 byte storage slots of system accounts.
type StateDB interface {
	GetState(addr common.Address, slot common.Hash) common.Hash
	SetState(addr common.Address, slot common.Hash, value common.Hash)

	GetNonce(addr common.Address) uint64
	SetNonce(addr common.Address, nonce uint64)

	// Snapshot returns an identifier for the current revision of the state.
	Snapshot() int
	// RevertToSnapshot reverts all state changes made since the given revision.
	RevertToSnapshot(revid int)

	AddLog(log *types.Log)
}
