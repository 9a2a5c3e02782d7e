// Package core implements the ledger that authenticates, serializes and
// applies participant operations.
package core

import (
	"fmt"
	"sync"

	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/core/rawdb"
	"github.com/Hazem-dh/FHEarts/core/state"
	"github.com/Hazem-dh/FHEarts/core/types"
	"github.com/Hazem-dh/FHEarts/core/vm"
	"github.com/Hazem-dh/FHEarts/log"
	"github.com/Hazem-dh/FHEarts/matchdb"
	"github.com/Hazem-dh/FHEarts/sysaction"
)

// Ledger applies operations one at a time against a single state. Every
// operation either commits completely or leaves nothing but the consumed
// sender nonce and a failed receipt behind.
type Ledger struct {
	mu      sync.Mutex
	db      matchdb.KeyValueStore
	state   *state.StateDB
	actions *sysaction.Registry
	closed  bool
}

// NewLedger creates a ledger over db dispatching operation payloads to
// actions.
func NewLedger(db matchdb.KeyValueStore, cacheMB int, actions *sysaction.Registry) *Ledger {
	l := &Ledger{
		db:      db,
		state:   state.New(db, cacheMB),
		actions: actions,
	}
	log.Debug("Opened ledger", "ops", rawdb.ReadOpCount(db))
	return l
}

// preCheck authenticates op and checks its nonce.
func (l *Ledger) preCheck(op *types.Operation) error {
	if _, err := op.Sender(); err != nil {
		return err
	}
	stNonce := l.state.GetNonce(op.From)
	if stNonce < op.Nonce {
		return fmt.Errorf("%w: address %v, op: %d state: %d", ErrNonceTooHigh, op.From.Hex(), op.Nonce, stNonce)
	} else if stNonce > op.Nonce {
		return fmt.Errorf("%w: address %v, op: %d state: %d", ErrNonceTooLow, op.From.Hex(), op.Nonce, stNonce)
	} else if stNonce+1 < stNonce {
		return fmt.Errorf("%w: address %v, nonce: %d", ErrNonceMax, op.From.Hex(), stNonce)
	}
	return nil
}

// Apply authenticates and executes op. Operations failing authentication or
// the nonce check return an error and no receipt. Otherwise the nonce is
// consumed and the returned receipt records whether the action succeeded.
func (l *Ledger) Apply(op *types.Operation) (*types.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, ErrLedgerClosed
	}
	if err := l.preCheck(op); err != nil {
		return nil, err
	}
	hash := op.Hash()

	// Increment nonce for all authenticated operations.
	l.state.SetNonce(op.From, op.Nonce+1)

	snap := l.state.Snapshot()
	ctx := &sysaction.Context{From: op.From, OpHash: hash, StateDB: l.state}
	execErr := l.actions.Execute(ctx, op.Data)
	if execErr != nil {
		l.state.RevertToSnapshot(snap)
	}
	logs := l.state.TakeLogs()
	if err := l.state.Commit(); err != nil {
		l.state.Discard()
		return nil, err
	}
	receipt := &types.Receipt{
		OpHash: hash,
		From:   op.From,
		Nonce:  op.Nonce,
		Status: types.ReceiptStatusSuccessful,
		Logs:   logs,
	}
	if execErr != nil {
		receipt.Status, receipt.Err = types.ReceiptStatusFailed, execErr.Error()
	}
	count := rawdb.ReadOpCount(l.db) + 1
	rawdb.WriteReceipt(l.db, receipt)
	rawdb.WriteOpCount(l.db, count)

	log.Debug("Applied operation", "hash", hash, "from", op.From, "nonce", op.Nonce, "status", receipt.Status, "logs", len(logs))
	return receipt, nil
}

// View runs fn against the committed state. fn must not write.
func (l *Ledger) View(fn func(db vm.StateDB) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrLedgerClosed
	}
	return fn(l.state)
}

// Nonce returns the next nonce expected from addr.
func (l *Ledger) Nonce(addr common.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.GetNonce(addr)
}

// Receipt returns the receipt of an applied operation, or nil.
func (l *Ledger) Receipt(hash common.Hash) *types.Receipt {
	return rawdb.ReadReceipt(l.db, hash)
}

// OpCount returns the number of operations applied so far.
func (l *Ledger) OpCount() uint64 {
	return rawdb.ReadOpCount(l.db)
}

// Close stops the ledger. The backing database is left open.
func (l *Ledger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}
