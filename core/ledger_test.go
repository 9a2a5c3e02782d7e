package core

import (
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/core/types"
	"github.com/Hazem-dh/FHEarts/core/vm"
	"github.com/Hazem-dh/FHEarts/crypto"
	"github.com/Hazem-dh/FHEarts/matchdb/memorydb"
	"github.com/Hazem-dh/FHEarts/sysaction"
)

var (
	counterAddr = common.HexToAddress("0xc0")
	counterSlot = common.HexToHash("0x01")
	errBoom     = errors.New("boom")
)

// counterHandler bumps a slot on SEARCH_MATCHES and bumps it then fails on
// CLEAR_MATCH.
type counterHandler struct{}

func (counterHandler) CanHandle(kind sysaction.ActionKind) bool {
	return kind == sysaction.ActionSearchMatches || kind == sysaction.ActionClearMatch
}

func (counterHandler) Handle(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	v := ctx.StateDB.GetState(counterAddr, counterSlot).Big64()
	ctx.StateDB.SetState(counterAddr, counterSlot, common.Uint64ToHash(v+1))
	ctx.StateDB.AddLog(&types.Log{Address: counterAddr, OpHash: ctx.OpHash})
	if sa.Action == sysaction.ActionClearMatch {
		return errBoom
	}
	return nil
}

func newTestLedger(t *testing.T) (*Ledger, *btcec.PrivateKey) {
	actions := sysaction.NewRegistry()
	actions.Register(counterHandler{})
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	return NewLedger(memorydb.New(), 1, actions), key
}

func signedOp(t *testing.T, key *btcec.PrivateKey, nonce uint64, kind sysaction.ActionKind) *types.Operation {
	data, err := sysaction.MakeSysAction(kind, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	op, err := types.SignNewOp(key, nonce, data)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return op
}

func counter(t *testing.T, l *Ledger) uint64 {
	var v uint64
	l.View(func(db vm.StateDB) error {
		v = db.GetState(counterAddr, counterSlot).Big64()
		return nil
	})
	return v
}

func TestApplySuccess(t *testing.T) {
	l, key := newTestLedger(t)
	op := signedOp(t, key, 0, sysaction.ActionSearchMatches)
	receipt, err := l.Apply(op)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !receipt.Succeeded() || len(receipt.Logs) != 1 || receipt.Logs[0].OpHash != op.Hash() {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
	if counter(t, l) != 1 || l.Nonce(op.From) != 1 || l.OpCount() != 1 {
		t.Fatalf("state not advanced")
	}
	if stored := l.Receipt(op.Hash()); stored == nil || !stored.Succeeded() {
		t.Fatalf("receipt not persisted")
	}
}

func TestApplyFailureReverts(t *testing.T) {
	l, key := newTestLedger(t)
	receipt, err := l.Apply(signedOp(t, key, 0, sysaction.ActionClearMatch))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if receipt.Succeeded() || receipt.Err != errBoom.Error() || len(receipt.Logs) != 0 {
		t.Fatalf("unexpected receipt %+v", receipt)
	}
	if counter(t, l) != 0 {
		t.Fatalf("failed action left state behind")
	}
	if n := l.Nonce(crypto.PubkeyToAddress(key.PubKey())); n != 1 {
		t.Fatalf("nonce not consumed: %d", n)
	}
	receipt, _ = l.Apply(signedOp(t, key, 1, sysaction.ActionKind("NOPE")))
	if receipt.Succeeded() {
		t.Fatalf("unknown action succeeded")
	}
}

func TestApplyNonceChecks(t *testing.T) {
	l, key := newTestLedger(t)
	if _, err := l.Apply(signedOp(t, key, 1, sysaction.ActionSearchMatches)); !errors.Is(err, ErrNonceTooHigh) {
		t.Fatalf("expected ErrNonceTooHigh, got %v", err)
	}
	if _, err := l.Apply(signedOp(t, key, 0, sysaction.ActionSearchMatches)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := l.Apply(signedOp(t, key, 0, sysaction.ActionSearchMatches)); !errors.Is(err, ErrNonceTooLow) {
		t.Fatalf("expected ErrNonceTooLow, got %v", err)
	}
	if l.OpCount() != 1 {
		t.Fatalf("rejected operations were counted")
	}
}

func TestApplyRejectsForgedOps(t *testing.T) {
	l, key := newTestLedger(t)
	other, _ := crypto.GenerateKey()

	op := signedOp(t, key, 0, sysaction.ActionSearchMatches)
	op.From = crypto.PubkeyToAddress(other.PubKey())
	if _, err := l.Apply(op); !errors.Is(err, types.ErrSenderMismatch) {
		t.Fatalf("expected ErrSenderMismatch, got %v", err)
	}
	op = signedOp(t, key, 0, sysaction.ActionSearchMatches)
	op.Data = append(op.Data, ' ')
	if _, err := l.Apply(op); !errors.Is(err, types.ErrInvalidSig) {
		t.Fatalf("expected ErrInvalidSig, got %v", err)
	}
	unsigned := types.NewOperation(op.From, 0, op.Data)
	if _, err := l.Apply(unsigned); !errors.Is(err, types.ErrUnsigned) {
		t.Fatalf("expected ErrUnsigned, got %v", err)
	}
	if counter(t, l) != 0 {
		t.Fatalf("forged operation was executed")
	}
}

func TestClosedLedger(t *testing.T) {
	l, key := newTestLedger(t)
	l.Close()
	if _, err := l.Apply(signedOp(t, key, 0, sysaction.ActionSearchMatches)); !errors.Is(err, ErrLedgerClosed) {
		t.Fatalf("expected ErrLedgerClosed, got %v", err)
	}
}
