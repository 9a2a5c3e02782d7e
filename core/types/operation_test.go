package types

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/crypto"
)

func TestOperationSignAndSender(t *testing.T) {
	key, _ := crypto.GenerateKey()
	op, err := SignNewOp(key, 7, []byte(`{"action":"REGISTER_USER"}`))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	from, err := op.Sender()
	if err != nil {
		t.Fatalf("sender: %v", err)
	}
	if from != crypto.PubkeyToAddress(key.PubKey()) {
		t.Fatalf("sender mismatch: %v", from)
	}
}

func TestOperationTampering(t *testing.T) {
	key, _ := crypto.GenerateKey()
	other, _ := crypto.GenerateKey()

	op, _ := SignNewOp(key, 1, []byte("payload"))
	op.Nonce = 2
	if _, err := op.Sender(); !errors.Is(err, ErrInvalidSig) {
		t.Fatalf("expected invalid sig after nonce change, got %v", err)
	}

	op, _ = SignNewOp(key, 1, []byte("payload"))
	op.PubKey = crypto.FromPubkey(other.PubKey())
	if _, err := op.Sender(); !errors.Is(err, ErrSenderMismatch) {
		t.Fatalf("expected sender mismatch, got %v", err)
	}

	unsigned := NewOperation(crypto.PubkeyToAddress(key.PubKey()), 0, nil)
	if _, err := unsigned.Sender(); !errors.Is(err, ErrUnsigned) {
		t.Fatalf("expected unsigned error, got %v", err)
	}
	if err := unsigned.Sign(other); !errors.Is(err, ErrSenderMismatch) {
		t.Fatalf("expected foreign key to be refused, got %v", err)
	}
}

func TestOperationJSON(t *testing.T) {
	key, _ := crypto.GenerateKey()
	op, _ := SignNewOp(key, 3, []byte{1, 2, 3})
	enc, err := json.Marshal(op)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var dec Operation
	if err := json.Unmarshal(enc, &dec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if dec.Hash() != op.Hash() {
		t.Fatalf("hash changed across json: %v != %v", dec.Hash(), op.Hash())
	}
	if _, err := dec.Sender(); err != nil {
		t.Fatalf("decoded operation failed verification: %v", err)
	}
}

func TestReceiptFindLog(t *testing.T) {
	ev := EventID("MatchFound(address)")
	r := &Receipt{Status: ReceiptStatusSuccessful, Logs: []*Log{{Topics: nil}, {Topics: []common.Hash{ev}}}}
	if r.FindLog(ev) != r.Logs[1] {
		t.Fatalf("log not found")
	}
	if r.FindLog(EventID("other")) != nil {
		t.Fatalf("unexpected log")
	}
	if !r.Succeeded() {
		t.Fatalf("expected success")
	}
}
