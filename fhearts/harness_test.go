package fhearts

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"github.com/Hazem-dh/FHEarts/acl"
	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/core"
	"github.com/Hazem-dh/FHEarts/core/rawdb"
	"github.com/Hazem-dh/FHEarts/core/types"
	"github.com/Hazem-dh/FHEarts/core/vm"
	"github.com/Hazem-dh/FHEarts/crypto"
	"github.com/Hazem-dh/FHEarts/fhe"
	"github.com/Hazem-dh/FHEarts/fhe/coprocessor"
	"github.com/Hazem-dh/FHEarts/matchdb/memorydb"
	"github.com/Hazem-dh/FHEarts/params"
	"github.com/Hazem-dh/FHEarts/profile"
	"github.com/Hazem-dh/FHEarts/sysaction"
)

const (
	female = 0
	male   = 1
)

// harness is a ledger running the engine next to a coprocessor, sharing one
// in-memory database the way the command line client shares its leveldb.
type harness struct {
	t      *testing.T
	ledger *core.Ledger
	cp     *coprocessor.Coprocessor
}

type user struct {
	key    *btcec.PrivateKey
	addr   common.Address
	values profile.Values
}

func newHarness(t *testing.T, cfg Config) *harness {
	db := memorydb.New()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	cp, err := coprocessor.New(rawdb.NewTable(db, rawdb.CiphertextPrefix), coprocessor.Config{Key: key, Target: params.EngineAddress})
	require.NoError(t, err)

	actions := sysaction.NewRegistry()
	actions.Register(New(cp, cp.Verifier(), cfg))
	return &harness{t: t, ledger: core.NewLedger(db, 1, actions), cp: cp}
}

func profileValues(phone, gender, interestedIn, p1, p2, p3 uint64) profile.Values {
	return profile.Values{33, 1, phone, 29, 7, gender, interestedIn, p1, p2, p3}
}

func (h *harness) newUser(v profile.Values) *user {
	key, err := crypto.GenerateKey()
	require.NoError(h.t, err)
	return &user{key: key, addr: crypto.PubkeyToAddress(key.PubKey()), values: v}
}

// send applies an action as u and returns its receipt.
func (h *harness) send(u *user, kind sysaction.ActionKind, payload interface{}) *types.Receipt {
	h.t.Helper()
	data, err := sysaction.MakeSysAction(kind, payload)
	require.NoError(h.t, err)
	op, err := types.SignNewOp(u.key, h.ledger.Nonce(u.addr), data)
	require.NoError(h.t, err)
	receipt, err := h.ledger.Apply(op)
	require.NoError(h.t, err)
	return receipt
}

func (h *harness) mustSend(u *user, kind sysaction.ActionKind, payload interface{}) *types.Receipt {
	h.t.Helper()
	receipt := h.send(u, kind, payload)
	require.True(h.t, receipt.Succeeded(), "%s by %v failed: %s", kind, u.addr, receipt.Err)
	return receipt
}

// mustFail applies an action expected to be rejected with err.
func (h *harness) mustFail(u *user, kind sysaction.ActionKind, payload interface{}, err error) {
	h.t.Helper()
	receipt := h.send(u, kind, payload)
	require.False(h.t, receipt.Succeeded(), "%s by %v should fail", kind, u.addr)
	require.Contains(h.t, receipt.Err, err.Error(), spew.Sdump(receipt))
	require.Empty(h.t, receipt.Logs)
}

func (h *harness) encrypt(u *user, v profile.Values) *sysaction.ProfilePayload {
	handles, proof, err := h.cp.EncryptInput(u.addr, v.Inputs())
	require.NoError(h.t, err)
	return &sysaction.ProfilePayload{Handles: handles, Proof: proof}
}

func (h *harness) register(v profile.Values) *user {
	h.t.Helper()
	u := h.newUser(v)
	h.mustSend(u, sysaction.ActionRegisterUser, h.encrypt(u, v))
	return u
}

// view runs fn against the committed ledger state.
func (h *harness) view(fn func(db vm.StateDB)) {
	require.NoError(h.t, h.ledger.View(func(db vm.StateDB) error {
		fn(db)
		return nil
	}))
}

// decrypt asks the coprocessor for plaintexts as u.
func (h *harness) decrypt(u *user, hs ...fhe.Handle) ([]*fhe.Attestation, error) {
	req, err := fhe.NewDecryptRequest(u.key, hs...)
	require.NoError(h.t, err)
	var atts []*fhe.Attestation
	verr := h.ledger.View(func(db vm.StateDB) error {
		atts, err = h.cp.UserDecrypt(req, acl.NewView(db))
		return nil
	})
	require.NoError(h.t, verr)
	return atts, err
}

// search runs u's search to completion and returns the disclosed score and
// index attestations.
func (h *harness) search(u *user) (score, index *fhe.Attestation) {
	h.t.Helper()
	for {
		receipt := h.mustSend(u, sysaction.ActionSearchMatches, nil)
		if receipt.FindLog(EventMatchFound) != nil {
			break
		}
	}
	var rec Record
	h.view(func(db vm.StateDB) {
		r, err := MatchRecord(db, u.addr)
		require.NoError(h.t, err)
		rec = r
	})
	atts, err := h.decrypt(u, rec.BestScore, rec.BestIndex)
	require.NoError(h.t, err)
	return atts[0], atts[1]
}

func (h *harness) confirm(u *user, index *fhe.Attestation) *types.Receipt {
	return h.mustSend(u, sysaction.ActionConfirmMatch, &sysaction.ConfirmPayload{MatchedUserIndex: index.Value, Attestation: index})
}

func (h *harness) indexOf(u *user) (index uint64) {
	h.view(func(db vm.StateDB) { index = IndexOf(db, u.addr) })
	return index
}
