package consent

import (
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/Hazem-dh/FHEarts/acl"
	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/core/state"
	"github.com/Hazem-dh/FHEarts/crypto"
	"github.com/Hazem-dh/FHEarts/fhe"
	"github.com/Hazem-dh/FHEarts/fhe/coprocessor"
	"github.com/Hazem-dh/FHEarts/matchdb/memorydb"
	"github.com/Hazem-dh/FHEarts/matching"
	"github.com/Hazem-dh/FHEarts/params"
	"github.com/Hazem-dh/FHEarts/profile"
	"github.com/Hazem-dh/FHEarts/registry"
)

type testEnv struct {
	t        *testing.T
	db       *state.StateDB
	cp       *coprocessor.Coprocessor
	searcher *matching.Searcher
	machine  *Machine
	keys     map[common.Address]*btcec.PrivateKey
}

func newTestEnv(t *testing.T) *testEnv {
	key, _ := crypto.GenerateKey()
	cp, err := coprocessor.New(memorydb.New(), coprocessor.Config{Key: key, Target: params.EngineAddress})
	if err != nil {
		t.Fatalf("coprocessor: %v", err)
	}
	return &testEnv{
		t:        t,
		db:       state.New(memorydb.New(), 1),
		cp:       cp,
		searcher: matching.NewSearcher(cp, 0, params.MinimumAge),
		machine:  NewMachine(cp.Verifier()),
		keys:     make(map[common.Address]*btcec.PrivateKey),
	}
}

func (e *testEnv) join(gender, interestedIn, p1, p2, p3 uint64) common.Address {
	e.t.Helper()
	key, _ := crypto.GenerateKey()
	who := crypto.PubkeyToAddress(key.PubKey())
	e.keys[who] = key
	v := profile.Values{44, 0, 7000000 + uint64(len(e.keys)), 30, 1, gender, interestedIn, p1, p2, p3}
	handles, proof, err := e.cp.EncryptInput(who, v.Inputs())
	if err != nil {
		e.t.Fatalf("encrypt: %v", err)
	}
	vec, _ := profile.VectorFromHandles(handles)
	if err := profile.Register(e.db, who, vec, proof); err != nil {
		e.t.Fatalf("profile: %v", err)
	}
	if _, err := registry.Register(e.db, who); err != nil {
		e.t.Fatalf("registry: %v", err)
	}
	return who
}

// searchAndAttest runs who's search and returns the attested best index.
func (e *testEnv) searchAndAttest(who common.Address) *fhe.Attestation {
	e.t.Helper()
	if _, err := e.searcher.Search(e.db, who); err != nil {
		e.t.Fatalf("search: %v", err)
	}
	return e.attest(who, matching.ReadRecord(e.db, who).BestIndex)
}

func (e *testEnv) attest(who common.Address, h fhe.Handle) *fhe.Attestation {
	e.t.Helper()
	req, _ := fhe.NewDecryptRequest(e.keys[who], h)
	atts, err := e.cp.UserDecrypt(req, acl.NewView(e.db))
	if err != nil {
		e.t.Fatalf("decrypt: %v", err)
	}
	return atts[0]
}

func (e *testEnv) confirm(who common.Address) (common.Address, bool) {
	e.t.Helper()
	att := e.searchAndAttest(who)
	target, mutual, err := e.machine.ConfirmMatch(e.db, who, att.Value, att)
	if err != nil {
		e.t.Fatalf("confirm: %v", err)
	}
	return target, mutual
}

func TestConfirmBecomesMutual(t *testing.T) {
	e := newTestEnv(t)
	alice := e.join(0, 1, 2, 3, 5)
	bob := e.join(1, 0, 2, 3, 7)

	target, mutual := e.confirm(alice)
	if target != bob || mutual {
		t.Fatalf("alice: target=%v mutual=%v", target, mutual)
	}
	if got := PendingRequests(e.db, bob); len(got) != 1 || got[0] != alice {
		t.Fatalf("bob pending = %v", got)
	}
	target, mutual = e.confirm(bob)
	if target != alice || !mutual {
		t.Fatalf("bob: target=%v mutual=%v", target, mutual)
	}
	if !IsMutualMatch(e.db, alice, bob) || !IsMutualMatch(e.db, bob, alice) {
		t.Fatalf("mutual match not derived")
	}
	if len(PendingRequests(e.db, bob)) != 0 {
		t.Fatalf("pending request survived confirmation")
	}
}

func TestConfirmRejectsWrongIndex(t *testing.T) {
	e := newTestEnv(t)
	alice := e.join(0, 1, 2, 3, 5)
	e.join(1, 0, 2, 3, 7)
	carol := e.join(1, 0, 1, 1, 1)

	att := e.searchAndAttest(alice)
	cases := []struct {
		name  string
		index uint64
		att   *fhe.Attestation
	}{
		{"zero index", 0, att},
		{"out of range", 9, att},
		{"other slot", registry.IndexOf(e.db, carol), att},
		{"missing attestation", att.Value, nil},
	}
	forged := *att
	forged.Value = registry.IndexOf(e.db, carol)
	cases = append(cases, struct {
		name  string
		index uint64
		att   *fhe.Attestation
	}{"forged attestation", forged.Value, &forged})

	for _, tc := range cases {
		_, _, err := e.machine.ConfirmMatch(e.db, alice, tc.index, tc.att)
		if !errors.Is(err, ErrInvalidMatchedUser) {
			t.Fatalf("%s: expected ErrInvalidMatchedUser, got %v", tc.name, err)
		}
	}
	for _, p := range registry.Participants(e.db) {
		if IsConfirmed(e.db, alice, p) {
			t.Fatalf("rejected confirmation left an edge to %v", p)
		}
	}
}

func TestConfirmRequiresValidRecord(t *testing.T) {
	e := newTestEnv(t)
	alice := e.join(0, 1, 2, 3, 5)
	e.join(1, 0, 2, 3, 7)
	att := e.searchAndAttest(alice)
	matching.Invalidate(e.db, alice)
	if _, _, err := e.machine.ConfirmMatch(e.db, alice, att.Value, att); !errors.Is(err, ErrInvalidMatchedUser) {
		t.Fatalf("expected ErrInvalidMatchedUser, got %v", err)
	}
	if _, _, err := e.machine.ConfirmMatch(e.db, common.HexToAddress("0x01"), 1, att); !errors.Is(err, registry.ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
}

func TestRespondToMatch(t *testing.T) {
	e := newTestEnv(t)
	alice := e.join(0, 1, 2, 3, 5)
	bob := e.join(1, 0, 2, 3, 5)

	if _, err := e.machine.RespondToMatch(e.db, alice, bob, true); !errors.Is(err, ErrNoMatchRequest) {
		t.Fatalf("expected ErrNoMatchRequest, got %v", err)
	}
	e.confirm(bob)
	mutual, err := e.machine.RespondToMatch(e.db, alice, bob, false)
	if err != nil || mutual {
		t.Fatalf("reject: mutual=%v err=%v", mutual, err)
	}
	if !IsConfirmed(e.db, bob, alice) || IsMutualMatch(e.db, alice, bob) {
		t.Fatalf("rejection must keep the forward edge and no mutuality")
	}
	if got := PendingRequests(e.db, alice); len(got) != 1 {
		t.Fatalf("rejected requester should still be pending, have %v", got)
	}
	mutual, err = e.machine.RespondToMatch(e.db, alice, bob, true)
	if err != nil || !mutual || !IsMutualMatch(e.db, alice, bob) {
		t.Fatalf("accept: mutual=%v err=%v", mutual, err)
	}
}

func TestPhoneConsentGrants(t *testing.T) {
	e := newTestEnv(t)
	alice := e.join(0, 1, 2, 3, 5)
	bob := e.join(1, 0, 2, 3, 5)

	if _, err := e.machine.GivePhoneConsent(e.db, alice, bob); !errors.Is(err, ErrNoMutualMatch) {
		t.Fatalf("expected ErrNoMutualMatch, got %v", err)
	}
	e.confirm(alice)
	if _, err := e.machine.GivePhoneConsent(e.db, alice, bob); !errors.Is(err, ErrNoMutualMatch) {
		t.Fatalf("one-sided match allowed consent: %v", err)
	}
	e.confirm(bob)

	bobVec, _ := profile.Load(e.db, bob)
	mutual, err := e.machine.GivePhoneConsent(e.db, alice, bob)
	if err != nil || mutual {
		t.Fatalf("first consent: mutual=%v err=%v", mutual, err)
	}
	if HasMutualPhoneConsent(e.db, alice, bob) {
		t.Fatalf("one consent reported as mutual")
	}
	for _, h := range bobVec.Contact() {
		if acl.IsAllowed(e.db, h, alice) {
			t.Fatalf("contact granted before mutual consent")
		}
	}
	mutual, err = e.machine.GivePhoneConsent(e.db, bob, alice)
	if err != nil || !mutual || !HasMutualPhoneConsent(e.db, alice, bob) {
		t.Fatalf("second consent: mutual=%v err=%v", mutual, err)
	}
	for _, f := range profile.ContactFields {
		if !acl.IsAllowed(e.db, bobVec.Get(f), alice) {
			t.Fatalf("alice missing grant on bob's %s", f)
		}
	}
	for _, f := range []profile.Field{profile.Age, profile.Gender, profile.Preference1} {
		if acl.IsAllowed(e.db, bobVec.Get(f), alice) {
			t.Fatalf("non-contact field %s granted", f)
		}
	}
}

func TestResetRelations(t *testing.T) {
	e := newTestEnv(t)
	alice := e.join(0, 1, 2, 3, 5)
	bob := e.join(1, 0, 2, 3, 5)
	e.confirm(alice)
	e.confirm(bob)
	e.machine.GivePhoneConsent(e.db, alice, bob)
	e.machine.GivePhoneConsent(e.db, bob, alice)

	aliceVec, _ := profile.Load(e.db, alice)
	bobVec, _ := profile.Load(e.db, bob)
	touched := ResetRelations(e.db, alice, aliceVec)
	if len(touched) != 1 || touched[0] != bob {
		t.Fatalf("unexpected counterparts %v", touched)
	}
	if IsConfirmed(e.db, alice, bob) || IsConfirmed(e.db, bob, alice) ||
		HasConsented(e.db, alice, bob) || HasConsented(e.db, bob, alice) {
		t.Fatalf("edges survived reset")
	}
	for i := range profile.ContactFields {
		if acl.IsAllowed(e.db, aliceVec.Contact()[i], bob) || acl.IsAllowed(e.db, bobVec.Contact()[i], alice) {
			t.Fatalf("contact grant survived reset")
		}
	}
	if got := ResetRelations(e.db, alice, aliceVec); len(got) != 0 {
		t.Fatalf("second reset touched %v", got)
	}
}
