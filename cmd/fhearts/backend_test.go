package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/Hazem-dh/FHEarts/core/vm"
	"github.com/Hazem-dh/FHEarts/crypto"
	"github.com/Hazem-dh/FHEarts/fhearts"
	"github.com/Hazem-dh/FHEarts/params"
	"github.com/Hazem-dh/FHEarts/profile"
	"github.com/Hazem-dh/FHEarts/sysaction"
)

func testConfig(datadir string) *params.Config {
	cfg := params.DefaultConfig
	cfg.DataDir = datadir
	cfg.StateCacheMB = 1
	return &cfg
}

func TestBackendPersists(t *testing.T) {
	datadir := t.TempDir()
	alice, _ := crypto.GenerateKey()
	bob, _ := crypto.GenerateKey()
	aliceAddr := crypto.PubkeyToAddress(alice.PubKey())

	b, err := openBackend(testConfig(datadir))
	if err != nil {
		t.Fatalf("failed to open backend: %v", err)
	}
	participants := []struct {
		key    *btcec.PrivateKey
		values profile.Values
	}{
		{alice, profile.Values{33, 1, 5551001, 30, 1, 0, 1, 1, 2, 3}},
		{bob, profile.Values{33, 1, 5551002, 31, 1, 1, 0, 1, 2, 4}},
	}
	for _, p := range participants {
		addr := crypto.PubkeyToAddress(p.key.PubKey())
		handles, proof, err := b.cp.EncryptInput(addr, p.values.Inputs())
		if err != nil {
			t.Fatalf("encrypt failed: %v", err)
		}
		receipt, err := b.send(p.key, sysaction.ActionRegisterUser, &sysaction.ProfilePayload{Handles: handles, Proof: proof})
		if err != nil || !receipt.Succeeded() {
			t.Fatalf("register failed: %v %v", err, receipt)
		}
	}
	receipt, err := b.send(alice, sysaction.ActionSearchMatches, nil)
	if err != nil || receipt.FindLog(fhearts.EventMatchFound) == nil {
		t.Fatalf("search did not complete: %v %v", err, receipt)
	}
	b.Close()

	if _, err := os.Stat(filepath.Join(datadir, coprocessorKeyName)); err != nil {
		t.Fatalf("coprocessor key not stored: %v", err)
	}

	// The reopened backend must read the ledger and decrypt with the same key.
	b, err = openBackend(testConfig(datadir))
	if err != nil {
		t.Fatalf("failed to reopen backend: %v", err)
	}
	defer b.Close()

	var rec fhearts.Record
	err = b.view(func(db vm.StateDB) error {
		if n := fhearts.ActiveUsersCount(db); n != 2 {
			t.Errorf("active users: have %d, want 2", n)
		}
		rec, err = fhearts.MatchRecord(db, aliceAddr)
		return err
	})
	if err != nil {
		t.Fatalf("failed to read record: %v", err)
	}
	if !rec.IsValid || !rec.HasSearched {
		t.Fatalf("unexpected record: %+v", rec)
	}
	atts, err := b.decrypt(alice, rec.BestScore, rec.BestIndex)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if atts[0].Value != 66 || atts[1].Value != 2 {
		t.Fatalf("match mismatch: score %d index %d, want 66 and 2", atts[0].Value, atts[1].Value)
	}
	if n := b.ledger.Nonce(aliceAddr); n != 2 {
		t.Fatalf("nonce: have %d, want 2", n)
	}
}

func TestBackendInMemory(t *testing.T) {
	b, err := openBackend(testConfig(""))
	if err != nil {
		t.Fatalf("failed to open backend: %v", err)
	}
	defer b.Close()

	key, _ := crypto.GenerateKey()
	receipt, err := b.send(key, sysaction.ActionSearchMatches, nil)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if receipt.Succeeded() {
		t.Fatal("search by unregistered participant succeeded")
	}
	if b.ledger.OpCount() != 1 {
		t.Fatalf("op count: have %d, want 1", b.ledger.OpCount())
	}
}

func TestSearchProgressTotals(t *testing.T) {
	cfg := testConfig("")
	cfg.SearchBatchSize = 1
	b, err := openBackend(cfg)
	if err != nil {
		t.Fatalf("failed to open backend: %v", err)
	}
	defer b.Close()

	alice, _ := crypto.GenerateKey()
	bob, _ := crypto.GenerateKey()
	carol, _ := crypto.GenerateKey()
	participants := []struct {
		key    *btcec.PrivateKey
		values profile.Values
	}{
		{alice, profile.Values{33, 1, 5551001, 30, 1, 0, 1, 1, 2, 3}},
		{bob, profile.Values{33, 1, 5551002, 31, 1, 1, 0, 1, 2, 4}},
		{carol, profile.Values{33, 1, 5551003, 32, 1, 1, 0, 1, 2, 3}},
	}
	for _, p := range participants {
		addr := crypto.PubkeyToAddress(p.key.PubKey())
		handles, proof, err := b.cp.EncryptInput(addr, p.values.Inputs())
		if err != nil {
			t.Fatalf("encrypt failed: %v", err)
		}
		receipt, err := b.send(p.key, sysaction.ActionRegisterUser, &sysaction.ProfilePayload{Handles: handles, Proof: proof})
		if err != nil || !receipt.Succeeded() {
			t.Fatalf("register failed: %v %v", err, receipt)
		}
	}

	var total, batches uint64
	for i := 0; ; i++ {
		if i == 10 {
			t.Fatal("search did not complete")
		}
		receipt, err := b.send(alice, sysaction.ActionSearchMatches, nil)
		if err != nil || !receipt.Succeeded() {
			t.Fatalf("search failed: %v %v", err, receipt)
		}
		l := receipt.FindLog(fhearts.EventSearchProgress)
		if l == nil {
			t.Fatal("missing progress event")
		}
		if n := word(l, 2); n > 1 {
			t.Fatalf("batch of one slot folded %d candidates", n)
		}
		total += word(l, 2)
		batches++
		if receipt.FindLog(fhearts.EventMatchFound) != nil {
			break
		}
	}
	if batches < 2 {
		t.Fatalf("batches: have %d, want at least 2", batches)
	}
	if total != 2 {
		t.Fatalf("candidates: have %d, want 2", total)
	}
	want := "Scanned slots 3..3, 1 candidates in this batch, 2 in total"
	if have := progressLine(3, 3, 1, 2); have != want {
		t.Fatalf("progress line mismatch:\nhave %q\nwant %q", have, want)
	}
}
