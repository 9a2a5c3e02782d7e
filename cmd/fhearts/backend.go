package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/davecgh/go-spew/spew"
	"github.com/urfave/cli/v2"

	"github.com/Hazem-dh/FHEarts/accounts/keystore"
	"github.com/Hazem-dh/FHEarts/acl"
	"github.com/Hazem-dh/FHEarts/cmd/utils"
	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/core"
	"github.com/Hazem-dh/FHEarts/core/rawdb"
	"github.com/Hazem-dh/FHEarts/core/types"
	"github.com/Hazem-dh/FHEarts/core/vm"
	"github.com/Hazem-dh/FHEarts/crypto"
	"github.com/Hazem-dh/FHEarts/fhe"
	"github.com/Hazem-dh/FHEarts/fhe/coprocessor"
	"github.com/Hazem-dh/FHEarts/fhearts"
	"github.com/Hazem-dh/FHEarts/log"
	"github.com/Hazem-dh/FHEarts/matchdb"
	"github.com/Hazem-dh/FHEarts/matchdb/leveldb"
	"github.com/Hazem-dh/FHEarts/matchdb/memorydb"
	"github.com/Hazem-dh/FHEarts/params"
	"github.com/Hazem-dh/FHEarts/sysaction"
)

const (
	ledgerDirName      = "ledger"
	keystoreDirName    = "keystore"
	coprocessorKeyName = "coprocessor.key"
	ledgerFileHandles  = 64
	defaultKeyfileName = "keyfile.json"
)

// backend is the local ledger with the engine registered on it and the
// coprocessor serving its encrypted values.
type backend struct {
	cfg    *params.Config
	db     matchdb.KeyValueStore
	cp     *coprocessor.Coprocessor
	ledger *core.Ledger
}

func openBackend(cfg *params.Config) (*backend, error) {
	var db matchdb.KeyValueStore
	if cfg.DataDir == "" {
		db = memorydb.New()
	} else {
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, err
		}
		ldb, err := leveldb.New(filepath.Join(cfg.DataDir, ledgerDirName), cfg.StateCacheMB, ledgerFileHandles, false)
		if err != nil {
			return nil, err
		}
		db = ldb
	}
	key, err := coprocessorKey(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}
	cp, err := coprocessor.New(rawdb.NewTable(db, rawdb.CiphertextPrefix), coprocessor.Config{
		Key:            key,
		Target:         params.EngineAddress,
		PlaintextCache: cfg.Coprocessor.PlaintextCache,
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	actions := sysaction.NewRegistry()
	actions.Register(fhearts.New(cp, cp.Verifier(), fhearts.ConfigFrom(cfg)))

	return &backend{
		cfg:    cfg,
		db:     db,
		cp:     cp,
		ledger: core.NewLedger(db, cfg.StateCacheMB, actions),
	}, nil
}

// coprocessorKey loads the coprocessor signing key, creating it on first use.
func coprocessorKey(cfg *params.Config) (*btcec.PrivateKey, error) {
	file := cfg.Coprocessor.KeyFile
	if file == "" {
		if cfg.DataDir == "" {
			return crypto.GenerateKey()
		}
		file = filepath.Join(cfg.DataDir, coprocessorKeyName)
	}
	key, err := crypto.LoadKey(file)
	if err == nil {
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("coprocessor key %s: %w", file, err)
	}
	if key, err = crypto.GenerateKey(); err != nil {
		return nil, err
	}
	if err := crypto.SaveKey(file, key); err != nil {
		return nil, err
	}
	log.Info("Generated coprocessor key", "file", file)
	return key, nil
}

// mustOpenBackend builds the configuration and opens the backend for a
// command action.
func mustOpenBackend(ctx *cli.Context) *backend {
	b, err := openBackend(mustMakeConfig(ctx))
	if err != nil {
		utils.Fatalf("Failed to open ledger: %v", err)
	}
	return b
}

func (b *backend) Close() {
	b.ledger.Close()
	if err := b.db.Close(); err != nil {
		log.Error("Failed to close database", "err", err)
	}
}

// send signs and applies an action as key.
func (b *backend) send(key *btcec.PrivateKey, kind sysaction.ActionKind, payload interface{}) (*types.Receipt, error) {
	data, err := sysaction.MakeSysAction(kind, payload)
	if err != nil {
		return nil, err
	}
	from := crypto.PubkeyToAddress(key.PubKey())
	op, err := types.SignNewOp(key, b.ledger.Nonce(from), data)
	if err != nil {
		return nil, err
	}
	return b.ledger.Apply(op)
}

// mustSend is send for command actions. A failed receipt is fatal.
func (b *backend) mustSend(ctx *cli.Context, key *btcec.PrivateKey, kind sysaction.ActionKind, payload interface{}) *types.Receipt {
	receipt, err := b.send(key, kind, payload)
	if err != nil {
		utils.Fatalf("Failed to apply %s: %v", kind, err)
	}
	printReceipt(ctx, kind, receipt)
	if !receipt.Succeeded() {
		utils.Fatalf("%s failed: %s", kind, receipt.Err)
	}
	return receipt
}

func (b *backend) view(fn func(db vm.StateDB) error) error {
	return b.ledger.View(fn)
}

// decrypt asks the coprocessor for the plaintexts behind hs on behalf of key.
func (b *backend) decrypt(key *btcec.PrivateKey, hs ...fhe.Handle) ([]*fhe.Attestation, error) {
	req, err := fhe.NewDecryptRequest(key, hs...)
	if err != nil {
		return nil, err
	}
	var atts []*fhe.Attestation
	err = b.view(func(db vm.StateDB) error {
		var derr error
		atts, derr = b.cp.UserDecrypt(req, acl.NewView(db))
		return derr
	})
	return atts, err
}

// keyFilePath resolves --keyfile. The default name lives in the keystore
// directory of the datadir.
func keyFilePath(ctx *cli.Context, cfg *params.Config) string {
	if ctx.IsSet(utils.KeyFileFlag.Name) || cfg.DataDir == "" {
		return ctx.Path(utils.KeyFileFlag.Name)
	}
	return filepath.Join(cfg.DataDir, keystoreDirName, defaultKeyfileName)
}

// getPassphrase obtains a passphrase given by the user. It first checks the
// --password command line flag and ultimately prompts the user for a
// passphrase.
func getPassphrase(ctx *cli.Context, confirmation bool) string {
	return utils.GetPassPhraseWithList("Passphrase:", confirmation, 0, utils.MakePasswordList(ctx))
}

// unlockParticipant decrypts the participant key of the current command.
func unlockParticipant(ctx *cli.Context, cfg *params.Config) *keystore.Key {
	file := keyFilePath(ctx, cfg)
	keyjson, err := os.ReadFile(file)
	if err != nil {
		utils.Fatalf("Failed to read the keyfile at '%s': %v", file, err)
	}
	key, err := keystore.DecryptKey(keyjson, getPassphrase(ctx, false))
	if err != nil {
		utils.Fatalf("Error decrypting key: %v", err)
	}
	return key
}

// parseAddress parses a participant address argument.
func parseAddress(s string) common.Address {
	if !common.IsHexAddress(s) {
		utils.Fatalf("Invalid address %q", s)
	}
	return common.HexToAddress(s)
}

func printReceipt(ctx *cli.Context, kind sysaction.ActionKind, receipt *types.Receipt) {
	switch {
	case ctx.Bool(utils.JSONFlag.Name):
		mustPrintJSON(receipt)
	case ctx.Bool(verboseFlag.Name):
		spew.Dump(receipt)
	default:
		status := "ok"
		if !receipt.Succeeded() {
			status = "failed"
		}
		fmt.Printf("%s %s: op %s nonce %d, %d events\n", kind, status, receipt.OpHash.TerminalString(), receipt.Nonce, len(receipt.Logs))
	}
}

// mustPrintJSON prints the JSON encoding of the given object and
// exits the program with an error message when the marshaling fails.
func mustPrintJSON(jsonObject interface{}) {
	str, err := json.MarshalIndent(jsonObject, "", "  ")
	if err != nil {
		utils.Fatalf("Failed to marshal JSON object: %v", err)
	}
	fmt.Println(string(str))
}

var verboseFlag = &cli.BoolFlag{
	Name:  "verbose",
	Usage: "Dump full receipts",
}
