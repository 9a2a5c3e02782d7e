package main

import (
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/Hazem-dh/FHEarts/accounts/keystore"
	"github.com/Hazem-dh/FHEarts/cmd/utils"
	"github.com/Hazem-dh/FHEarts/crypto"
)

type outputNew struct {
	Address  string `json:"address"`
	KeyFile  string `json:"keyfile"`
	Mnemonic string `json:"mnemonic,omitempty"`
}

type outputInspect struct {
	Address    string
	PublicKey  string
	PrivateKey string `json:",omitempty"`
}

var (
	mnemonicGenerateFlag = &cli.BoolFlag{
		Name:  "mnemonic-generate",
		Usage: "Generate a BIP39 mnemonic and derive the key from it",
	}
	mnemonicFlag = &cli.StringFlag{
		Name:  "mnemonic",
		Usage: "Use an existing BIP39 mnemonic to derive the key",
	}
	mnemonicPassphraseFlag = &cli.StringFlag{
		Name:  "mnemonic-passphrase",
		Usage: "Optional BIP39 passphrase for mnemonic-to-seed",
	}
	mnemonicBitsFlag = &cli.IntFlag{
		Name:  "mnemonic-bits",
		Usage: "Entropy bits for a generated mnemonic (128,160,192,224,256)",
		Value: keystore.DefaultMnemonicBits,
	}
	privateKeyFlag = &cli.PathFlag{
		Name:  "privatekey",
		Usage: "file containing a raw hex private key to encrypt",
	}
	privateFlag = &cli.BoolFlag{
		Name:  "private",
		Usage: "include the private key in the output",
	}
)

var accountCommand = &cli.Command{
	Name:  "account",
	Usage: "Manage the participant key",
	Subcommands: []*cli.Command{
		{
			Name:   "new",
			Usage:  "Create a new participant key",
			Action: accountNew,
			Flags: []cli.Flag{
				utils.KeyFileFlag,
				utils.PasswordFileFlag,
				utils.LightKDFFlag,
				utils.JSONFlag,
				privateKeyFlag,
				mnemonicGenerateFlag,
				mnemonicFlag,
				mnemonicPassphraseFlag,
				mnemonicBitsFlag,
			},
			Description: `
    fhearts account new

Creates a new participant key and stores it encrypted with a passphrase in
the keystore directory of the datadir, or at --keyfile.

With --mnemonic-generate a BIP39 mnemonic is generated and printed once; with
--mnemonic an existing one is used. The same mnemonic and mnemonic passphrase
always derive the same participant. An existing key can be imported with
--privatekey.`,
		},
		{
			Name:   "inspect",
			Usage:  "Print the participant key details",
			Action: accountInspect,
			Flags: []cli.Flag{
				utils.KeyFileFlag,
				utils.PasswordFileFlag,
				utils.JSONFlag,
				privateFlag,
			},
			Description: `
Print various information about the participant key.

Private key information can be printed by using the --private flag;
make sure to use this feature with great caution!`,
		},
	},
}

func accountNew(ctx *cli.Context) error {
	cfg := mustMakeConfig(ctx)
	file := keyFilePath(ctx, cfg)
	if _, err := os.Stat(file); err == nil {
		utils.Fatalf("Keyfile already exists at %s.", file)
	} else if !os.IsNotExist(err) {
		utils.Fatalf("Error checking if keyfile exists: %v", err)
	}

	var (
		key      *keystore.Key
		err      error
		output   string
		mnemonic = strings.TrimSpace(ctx.String(mnemonicFlag.Name))
	)
	switch {
	case ctx.IsSet(privateKeyFlag.Name):
		if mnemonic != "" || ctx.Bool(mnemonicGenerateFlag.Name) {
			utils.Fatalf("Can't use --privatekey with mnemonic flags")
		}
		priv, lerr := crypto.LoadKey(ctx.Path(privateKeyFlag.Name))
		if lerr != nil {
			utils.Fatalf("Can't load private key: %v", lerr)
		}
		key, err = keystore.NewKeyFromPrivate(priv)
	case mnemonic != "" || ctx.Bool(mnemonicGenerateFlag.Name):
		if mnemonic == "" {
			if mnemonic, err = keystore.GenerateMnemonic(ctx.Int(mnemonicBitsFlag.Name)); err != nil {
				utils.Fatalf("Failed to generate mnemonic: %v", err)
			}
			output = mnemonic
		}
		key, err = keystore.NewKeyFromMnemonic(mnemonic, ctx.String(mnemonicPassphraseFlag.Name))
	default:
		key, err = keystore.NewKey(crand.Reader)
	}
	if err != nil {
		utils.Fatalf("Failed to create key: %v", err)
	}

	scryptN, scryptP := keystore.StandardScryptN, keystore.StandardScryptP
	if ctx.Bool(utils.LightKDFFlag.Name) {
		scryptN, scryptP = keystore.LightScryptN, keystore.LightScryptP
	}
	passphrase := getPassphrase(ctx, true)
	if err := keystore.StoreKey(file, key, passphrase, scryptN, scryptP); err != nil {
		utils.Fatalf("Failed to store key: %v", err)
	}

	out := outputNew{Address: key.Address.Hex(), KeyFile: file, Mnemonic: output}
	if ctx.Bool(utils.JSONFlag.Name) {
		mustPrintJSON(out)
		return nil
	}
	fmt.Println("Address:", out.Address)
	fmt.Println("Key file:", out.KeyFile)
	if out.Mnemonic != "" {
		fmt.Println("Mnemonic:", out.Mnemonic)
		fmt.Println("Write the mnemonic down, it is not stored anywhere.")
	}
	return nil
}

func accountInspect(ctx *cli.Context) error {
	cfg := mustMakeConfig(ctx)
	key := unlockParticipant(ctx, cfg)

	out := outputInspect{
		Address:   key.Address.Hex(),
		PublicKey: hex.EncodeToString(crypto.FromPubkey(key.PrivateKey.PubKey())),
	}
	if ctx.Bool(privateFlag.Name) {
		out.PrivateKey = hex.EncodeToString(crypto.FromKey(key.PrivateKey))
	}
	if ctx.Bool(utils.JSONFlag.Name) {
		mustPrintJSON(out)
		return nil
	}
	fmt.Println("Address:       ", out.Address)
	fmt.Println("Public key:    ", out.PublicKey)
	if out.PrivateKey != "" {
		fmt.Println("Private key:   ", out.PrivateKey)
	}
	return nil
}
