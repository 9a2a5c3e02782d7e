package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/Hazem-dh/FHEarts/cmd/utils"
	"github.com/Hazem-dh/FHEarts/internal/flags"
	"github.com/Hazem-dh/FHEarts/profile"
	"github.com/Hazem-dh/FHEarts/sysaction"
)

// profileFlags holds one --profile.<field> flag per profile field.
var profileFlags = func() []cli.Flag {
	out := make([]cli.Flag, profile.NumFields)
	for i := range out {
		f := profile.Field(i)
		out[i] = &cli.Uint64Flag{
			Name:     "profile." + f.String(),
			Usage:    fmt.Sprintf("Plaintext %s, encrypted before submission", f),
			Required: true,
			Category: flags.FHEartsCategory,
		}
	}
	return out
}()

// opFlags are accepted by every command submitting an operation.
var opFlags = []cli.Flag{
	utils.KeyFileFlag,
	utils.PasswordFileFlag,
	utils.JSONFlag,
	verboseFlag,
}

var (
	registerCommand = &cli.Command{
		Action: register,
		Name:   "register",
		Usage:  "Register an encrypted profile",
		Flags:  flags.Merge(opFlags, profileFlags),
		Description: `
    fhearts register --profile.countryCode 33 --profile.leadingZeroCount 1 ...

Encrypts the ten profile fields under the local coprocessor and registers them
for the participant. Every field is required.`,
	}
	updateCommand = &cli.Command{
		Action: update,
		Name:   "update",
		Usage:  "Replace the encrypted profile",
		Flags:  flags.Merge(opFlags, profileFlags),
		Description: `
Replaces the whole profile. The previous search result, confirmations,
pending requests and phone consents of the participant are discarded.`,
	}
	deactivateCommand = &cli.Command{
		Action: func(ctx *cli.Context) error { return simpleAction(ctx, sysaction.ActionDeactivateProfile) },
		Name:   "deactivate",
		Usage:  "Hide the profile from other participants' searches",
		Flags:  opFlags,
	}
	reactivateCommand = &cli.Command{
		Action: func(ctx *cli.Context) error { return simpleAction(ctx, sysaction.ActionReactivateProfile) },
		Name:   "reactivate",
		Usage:  "Make a deactivated profile searchable again",
		Flags:  opFlags,
	}
)

func profileValues(ctx *cli.Context) profile.Values {
	var v profile.Values
	for i := range v {
		v[i] = ctx.Uint64("profile." + profile.Field(i).String())
	}
	return v
}

func register(ctx *cli.Context) error {
	return submitProfile(ctx, sysaction.ActionRegisterUser)
}

func update(ctx *cli.Context) error {
	return submitProfile(ctx, sysaction.ActionUpdateProfile)
}

func submitProfile(ctx *cli.Context, kind sysaction.ActionKind) error {
	b := mustOpenBackend(ctx)
	defer b.Close()
	key := unlockParticipant(ctx, b.cfg)

	handles, proof, err := b.cp.EncryptInput(key.Address, profileValues(ctx).Inputs())
	if err != nil {
		utils.Fatalf("Failed to encrypt profile: %v", err)
	}
	b.mustSend(ctx, key.PrivateKey, kind, &sysaction.ProfilePayload{Handles: handles, Proof: proof})
	return nil
}

// simpleAction submits an action without payload.
func simpleAction(ctx *cli.Context, kind sysaction.ActionKind) error {
	b := mustOpenBackend(ctx)
	defer b.Close()
	key := unlockParticipant(ctx, b.cfg)
	b.mustSend(ctx, key.PrivateKey, kind, nil)
	return nil
}
