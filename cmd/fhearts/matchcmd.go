package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/Hazem-dh/FHEarts/cmd/utils"
	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/core/types"
	"github.com/Hazem-dh/FHEarts/core/vm"
	"github.com/Hazem-dh/FHEarts/fhe"
	"github.com/Hazem-dh/FHEarts/fhearts"
	"github.com/Hazem-dh/FHEarts/profile"
	"github.com/Hazem-dh/FHEarts/sysaction"
)

var (
	singleBatchFlag = &cli.BoolFlag{
		Name:  "single",
		Usage: "Submit a single search batch instead of searching to completion",
	}
	rejectFlag = &cli.BoolFlag{
		Name:  "reject",
		Usage: "Reject the request instead of accepting it",
	}
)

var (
	searchCommand = &cli.Command{
		Action: search,
		Name:   "search",
		Usage:  "Search the registry for the best encrypted match",
		Flags:  append([]cli.Flag{singleBatchFlag}, opFlags...),
		Description: `
Submits search batches until every candidate slot has been scanned. The
resulting score and candidate index stay encrypted; use decrypt-match to
reveal them to yourself.`,
	}
	resetSearchCommand = &cli.Command{
		Action: func(ctx *cli.Context) error { return simpleAction(ctx, sysaction.ActionResetMatchSearch) },
		Name:   "reset-search",
		Usage:  "Abandon an in-progress search",
		Flags:  opFlags,
	}
	statusCommand = &cli.Command{
		Action: status,
		Name:   "status",
		Usage:  "Show registration and search status",
		Flags:  []cli.Flag{utils.KeyFileFlag, utils.PasswordFileFlag, utils.JSONFlag},
	}
	decryptMatchCommand = &cli.Command{
		Action: decryptMatch,
		Name:   "decrypt-match",
		Usage:  "Decrypt your best match score and index",
		Flags:  []cli.Flag{utils.KeyFileFlag, utils.PasswordFileFlag, utils.JSONFlag},
	}
	confirmCommand = &cli.Command{
		Action: confirm,
		Name:   "confirm",
		Usage:  "Confirm your current best match",
		Flags:  opFlags,
		Description: `
Decrypts the best match index and submits it together with the coprocessor
attestation, sending a match request to that participant.`,
	}
	respondCommand = &cli.Command{
		Action:    respond,
		Name:      "respond",
		Usage:     "Accept or reject a pending match request",
		ArgsUsage: "<requester>",
		Flags:     append([]cli.Flag{rejectFlag}, opFlags...),
	}
	clearCommand = &cli.Command{
		Action: func(ctx *cli.Context) error { return simpleAction(ctx, sysaction.ActionClearMatch) },
		Name:   "clear",
		Usage:  "Discard your match record",
		Flags:  opFlags,
	}
	consentCommand = &cli.Command{
		Action:    giveConsent,
		Name:      "consent",
		Usage:     "Consent to share your phone number with a mutual match",
		ArgsUsage: "<address>",
		Flags:     opFlags,
	}
	pendingCommand = &cli.Command{
		Action: pending,
		Name:   "pending",
		Usage:  "List match requests waiting for your response",
		Flags:  []cli.Flag{utils.KeyFileFlag, utils.PasswordFileFlag, utils.JSONFlag},
	}
	lookupCommand = &cli.Command{
		Action:    lookup,
		Name:      "lookup",
		Usage:     "Map a slot index to its participant or back",
		ArgsUsage: "<slot|address>",
	}
	contactCommand = &cli.Command{
		Action:    contact,
		Name:      "contact",
		Usage:     "Decrypt the phone number of a mutual match",
		ArgsUsage: "<address>",
		Flags:     []cli.Flag{utils.KeyFileFlag, utils.PasswordFileFlag, utils.JSONFlag},
	}
)

// progressLine renders one search batch. Event counts are per batch, the
// total is summed by the caller.
func progressLine(from, to, batch, total uint64) string {
	return fmt.Sprintf("Scanned slots %d..%d, %d candidates in this batch, %d in total", from, to, batch, total)
}

func search(ctx *cli.Context) error {
	b := mustOpenBackend(ctx)
	defer b.Close()
	key := unlockParticipant(ctx, b.cfg)

	var total uint64
	for {
		receipt := b.mustSend(ctx, key.PrivateKey, sysaction.ActionSearchMatches, nil)
		if l := receipt.FindLog(fhearts.EventSearchProgress); l != nil && !ctx.Bool(utils.JSONFlag.Name) {
			total += word(l, 2)
			fmt.Println(progressLine(word(l, 0), word(l, 1), word(l, 2), total))
		}
		if l := receipt.FindLog(fhearts.EventMatchFound); l != nil {
			if word(l, 2) == 0 {
				fmt.Println("Search complete:", color.YellowString("no active candidate"))
			} else {
				fmt.Println("Search complete:", color.GreenString("match record ready"), "(see decrypt-match)")
			}
			return nil
		}
		if ctx.Bool(singleBatchFlag.Name) {
			return nil
		}
	}
}

// word returns the i'th data word of an engine log.
func word(l *types.Log, i int) uint64 {
	start := i * common.HashLength
	if len(l.Data) < start+common.HashLength {
		return 0
	}
	return common.BytesToHash(l.Data[start : start+common.HashLength]).Big64()
}

type outputStatus struct {
	Address     common.Address      `json:"address"`
	Index       uint64              `json:"index"`
	ActiveUsers uint64              `json:"activeUsers"`
	Record      fhearts.Record      `json:"record"`
	Search      fhearts.MatchStatus `json:"search"`
}

func status(ctx *cli.Context) error {
	b := mustOpenBackend(ctx)
	defer b.Close()
	key := unlockParticipant(ctx, b.cfg)

	out := outputStatus{Address: key.Address}
	err := b.view(func(db vm.StateDB) error {
		var err error
		out.Index = fhearts.IndexOf(db, key.Address)
		out.ActiveUsers = fhearts.ActiveUsersCount(db)
		if out.Record, err = fhearts.MatchRecord(db, key.Address); err != nil {
			return err
		}
		out.Search, err = fhearts.GetMatchStatus(db, key.Address)
		return err
	})
	if err != nil {
		utils.Fatalf("Failed to read status: %v", err)
	}
	if ctx.Bool(utils.JSONFlag.Name) {
		mustPrintJSON(out)
		return nil
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Field", "Value"})
	table.Append([]string{"Address", out.Address.Hex()})
	table.Append([]string{"Slot", strconv.FormatUint(out.Index, 10)})
	table.Append([]string{"Active participants", strconv.FormatUint(out.ActiveUsers, 10)})
	table.Append([]string{"Searched", yesNo(out.Record.HasSearched)})
	table.Append([]string{"Valid match", yesNo(out.Record.IsValid)})
	table.Append([]string{"Match count", strconv.FormatUint(out.Search.MatchCount, 10)})
	if out.Search.Cursor != 0 {
		table.Append([]string{"Search cursor", strconv.FormatUint(out.Search.Cursor, 10)})
	}
	table.Append([]string{"Search complete", yesNo(out.Search.Complete)})
	table.Render()
	return nil
}

func yesNo(b bool) string {
	if b {
		return color.GreenString("yes")
	}
	return color.RedString("no")
}

type outputMatch struct {
	Score   uint64         `json:"score"`
	Index   uint64         `json:"index"`
	Address common.Address `json:"address"`
}

// bestMatch decrypts the caller's match record.
func bestMatch(b *backend, key *btcec.PrivateKey, who common.Address) (score, index *fhe.Attestation) {
	var rec fhearts.Record
	err := b.view(func(db vm.StateDB) error {
		var err error
		rec, err = fhearts.MatchRecord(db, who)
		return err
	})
	if err != nil {
		utils.Fatalf("Failed to read match record: %v", err)
	}
	if !rec.HasSearched || !rec.IsValid {
		utils.Fatalf("No valid match record, run search first")
	}
	atts, err := b.decrypt(key, rec.BestScore, rec.BestIndex)
	if err != nil {
		utils.Fatalf("Failed to decrypt match record: %v", err)
	}
	return atts[0], atts[1]
}

func decryptMatch(ctx *cli.Context) error {
	b := mustOpenBackend(ctx)
	defer b.Close()
	key := unlockParticipant(ctx, b.cfg)

	score, index := bestMatch(b, key.PrivateKey, key.Address)
	out := outputMatch{Score: score.Value, Index: index.Value}
	b.view(func(db vm.StateDB) error {
		out.Address = fhearts.AddressOf(db, index.Value)
		return nil
	})
	if ctx.Bool(utils.JSONFlag.Name) {
		mustPrintJSON(out)
		return nil
	}
	if out.Index == 0 {
		fmt.Println(color.YellowString("No eligible candidate was found."))
		return nil
	}
	fmt.Println("Score:  ", out.Score)
	fmt.Println("Slot:   ", out.Index)
	fmt.Println("Address:", out.Address.Hex())
	return nil
}

func confirm(ctx *cli.Context) error {
	b := mustOpenBackend(ctx)
	defer b.Close()
	key := unlockParticipant(ctx, b.cfg)

	_, index := bestMatch(b, key.PrivateKey, key.Address)
	if index.Value == 0 {
		utils.Fatalf("No eligible candidate to confirm")
	}
	b.mustSend(ctx, key.PrivateKey, sysaction.ActionConfirmMatch, &sysaction.ConfirmPayload{
		MatchedUserIndex: index.Value,
		Attestation:      index,
	})
	return nil
}

func respond(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		utils.Fatalf("This command requires the requester address as argument.")
	}
	requester := parseAddress(ctx.Args().First())

	b := mustOpenBackend(ctx)
	defer b.Close()
	key := unlockParticipant(ctx, b.cfg)
	b.mustSend(ctx, key.PrivateKey, sysaction.ActionRespondToMatch, &sysaction.RespondPayload{
		Requester: requester,
		Accept:    !ctx.Bool(rejectFlag.Name),
	})
	return nil
}

func giveConsent(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		utils.Fatalf("This command requires the matched participant address as argument.")
	}
	matched := parseAddress(ctx.Args().First())

	b := mustOpenBackend(ctx)
	defer b.Close()
	key := unlockParticipant(ctx, b.cfg)
	receipt := b.mustSend(ctx, key.PrivateKey, sysaction.ActionGivePhoneConsent, &sysaction.ConsentPayload{MatchedUser: matched})
	if receipt.FindLog(fhearts.EventMutualPhoneConsent) != nil && !ctx.Bool(utils.JSONFlag.Name) {
		fmt.Println(color.GreenString("Consent is mutual, phone numbers are now readable by both sides."))
	}
	return nil
}

type outputRequest struct {
	Requester common.Address `json:"requester"`
	Index     uint64         `json:"index"`
	Confirmed bool           `json:"confirmedByYou"`
}

func pending(ctx *cli.Context) error {
	b := mustOpenBackend(ctx)
	defer b.Close()
	key := unlockParticipant(ctx, b.cfg)

	var out []outputRequest
	b.view(func(db vm.StateDB) error {
		for _, r := range fhearts.PendingRequests(db, key.Address) {
			out = append(out, outputRequest{
				Requester: r,
				Index:     fhearts.IndexOf(db, r),
				Confirmed: fhearts.IsConfirmed(db, key.Address, r),
			})
		}
		return nil
	})
	if ctx.Bool(utils.JSONFlag.Name) {
		mustPrintJSON(out)
		return nil
	}
	if len(out) == 0 {
		fmt.Println("No pending match requests.")
		return nil
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Requester", "Slot", "Confirmed by you"})
	for _, r := range out {
		table.Append([]string{r.Requester.Hex(), strconv.FormatUint(r.Index, 10), yesNo(r.Confirmed)})
	}
	table.Render()
	return nil
}

type outputContact struct {
	CountryCode      uint64 `json:"countryCode"`
	LeadingZeroCount uint64 `json:"leadingZeroCount"`
	PhoneDigits      uint64 `json:"phoneDigits"`
	Phone            string `json:"phone"`
}

// formatPhone renders a contact as +<country> <leading zeros><digits>.
func formatPhone(countryCode, leadingZeros, digits uint64) string {
	return fmt.Sprintf("+%d %s%d", countryCode, strings.Repeat("0", int(leadingZeros)), digits)
}

func contact(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		utils.Fatalf("This command requires the matched participant address as argument.")
	}
	owner := parseAddress(ctx.Args().First())

	b := mustOpenBackend(ctx)
	defer b.Close()
	key := unlockParticipant(ctx, b.cfg)

	var handles []fhe.Handle
	err := b.view(func(db vm.StateDB) error {
		var err error
		handles, err = fhearts.GetContactHandles(db, key.Address, owner)
		return err
	})
	if err != nil {
		utils.Fatalf("Contact of %v is not readable: %v", owner, err)
	}
	atts, err := b.decrypt(key.PrivateKey, handles...)
	if err != nil {
		utils.Fatalf("Failed to decrypt contact: %v", err)
	}
	if len(atts) != len(profile.ContactFields) {
		utils.Fatalf("Unexpected contact field count %d", len(atts))
	}
	cc, zeros, digits := atts[0].Value, atts[1].Value, atts[2].Value
	out := outputContact{
		CountryCode:      cc,
		LeadingZeroCount: zeros,
		PhoneDigits:      digits,
		Phone:            formatPhone(cc, zeros, digits),
	}
	if ctx.Bool(utils.JSONFlag.Name) {
		mustPrintJSON(out)
		return nil
	}
	fmt.Println("Phone:", out.Phone)
	return nil
}

func lookup(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		utils.Fatalf("This command requires a slot index or an address as argument.")
	}
	arg := ctx.Args().First()

	b := mustOpenBackend(ctx)
	defer b.Close()

	return b.view(func(db vm.StateDB) error {
		if common.IsHexAddress(arg) {
			addr := common.HexToAddress(arg)
			if !fhearts.IsRegistered(db, addr) {
				return fmt.Errorf("%v: %w", addr, fhearts.ErrNotRegistered)
			}
			fmt.Println(fhearts.IndexOf(db, addr))
			return nil
		}
		index, err := utils.ParseUint(arg)
		if err != nil {
			return fmt.Errorf("invalid slot %q: %v", arg, err)
		}
		addr := fhearts.AddressOf(db, index)
		if addr.IsZero() {
			return fmt.Errorf("slot %d is not assigned", index)
		}
		fmt.Println(addr.Hex())
		return nil
	})
}
