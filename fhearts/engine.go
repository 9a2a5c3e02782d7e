// Package fhearts is the matchmaking engine. It wires the registry, the
// profile store, the match search engine and the consent state machine into
// a sysaction.Handler, and exposes the read-only queries clients use between
// operations.
package fhearts

import (
	"fmt"

	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/consent"
	"github.com/Hazem-dh/FHEarts/fhe"
	"github.com/Hazem-dh/FHEarts/log"
	"github.com/Hazem-dh/FHEarts/matching"
	"github.com/Hazem-dh/FHEarts/params"
	"github.com/Hazem-dh/FHEarts/profile"
	"github.com/Hazem-dh/FHEarts/registry"
	"github.com/Hazem-dh/FHEarts/sysaction"
)

// Verifier authenticates what the encrypted value layer hands to clients:
// input proofs on submitted ciphertexts and attestations on disclosures.
type Verifier interface {
	fhe.InputVerifier
	fhe.AttestationVerifier
}

// Config tunes the engine.
type Config struct {
	SearchBatchSize uint64 // candidate slots per search call, 0 scans all
	MinAge          uint64
}

// DefaultConfig returns the protocol defaults.
func DefaultConfig() Config {
	return Config{SearchBatchSize: params.DefaultSearchBatchSize, MinAge: params.MinimumAge}
}

// ConfigFrom extracts the engine settings from a node configuration.
func ConfigFrom(cfg *params.Config) Config {
	return Config{SearchBatchSize: cfg.SearchBatchSize, MinAge: cfg.MinAge}
}

// Engine implements sysaction.Handler for every matchmaking action.
type Engine struct {
	inputs   fhe.InputVerifier
	searcher *matching.Searcher
	machine  *consent.Machine
	log      log.Logger
}

// New creates an engine evaluating circuits on ex.
func New(ex fhe.Executor, verifier Verifier, cfg Config) *Engine {
	if cfg.MinAge < params.MinimumAge {
		cfg.MinAge = params.MinimumAge
	}
	if cfg.MinAge > params.MaximumAge {
		cfg.MinAge = params.MaximumAge
	}
	return &Engine{
		inputs:   verifier,
		searcher: matching.NewSearcher(ex, cfg.SearchBatchSize, cfg.MinAge),
		machine:  consent.NewMachine(verifier),
		log:      log.New("module", "fhearts"),
	}
}

// CanHandle implements sysaction.Handler.
func (e *Engine) CanHandle(kind sysaction.ActionKind) bool {
	switch kind {
	case sysaction.ActionRegisterUser, sysaction.ActionUpdateProfile,
		sysaction.ActionDeactivateProfile, sysaction.ActionReactivateProfile,
		sysaction.ActionSearchMatches, sysaction.ActionResetMatchSearch, sysaction.ActionClearMatch,
		sysaction.ActionConfirmMatch, sysaction.ActionRespondToMatch, sysaction.ActionGivePhoneConsent:
		return true
	}
	return false
}

// Handle implements sysaction.Handler. A failing action leaves the state
// exactly as it found it.
func (e *Engine) Handle(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	snap := ctx.StateDB.Snapshot()
	err := e.handle(ctx, sa)
	if err != nil {
		ctx.StateDB.RevertToSnapshot(snap)
		e.log.Debug("Action rejected", "action", sa.Action, "from", ctx.From, "err", err)
		return err
	}
	e.log.Debug("Action applied", "action", sa.Action, "from", ctx.From)
	return nil
}

func (e *Engine) handle(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	switch sa.Action {
	case sysaction.ActionRegisterUser:
		var p sysaction.ProfilePayload
		if err := sysaction.DecodePayload(sa, &p); err != nil {
			return fmt.Errorf("register: %w", err)
		}
		return e.registerUser(ctx, &p)
	case sysaction.ActionUpdateProfile:
		var p sysaction.ProfilePayload
		if err := sysaction.DecodePayload(sa, &p); err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		return e.updateProfile(ctx, &p)
	case sysaction.ActionDeactivateProfile:
		return e.setActive(ctx, false)
	case sysaction.ActionReactivateProfile:
		return e.setActive(ctx, true)
	case sysaction.ActionSearchMatches:
		return e.searchMatches(ctx)
	case sysaction.ActionResetMatchSearch:
		return e.resetMatchSearch(ctx)
	case sysaction.ActionClearMatch:
		return e.clearMatch(ctx)
	case sysaction.ActionConfirmMatch:
		var p sysaction.ConfirmPayload
		if err := sysaction.DecodePayload(sa, &p); err != nil {
			return fmt.Errorf("confirm match: %w", err)
		}
		return e.confirmMatch(ctx, &p)
	case sysaction.ActionRespondToMatch:
		var p sysaction.RespondPayload
		if err := sysaction.DecodePayload(sa, &p); err != nil {
			return fmt.Errorf("respond to match: %w", err)
		}
		return e.respondToMatch(ctx, &p)
	case sysaction.ActionGivePhoneConsent:
		var p sysaction.ConsentPayload
		if err := sysaction.DecodePayload(sa, &p); err != nil {
			return fmt.Errorf("phone consent: %w", err)
		}
		return e.givePhoneConsent(ctx, &p)
	}
	return fmt.Errorf("fhearts handler: unsupported action %q", sa.Action)
}

func (e *Engine) registerUser(ctx *sysaction.Context, p *sysaction.ProfilePayload) error {
	db, who := ctx.StateDB, ctx.From

	// Validation phase (no state writes).
	if registry.IsRegistered(db, who) || profile.Exists(db, who) {
		return ErrAlreadyRegistered
	}
	if who.IsZero() {
		return registry.ErrZeroIdentity
	}
	vec, err := profile.Verify(e.inputs, who, p.Handles, p.Proof)
	if err != nil {
		return err
	}

	// Mutation phase.
	if err := profile.Register(db, who, vec, p.Proof); err != nil {
		return err
	}
	index, err := registry.Register(db, who)
	if err != nil {
		return err
	}
	emit(ctx, EventUserRegistered, []common.Address{who}, common.Uint64ToHash(index))
	e.log.Info("Participant registered", "who", who, "index", index)
	return nil
}

func (e *Engine) updateProfile(ctx *sysaction.Context, p *sysaction.ProfilePayload) error {
	db, who := ctx.StateDB, ctx.From

	// Validation phase (no state writes).
	if !registry.IsRegistered(db, who) {
		return ErrNotRegistered
	}
	vec, err := profile.Verify(e.inputs, who, p.Handles, p.Proof)
	if err != nil {
		return err
	}

	// Mutation phase.
	old, err := profile.Replace(db, who, vec, p.Proof)
	if err != nil {
		return err
	}
	matching.ResetRecord(db, who)
	touched := consent.ResetRelations(db, who, old)

	emit(ctx, EventProfileUpdated, []common.Address{who}, common.Uint64ToHash(uint64(len(touched))))
	e.log.Info("Profile updated", "who", who, "relationsReset", len(touched))
	return nil
}

func (e *Engine) setActive(ctx *sysaction.Context, active bool) error {
	var (
		changed bool
		err     error
		event   = EventProfileDeactivated
	)
	if active {
		changed, err = registry.Reactivate(ctx.StateDB, ctx.From)
		event = EventProfileReactivated
	} else {
		changed, err = registry.Deactivate(ctx.StateDB, ctx.From)
	}
	if err != nil {
		return err
	}
	if changed {
		emit(ctx, event, []common.Address{ctx.From})
		e.log.Info("Profile activity changed", "who", ctx.From, "active", active)
	}
	return nil
}

func (e *Engine) searchMatches(ctx *sysaction.Context) error {
	prog, err := e.searcher.Search(ctx.StateDB, ctx.From)
	if err != nil {
		return err
	}
	emit(ctx, EventSearchProgress, []common.Address{ctx.From},
		common.Uint64ToHash(prog.From), common.Uint64ToHash(prog.To), common.Uint64ToHash(prog.Scanned))
	if prog.Complete {
		rec := prog.Record
		emit(ctx, EventMatchFound, []common.Address{ctx.From},
			rec.BestScore.Hash(), rec.BestIndex.Hash(), boolWord(rec.IsValid))
		e.log.Info("Match search complete", "who", ctx.From, "valid", rec.IsValid)
	}
	return nil
}

func (e *Engine) resetMatchSearch(ctx *sysaction.Context) error {
	if !registry.IsRegistered(ctx.StateDB, ctx.From) {
		return ErrNotRegistered
	}
	if matching.ResetSearch(ctx.StateDB, ctx.From) {
		emit(ctx, EventSearchReset, []common.Address{ctx.From})
	}
	return nil
}

func (e *Engine) clearMatch(ctx *sysaction.Context) error {
	if !registry.IsRegistered(ctx.StateDB, ctx.From) {
		return ErrNotRegistered
	}
	matching.Invalidate(ctx.StateDB, ctx.From)
	emit(ctx, EventMatchCleared, []common.Address{ctx.From})
	return nil
}

func (e *Engine) confirmMatch(ctx *sysaction.Context, p *sysaction.ConfirmPayload) error {
	target, mutual, err := e.machine.ConfirmMatch(ctx.StateDB, ctx.From, p.MatchedUserIndex, p.Attestation)
	if err != nil {
		return err
	}
	emit(ctx, EventMatchConfirmed, []common.Address{ctx.From, target})
	if mutual {
		emit(ctx, EventMutualMatch, []common.Address{ctx.From, target})
		e.log.Info("Mutual match", "a", ctx.From, "b", target)
	}
	return nil
}

func (e *Engine) respondToMatch(ctx *sysaction.Context, p *sysaction.RespondPayload) error {
	mutual, err := e.machine.RespondToMatch(ctx.StateDB, ctx.From, p.Requester, p.Accept)
	if err != nil {
		return err
	}
	pair := []common.Address{ctx.From, p.Requester}
	if !p.Accept {
		emit(ctx, EventMatchRejected, pair)
		return nil
	}
	emit(ctx, EventMatchConfirmed, pair)
	if mutual {
		emit(ctx, EventMutualMatch, pair)
		e.log.Info("Mutual match", "a", ctx.From, "b", p.Requester)
	}
	return nil
}

func (e *Engine) givePhoneConsent(ctx *sysaction.Context, p *sysaction.ConsentPayload) error {
	if !registry.IsRegistered(ctx.StateDB, ctx.From) {
		return ErrNotRegistered
	}
	mutual, err := e.machine.GivePhoneConsent(ctx.StateDB, ctx.From, p.MatchedUser)
	if err != nil {
		return err
	}
	pair := []common.Address{ctx.From, p.MatchedUser}
	emit(ctx, EventPhoneConsentGiven, pair)
	if mutual {
		emit(ctx, EventMutualPhoneConsent, pair)
		e.log.Info("Mutual phone consent", "a", ctx.From, "b", p.MatchedUser)
	}
	return nil
}
