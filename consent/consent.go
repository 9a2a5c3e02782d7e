// Package consent implements the two-phase protocols that turn a unilateral
// best match into a mutual pairing, and a mutual pairing into a mutual phone
// disclosure.
//
// Relations are directed edges. Mutuality is derived from both edges and is
// never stored. A rejected request keeps its forward edge; only a profile
// update clears edges.
package consent

import (
	"errors"
	"fmt"

	mapset "github.com/deckarep/golang-set"

	"github.com/Hazem-dh/FHEarts/acl"
	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/core/vm"
	"github.com/Hazem-dh/FHEarts/fhe"
	"github.com/Hazem-dh/FHEarts/log"
	"github.com/Hazem-dh/FHEarts/matching"
	"github.com/Hazem-dh/FHEarts/params"
	"github.com/Hazem-dh/FHEarts/profile"
	"github.com/Hazem-dh/FHEarts/registry"
)

var (
	ErrInvalidMatchedUser = errors.New("invalid matched user")
	ErrNoMatchRequest     = errors.New("no match request")
	ErrNoMutualMatch      = errors.New("no mutual match")
)

// Machine drives the confirmation and consent protocols.
type Machine struct {
	verifier fhe.AttestationVerifier
	log      log.Logger
}

// NewMachine creates a machine trusting disclosures checked by verifier.
func NewMachine(verifier fhe.AttestationVerifier) *Machine {
	return &Machine{verifier: verifier, log: log.New("module", "consent")}
}

// ConfirmMatch records that who accepts the participant at claimedIndex. The
// index must be the one who's latest valid search produced: att has to be a
// disclosure of who's stored best-index handle with value claimedIndex.
// It returns the confirmed identity and whether the match is now mutual.
func (m *Machine) ConfirmMatch(db vm.StateDB, who common.Address, claimedIndex uint64, att *fhe.Attestation) (common.Address, bool, error) {
	// Validation phase (no state writes).
	if !registry.IsRegistered(db, who) {
		return common.Address{}, false, registry.ErrNotRegistered
	}
	if claimedIndex == params.NoMatchIndex || claimedIndex > registry.SlotCount(db) {
		return common.Address{}, false, fmt.Errorf("%w: index %d out of range", ErrInvalidMatchedUser, claimedIndex)
	}
	rec := matching.ReadRecord(db, who)
	if !rec.IsValid {
		return common.Address{}, false, fmt.Errorf("%w: no valid match record", ErrInvalidMatchedUser)
	}
	if att == nil || att.Handle != rec.BestIndex || att.Value != claimedIndex {
		return common.Address{}, false, fmt.Errorf("%w: index %d is not the stored best match", ErrInvalidMatchedUser, claimedIndex)
	}
	if err := m.verifier.VerifyAttestation(att); err != nil {
		return common.Address{}, false, fmt.Errorf("%w: %v", ErrInvalidMatchedUser, err)
	}
	target := registry.AddressOf(db, claimedIndex)
	if target.IsZero() || target == who {
		return common.Address{}, false, fmt.Errorf("%w: index %d", ErrInvalidMatchedUser, claimedIndex)
	}

	// Mutation phase.
	writeEdge(db, relConfirmed, who, target, true)
	mutual := IsConfirmed(db, target, who)
	m.log.Debug("Confirmed match", "who", who, "target", target, "mutual", mutual)
	return target, mutual, nil
}

// RespondToMatch answers requester's confirmation of who. Accepting adds the
// reverse edge; rejecting leaves the requester's edge in place.
func (m *Machine) RespondToMatch(db vm.StateDB, who, requester common.Address, accept bool) (bool, error) {
	if !registry.IsRegistered(db, who) {
		return false, registry.ErrNotRegistered
	}
	if !IsConfirmed(db, requester, who) {
		return false, ErrNoMatchRequest
	}
	if !accept {
		m.log.Debug("Rejected match", "who", who, "requester", requester)
		return false, nil
	}
	writeEdge(db, relConfirmed, who, requester, true)
	m.log.Debug("Accepted match", "who", who, "requester", requester)
	return true, nil
}

// GivePhoneConsent records that who agrees to disclose their phone to
// counterpart. Once both sides consented, each is granted decrypt access to
// the other's contact fields. It reports whether consent is now mutual.
func (m *Machine) GivePhoneConsent(db vm.StateDB, who, counterpart common.Address) (bool, error) {
	if !IsMutualMatch(db, who, counterpart) {
		return false, ErrNoMutualMatch
	}
	writeEdge(db, relConsented, who, counterpart, true)
	if !HasConsented(db, counterpart, who) {
		return false, nil
	}
	mine, err := profile.Load(db, who)
	if err != nil {
		return false, err
	}
	theirs, err := profile.Load(db, counterpart)
	if err != nil {
		return false, err
	}
	acl.AllowAll(db, counterpart, mine.Contact()...)
	acl.AllowAll(db, who, theirs.Contact()...)
	m.log.Debug("Mutual phone consent", "a", who, "b", counterpart)
	return true, nil
}

// PendingRequests returns, in slot order, the participants that confirmed who
// without who confirming them back.
func PendingRequests(db vm.StateDB, who common.Address) []common.Address {
	var out []common.Address
	for _, p := range registry.Participants(db) {
		if p != who && IsConfirmed(db, p, who) && !IsConfirmed(db, who, p) {
			out = append(out, p)
		}
	}
	return out
}

// ResetRelations clears every confirmation and consent edge touching who, in
// both directions, and revokes the contact grants exchanged under them. old
// is who's vector the grants were issued on. It returns the counterparts
// that lost an edge, in slot order.
func ResetRelations(db vm.StateDB, who common.Address, old profile.Vector) []common.Address {
	touched := mapset.NewThreadUnsafeSet()
	participants := registry.Participants(db)
	for _, p := range participants {
		if p == who {
			continue
		}
		for _, rel := range []string{relConfirmed, relConsented} {
			if readEdge(db, rel, who, p) {
				writeEdge(db, rel, who, p, false)
				touched.Add(p)
			}
			if readEdge(db, rel, p, who) {
				writeEdge(db, rel, p, who, false)
				touched.Add(p)
			}
		}
	}
	out := make([]common.Address, 0, touched.Cardinality())
	for _, p := range participants {
		if !touched.Contains(p) {
			continue
		}
		acl.RevokeAll(db, p, old.Contact()...)
		if theirs, err := profile.Load(db, p); err == nil {
			acl.RevokeAll(db, who, theirs.Contact()...)
		}
		out = append(out, p)
	}
	return out
}
