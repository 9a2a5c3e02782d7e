// Package sysaction implements the FHEarts action protocol.
//
// Every state-changing operation carries a JSON-encoded SysAction in its Data
// field. The ledger never interprets the payload itself; it calls
// Registry.Execute, which dispatches to the handler owning the action kind
// (e.g. the fhearts engine).
package sysaction

import (
	"encoding/json"

	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/fhe"
)

// ActionKind identifies the type of system action.
type ActionKind string

const (
	// Profile lifecycle
	ActionRegisterUser      ActionKind = "REGISTER_USER"
	ActionUpdateProfile     ActionKind = "UPDATE_PROFILE"
	ActionDeactivateProfile ActionKind = "DEACTIVATE_PROFILE"
	ActionReactivateProfile ActionKind = "REACTIVATE_PROFILE"

	// Match search
	ActionSearchMatches    ActionKind = "SEARCH_MATCHES"
	ActionResetMatchSearch ActionKind = "RESET_MATCH_SEARCH"
	ActionClearMatch       ActionKind = "CLEAR_MATCH"

	// Confirmation and consent
	ActionConfirmMatch     ActionKind = "CONFIRM_MATCH"
	ActionRespondToMatch   ActionKind = "RESPOND_TO_MATCH"
	ActionGivePhoneConsent ActionKind = "GIVE_PHONE_CONSENT"
)

// SysAction is the top-level envelope stored in Operation.Data.
type SysAction struct {
	Action  ActionKind      `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ProfilePayload is the payload for REGISTER_USER / UPDATE_PROFILE. Handles
// are the ten encrypted attributes in field order.
type ProfilePayload struct {
	Handles []fhe.Handle    `json:"handles"`
	Proof   *fhe.InputProof `json:"proof"`
}

// ConfirmPayload is the payload for CONFIRM_MATCH.
type ConfirmPayload struct {
	MatchedUserIndex uint64           `json:"matched_user_index"`
	Attestation      *fhe.Attestation `json:"attestation"`
}

// RespondPayload is the payload for RESPOND_TO_MATCH.
type RespondPayload struct {
	Requester common.Address `json:"requester"`
	Accept    bool           `json:"accept"`
}

// ConsentPayload is the payload for GIVE_PHONE_CONSENT.
type ConsentPayload struct {
	MatchedUser common.Address `json:"matched_user"`
}
