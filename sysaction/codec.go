package sysaction

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrInvalidSysAction is returned when Operation.Data cannot be decoded as a SysAction.
	ErrInvalidSysAction = errors.New("invalid system action payload")
	// ErrUnknownAction is returned when no handler accepts an action kind.
	ErrUnknownAction = errors.New("unknown system action")
)

// Decode parses a SysAction from raw bytes (Operation.Data).
func Decode(data []byte) (*SysAction, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty data", ErrInvalidSysAction)
	}
	var sa SysAction
	if err := json.Unmarshal(data, &sa); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSysAction, err)
	}
	if sa.Action == "" {
		return nil, fmt.Errorf("%w: missing action field", ErrInvalidSysAction)
	}
	return &sa, nil
}

// DecodePayload unmarshals sa.Payload into dst. Decoding failures wrap
// ErrInvalidSysAction.
func DecodePayload(sa *SysAction, dst interface{}) error {
	if len(sa.Payload) == 0 {
		return fmt.Errorf("%w: %s requires a payload", ErrInvalidSysAction, sa.Action)
	}
	if err := json.Unmarshal(sa.Payload, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSysAction, sa.Action, err)
	}
	return nil
}

// Encode serialises a SysAction to JSON bytes suitable for Operation.Data.
func Encode(sa *SysAction) ([]byte, error) {
	return json.Marshal(sa)
}

// MakeSysAction is a convenience helper that creates and encodes a SysAction.
func MakeSysAction(kind ActionKind, payload interface{}) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return Encode(&SysAction{Action: kind, Payload: raw})
}
