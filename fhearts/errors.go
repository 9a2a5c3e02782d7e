package fhearts

import (
	"github.com/Hazem-dh/FHEarts/consent"
	"github.com/Hazem-dh/FHEarts/fhe"
	"github.com/Hazem-dh/FHEarts/matching"
	"github.com/Hazem-dh/FHEarts/registry"
)

// Rejection kinds. Every failed operation wraps exactly one of these and
// leaves no state behind.
var (
	ErrAlreadyRegistered      = registry.ErrAlreadyRegistered
	ErrNotRegistered          = registry.ErrNotRegistered
	ErrInvalidProof           = fhe.ErrInvalidProof
	ErrInsufficientCandidates = matching.ErrInsufficientCandidates
	ErrInvalidMatchedUser     = consent.ErrInvalidMatchedUser
	ErrNoMatchRequest         = consent.ErrNoMatchRequest
	ErrNoMutualMatch          = consent.ErrNoMutualMatch
	ErrPermissionDenied       = fhe.ErrPermissionDenied
)
