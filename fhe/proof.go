package fhe

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/google/uuid"

	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/common/hexutil"
	"github.com/Hazem-dh/FHEarts/crypto"
)

// Signing domains.
var (
	inputDomain   = []byte("fhearts-input-v1")
	decryptDomain = []byte("fhearts-decrypt-v1")
	requestDomain = []byte("fhearts-user-decrypt-v1")
)

// InputValue is a plaintext submitted for encryption.
type InputValue struct {
	Type  Type
	Value uint64
}

// InputProof binds freshly encrypted handles to the owner that submitted
// them and to the target that is allowed to consume them.
type InputProof struct {
	Owner     common.Address `json:"owner"`
	Target    common.Address `json:"target"`
	Signature hexutil.Bytes  `json:"signature"`
}

// InputDigest is the message the encrypted value layer signs for an input.
func InputDigest(owner, target common.Address, handles []Handle) common.Hash {
	parts := make([][]byte, 0, len(handles)+3)
	parts = append(parts, inputDomain, owner[:], target[:])
	for i := range handles {
		parts = append(parts, handles[i][:])
	}
	return crypto.Keccak256Hash(parts...)
}

// Attestation is a plaintext disclosed for a handle, signed by the
// encrypted value layer.
type Attestation struct {
	Handle    Handle        `json:"handle"`
	Value     uint64        `json:"value"`
	Signature hexutil.Bytes `json:"signature"`
}

// AttestationDigest is the message the encrypted value layer signs when it
// discloses value for h.
func AttestationDigest(h Handle, value uint64) common.Hash {
	var v [8]byte
	binary.BigEndian.PutUint64(v[:], value)
	return crypto.Keccak256Hash(decryptDomain, h[:], v[:])
}

// DecryptRequest is a participant's signed authorization to disclose the
// plaintexts of a set of handles to them.
type DecryptRequest struct {
	ID        uuid.UUID      `json:"id"`
	User      common.Address `json:"user"`
	Handles   []Handle       `json:"handles"`
	PubKey    hexutil.Bytes  `json:"pubKey"`
	Signature hexutil.Bytes  `json:"signature"`
}

// NewDecryptRequest creates and signs a decryption request.
func NewDecryptRequest(prv *btcec.PrivateKey, handles ...Handle) (*DecryptRequest, error) {
	req := &DecryptRequest{
		ID:      uuid.New(),
		User:    crypto.PubkeyToAddress(prv.PubKey()),
		Handles: append([]Handle(nil), handles...),
		PubKey:  crypto.FromPubkey(prv.PubKey()),
	}
	digest := req.Digest()
	sig, err := crypto.Sign(digest[:], prv)
	if err != nil {
		return nil, err
	}
	req.Signature = sig
	return req, nil
}

// Digest returns the message signed by the requesting user.
func (r *DecryptRequest) Digest() common.Hash {
	parts := make([][]byte, 0, len(r.Handles)+3)
	parts = append(parts, requestDomain, r.ID[:], r.User[:])
	for i := range r.Handles {
		parts = append(parts, r.Handles[i][:])
	}
	return crypto.Keccak256Hash(parts...)
}

// Verify checks that the request was signed by its user.
func (r *DecryptRequest) Verify() error {
	if len(r.Handles) == 0 {
		return fmt.Errorf("%w: no handles", ErrInvalidAuthorization)
	}
	addr, err := crypto.PubkeyBytesToAddress(r.PubKey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAuthorization, err)
	}
	if addr != r.User {
		return fmt.Errorf("%w: key does not match user", ErrInvalidAuthorization)
	}
	digest := r.Digest()
	if !crypto.VerifySignature(r.PubKey, digest[:], r.Signature) {
		return fmt.Errorf("%w: bad signature", ErrInvalidAuthorization)
	}
	return nil
}

// SignatureVerifier checks input proofs and attestations against the public
// key of the encrypted value layer. Input proofs must name target.
type SignatureVerifier struct {
	pubkey []byte
	target common.Address
}

// NewSignatureVerifier creates a verifier for signatures by pubkey.
func NewSignatureVerifier(pubkey []byte, target common.Address) (*SignatureVerifier, error) {
	if _, err := crypto.UnmarshalPubkey(pubkey); err != nil {
		return nil, fmt.Errorf("fhe: invalid coprocessor key: %v", err)
	}
	return &SignatureVerifier{pubkey: common.CopyBytes(pubkey), target: target}, nil
}

// VerifyInput implements InputVerifier.
func (v *SignatureVerifier) VerifyInput(proof *InputProof, owner common.Address, handles []Handle) error {
	if proof == nil {
		return fmt.Errorf("%w: missing proof", ErrInvalidProof)
	}
	if proof.Owner != owner {
		return fmt.Errorf("%w: proof owner %v, submitter %v", ErrInvalidProof, proof.Owner, owner)
	}
	if proof.Target != v.target {
		return fmt.Errorf("%w: proof bound to %v", ErrInvalidProof, proof.Target)
	}
	for i, h := range handles {
		if h.IsZero() || !h.Type().Valid() {
			return fmt.Errorf("%w: malformed handle %d", ErrInvalidProof, i)
		}
	}
	digest := InputDigest(owner, v.target, handles)
	if !crypto.VerifySignature(v.pubkey, digest[:], proof.Signature) {
		return fmt.Errorf("%w: bad signature", ErrInvalidProof)
	}
	return nil
}

// VerifyAttestation implements AttestationVerifier.
func (v *SignatureVerifier) VerifyAttestation(att *Attestation) error {
	if att == nil {
		return fmt.Errorf("%w: missing attestation", ErrInvalidAttestation)
	}
	digest := AttestationDigest(att.Handle, att.Value)
	if !crypto.VerifySignature(v.pubkey, digest[:], att.Signature) {
		return fmt.Errorf("%w: bad signature", ErrInvalidAttestation)
	}
	return nil
}
