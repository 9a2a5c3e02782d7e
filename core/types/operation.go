package types

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"golang.org/x/crypto/sha3"

	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/common/hexutil"
	"github.com/Hazem-dh/FHEarts/crypto"
)

var (
	ErrInvalidSig     = errors.New("invalid operation signature")
	ErrSenderMismatch = errors.New("operation public key does not match sender")
	ErrUnsigned       = errors.New("operation is not signed")
)

// opDomain separates operation signatures from every other signed message.
var opDomain = []byte("fhearts-operation-v1")

// Operation is a signed state-changing request submitted by a participant.
// Data carries a JSON encoded system action.
type Operation struct {
	From   common.Address `json:"from"`
	Nonce  uint64         `json:"nonce"`
	Data   hexutil.Bytes  `json:"data"`
	PubKey hexutil.Bytes  `json:"pubKey"`
	Sig    hexutil.Bytes  `json:"sig"`
}

// NewOperation creates an unsigned operation.
func NewOperation(from common.Address, nonce uint64, data []byte) *Operation {
	return &Operation{From: from, Nonce: nonce, Data: common.CopyBytes(data)}
}

// SigHash returns the digest signed by the sender.
func (op *Operation) SigHash() common.Hash {
	var nonce [8]byte
	binary.BigEndian.PutUint64(nonce[:], op.Nonce)
	return common.BytesToHash(keccak256(opDomain, op.From[:], nonce[:], op.Data))
}

// Hash returns the identifier of a signed operation.
func (op *Operation) Hash() common.Hash {
	sh := op.SigHash()
	return common.BytesToHash(keccak256(sh[:], op.Sig))
}

// Sign attaches the sender public key and a signature over SigHash.
func (op *Operation) Sign(prv *btcec.PrivateKey) error {
	pub := crypto.FromPubkey(prv.PubKey())
	if crypto.PubkeyToAddress(prv.PubKey()) != op.From {
		return ErrSenderMismatch
	}
	h := op.SigHash()
	sig, err := crypto.Sign(h[:], prv)
	if err != nil {
		return err
	}
	op.PubKey, op.Sig = pub, sig
	return nil
}

// Sender verifies the signature and returns the authenticated identity.
func (op *Operation) Sender() (common.Address, error) {
	if len(op.Sig) == 0 || len(op.PubKey) == 0 {
		return common.Address{}, ErrUnsigned
	}
	addr, err := crypto.PubkeyBytesToAddress(op.PubKey)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSig, err)
	}
	if addr != op.From {
		return common.Address{}, ErrSenderMismatch
	}
	h := op.SigHash()
	if !crypto.VerifySignature(op.PubKey, h[:], op.Sig) {
		return common.Address{}, ErrInvalidSig
	}
	return addr, nil
}

// SignNewOp creates and signs an operation.
func SignNewOp(prv *btcec.PrivateKey, nonce uint64, data []byte) (*Operation, error) {
	op := NewOperation(crypto.PubkeyToAddress(prv.PubKey()), nonce, data)
	if err := op.Sign(prv); err != nil {
		return nil, err
	}
	return op, nil
}

func keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}
