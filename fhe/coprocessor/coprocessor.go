// Package coprocessor is a local encrypted value layer. It keeps every
// plaintext sealed in its own store and evaluates the engine's operations
// over handles, so the ledger only ever sees opaque references. Disclosures
// are gated by the grant table kept in ledger state and come back as signed
// attestations.
package coprocessor

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	lru "github.com/hashicorp/golang-lru"
	"github.com/holiman/uint256"

	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/crypto"
	"github.com/Hazem-dh/FHEarts/fhe"
	"github.com/Hazem-dh/FHEarts/log"
	"github.com/Hazem-dh/FHEarts/matchdb"
)

const defaultPlaintextCache = 4096

// Config configures a Coprocessor.
type Config struct {
	Key            *btcec.PrivateKey // signs input proofs and attestations
	Target         common.Address    // the only consumer input proofs are bound to
	PlaintextCache int               // opened plaintexts kept in memory
}

// Coprocessor implements fhe.Executor over a sealed ciphertext store.
type Coprocessor struct {
	key    *btcec.PrivateKey
	target common.Address
	store  *sealer
	opened *lru.ARCCache // fhe.Handle -> *uint256.Int

	lock sync.Mutex // serializes writes so computed handles are stored once
	log  log.Logger
}

var _ fhe.Executor = (*Coprocessor)(nil)

// New creates a coprocessor keeping its ciphertexts in db.
func New(db matchdb.KeyValueStore, cfg Config) (*Coprocessor, error) {
	if cfg.Key == nil {
		return nil, fmt.Errorf("coprocessor: missing signing key")
	}
	store, err := newSealer(db, crypto.FromKey(cfg.Key))
	if err != nil {
		return nil, err
	}
	size := cfg.PlaintextCache
	if size <= 0 {
		size = defaultPlaintextCache
	}
	opened, err := lru.NewARC(size)
	if err != nil {
		return nil, err
	}
	c := &Coprocessor{
		key:    cfg.Key,
		target: cfg.Target,
		store:  store,
		opened: opened,
		log:    log.New("module", "coprocessor"),
	}
	c.log.Debug("Coprocessor ready", "pubkey", common.Bytes2Hex(c.PublicKey()), "target", cfg.Target)
	return c, nil
}

// PublicKey returns the key verifying proofs and attestations issued by c.
func (c *Coprocessor) PublicKey() []byte {
	return crypto.FromPubkey(c.key.PubKey())
}

// Verifier returns a verifier for the proofs and attestations issued by c.
func (c *Coprocessor) Verifier() *fhe.SignatureVerifier {
	v, err := fhe.NewSignatureVerifier(c.PublicKey(), c.target)
	if err != nil {
		panic(err) // own key always parses
	}
	return v
}

// EncryptInput encrypts plaintexts on behalf of owner and returns the handles
// with a proof binding them to owner and the configured target. Each input
// handle carries fresh randomness, so equal plaintexts get unrelated handles.
func (c *Coprocessor) EncryptInput(owner common.Address, values []fhe.InputValue) ([]fhe.Handle, *fhe.InputProof, error) {
	handles := make([]fhe.Handle, len(values))
	for i, v := range values {
		if !v.Type.Valid() {
			return nil, nil, fmt.Errorf("%w: %v", fhe.ErrUnsupportedType, v.Type)
		}
		salt, err := crypto.RandomBytes(32)
		if err != nil {
			return nil, nil, err
		}
		var idx [8]byte
		binary.BigEndian.PutUint64(idx[:], uint64(i))
		h := fhe.NewHandle(crypto.Keccak256Hash([]byte("input"), owner[:], salt, idx[:]), v.Type)
		if err := c.write(h, newValue(v.Value, v.Type)); err != nil {
			return nil, nil, err
		}
		handles[i] = h
	}
	digest := fhe.InputDigest(owner, c.target, handles)
	sig, err := crypto.Sign(digest[:], c.key)
	if err != nil {
		return nil, nil, err
	}
	return handles, &fhe.InputProof{Owner: owner, Target: c.target, Signature: sig}, nil
}

// UserDecrypt discloses the plaintexts of req's handles to its user, provided
// the request is signed by the user and acl grants the user every handle.
func (c *Coprocessor) UserDecrypt(req *fhe.DecryptRequest, acl fhe.ACL) ([]*fhe.Attestation, error) {
	if err := req.Verify(); err != nil {
		return nil, err
	}
	for _, h := range req.Handles {
		if !acl.IsAllowed(h, req.User) {
			c.log.Debug("Refused decryption", "id", req.ID, "user", req.User, "handle", h)
			return nil, fmt.Errorf("%w: %v may not decrypt %v", fhe.ErrPermissionDenied, req.User, h)
		}
	}
	atts := make([]*fhe.Attestation, 0, len(req.Handles))
	for _, h := range req.Handles {
		v, err := c.read(h)
		if err != nil {
			return nil, err
		}
		att, err := c.attest(h, v.Uint64())
		if err != nil {
			return nil, err
		}
		atts = append(atts, att)
	}
	c.log.Debug("Served decryption", "id", req.ID, "user", req.User, "handles", len(req.Handles))
	return atts, nil
}

func (c *Coprocessor) attest(h fhe.Handle, value uint64) (*fhe.Attestation, error) {
	digest := fhe.AttestationDigest(h, value)
	sig, err := crypto.Sign(digest[:], c.key)
	if err != nil {
		return nil, err
	}
	return &fhe.Attestation{Handle: h, Value: value, Signature: sig}, nil
}

// read opens the plaintext behind h.
func (c *Coprocessor) read(h fhe.Handle) (*uint256.Int, error) {
	if v, ok := c.opened.Get(h); ok {
		return v.(*uint256.Int), nil
	}
	if !h.Type().Valid() {
		return nil, fmt.Errorf("%w: %v", fhe.ErrUnsupportedType, h.Type())
	}
	raw, err := c.store.get(h)
	if err != nil {
		return nil, err
	}
	v := newValue(raw, h.Type())
	c.opened.Add(h, v)
	return v, nil
}

// write seals v under h unless h is already stored.
func (c *Coprocessor) write(h fhe.Handle, v *uint256.Int) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.opened.Contains(h) {
		return nil
	}
	if ok, err := c.store.has(h); err != nil {
		return err
	} else if !ok {
		if err := c.store.put(h, v.Uint64()); err != nil {
			return err
		}
	}
	c.opened.Add(h, v)
	return nil
}
