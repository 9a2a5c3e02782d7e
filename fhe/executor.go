package fhe

import (
	"github.com/Hazem-dh/FHEarts/common"
)

// Executor evaluates operations over ciphertexts without revealing them.
// Comparison results are TypeBool handles; arithmetic and selection keep the
// operand type. Operands of binary operations must share a type.
type Executor interface {
	Eq(a, b Handle) (Handle, error)
	Ge(a, b Handle) (Handle, error)
	Gt(a, b Handle) (Handle, error)
	Le(a, b Handle) (Handle, error)
	And(a, b Handle) (Handle, error)
	Or(a, b Handle) (Handle, error)
	Not(a Handle) (Handle, error)
	Add(a, b Handle) (Handle, error)
	Select(cond, ifTrue, ifFalse Handle) (Handle, error)

	// TrivialEncrypt wraps a public constant so that it can be combined with
	// ciphertexts.
	TrivialEncrypt(value uint64, t Type) (Handle, error)
}

// ACL answers whether a principal holds a decrypt grant on a handle.
type ACL interface {
	IsAllowed(h Handle, who common.Address) bool
}

// InputVerifier checks that submitted ciphertexts were produced by the
// encrypted value layer for the given owner and target.
type InputVerifier interface {
	VerifyInput(proof *InputProof, owner common.Address, handles []Handle) error
}

// AttestationVerifier checks that a plaintext was disclosed by the encrypted
// value layer for a specific handle.
type AttestationVerifier interface {
	VerifyAttestation(att *Attestation) error
}

// Circuit chains Executor calls and remembers the first failure, so that an
// encrypted computation reads as straight-line code. After an error every
// further call is a no-op returning the zero handle.
type Circuit struct {
	ex  Executor
	err error
	ops int
}

// NewCircuit starts a circuit evaluated by ex.
func NewCircuit(ex Executor) *Circuit {
	return &Circuit{ex: ex}
}

// Err returns the first error encountered by the circuit.
func (c *Circuit) Err() error { return c.err }

// Ops returns the number of operations evaluated so far.
func (c *Circuit) Ops() int { return c.ops }

func (c *Circuit) apply(fn func() (Handle, error)) Handle {
	if c.err != nil {
		return Handle{}
	}
	h, err := fn()
	if err != nil {
		c.err = err
		return Handle{}
	}
	c.ops++
	return h
}

func (c *Circuit) Eq(a, b Handle) Handle {
	return c.apply(func() (Handle, error) { return c.ex.Eq(a, b) })
}

func (c *Circuit) Ge(a, b Handle) Handle {
	return c.apply(func() (Handle, error) { return c.ex.Ge(a, b) })
}

func (c *Circuit) Gt(a, b Handle) Handle {
	return c.apply(func() (Handle, error) { return c.ex.Gt(a, b) })
}

func (c *Circuit) Le(a, b Handle) Handle {
	return c.apply(func() (Handle, error) { return c.ex.Le(a, b) })
}

func (c *Circuit) And(a, b Handle) Handle {
	return c.apply(func() (Handle, error) { return c.ex.And(a, b) })
}

func (c *Circuit) Or(a, b Handle) Handle {
	return c.apply(func() (Handle, error) { return c.ex.Or(a, b) })
}

func (c *Circuit) Not(a Handle) Handle {
	return c.apply(func() (Handle, error) { return c.ex.Not(a) })
}

func (c *Circuit) Add(a, b Handle) Handle {
	return c.apply(func() (Handle, error) { return c.ex.Add(a, b) })
}

func (c *Circuit) Select(cond, ifTrue, ifFalse Handle) Handle {
	return c.apply(func() (Handle, error) { return c.ex.Select(cond, ifTrue, ifFalse) })
}

// Const returns a trivially encrypted constant.
func (c *Circuit) Const(value uint64, t Type) Handle {
	return c.apply(func() (Handle, error) { return c.ex.TrivialEncrypt(value, t) })
}
