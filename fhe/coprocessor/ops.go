package coprocessor

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/crypto"
	"github.com/Hazem-dh/FHEarts/fhe"
)

type opcode byte

const (
	opEq opcode = iota + 1
	opGe
	opGt
	opLe
	opAnd
	opOr
	opNot
	opAdd
	opSelect
	opTrivial
)

var opNames = map[opcode]string{
	opEq: "eq", opGe: "ge", opGt: "gt", opLe: "le", opAnd: "and", opOr: "or",
	opNot: "not", opAdd: "add", opSelect: "select", opTrivial: "trivial",
}

func (op opcode) String() string { return opNames[op] }

// masks[t] keeps the plaintext of type t within its bit width.
var masks = map[fhe.Type]*uint256.Int{
	fhe.TypeBool:   uint256.NewInt(1),
	fhe.TypeUint8:  uint256.NewInt(0xff),
	fhe.TypeUint64: uint256.NewInt(^uint64(0)),
}

func newValue(v uint64, t fhe.Type) *uint256.Int {
	out := uint256.NewInt(v)
	if m, ok := masks[t]; ok {
		out.And(out, m)
	}
	return out
}

func boolValue(b bool) *uint256.Int {
	if b {
		return uint256.NewInt(1)
	}
	return uint256.NewInt(0)
}

// resultHandle derives the deterministic handle of an operation result, so
// evaluating the same operation over the same operands always yields the
// same handle.
func resultHandle(op opcode, t fhe.Type, operands ...fhe.Handle) fhe.Handle {
	parts := make([][]byte, 0, len(operands)+1)
	parts = append(parts, []byte{byte(op), byte(t)})
	for i := range operands {
		parts = append(parts, operands[i][:])
	}
	return fhe.NewHandle(crypto.Keccak256Hash(parts...), t)
}

func (c *Coprocessor) binary(op opcode, a, b fhe.Handle) (*uint256.Int, *uint256.Int, error) {
	if a.Type() != b.Type() {
		return nil, nil, fmt.Errorf("%w: %s(%v, %v)", fhe.ErrTypeMismatch, op, a.Type(), b.Type())
	}
	x, err := c.read(a)
	if err != nil {
		return nil, nil, err
	}
	y, err := c.read(b)
	if err != nil {
		return nil, nil, err
	}
	return x, y, nil
}

func (c *Coprocessor) compare(op opcode, a, b fhe.Handle, fn func(x, y *uint256.Int) bool) (fhe.Handle, error) {
	x, y, err := c.binary(op, a, b)
	if err != nil {
		return fhe.Handle{}, err
	}
	h := resultHandle(op, fhe.TypeBool, a, b)
	return h, c.write(h, boolValue(fn(x, y)))
}

func (c *Coprocessor) Eq(a, b fhe.Handle) (fhe.Handle, error) {
	return c.compare(opEq, a, b, func(x, y *uint256.Int) bool { return x.Eq(y) })
}

func (c *Coprocessor) Ge(a, b fhe.Handle) (fhe.Handle, error) {
	return c.compare(opGe, a, b, func(x, y *uint256.Int) bool { return !x.Lt(y) })
}

func (c *Coprocessor) Gt(a, b fhe.Handle) (fhe.Handle, error) {
	return c.compare(opGt, a, b, func(x, y *uint256.Int) bool { return x.Gt(y) })
}

func (c *Coprocessor) Le(a, b fhe.Handle) (fhe.Handle, error) {
	return c.compare(opLe, a, b, func(x, y *uint256.Int) bool { return !x.Gt(y) })
}

func (c *Coprocessor) bitwise(op opcode, a, b fhe.Handle, fn func(z, x, y *uint256.Int) *uint256.Int) (fhe.Handle, error) {
	x, y, err := c.binary(op, a, b)
	if err != nil {
		return fhe.Handle{}, err
	}
	t := a.Type()
	h := resultHandle(op, t, a, b)
	return h, c.write(h, fn(new(uint256.Int), x, y))
}

func (c *Coprocessor) And(a, b fhe.Handle) (fhe.Handle, error) {
	return c.bitwise(opAnd, a, b, (*uint256.Int).And)
}

func (c *Coprocessor) Or(a, b fhe.Handle) (fhe.Handle, error) {
	return c.bitwise(opOr, a, b, (*uint256.Int).Or)
}

// Add wraps around at the bit width of the operand type.
func (c *Coprocessor) Add(a, b fhe.Handle) (fhe.Handle, error) {
	t := a.Type()
	return c.bitwise(opAdd, a, b, func(z, x, y *uint256.Int) *uint256.Int {
		return z.And(z.Add(x, y), masks[t])
	})
}

func (c *Coprocessor) Not(a fhe.Handle) (fhe.Handle, error) {
	x, err := c.read(a)
	if err != nil {
		return fhe.Handle{}, err
	}
	t := a.Type()
	h := resultHandle(opNot, t, a)
	z := new(uint256.Int).Not(x)
	return h, c.write(h, z.And(z, masks[t]))
}

func (c *Coprocessor) Select(cond, ifTrue, ifFalse fhe.Handle) (fhe.Handle, error) {
	if cond.Type() != fhe.TypeBool {
		return fhe.Handle{}, fmt.Errorf("%w: select condition is %v", fhe.ErrTypeMismatch, cond.Type())
	}
	x, y, err := c.binary(opSelect, ifTrue, ifFalse)
	if err != nil {
		return fhe.Handle{}, err
	}
	b, err := c.read(cond)
	if err != nil {
		return fhe.Handle{}, err
	}
	out := y
	if !b.IsZero() {
		out = x
	}
	h := resultHandle(opSelect, ifTrue.Type(), cond, ifTrue, ifFalse)
	return h, c.write(h, out)
}

func (c *Coprocessor) TrivialEncrypt(value uint64, t fhe.Type) (fhe.Handle, error) {
	if !t.Valid() {
		return fhe.Handle{}, fmt.Errorf("%w: %v", fhe.ErrUnsupportedType, t)
	}
	v := newValue(value, t)
	h := resultHandle(opTrivial, t, fhe.HandleFromHash(common.Uint64ToHash(v.Uint64())))
	return h, c.write(h, v)
}
