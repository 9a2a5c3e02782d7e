package sysaction

import (
	"fmt"

	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/core/vm"
)

// Context carries information available to a system-action handler.
type Context struct {
	From    common.Address
	OpHash  common.Hash
	StateDB vm.StateDB
}

// Handler is implemented by the sub-systems owning action kinds.
type Handler interface {
	CanHandle(kind ActionKind) bool
	Handle(ctx *Context, sa *SysAction) error
}

// Registry holds registered handlers.
type Registry struct{ handlers []Handler }

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry { return &Registry{} }

// Register adds a handler to the registry.
func (r *Registry) Register(h Handler) { r.handlers = append(r.handlers, h) }

// Execute decodes data as a system action and dispatches it to the first
// registered handler accepting its kind.
func (r *Registry) Execute(ctx *Context, data []byte) error {
	sa, err := Decode(data)
	if err != nil {
		return err
	}
	for _, h := range r.handlers {
		if h.CanHandle(sa.Action) {
			return h.Handle(ctx, sa)
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownAction, sa.Action)
}
