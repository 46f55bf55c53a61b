package sysaction

import (
	"fmt"
	"math/big"

	"github.com/fundra-network/gfundra/common"
)

// Context carries information available to an action handler. Now is the
// externally supplied current time; the core never reads a clock of its own.
type Context struct {
	From  common.Address
	Value *big.Int
	Now   uint64
}

// Handler is implemented by the escrow campaign sub-system.
type Handler interface {
	CanHandle(kind ActionKind) bool
	Handle(ctx *Context, sa *SysAction) error
}

// Registry holds registered handlers. A registry is scoped to one campaign
// aggregate, matching the one-operation-at-a-time execution model.
type Registry struct{ handlers []Handler }

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry { return &Registry{} }

// Register adds a handler to the registry.
func (r *Registry) Register(h Handler) { r.handlers = append(r.handlers, h) }

// Execute decodes a campaign action from data and dispatches it to a
// registered handler.
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
	return fmt.Errorf("unknown campaign action: %q", sa.Action)
}
