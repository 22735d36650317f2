package flow

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Handler processes one inbound message for a (flow, step) position. It
// returns the next step token, or empty to stay on the current step.
type Handler func(ctx context.Context, req *Request) (Step, error)

// Request carries everything a step handler needs about the inbound
// message and the session it belongs to.
type Request struct {
	UserID   int64
	ChatID   int64
	Username string
	Text     string
	State    *AppState
}

type key struct {
	flow Flow
	step Step
}

// Builder accumulates step registrations before the bot starts.
type Builder struct {
	handlers map[key]Handler
}

func NewBuilder() *Builder {
	return &Builder{handlers: make(map[key]Handler)}
}

// Register binds a handler to a (flow, step) position. Registering the
// same position twice keeps the last handler and logs a warning.
func (b *Builder) Register(flow Flow, step Step, h Handler) *Builder {
	k := key{flow, step}
	if _, exists := b.handlers[k]; exists {
		log.Warn().Str("flow", string(flow)).Str("step", string(step)).
			Msg("duplicate step registration, keeping last")
	}
	b.handlers[k] = h
	return b
}

// Build produces the immutable registry used for dispatch.
func (b *Builder) Build() *Registry {
	handlers := make(map[key]Handler, len(b.handlers))
	for k, h := range b.handlers {
		handlers[k] = h
	}
	return &Registry{handlers: handlers}
}

// Registry is the immutable (flow, step) → handler lookup table.
type Registry struct {
	handlers map[key]Handler
}

// Lookup returns the handler for the position, if one is registered.
func (r *Registry) Lookup(flow Flow, step Step) (Handler, bool) {
	h, ok := r.handlers[key{flow, step}]
	return h, ok
}
