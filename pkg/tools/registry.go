package tools

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var ErrInvalidArguments = errors.New("invalid tool arguments")

// Registry maps tool function names to handlers. Names without a registered
// handler are answered by the fallback handler, so Dispatch resolves every
// call the model can make. Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	fallback Handler
}

// NewRegistry returns an empty registry whose fallback is DefaultHandler.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
		fallback: DefaultHandler,
	}
}

// NewDefaultRegistry returns a registry with the built-in tools registered.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	// cannot fail: name is non-empty and handler non-nil
	_ = r.Register(CreativeVideoCreatorName, NewHandler(CreativeVideoCreator))
	return r
}

func (r *Registry) Register(name string, h Handler) error {
	if name == "" {
		return pkgerrors.New("tool name cannot be empty")
	}
	if h == nil {
		return pkgerrors.Errorf("nil handler for tool %s", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
	return nil
}

// SetFallback replaces the handler used for unknown names.
func (r *Registry) SetFallback(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h == nil {
		h = DefaultHandler
	}
	r.fallback = h
}

func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch decodes args and routes the call to the handler registered for
// name, or to the fallback.
func (r *Registry) Dispatch(ctx context.Context, name string, args string) (any, error) {
	raw := json.RawMessage(args)
	if !json.Valid(raw) {
		return nil, pkgerrors.Wrapf(ErrInvalidArguments, "tool %s", name)
	}

	r.mu.RLock()
	h, ok := r.handlers[name]
	fallback := r.fallback
	r.mu.RUnlock()

	if !ok {
		log.Warn().Str("tool", name).Msg("Unknown tool")
		h = fallback
	}

	out, err := h(ctx, raw)
	if err != nil {
		return nil, pkgerrors.Wrapf(ErrInvalidArguments, "tool %s: %v", name, err)
	}
	return out, nil
}

// DefaultHandler answers calls to unknown tools with unconditional success.
func DefaultHandler(_ context.Context, _ json.RawMessage) (any, error) {
	return map[string]any{"success": true}, nil
}
