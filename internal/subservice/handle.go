package subservice

import (
	"context"
	"errors"
	"sync"
)

// Handle owns the Generator of one subservice. The generator is built on
// first use and shared by all later requests; a failed build is not retried.
type Handle struct {
	once sync.Once
	load func(ctx context.Context) (Generator, error)
	gen  Generator
	err  error
}

// NewHandle returns a Handle that calls load once, on the first request.
func NewHandle(load func(ctx context.Context) (Generator, error)) *Handle {
	return &Handle{load: load}
}

// Generator returns the generator, loading it if this is the first call.
func (h *Handle) Generator(ctx context.Context) (Generator, error) {
	if h == nil || h.load == nil {
		return nil, errors.New("subservice: handle has no loader")
	}
	h.once.Do(func() {
		h.gen, h.err = h.load(context.WithoutCancel(ctx))
		if h.err == nil && h.gen == nil {
			h.err = errors.New("subservice: loader returned no generator")
		}
	})
	return h.gen, h.err
}

type contextKey string

const handleKey = contextKey("handle")

// Middleware to add the handle to the context
func addHandleToContext[I any, O any](h *Handle, next func(context.Context, *I) (*O, error)) func(context.Context, *I) (*O, error) {
	return func(ctx context.Context, input *I) (*O, error) {
		ctx = context.WithValue(ctx, handleKey, h)
		return next(ctx, input)
	}
}

// GetHandle returns the handle stored in the context.
func GetHandle(ctx context.Context) (*Handle, error) {
	h, ok := ctx.Value(handleKey).(*Handle)
	if !ok || h == nil {
		return nil, errors.New("subservice: handle not found in context")
	}
	return h, nil
}
