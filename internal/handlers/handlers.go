package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/storyflow/gateway/internal/registry"

	huma "github.com/danielgtaylor/huma/v2"
)

type contextKey string

// Context keys
const (
	DispatcherKey = contextKey("dispatcher")
)

// Error responses
var (
	ErrDispatcherNotFound = errors.New("dispatcher not found in context")
)

// Dispatcher is the part of *dispatch.Dispatcher the handlers use.
type Dispatcher interface {
	Dispatch(ctx context.Context, model string, fields registry.Fields) (json.RawMessage, error)
	Registry() *registry.Registry
}

// AddRoutes adds all the routes to the API
func AddRoutes(d Dispatcher, logger zerolog.Logger, api huma.API) error {
	if d == nil || d.Registry() == nil {
		return errors.New("handlers: dispatcher must not be nil")
	}
	err := RegisterGenerateRoutes(d, logger, api)
	if err != nil {
		logger.Error().Err(err).Msg("unable to register generate routes")
		return err
	}
	err = RegisterModelsRoutes(d, api)
	if err != nil {
		logger.Error().Err(err).Msg("unable to register models routes")
		return err
	}
	return nil
}

// Middleware to add the dispatcher to the context
func addDispatcherToContext[I any, O any](d Dispatcher, next func(context.Context, *I) (*O, error)) func(context.Context, *I) (*O, error) {
	return func(ctx context.Context, input *I) (*O, error) {
		if d == nil {
			return nil, fmt.Errorf("provided dispatcher is nil")
		}
		ctx = context.WithValue(ctx, DispatcherKey, d)
		return next(ctx, input)
	}
}

// Get the dispatcher from the context
// (exported helper function so that blackbox testing can access it)
func GetDispatcher(ctx context.Context) (Dispatcher, error) {
	d, ok := ctx.Value(DispatcherKey).(Dispatcher)
	if !ok {
		return nil, huma.NewError(http.StatusInternalServerError, ErrDispatcherNotFound.Error())
	}
	return d, nil
}
