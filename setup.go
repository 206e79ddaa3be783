package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/storyflow/gateway/internal/database"
	"github.com/storyflow/gateway/internal/dispatch"
	"github.com/storyflow/gateway/internal/handlers"
	"github.com/storyflow/gateway/internal/models"
	"github.com/storyflow/gateway/internal/registry"

	"github.com/danielgtaylor/huma/v2/adapters/humago"

	huma "github.com/danielgtaylor/huma/v2"
)

const (
	apiTitle = "StoryFlow Model Gateway"

	sourceStatic   = "static"
	sourcePostgres = "postgres"
)

// overrides collects the per-model URL options that are set.
func overrides(options *models.Options) map[registry.ModelID]string {
	return map[registry.ModelID]string{
		registry.LLM: options.LLMURL,
		registry.TTI: options.TTIURL,
		registry.TTA: options.TTAURL,
		registry.ITV: options.ITVURL,
	}
}

// loadRoutesFunc reads routes from the database. Replaced in tests.
var loadRoutesFunc = database.LoadRegistryRoutes

// buildRegistry assembles the routing table: built-in defaults, then the
// database rows when the postgres source is selected, then URL options.
func buildRegistry(ctx context.Context, options *models.Options, logger zerolog.Logger) (*registry.Registry, error) {
	routes := registry.DefaultRoutes()

	switch options.RegistrySource {
	case "", sourceStatic:
	case sourcePostgres:
		rows, err := loadRoutesFunc(ctx, options, logger)
		if err != nil {
			return nil, fmt.Errorf("unable to load routes from database: %w", err)
		}
		routes = registry.WithOverrides(routes, rows)
	default:
		return nil, fmt.Errorf("unknown registry source %q (expected %s or %s)", options.RegistrySource, sourceStatic, sourcePostgres)
	}

	routes = registry.WithOverrides(routes, overrides(options))
	return registry.New(routes)
}

// newAPI creates router, API and routes of the gateway.
func newAPI(reg *registry.Registry, options *models.Options, logger zerolog.Logger) (huma.API, *http.ServeMux, error) {
	d, err := dispatch.New(reg,
		dispatch.WithTimeout(time.Duration(options.Timeout)*time.Second),
		dispatch.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, err
	}

	config := huma.DefaultConfig(apiTitle, version)
	router := http.NewServeMux()
	api := humago.New(router, config)
	api.UseMiddleware(handlers.RequestID)
	api.UseMiddleware(handlers.AccessLog(logger))

	if err := handlers.AddRoutes(d, logger, api); err != nil {
		return nil, nil, err
	}
	return api, router, nil
}
