package handlers

import (
	"context"
	"net/http"

	"github.com/storyflow/gateway/internal/models"

	huma "github.com/danielgtaylor/huma/v2"
)

// Get all registered models with their routes
func getModelsFunc(ctx context.Context, input *models.ListModelsRequest) (*models.ListModelsResponse, error) {
	d, err := GetDispatcher(ctx)
	if err != nil {
		return nil, err
	}

	routes := []models.ModelRoute{}
	for _, r := range d.Registry().Routes() {
		routes = append(routes, models.ModelRoute{
			ModelID: string(r.Model),
			URL:     r.URL,
			Fields:  r.Fields,
		})
	}

	response := &models.ListModelsResponse{}
	response.Body.Models = routes
	return response, nil
}

func getHealthFunc(ctx context.Context, input *models.HealthRequest) (*models.HealthResponse, error) {
	d, err := GetDispatcher(ctx)
	if err != nil {
		return nil, err
	}
	response := &models.HealthResponse{}
	response.Body.Status = "ok"
	response.Body.Models = d.Registry().Len()
	return response, nil
}

// RegisterModelsRoutes registers the read-only routes with the API
func RegisterModelsRoutes(d Dispatcher, api huma.API) error {
	getModelsOp := huma.Operation{
		OperationID: "getModels",
		Method:      http.MethodGet,
		Path:        "/models",
		Summary:     "List the registered models and the fields forwarded to each",
		Tags:        []string{"models"},
	}
	getHealthOp := huma.Operation{
		OperationID: "getHealth",
		Method:      http.MethodGet,
		Path:        "/healthz",
		Summary:     "Liveness check",
		Tags:        []string{"health"},
	}

	huma.Register(api, getModelsOp, addDispatcherToContext(d, getModelsFunc))
	huma.Register(api, getHealthOp, addDispatcherToContext(d, getHealthFunc))
	return nil
}
