package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/storyflow/gateway/internal/dispatch"
	"github.com/storyflow/gateway/internal/form"
	"github.com/storyflow/gateway/internal/models"
	"github.com/storyflow/gateway/internal/registry"

	huma "github.com/danielgtaylor/huma/v2"
)

// ModelNotFound is the detail of the 404 returned for unknown models.
const ModelNotFound = "model not found"

// postGenerateFunc routes one request to the subservice of its model
func postGenerateFunc(ctx context.Context, input *models.GenerateRequest) (*models.GenerateResponse, error) {
	d, err := GetDispatcher(ctx)
	if err != nil {
		return nil, err
	}

	// Unknown models are rejected before the body is even looked at
	if !d.Registry().Has(registry.ModelID(input.ModelID)) {
		return nil, huma.Error404NotFound(ModelNotFound)
	}

	values, err := form.Parse(input.ContentType, input.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest(fmt.Sprintf("unable to read form body. %v", err))
	}

	body, err := d.Dispatch(ctx, input.ModelID, registry.FieldsFromValues(values))
	if err != nil {
		return dispatchFailure(err)
	}

	response := &models.GenerateResponse{
		Status:      http.StatusOK,
		ContentType: "application/json",
		Body:        body,
	}
	return response, nil
}

// dispatchFailure turns a dispatch error into what the caller sees.
// Subservice errors are relayed with their own status and body.
func dispatchFailure(err error) (*models.GenerateResponse, error) {
	de, ok := dispatch.AsError(err)
	if !ok {
		return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to dispatch request. %v", err))
	}

	switch de.Code {
	case dispatch.ErrorUnknownModel:
		return nil, huma.Error404NotFound(ModelNotFound)
	case dispatch.ErrorSubservice:
		contentType := de.ContentType
		if contentType == "" {
			contentType = "text/plain; charset=utf-8"
			if json.Valid(de.Body) {
				contentType = "application/json"
			}
		}
		return &models.GenerateResponse{
			Status:      de.StatusCode,
			ContentType: contentType,
			Body:        de.Body,
		}, nil
	case dispatch.ErrorTimeout:
		return nil, huma.Error504GatewayTimeout(fmt.Sprintf("subservice for model %s did not answer in time", de.Model))
	case dispatch.ErrorMalformedResponse:
		return nil, huma.Error502BadGateway(fmt.Sprintf("subservice for model %s returned an invalid response. %v", de.Model, de.Err))
	default:
		return nil, huma.Error502BadGateway(fmt.Sprintf("subservice for model %s is unreachable. %v", de.Model, de.Err))
	}
}

// RegisterGenerateRoutes registers the dispatch route with the API
func RegisterGenerateRoutes(d Dispatcher, logger zerolog.Logger, api huma.API) error {
	postGenerateOp := huma.Operation{
		OperationID: "generate",
		Method:      http.MethodPost,
		Path:        "/{model_id}/generate",
		Summary:     "Generate an artifact with one model",
		Description: "Forwards the form fields used by the model to its subservice and returns the subservice JSON unchanged. " +
			"llm uses raw_text and style, tti uses prompt and style, tta uses narration, itv uses image_url.",
		RequestBody: &huma.RequestBody{
			Description: "Form fields raw_text, style, prompt, narration and image_url, all optional.",
			Required:    false,
			Content: map[string]*huma.MediaType{
				form.URLEncoded: {},
				form.Multipart:  {},
			},
		},
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusBadGateway,
			http.StatusGatewayTimeout,
		},
		Tags: []string{"generate"},
	}

	huma.Register(api, postGenerateOp, addDispatcherToContext(d, postGenerateFunc))
	logger.Debug().Str("path", postGenerateOp.Path).Msg("registered generate route")
	return nil
}
