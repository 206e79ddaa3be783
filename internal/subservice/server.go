package subservice

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/storyflow/gateway/internal/form"
	"github.com/storyflow/gateway/internal/models"
	"github.com/storyflow/gateway/internal/registry"

	huma "github.com/danielgtaylor/huma/v2"
)

// generateFunc answers POST /generate for one model.
func generateFunc(model registry.ModelID, logger zerolog.Logger) func(context.Context, *models.SubserviceRequest) (*models.SubserviceResponse, error) {
	return func(ctx context.Context, input *models.SubserviceRequest) (*models.SubserviceResponse, error) {
		values, err := form.Parse(input.ContentType, input.RawBody)
		if err != nil {
			return nil, huma.Error400BadRequest(fmt.Sprintf("unable to read form body. %v", err))
		}

		// Every field of the model is required; an empty value counts as missing
		fields := registry.FieldsFromValues(values)
		names, _ := registry.ProjectedFields(model)
		missing := []error{}
		for _, name := range names {
			if fields[name] == "" {
				missing = append(missing, &huma.ErrorDetail{
					Location: "body." + name,
					Message:  "field required",
				})
			}
		}
		if len(missing) > 0 {
			return nil, huma.Error422UnprocessableEntity("validation failed", missing...)
		}

		payload, err := registry.Project(model, fields)
		if err != nil {
			return nil, huma.Error500InternalServerError(err.Error())
		}

		h, err := GetHandle(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError(err.Error())
		}
		gen, err := h.Generator(ctx)
		if err != nil {
			logger.Error().Err(err).Str("model", string(model)).Msg("unable to load generator")
			return nil, huma.Error503ServiceUnavailable(fmt.Sprintf("model %s is not available. %v", model, err))
		}

		start := time.Now()
		artifact, err := gen.Generate(ctx, payload)
		if err != nil {
			logger.Error().Err(err).Str("model", string(model)).Msg("generation failed")
			return nil, huma.Error500InternalServerError(fmt.Sprintf("generation failed. %v", err))
		}
		logger.Info().Str("model", string(model)).Dur("duration", time.Since(start)).Msg("generation finished")

		return &models.SubserviceResponse{Body: artifact}, nil
	}
}

// Register adds POST /generate for model to the API, served by the
// generator owned by h.
func Register(api huma.API, model registry.ModelID, h *Handle, logger zerolog.Logger) error {
	names, ok := registry.ProjectedFields(model)
	if !ok {
		return fmt.Errorf("unable to register subservice %q: %w", model, registry.ErrUnknownModel)
	}
	if h == nil {
		return fmt.Errorf("unable to register subservice %q: handle is nil", model)
	}

	generateOp := huma.Operation{
		OperationID: "generate-" + string(model),
		Method:      http.MethodPost,
		Path:        "/generate",
		Summary:     fmt.Sprintf("Run the %s model", model),
		Description: fmt.Sprintf("Required form fields: %v.", names),
		RequestBody: &huma.RequestBody{
			Required: false,
			Content: map[string]*huma.MediaType{
				form.URLEncoded: {},
				form.Multipart:  {},
			},
		},
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnprocessableEntity,
			http.StatusServiceUnavailable,
		},
		Tags: []string{string(model)},
	}

	huma.Register(api, generateOp, addHandleToContext(h, generateFunc(model, logger)))
	return nil
}
