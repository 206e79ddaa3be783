package models

// Request and Response structs for the gateway API.
// The request structs must be structs with fields for the request path/query/header/cookie parameters and/or body.
// The response structs must be structs with fields for the output headers and body of the operation, if any.

// Generate with one model
// POST Path: "/{model_id}/generate"

// GenerateRequest carries the model identifier and the raw form body.
// Form fields: raw_text, style, prompt, narration, image_url (all optional).
type GenerateRequest struct {
	ModelID     string `path:"model_id" example:"tti" doc:"Model identifier (llm, tti, tta, itv)"`
	ContentType string `header:"Content-Type" doc:"application/x-www-form-urlencoded or multipart/form-data"`
	RawBody     []byte `contentType:"application/x-www-form-urlencoded"`
}

// GenerateResponse relays the subservice answer byte for byte.
type GenerateResponse struct {
	Status      int
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// List registered models
// GET Path: "/models"

type ModelRoute struct {
	ModelID string   `json:"model_id" example:"tti" doc:"Model identifier"`
	URL     string   `json:"url" example:"http://localhost:8002/generate" doc:"Subservice endpoint"`
	Fields  []string `json:"fields" doc:"Form fields forwarded to the subservice"`
}

type ListModelsRequest struct{}

type ListModelsResponse struct {
	Body struct {
		Models []ModelRoute `json:"models" doc:"Registered models"`
	}
}

// Liveness
// GET Path: "/healthz"

type HealthRequest struct{}

type HealthResponse struct {
	Body struct {
		Status string `json:"status" example:"ok" doc:"Always ok while the gateway is serving"`
		Models int    `json:"models" example:"4" doc:"Number of registered models"`
	}
}
