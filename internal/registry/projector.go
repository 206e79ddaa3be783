package registry

import (
	"fmt"
	"net/url"
	"sort"
)

// ModelID identifies one subservice behind the gateway.
type ModelID string

const (
	LLM ModelID = "llm" // text to storyboard
	TTI ModelID = "tti" // text to image
	TTA ModelID = "tta" // text to speech
	ITV ModelID = "itv" // image to video
)

// Form field names accepted by the gateway.
const (
	FieldRawText   = "raw_text"
	FieldStyle     = "style"
	FieldPrompt    = "prompt"
	FieldNarration = "narration"
	FieldImageURL  = "image_url"
)

// projections lists, per model, the form fields its subservice expects.
// Adding a model means adding a row here and a route in defaultRoutes.
var projections = map[ModelID][]string{
	LLM: {FieldRawText, FieldStyle},
	TTI: {FieldPrompt, FieldStyle},
	TTA: {FieldNarration},
	ITV: {FieldImageURL},
}

// Fields is the flat set of form values received by the gateway.
// A missing key reads as the empty string.
type Fields map[string]string

// FieldsFromValues keeps the last value of every repeated key.
func FieldsFromValues(values url.Values) Fields {
	fields := make(Fields, len(values))
	for k, v := range values {
		if len(v) > 0 {
			fields[k] = v[len(v)-1]
		}
	}
	return fields
}

// Payload is the projection of Fields for one subservice.
type Payload struct {
	names  []string
	values map[string]string
}

// Names returns the payload field names in table order.
func (p Payload) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// Get returns the value of a payload field.
func (p Payload) Get(name string) (string, bool) {
	v, ok := p.values[name]
	return v, ok
}

// Len returns the number of fields in the payload.
func (p Payload) Len() int {
	return len(p.names)
}

// Values returns the payload as url.Values, ready to be form-encoded.
func (p Payload) Values() url.Values {
	values := make(url.Values, len(p.names))
	for _, name := range p.names {
		values.Set(name, p.values[name])
	}
	return values
}

// Encode form-encodes the payload.
func (p Payload) Encode() string {
	return p.Values().Encode()
}

// Map returns a copy of the payload as a plain map.
func (p Payload) Map() map[string]string {
	out := make(map[string]string, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

// Project selects the fields the subservice of id expects. Values are
// copied verbatim, absent fields become "" and everything else is dropped.
func Project(id ModelID, fields Fields) (Payload, error) {
	names, ok := projections[id]
	if !ok {
		return Payload{}, fmt.Errorf("registry: no projection for model %q", id)
	}
	p := Payload{
		names:  make([]string, len(names)),
		values: make(map[string]string, len(names)),
	}
	copy(p.names, names)
	for _, name := range names {
		p.values[name] = fields[name]
	}
	return p, nil
}

// ProjectedFields returns the field names forwarded for id.
func ProjectedFields(id ModelID) ([]string, bool) {
	names, ok := projections[id]
	if !ok {
		return nil, false
	}
	out := make([]string, len(names))
	copy(out, names)
	return out, true
}

// KnownModels returns every model with a projection row, sorted.
func KnownModels() []ModelID {
	ids := make([]ModelID, 0, len(projections))
	for id := range projections {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
