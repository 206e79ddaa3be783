// Package form decodes the form bodies accepted by the gateway and the
// subservices.
package form

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/url"
)

const (
	URLEncoded = "application/x-www-form-urlencoded"
	Multipart  = "multipart/form-data"

	maxMemory = 32 << 20
)

// ErrUnsupportedContentType is returned for bodies that are not forms.
var ErrUnsupportedContentType = errors.New("unsupported content type")

// Parse decodes body according to contentType. An empty body always yields
// empty values; a body without content type is read as URL-encoded.
// File parts of multipart bodies are ignored.
func Parse(contentType string, body []byte) (url.Values, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return url.Values{}, nil
	}
	if contentType == "" {
		contentType = URLEncoded
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("form: parse content type: %w", err)
	}

	switch mediaType {
	case URLEncoded:
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, fmt.Errorf("form: parse urlencoded body: %w", err)
		}
		return values, nil
	case Multipart:
		boundary := params["boundary"]
		if boundary == "" {
			return nil, errors.New("form: multipart body without boundary")
		}
		mf, err := multipart.NewReader(bytes.NewReader(body), boundary).ReadForm(maxMemory)
		if err != nil {
			return nil, fmt.Errorf("form: parse multipart body: %w", err)
		}
		defer func() { _ = mf.RemoveAll() }()
		values := make(url.Values, len(mf.Value))
		for k, v := range mf.Value {
			values[k] = v
		}
		return values, nil
	default:
		return nil, fmt.Errorf("form: %w: %s", ErrUnsupportedContentType, mediaType)
	}
}
