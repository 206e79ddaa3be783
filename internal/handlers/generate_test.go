package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyflow/gateway/internal/dispatch"
)

type problem struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func TestGenerateFunc(t *testing.T) {
	allFields := url.Values{
		"raw_text":  {"A cat walks in the rain"},
		"style":     {"anime"},
		"prompt":    {"a cat in the rain"},
		"narration": {"The cat walked on."},
		"image_url": {"/files/image/img_1.png"},
	}

	tt := []struct {
		name       string
		model      string
		form       url.Values
		wantFields url.Values
	}{
		{
			name:       "llm gets raw_text and style",
			model:      "llm",
			form:       allFields,
			wantFields: url.Values{"raw_text": {"A cat walks in the rain"}, "style": {"anime"}},
		},
		{
			name:       "tti gets prompt and style",
			model:      "tti",
			form:       allFields,
			wantFields: url.Values{"prompt": {"a cat in the rain"}, "style": {"anime"}},
		},
		{
			name:       "tta gets narration only",
			model:      "tta",
			form:       allFields,
			wantFields: url.Values{"narration": {"The cat walked on."}},
		},
		{
			name:       "itv gets image_url only",
			model:      "itv",
			form:       allFields,
			wantFields: url.Values{"image_url": {"/files/image/img_1.png"}},
		},
		{
			name:       "missing style is forwarded empty",
			model:      "llm",
			form:       url.Values{"raw_text": {"story"}},
			wantFields: url.Values{"raw_text": {"story"}, "style": {""}},
		},
		{
			name:       "repeated field forwards the last value",
			model:      "tti",
			form:       url.Values{"prompt": {"first", "second"}},
			wantFields: url.Values{"prompt": {"second"}, "style": {""}},
		},
		{
			name:       "no fields at all",
			model:      "tta",
			form:       url.Values{},
			wantFields: url.Values{"narration": {""}},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeSubservices{body: `{"ok": true}`}
			base := startTestServer(t, fake, 5*time.Second)

			resp, body := postForm(t, fmt.Sprintf("%s/%s/generate", base, tc.model), tc.form)
			assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))
			assert.Equal(t, `{"ok": true}`, string(body))

			calls := fake.Calls()
			require.Len(t, calls, 1)
			assert.Equal(t, tc.model, calls[0].Model)
			assert.Equal(t, tc.wantFields, calls[0].Form)
		})
	}
}

func TestGenerate_UnknownModel(t *testing.T) {
	fake := &fakeSubservices{body: `{}`}
	base := startTestServer(t, fake, 5*time.Second)

	for _, model := range []string{"unknown", "LLM", "tts"} {
		resp, body := postForm(t, fmt.Sprintf("%s/%s/generate", base, model), url.Values{"raw_text": {"x"}})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, model)

		p := problem{}
		require.NoError(t, json.Unmarshal(body, &p), string(body))
		assert.Equal(t, "model not found", p.Detail)
	}
	assert.Empty(t, fake.Calls())
}

func TestGenerate_BodyIsRelayedVerbatim(t *testing.T) {
	fake := &fakeSubservices{body: `{"image_url": "/files/image/img_1718000000_ab12cd34.png"}`}
	base := startTestServer(t, fake, 5*time.Second)

	resp, body := postForm(t, base+"/tti/generate", url.Values{"prompt": {"a red fox"}, "style": {"watercolor"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, `{"image_url": "/files/image/img_1718000000_ab12cd34.png"}`, string(body))
}

func TestGenerate_SubserviceErrorIsRelayed(t *testing.T) {
	fake := &fakeSubservices{
		status: http.StatusInternalServerError,
		body:   `{"detail":"CUDA out of memory"}`,
	}
	base := startTestServer(t, fake, 5*time.Second)

	resp, body := postForm(t, base+"/tti/generate", url.Values{"prompt": {"x"}})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"detail":"CUDA out of memory"}`, string(body))
}

func TestGenerate_SubserviceValidationErrorIsRelayed(t *testing.T) {
	fake := &fakeSubservices{
		status: http.StatusUnprocessableEntity,
		ctype:  "text/plain; charset=utf-8",
		body:   "narration is required",
	}
	base := startTestServer(t, fake, 5*time.Second)

	resp, body := postForm(t, base+"/tta/generate", url.Values{})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "narration is required", string(body))
}

func TestGenerate_Timeout(t *testing.T) {
	fake := &fakeSubservices{body: `{}`, delay: 5 * time.Second}
	base := startTestServer(t, fake, 100*time.Millisecond)

	start := time.Now()
	resp, body := postForm(t, base+"/itv/generate", url.Values{"image_url": {"/files/image/a.png"}})
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode, string(body))
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestGenerate_MalformedUpstreamResponse(t *testing.T) {
	fake := &fakeSubservices{body: `not json`, ctype: "text/plain"}
	base := startTestServer(t, fake, 5*time.Second)

	resp, body := postForm(t, base+"/llm/generate", url.Values{"raw_text": {"x"}})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode, string(body))
}

func TestGenerate_Multipart(t *testing.T) {
	fake := &fakeSubservices{body: `{"audio_url":"/files/audio/tts_1_ab.wav"}`}
	base := startTestServer(t, fake, 5*time.Second)

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	require.NoError(t, w.WriteField("narration", "Once upon a time"))
	require.NoError(t, w.WriteField("style", "ignored"))
	require.NoError(t, w.Close())

	resp, err := http.Post(base+"/tta/generate", w.FormDataContentType(), buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.Len(t, fake.Calls(), 1)
	assert.Equal(t, url.Values{"narration": {"Once upon a time"}}, fake.Calls()[0].Form)
}

func TestGenerate_InvalidForm(t *testing.T) {
	fake := &fakeSubservices{body: `{}`}
	base := startTestServer(t, fake, 5*time.Second)

	resp, err := http.Post(base+"/llm/generate", "application/x-www-form-urlencoded", strings.NewReader("raw_text=%zz"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, fake.Calls())
}

func TestGenerate_RequestID(t *testing.T) {
	fake := &fakeSubservices{body: `{}`}
	base := startTestServer(t, fake, 5*time.Second)

	t.Run("inbound id is kept", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, base+"/tta/generate", strings.NewReader("narration=hi"))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set(dispatch.RequestIDHeader, "story-42")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, "story-42", resp.Header.Get(dispatch.RequestIDHeader))
		calls := fake.Calls()
		require.NotEmpty(t, calls)
		assert.Equal(t, "story-42", calls[len(calls)-1].RequestID)
	})

	t.Run("missing id is generated", func(t *testing.T) {
		resp, _ := postForm(t, base+"/tta/generate", url.Values{"narration": {"hi"}})
		id := resp.Header.Get(dispatch.RequestIDHeader)
		assert.NotEmpty(t, id)
		calls := fake.Calls()
		require.NotEmpty(t, calls)
		assert.Equal(t, id, calls[len(calls)-1].RequestID)
	})
}
