package registry

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRoutesMatchProjections(t *testing.T) {
	routes := DefaultRoutes()
	require.Len(t, routes, len(projections))
	for id := range projections {
		_, ok := routes[id]
		assert.True(t, ok, "model %q has a projection but no route", id)
	}
	for id := range routes {
		_, ok := projections[id]
		assert.True(t, ok, "model %q has a route but no projection", id)
	}
}

func TestDefault(t *testing.T) {
	r := Default()
	assert.Equal(t, 4, r.Len())

	u, ok := r.Lookup(LLM)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:8001/generate", u)

	u, ok = r.Lookup(ITV)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:8004/generate", u)

	_, ok = r.Lookup("unknown")
	assert.False(t, ok)
	assert.False(t, r.Has(""))
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		routes  map[ModelID]string
		wantErr error
	}{
		{
			name:   "Defaults",
			routes: DefaultRoutes(),
		},
		{
			name:    "Unknown model",
			routes:  WithOverrides(DefaultRoutes(), map[ModelID]string{"ttv": "http://localhost:8005/generate"}),
			wantErr: ErrUnknownModel,
		},
		{
			name: "Missing route",
			routes: map[ModelID]string{
				LLM: "http://localhost:8001/generate",
				TTI: "http://localhost:8002/generate",
				TTA: "http://localhost:8003/generate",
			},
			wantErr: ErrMissingRoute,
		},
		{
			name:    "Relative URL",
			routes:  WithOverrides(DefaultRoutes(), map[ModelID]string{TTI: "/generate"}),
			wantErr: ErrInvalidURL,
		},
		{
			name:    "Unsupported scheme",
			routes:  WithOverrides(DefaultRoutes(), map[ModelID]string{TTA: "ftp://localhost/generate"}),
			wantErr: ErrInvalidURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(tt.routes)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Nil(t, r)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(projections), r.Len())
		})
	}
}

func TestWithOverrides(t *testing.T) {
	base := DefaultRoutes()
	out := WithOverrides(base, map[ModelID]string{
		TTI: "http://gpu-box:8002/generate",
		TTA: "  ",
	})

	assert.Equal(t, "http://gpu-box:8002/generate", out[TTI])
	assert.Equal(t, base[TTA], out[TTA], "blank override keeps the default")
	assert.Equal(t, "http://localhost:8002/generate", base[TTI], "input map is not modified")
}

func TestRoutes(t *testing.T) {
	routes := Default().Routes()
	require.Len(t, routes, 4)
	assert.Equal(t, []ModelID{ITV, LLM, TTA, TTI}, []ModelID{routes[0].Model, routes[1].Model, routes[2].Model, routes[3].Model})
	assert.Equal(t, []string{FieldRawText, FieldStyle}, routes[1].Fields)
}

func TestProject(t *testing.T) {
	in := Fields{
		FieldRawText:   "cat walks",
		FieldStyle:     "anime",
		FieldPrompt:    "a cat on a wall",
		FieldNarration: "  once upon a time ",
		FieldImageURL:  "/files/image/img_1.png",
		"unexpected":   "dropped",
	}

	tests := []struct {
		model ModelID
		want  map[string]string
	}{
		{LLM, map[string]string{FieldRawText: "cat walks", FieldStyle: "anime"}},
		{TTI, map[string]string{FieldPrompt: "a cat on a wall", FieldStyle: "anime"}},
		{TTA, map[string]string{FieldNarration: "  once upon a time "}},
		{ITV, map[string]string{FieldImageURL: "/files/image/img_1.png"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.model), func(t *testing.T) {
			p, err := Project(tt.model, in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Map())
			assert.Equal(t, len(tt.want), p.Len())
		})
	}
}

func TestProjectDefaultsMissingFieldsToEmpty(t *testing.T) {
	p, err := Project(TTI, Fields{FieldPrompt: "sunset"})
	require.NoError(t, err)

	style, ok := p.Get(FieldStyle)
	assert.True(t, ok)
	assert.Equal(t, "", style)
	assert.Equal(t, url.Values{FieldPrompt: {"sunset"}, FieldStyle: {""}}, p.Values())
}

func TestProjectIsIdempotent(t *testing.T) {
	in := Fields{FieldRawText: "cat walks", FieldStyle: "anime", FieldNarration: "x"}
	for _, id := range KnownModels() {
		a, err := Project(id, in)
		require.NoError(t, err)
		b, err := Project(id, in)
		require.NoError(t, err)
		assert.Equal(t, a, b)
		assert.Equal(t, a.Encode(), b.Encode())
	}
}

func TestProjectUnknownModel(t *testing.T) {
	_, err := Project("unknown", Fields{})
	assert.Error(t, err)
}

func TestPayloadNamesAreCopied(t *testing.T) {
	p, err := Project(LLM, Fields{})
	require.NoError(t, err)
	names := p.Names()
	names[0] = "mutated"
	assert.Equal(t, []string{FieldRawText, FieldStyle}, p.Names())

	fields, ok := ProjectedFields(LLM)
	require.True(t, ok)
	fields[0] = "mutated"
	again, _ := ProjectedFields(LLM)
	assert.Equal(t, FieldRawText, again[0])
}

func TestFieldsFromValues(t *testing.T) {
	tt := []struct {
		name   string
		values url.Values
		want   Fields
	}{
		{"single value", url.Values{FieldNarration: {"hello"}}, Fields{FieldNarration: "hello"}},
		{"repeated key keeps the last value", url.Values{FieldPrompt: {"first", "second"}}, Fields{FieldPrompt: "second"}},
		{"last empty value wins", url.Values{FieldStyle: {"anime", ""}}, Fields{FieldStyle: ""}},
		{"key without values is absent", url.Values{FieldStyle: {}}, Fields{}},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FieldsFromValues(tc.values))
		})
	}
}
