// Package subservice implements the contract every model subservice answers:
// POST /generate with the projected form fields, returning one JSON artifact
// document. Real inference lives behind Generator; the stubs in this package
// produce well-formed artifacts without any model.
package subservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storyflow/gateway/internal/models"
	"github.com/storyflow/gateway/internal/registry"
)

// Generator runs one inference call for the fields of its model and returns
// the artifact document to send back.
type Generator interface {
	Generate(ctx context.Context, payload registry.Payload) (any, error)
}

// Artifact name prefixes.
const (
	ImagePrefix = "img"
	AudioPrefix = "tts"
	VideoPrefix = "vid"
)

var defaultTransitions = []string{"fade-in", "cut", "fade-out"}

// storyboardZone is the fixed UTC+8 offset storyboard timestamps are
// written in.
var storyboardZone = time.FixedZone("CST", 8*60*60)

// Namer produces artifact file names of the form <prefix>_<unix>_<8 hex>.<ext>.
type Namer struct {
	Now   func() time.Time
	NewID func() uuid.UUID
}

func defaultNamer() Namer {
	return Namer{Now: time.Now, NewID: uuid.New}
}

// Name returns a fresh artifact name.
func (n Namer) Name(prefix, ext string) string {
	id := strings.ReplaceAll(n.NewID().String(), "-", "")
	return fmt.Sprintf("%s_%d_%s.%s", prefix, n.Now().Unix(), id[:8], ext)
}

// ApplyTransitions sets the transition of every scene: the first three get
// fade-in, cut and fade-out, any further scene gets cut.
func ApplyTransitions(scenes []models.Scene) {
	for i := range scenes {
		if i < len(defaultTransitions) {
			scenes[i].Transition = defaultTransitions[i]
		} else {
			scenes[i].Transition = "cut"
		}
	}
}

// StoryboardStub splits the story into sentences and turns each one into a
// scene.
type StoryboardStub struct {
	Namer Namer
}

func (g StoryboardStub) Generate(ctx context.Context, payload registry.Payload) (any, error) {
	rawText, _ := payload.Get(registry.FieldRawText)
	style, _ := payload.Get(registry.FieldStyle)

	scenes := []models.Scene{}
	for i, sentence := range splitSentences(rawText) {
		prompt := sentence
		if style != "" {
			prompt = fmt.Sprintf("%s, %s style", sentence, style)
		}
		scenes = append(scenes, models.Scene{
			SceneTitle: fmt.Sprintf("Scene %d", i+1),
			Prompt:     prompt,
			Narration:  sentence,
		})
	}
	ApplyTransitions(scenes)

	bgm := "calm, warm"
	if style != "" {
		bgm = fmt.Sprintf("calm, warm, %s", style)
	}

	return models.Storyboard{
		ID:            g.Namer.NewID().String(),
		CreateTime:    g.Namer.Now().In(storyboardZone).Format(time.RFC3339),
		RawStory:      rawText,
		Style:         style,
		BGMSuggestion: bgm,
		Scenes:        scenes,
	}, nil
}

// splitSentences cuts text after ., !, ? and their full-width forms.
// Empty text yields one empty sentence so a storyboard always has a scene.
func splitSentences(text string) []string {
	sentences := []string{}
	current := strings.Builder{}
	for _, r := range text {
		current.WriteRune(r)
		switch r {
		case '.', '!', '?', '。', '！', '？':
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	if len(sentences) == 0 {
		sentences = append(sentences, "")
	}
	return sentences
}

// ImageStub names a png under /files/image.
type ImageStub struct {
	Namer Namer
}

func (g ImageStub) Generate(ctx context.Context, payload registry.Payload) (any, error) {
	return models.ImageArtifact{ImageURL: "/files/image/" + g.Namer.Name(ImagePrefix, "png")}, nil
}

// SpeechStub names a wav under /files/audio.
type SpeechStub struct {
	Namer Namer
}

func (g SpeechStub) Generate(ctx context.Context, payload registry.Payload) (any, error) {
	return models.AudioArtifact{AudioURL: "/files/audio/" + g.Namer.Name(AudioPrefix, "wav")}, nil
}

// VideoStub names an mp4 under /files/video.
type VideoStub struct {
	Namer Namer
}

func (g VideoStub) Generate(ctx context.Context, payload registry.Payload) (any, error) {
	return models.VideoArtifact{VideoURL: "/files/video/" + g.Namer.Name(VideoPrefix, "mp4")}, nil
}

// NewStub returns the stub generator for a model.
func NewStub(model registry.ModelID) (Generator, error) {
	namer := defaultNamer()
	switch model {
	case registry.LLM:
		return StoryboardStub{Namer: namer}, nil
	case registry.TTI:
		return ImageStub{Namer: namer}, nil
	case registry.TTA:
		return SpeechStub{Namer: namer}, nil
	case registry.ITV:
		return VideoStub{Namer: namer}, nil
	}
	return nil, fmt.Errorf("no stub generator for model %q: %w", model, registry.ErrUnknownModel)
}
