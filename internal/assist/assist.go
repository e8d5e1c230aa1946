package assist

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"veo-prompt-studio/internal/apperr"
	"veo-prompt-studio/internal/gemini"
	"veo-prompt-studio/internal/prompt"
)

const (
	inspirePrompt = "Generate a single, creative, and detailed sentence for a cinematic video prompt. Be imaginative and specific."

	inspireFailed = "Gagal mendapatkan inspirasi. Silakan coba lagi."
	previewFailed = "Gagal membuat pratinjau karakter. Silakan coba lagi."
)

// Generator is the model backend. EditImage is used when reference images
// are available, GenerateImage otherwise.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	EditImage(ctx context.Context, prompt string, images []gemini.ImageInput) (string, error)
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

type Options struct {
	Generator Generator
	Logger    *slog.Logger
}

type Service struct {
	gen    Generator
	logger *slog.Logger
}

func New(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{gen: opts.Generator, logger: logger}
}

// Inspire returns one creative scene sentence for the main description.
func (s *Service) Inspire(ctx context.Context) (string, error) {
	text, err := s.gen.GenerateText(ctx, inspirePrompt)
	if err != nil {
		s.logger.Error("inspire failed", "error", err)
		return "", apperr.External(inspireFailed, err)
	}
	return text, nil
}

// DescribeCharacter writes a one paragraph visual description from the
// character's fields.
func (s *Service) DescribeCharacter(ctx context.Context, c prompt.Character) (string, error) {
	text, err := s.gen.GenerateText(ctx, CharacterTextPrompt(c))
	if err != nil {
		s.logger.Error("describe character failed", "character_id", c.ID, "error", err)
		return "", apperr.External(previewFailed, err)
	}
	return text, nil
}

// RenderCharacter produces a preview image for c as a data URL. Reference
// images steer an image edit; without them the picture is generated from the
// description alone. An empty URL with a nil error means the model answered
// without an image.
func (s *Service) RenderCharacter(ctx context.Context, c prompt.Character, description string, scene prompt.State) (string, error) {
	refs := referenceInputs(c)

	var (
		url string
		err error
	)
	if len(refs) > 0 {
		url, err = s.gen.EditImage(ctx, ImageEditPrompt(description, scene), refs)
	} else {
		url, err = s.gen.GenerateImage(ctx, ImagePrompt(description, scene))
	}

	switch {
	case errors.Is(err, gemini.ErrNoImage):
		s.logger.Warn("character preview without image", "character_id", c.ID)
		return "", nil
	case err != nil:
		s.logger.Error("render character failed", "character_id", c.ID, "references", len(refs), "error", err)
		return "", apperr.External(previewFailed, err)
	}
	return url, nil
}

func CharacterTextPrompt(c prompt.Character) string {
	parts := []string{
		"Create a vivid, one-paragraph visual description of a character for a film script. Combine these details into a natural-sounding description.",
		labelled("Name: ", c.Name),
		labelled("Nationality: ", c.Nationality),
		labelled("Physical Characteristics: ", c.Characteristics),
		labelled("Clothing: ", c.Clothing),
		labelled("They are currently: ", c.MainAction),
		labelled("Their emotion is: ", c.Emotion),
		"Do not add any labels or titles, just output the descriptive paragraph.",
	}
	return joinNonEmpty(parts, "\n")
}

func ImageEditPrompt(description string, scene prompt.State) string {
	parts := []string{
		"Using the provided reference image(s) for the character's appearance and/or clothing, generate a new cinematic photo.",
		`The character is described as: "` + description + `"`,
		labelled("Style: ", scene.Camera.Style),
		labelled("Lighting: ", prompt.EnOption(scene.Camera.Lighting)),
		labelled("Background: ", scene.Background.Location),
		"The final image should be hyper-realistic, detailed, and 8k.",
	}
	return joinNonEmpty(parts, ". ")
}

func ImagePrompt(description string, scene prompt.State) string {
	parts := []string{
		"cinematic photo",
		description,
		labelled("style: ", scene.Camera.Style),
		labelled("lighting: ", prompt.EnOption(scene.Camera.Lighting)),
		"hyper-realistic, detailed, 8k",
		labelled("background: ", scene.Background.Location),
	}
	return joinNonEmpty(parts, ", ")
}

// referenceInputs collects the character image and then the clothing image.
// Payloads that are not base64 data URLs are skipped.
func referenceInputs(c prompt.Character) []gemini.ImageInput {
	var refs []gemini.ImageInput
	for _, ref := range []*prompt.ImageRef{c.ReferenceImage, c.ClothingReferenceImage} {
		if ref == nil {
			continue
		}
		if in, ok := gemini.ParseDataURL(ref.Data); ok {
			refs = append(refs, in)
		}
	}
	return refs
}

func labelled(label, value string) string {
	if value == "" {
		return ""
	}
	return label + value
}

func joinNonEmpty(parts []string, sep string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
