package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	DefaultTextModel   = "gemini-2.5-flash"
	DefaultImageModel  = "gemini-2.5-flash-image-preview"
	DefaultImagenModel = "imagen-4.0-generate-001"
)

// ErrNoImage reports a successful call whose response carried no image.
var ErrNoImage = errors.New("no image in response")

type Options struct {
	APIKey     string
	BaseURL    string
	APIVersion string
	HTTPClient *http.Client
	Logger     *slog.Logger

	TextModel   string
	ImageModel  string
	ImagenModel string

	// MaxRetries bounds attempts per call when the API answers with a rate
	// limit or quota error.
	MaxRetries int
	RetryWait  time.Duration
}

type Client struct {
	genai       *genai.Client
	textModel   string
	imageModel  string
	imagenModel string
	maxRetries  int
	retryWait   time.Duration
	logger      *slog.Logger
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("gemini api key is empty")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	cfg := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    strings.TrimSpace(opts.BaseURL),
			APIVersion: strings.TrimSpace(opts.APIVersion),
		},
	}
	gc, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	c := &Client{
		genai:       gc,
		textModel:   orDefault(opts.TextModel, DefaultTextModel),
		imageModel:  orDefault(opts.ImageModel, DefaultImageModel),
		imagenModel: orDefault(opts.ImagenModel, DefaultImagenModel),
		maxRetries:  opts.MaxRetries,
		retryWait:   opts.RetryWait,
		logger:      logger,
	}
	if c.maxRetries < 1 {
		c.maxRetries = 3
	}
	if c.retryWait <= 0 {
		c.retryWait = 2 * time.Second
	}
	return c, nil
}

// GenerateText sends a single text prompt to the text model and returns the
// concatenated text of the first candidate.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt is empty")
	}

	resp, err := withRetry(ctx, c.logger, c.maxRetries, c.retryWait, func() (*genai.GenerateContentResponse, error) {
		return c.genai.Models.GenerateContent(ctx, c.textModel, genai.Text(prompt), nil)
	})
	if err != nil {
		return "", fmt.Errorf("generate text: %w", err)
	}

	text, _ := extractParts(resp)
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("generate text: empty response")
	}
	return text, nil
}

// EditImage asks the image model for a new picture guided by the reference
// images and returns it as a data URL.
func (c *Client) EditImage(ctx context.Context, prompt string, images []ImageInput) (string, error) {
	if len(images) == 0 {
		return "", errors.New("edit image: no reference images")
	}

	parts := make([]*genai.Part, 0, len(images)+1)
	for i, img := range images {
		data, err := base64.StdEncoding.DecodeString(stripDataURLPrefix(img.DataBase64))
		if err != nil {
			return "", fmt.Errorf("edit image: decode image #%d: %w", i+1, err)
		}
		parts = append(parts, genai.NewPartFromBytes(data, img.MimeType))
	}
	parts = append(parts, genai.NewPartFromText(prompt))

	contents := []*genai.Content{{Role: "user", Parts: parts}}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}

	resp, err := withRetry(ctx, c.logger, c.maxRetries, c.retryWait, func() (*genai.GenerateContentResponse, error) {
		return c.genai.Models.GenerateContent(ctx, c.imageModel, contents, config)
	})
	if err != nil {
		return "", fmt.Errorf("edit image: %w", err)
	}

	_, imgs := extractParts(resp)
	if len(imgs) == 0 {
		return "", fmt.Errorf("edit image: %w", ErrNoImage)
	}
	return imgs[0], nil
}

// GenerateImage renders a square JPEG from a text prompt with the imagen
// model and returns it as a data URL.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt is empty")
	}

	config := &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: "image/jpeg",
		AspectRatio:    "1:1",
	}
	resp, err := withRetry(ctx, c.logger, c.maxRetries, c.retryWait, func() (*genai.GenerateImagesResponse, error) {
		return c.genai.Models.GenerateImages(ctx, c.imagenModel, prompt, config)
	})
	if err != nil {
		return "", fmt.Errorf("generate image: %w", err)
	}

	for _, generated := range resp.GeneratedImages {
		if generated == nil || generated.Image == nil || len(generated.Image.ImageBytes) == 0 {
			continue
		}
		mime := generated.Image.MIMEType
		if mime == "" {
			mime = "image/jpeg"
		}
		return DataURL(mime, generated.Image.ImageBytes), nil
	}
	return "", fmt.Errorf("generate image: %w", ErrNoImage)
}

func extractParts(resp *genai.GenerateContentResponse) (string, []string) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var text strings.Builder
	var images []string
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		if p.Text != "" {
			text.WriteString(p.Text)
		}
		if p.InlineData != nil && len(p.InlineData.Data) > 0 && p.InlineData.MIMEType != "" {
			images = append(images, DataURL(p.InlineData.MIMEType, p.InlineData.Data))
		}
	}
	return text.String(), images
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
