package service

import (
	"context"
	"fmt"

	"receiptwise/pkg/config"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// ImagePart is one inline image attached to an inference request.
type ImagePart struct {
	MIMEType string
	Data     []byte
}

// Inferencer sends one prompt (optionally with an attached image) to a
// model and returns its raw text output.
type Inferencer interface {
	Generate(ctx context.Context, prompt string, image *ImagePart) (string, error)
}

// VisionService talks to the Gemini API. It is a thin transport layer:
// prompt construction and response validation live with the callers.
type VisionService struct {
	client *genai.Client
	model  string
	cfg    config.GeminiConfig
	logger *zap.Logger
}

func NewVisionService(ctx context.Context, cfg config.GeminiConfig, logger *zap.Logger) (*VisionService, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &VisionService{
		client: client,
		model:  cfg.Model,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Generate sends the prompt, with the image inlined when present, and
// returns the model's text. Transport and empty-response failures are
// wrapped in ErrInference; the caller decides whether to re-invoke.
func (s *VisionService) Generate(ctx context.Context, prompt string, image *ImagePart) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	parts := []*genai.Part{
		{Text: prompt},
	}
	if image != nil {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: image.MIMEType,
				Data:     image.Data,
			},
		})
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: parts,
		},
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, nil)
	if err != nil {
		s.logger.Error("Gemini request failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrInference, err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty response from model", ErrInference)
	}

	return text, nil
}
