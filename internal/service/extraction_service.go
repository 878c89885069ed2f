package service

import (
	"context"
	"encoding/json"
	"fmt"

	"receiptwise/internal/models"

	"go.uber.org/zap"
)

// CategoryDirectory lists the categories visible to one owner: the
// global set plus the owner's own.
type CategoryDirectory interface {
	List(ctx context.Context, ownerID int64) ([]models.Category, error)
}

// ImageSource reads a previously stored receipt image by name.
type ImageSource interface {
	Read(storedFilename string) ([]byte, string, error)
}

// ExtractionService runs the receipt pipeline: image in, validated
// transaction out, with an edit loop on top. Each call takes a fresh
// category snapshot so prompt and validation always agree on the same
// directory.
type ExtractionService struct {
	inferencer Inferencer
	categories CategoryDirectory
	images     ImageSource
	logger     *zap.Logger
}

func NewExtractionService(inferencer Inferencer, categories CategoryDirectory, images ImageSource, logger *zap.Logger) *ExtractionService {
	return &ExtractionService{
		inferencer: inferencer,
		categories: categories,
		images:     images,
		logger:     logger,
	}
}

// Extract parses the stored receipt image into a transaction. The result
// is transient: nothing is persisted until the client saves it. A single
// inference attempt is made; validation failures surface to the caller
// with the raw model text attached.
func (s *ExtractionService) Extract(ctx context.Context, ownerID int64, imagePath string) (*models.Transaction, error) {
	categories, err := s.categories.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	data, mimeType, err := s.images.Read(imagePath)
	if err != nil {
		return nil, err
	}

	raw, err := s.inferencer.Generate(ctx, extractionPrompt(categories), &ImagePart{
		MIMEType: mimeType,
		Data:     data,
	})
	if err != nil {
		return nil, err
	}

	tx, err := ValidateExtraction(raw, categories)
	if err != nil {
		s.logger.Warn("Extraction rejected",
			zap.String("image", imagePath),
			zap.Error(err),
		)
		return nil, err
	}

	tx.OwnerID = ownerID
	s.logger.Info("Receipt extracted",
		zap.String("image", imagePath),
		zap.Int("line_items", len(tx.LineItems)),
		zap.Float64("amount", tx.Amount),
	)
	return tx, nil
}

// Refine applies one natural-language edit to a previously extracted
// transaction. The full current object goes back to the model along with
// the instruction, and the full response is re-validated from scratch.
// On any failure the caller keeps its prior transaction untouched.
func (s *ExtractionService) Refine(ctx context.Context, ownerID int64, current *models.Transaction, instruction string) (*models.Transaction, error) {
	categories, err := s.categories.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	currentJSON, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode current transaction: %w", err)
	}

	raw, err := s.inferencer.Generate(ctx, refinementPrompt(string(currentJSON), instruction, categories), nil)
	if err != nil {
		return nil, err
	}

	tx, err := ValidateExtraction(raw, categories)
	if err != nil {
		s.logger.Warn("Refinement rejected", zap.Error(err))
		return nil, err
	}

	tx.OwnerID = ownerID
	return tx, nil
}
