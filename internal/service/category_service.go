package service

import (
	"context"
	"time"

	"receiptwise/internal/dto"
	"receiptwise/internal/models"
	"receiptwise/internal/repository"

	"go.uber.org/zap"
)

// CategoryService manages the category directory. Global categories are
// read-only here; users create, rename, and delete only their own.
type CategoryService struct {
	repo   *repository.CategoryRepository
	logger *zap.Logger
}

func NewCategoryService(repo *repository.CategoryRepository, logger *zap.Logger) *CategoryService {
	return &CategoryService{
		repo:   repo,
		logger: logger,
	}
}

func (s *CategoryService) List(ctx context.Context, ownerID int64) ([]models.Category, error) {
	return s.repo.List(ctx, ownerID)
}

func (s *CategoryService) Create(ctx context.Context, ownerID int64, req *dto.CategoryRequest) (*models.Category, error) {
	cat := &models.Category{
		CategoryName: req.CategoryName,
		Icon:         req.Icon,
		OwnerID:      &ownerID,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, cat); err != nil {
		return nil, err
	}

	s.logger.Info("Category created",
		zap.Int64("category_id", cat.CategoryID),
		zap.Int64("owner_id", ownerID),
	)
	return cat, nil
}

func (s *CategoryService) Update(ctx context.Context, categoryID, ownerID int64, req *dto.CategoryRequest) error {
	return s.repo.Update(ctx, categoryID, ownerID, req.CategoryName, req.Icon)
}

func (s *CategoryService) Delete(ctx context.Context, categoryID, ownerID int64) error {
	return s.repo.Delete(ctx, categoryID, ownerID)
}
