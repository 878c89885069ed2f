package service

import (
	"context"
	"fmt"
	"time"

	"receiptwise/internal/dto"
	"receiptwise/internal/models"
	"receiptwise/internal/repository"

	"go.uber.org/zap"
)

const monthLayout = "2006-01"

// ExpenseService persists confirmed transactions and serves history and
// per-category aggregates.
type ExpenseService struct {
	txRepo     *repository.TransactionRepository
	categories CategoryDirectory
	logger     *zap.Logger
}

func NewExpenseService(txRepo *repository.TransactionRepository, categories CategoryDirectory, logger *zap.Logger) *ExpenseService {
	return &ExpenseService{
		txRepo:     txRepo,
		categories: categories,
		logger:     logger,
	}
}

// Save validates a client-submitted transaction against the current
// category directory and writes it atomically with its line items. The
// submitted transaction goes through the same normalization as model
// output, so a client cannot persist a sum that disagrees with its items.
func (s *ExpenseService) Save(ctx context.Context, ownerID int64, req *dto.SaveExpenseRequest) (*dto.PersistedTransactionResponse, error) {
	categories, err := s.categories.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	tx := req.Transaction
	tx.TransactionID = 0
	tx.OwnerID = ownerID
	tx.LineItems = req.TransactionItems
	if tx.ExpenseDate.IsZero() {
		tx.ExpenseDate = time.Now().UTC().Truncate(24 * time.Hour)
	}

	if err := normalizeAgainstDirectory(&tx, categories); err != nil {
		return nil, err
	}

	persisted, err := s.txRepo.Save(ctx, &tx)
	if err != nil {
		return nil, err
	}

	return &dto.PersistedTransactionResponse{
		TransactionID: persisted.TransactionID,
		LineItemIDs:   persisted.LineItemIDs,
	}, nil
}

// List returns the owner's saved transactions, newest first.
func (s *ExpenseService) List(ctx context.Context, ownerID int64, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.txRepo.ListByOwner(ctx, ownerID, limit, offset)
}

// Summary aggregates the owner's spending per category for one calendar
// month. An empty month means the current one.
func (s *ExpenseService) Summary(ctx context.Context, ownerID int64, month string) (*dto.SummaryResponse, error) {
	var monthStart time.Time
	if month == "" {
		now := time.Now().UTC()
		monthStart = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	} else {
		var err error
		monthStart, err = time.Parse(monthLayout, month)
		if err != nil {
			return nil, fmt.Errorf("invalid month %q, expected %s", month, monthLayout)
		}
	}

	totals, err := s.txRepo.SummaryByMonth(ctx, ownerID, monthStart)
	if err != nil {
		return nil, err
	}

	resp := &dto.SummaryResponse{
		Month:      monthStart.Format(monthLayout),
		Categories: make([]dto.CategorySummary, 0, len(totals)),
	}
	for _, t := range totals {
		resp.Total = round2(resp.Total + t.Total)
		resp.Categories = append(resp.Categories, dto.CategorySummary{
			CategoryID:   t.CategoryID,
			CategoryName: t.CategoryName,
			Total:        round2(t.Total),
			Count:        t.Count,
		})
	}

	return resp, nil
}
