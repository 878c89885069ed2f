package repository

import (
	"context"
	"fmt"

	"receiptwise/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type CategoryRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewCategoryRepository(db *pgxpool.Pool, logger *zap.Logger) *CategoryRepository {
	return &CategoryRepository{
		db:     db,
		logger: logger,
	}
}

// List returns the directory visible to ownerID: global categories plus
// the user's own, ordered by category_id. The result is the snapshot the
// extraction pipeline works against for one ingestion flow.
func (r *CategoryRepository) List(ctx context.Context, ownerID int64) ([]models.Category, error) {
	query := squirrel.Select("category_id", "category_name", "icon", "owner_id", "created_at").
		From("categories").
		Where(squirrel.Or{
			squirrel.Eq{"owner_id": nil},
			squirrel.Eq{"owner_id": ownerID},
		}).
		OrderBy("category_id").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(
			&cat.CategoryID, &cat.CategoryName, &cat.Icon, &cat.OwnerID, &cat.CreatedAt,
		); err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}

	return categories, rows.Err()
}

func (r *CategoryRepository) Create(ctx context.Context, cat *models.Category) error {
	query := squirrel.Insert("categories").
		Columns("category_name", "icon", "owner_id", "created_at").
		Values(cat.CategoryName, cat.Icon, cat.OwnerID, cat.CreatedAt).
		Suffix("RETURNING category_id").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	return r.db.QueryRow(ctx, sql, args...).Scan(&cat.CategoryID)
}

func (r *CategoryRepository) Update(ctx context.Context, categoryID, ownerID int64, name, icon string) error {
	query := squirrel.Update("categories").
		Set("category_name", name).
		Set("icon", icon).
		Where(squirrel.Eq{"category_id": categoryID, "owner_id": ownerID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("category %d not found or not owned by user", categoryID)
	}
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, categoryID, ownerID int64) error {
	query := squirrel.Delete("categories").
		Where(squirrel.Eq{"category_id": categoryID, "owner_id": ownerID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("category %d not found or not owned by user", categoryID)
	}
	return nil
}
