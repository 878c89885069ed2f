package repository

import (
	"context"
	"fmt"
	"time"

	"receiptwise/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type TransactionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTransactionRepository(db *pgxpool.Pool, logger *zap.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		logger: logger,
	}
}

// PersistedTransaction carries the identifiers assigned by the database
// for a saved transaction and its line items, in line-item order.
type PersistedTransaction struct {
	TransactionID int64
	LineItemIDs   []int64
}

// Save writes the transaction and all of its line items inside one
// database transaction: either every row lands or none does. A mid-insert
// failure (constraint violation, lost connection) rolls the whole receipt
// back.
func (r *TransactionRepository) Save(ctx context.Context, tx *models.Transaction) (*PersistedTransaction, error) {
	if len(tx.LineItems) == 0 {
		return nil, fmt.Errorf("transaction has no line items")
	}

	dbTx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback(ctx)

	insertTx := squirrel.Insert("transactions").
		Columns("owner_id", "category_id", "amount", "description", "payment_method", "expense_date", "created_at").
		Values(tx.OwnerID, tx.CategoryID, tx.Amount, tx.Description, tx.PaymentMethod, tx.ExpenseDate, tx.CreatedAt).
		Suffix("RETURNING transaction_id").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := insertTx.ToSql()
	if err != nil {
		return nil, err
	}

	var transactionID int64
	if err := dbTx.QueryRow(ctx, sql, args...).Scan(&transactionID); err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	insertItems := squirrel.Insert("transaction_items").
		Columns("transaction_id", "item_name", "amount", "subcategory", "created_at").
		Suffix("RETURNING item_id").
		PlaceholderFormat(squirrel.Dollar)
	for _, item := range tx.LineItems {
		insertItems = insertItems.Values(transactionID, item.ItemName, item.Amount, item.Subcategory, item.CreatedAt)
	}

	sql, args, err = insertItems.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := dbTx.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert line items: %w", err)
	}

	itemIDs := make([]int64, 0, len(tx.LineItems))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		itemIDs = append(itemIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to insert line items: %w", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Transaction saved",
		zap.Int64("transaction_id", transactionID),
		zap.Int("line_items", len(itemIDs)),
	)

	return &PersistedTransaction{
		TransactionID: transactionID,
		LineItemIDs:   itemIDs,
	}, nil
}

// ListByOwner returns the owner's transactions, newest first, each with
// its line items attached.
func (r *TransactionRepository) ListByOwner(ctx context.Context, ownerID int64, limit, offset int) ([]models.Transaction, error) {
	query := squirrel.Select("transaction_id", "owner_id", "category_id", "amount", "description", "payment_method", "expense_date", "created_at").
		From("transactions").
		Where(squirrel.Eq{"owner_id": ownerID}).
		OrderBy("expense_date DESC", "transaction_id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []models.Transaction
	ids := make([]int64, 0)
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(
			&tx.TransactionID, &tx.OwnerID, &tx.CategoryID, &tx.Amount, &tx.Description, &tx.PaymentMethod, &tx.ExpenseDate, &tx.CreatedAt,
		); err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
		ids = append(ids, tx.TransactionID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return transactions, nil
	}

	items, err := r.itemsByTransactionIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range transactions {
		transactions[i].LineItems = items[transactions[i].TransactionID]
	}

	return transactions, nil
}

func (r *TransactionRepository) itemsByTransactionIDs(ctx context.Context, ids []int64) (map[int64][]models.TransactionItem, error) {
	query := squirrel.Select("item_id", "transaction_id", "item_name", "amount", "subcategory", "created_at").
		From("transaction_items").
		Where(squirrel.Eq{"transaction_id": ids}).
		OrderBy("item_id").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[int64][]models.TransactionItem)
	for rows.Next() {
		var item models.TransactionItem
		if err := rows.Scan(
			&item.ItemID, &item.TransactionID, &item.ItemName, &item.Amount, &item.Subcategory, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		items[item.TransactionID] = append(items[item.TransactionID], item)
	}

	return items, rows.Err()
}

// CategoryTotal is one row of the monthly per-category aggregation.
type CategoryTotal struct {
	CategoryID   int64
	CategoryName string
	Total        float64
	Count        int64
}

// SummaryByMonth aggregates the owner's spending per category for the
// calendar month starting at monthStart.
func (r *TransactionRepository) SummaryByMonth(ctx context.Context, ownerID int64, monthStart time.Time) ([]CategoryTotal, error) {
	monthEnd := monthStart.AddDate(0, 1, 0)

	query := squirrel.Select("c.category_id", "c.category_name", "SUM(t.amount)", "COUNT(*)").
		From("transactions t").
		Join("categories c ON c.category_id = t.category_id").
		Where(squirrel.Eq{"t.owner_id": ownerID}).
		Where(squirrel.GtOrEq{"t.expense_date": monthStart}).
		Where(squirrel.Lt{"t.expense_date": monthEnd}).
		GroupBy("c.category_id", "c.category_name").
		OrderBy("SUM(t.amount) DESC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []CategoryTotal
	for rows.Next() {
		var t CategoryTotal
		if err := rows.Scan(&t.CategoryID, &t.CategoryName, &t.Total, &t.Count); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}

	return totals, rows.Err()
}
