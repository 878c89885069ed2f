package dto

import "receiptwise/internal/models"

type SaveExpenseRequest struct {
	Transaction      models.Transaction        `json:"transaction" validate:"required"`
	TransactionItems []models.TransactionItem  `json:"transaction_items" validate:"required,min=1"`
}

type PersistedTransactionResponse struct {
	TransactionID int64   `json:"transaction_id"`
	LineItemIDs   []int64 `json:"line_item_ids"`
}

type ExpenseResponse struct {
	Transaction models.Transaction       `json:"transaction"`
	Items       []models.TransactionItem `json:"items"`
}

type CategorySummary struct {
	CategoryID   int64   `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Total        float64 `json:"total"`
	Count        int64   `json:"count"`
}

type SummaryResponse struct {
	Month      string            `json:"month"`
	Total      float64           `json:"total"`
	Categories []CategorySummary `json:"categories"`
}
