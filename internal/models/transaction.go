package models

import "time"

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCredit PaymentMethod = "credit"
	PaymentMethodDebit  PaymentMethod = "debit"
)

// IsValid reports whether the payment method is one of the closed set.
func (p PaymentMethod) IsValid() bool {
	switch p {
	case PaymentMethodCash, PaymentMethodCredit, PaymentMethodDebit:
		return true
	}
	return false
}

// Transaction is an extracted receipt, either still transient (no
// TransactionID yet) or persisted. Amount is always the sum of the line
// item amounts, rounded to two decimal places.
type Transaction struct {
	TransactionID int64             `db:"transaction_id" json:"transaction_id,omitempty"`
	OwnerID       int64             `db:"owner_id"       json:"owner_id"`
	CategoryID    int64             `db:"category_id"    json:"category_id"`
	Amount        float64           `db:"amount"         json:"amount"`
	Description   string            `db:"description"    json:"description"`
	PaymentMethod PaymentMethod     `db:"payment_method" json:"payment_method"`
	ExpenseDate   time.Time         `db:"expense_date"   json:"expense_date"`
	CreatedAt     time.Time         `db:"created_at"     json:"created_at"`
	LineItems     []TransactionItem `db:"-"              json:"line_items"`
}

// TransactionItem is a single purchased item on a receipt. ItemID is
// assigned by the database on insert; an extracted item carries zero.
type TransactionItem struct {
	ItemID        int64     `db:"item_id"        json:"item_id,omitempty"`
	TransactionID int64     `db:"transaction_id" json:"-"`
	ItemName      string    `db:"item_name"      json:"item_name"`
	Amount        float64   `db:"amount"         json:"amount"`
	Subcategory   string    `db:"subcategory"    json:"subcategory"`
	CreatedAt     time.Time `db:"created_at"     json:"created_at"`
}
