package service

import (
	"encoding/json"
	"errors"
	"testing"

	"receiptwise/internal/models"
)

func testCategories() []models.Category {
	return []models.Category{
		{CategoryID: 1, CategoryName: "Groceries"},
		{CategoryID: 2, CategoryName: "Dining"},
		{CategoryID: 3, CategoryName: "Transport"},
		{CategoryID: 4, CategoryName: "Drink"},
	}
}

func TestValidateExtractionValid(t *testing.T) {
	raw := `{
		"category_id": 2,
		"amount": 160,
		"description": "Lunch at cafe",
		"payment_method": "cash",
		"expense_date": "2026-03-14",
		"created_at": "2026-03-14T12:30:00Z",
		"line_items": [
			{"item_name": "Pasta", "amount": 100, "subcategory": "Dining", "created_at": "2026-03-14T12:30:00Z"},
			{"item_name": "Cola", "amount": 60, "subcategory": "Drink", "created_at": "2026-03-14T12:30:00Z"}
		]
	}`

	tx, err := ValidateExtraction(raw, testCategories())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tx.CategoryID != 2 {
		t.Errorf("category_id = %d, want 2", tx.CategoryID)
	}
	if tx.Amount != 160 {
		t.Errorf("amount = %v, want 160", tx.Amount)
	}
	if tx.PaymentMethod != models.PaymentMethodCash {
		t.Errorf("payment_method = %q, want cash", tx.PaymentMethod)
	}
	if got := tx.ExpenseDate.Format("2006-01-02"); got != "2026-03-14" {
		t.Errorf("expense_date = %s, want 2026-03-14", got)
	}
	if len(tx.LineItems) != 2 {
		t.Fatalf("line_items = %d, want 2", len(tx.LineItems))
	}
	if tx.LineItems[1].Subcategory != "Drink" {
		t.Errorf("subcategory = %q, want Drink", tx.LineItems[1].Subcategory)
	}
}

func TestValidateExtractionStripsCodeFences(t *testing.T) {
	raw := "```json\n{\"category_id\": 1, \"amount\": 50, \"description\": \"Milk\", \"payment_method\": \"debit\", \"expense_date\": \"2026-01-02\", \"created_at\": \"2026-01-02T10:00:00Z\", \"line_items\": [{\"item_name\": \"Milk\", \"amount\": 50, \"subcategory\": \"Groceries\", \"created_at\": \"2026-01-02T10:00:00Z\"}]}\n```"

	tx, err := ValidateExtraction(raw, testCategories())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Amount != 50 {
		t.Errorf("amount = %v, want 50", tx.Amount)
	}
}

func TestValidateExtractionPaymentMethodCaseFolded(t *testing.T) {
	raw := `{"category_id": 1, "amount": 50, "description": "Milk", "payment_method": "CASH", "expense_date": "2026-01-02", "created_at": "2026-01-02T10:00:00Z", "line_items": [{"item_name": "Milk", "amount": 50, "subcategory": "Groceries", "created_at": "2026-01-02T10:00:00Z"}]}`

	tx, err := ValidateExtraction(raw, testCategories())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.PaymentMethod != models.PaymentMethodCash {
		t.Errorf("payment_method = %q, want cash", tx.PaymentMethod)
	}
}

func TestValidateExtractionRecomputesAmount(t *testing.T) {
	// The model's stated total disagrees with its own items. The items win.
	raw := `{"category_id": 1, "amount": 50, "description": "Shopping", "payment_method": "credit", "expense_date": "2026-01-02", "created_at": "2026-01-02T10:00:00Z", "line_items": [
		{"item_name": "Bread", "amount": 59.99, "subcategory": "Groceries", "created_at": "2026-01-02T10:00:00Z"},
		{"item_name": "Cheese", "amount": 40.00, "subcategory": "Groceries", "created_at": "2026-01-02T10:00:00Z"}
	]}`

	tx, err := ValidateExtraction(raw, testCategories())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Amount != 99.99 {
		t.Errorf("amount = %v, want 99.99", tx.Amount)
	}
}

func TestValidateExtractionIdempotent(t *testing.T) {
	raw := `{"category_id": 2, "amount": 160, "description": "Lunch", "payment_method": "cash", "expense_date": "2026-03-14", "created_at": "2026-03-14T12:30:00Z", "line_items": [
		{"item_name": "Pasta", "amount": 100, "subcategory": "Dining", "created_at": "2026-03-14T12:30:00Z"},
		{"item_name": "Cola", "amount": 60, "subcategory": "Drink", "created_at": "2026-03-14T12:30:00Z"}
	]}`

	first, err := ValidateExtraction(raw, testCategories())
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}

	reencoded, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	second, err := ValidateExtraction(string(reencoded), testCategories())
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if second.Amount != first.Amount || len(second.LineItems) != len(first.LineItems) {
		t.Errorf("second pass changed the transaction: %+v vs %+v", second, first)
	}
}

func TestValidateExtractionFailures(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantKind  FailureKind
		wantValue string
	}{
		{
			name:     "prose instead of json",
			raw:      "I could not read this receipt, sorry.",
			wantKind: FailureMalformedJSON,
		},
		{
			name:     "truncated json",
			raw:      `{"category_id": 1, "amount": 50,`,
			wantKind: FailureMalformedJSON,
		},
		{
			name:     "amount as string",
			raw:      `{"category_id": 1, "amount": "160", "description": "x", "payment_method": "cash", "expense_date": "2026-01-02", "line_items": [{"item_name": "Milk", "amount": 50, "subcategory": "Groceries"}]}`,
			wantKind: FailureSchemaViolation,
		},
		{
			name:      "unknown payment method",
			raw:       `{"category_id": 1, "amount": 50, "description": "x", "payment_method": "bitcoin", "expense_date": "2026-01-02", "line_items": [{"item_name": "Milk", "amount": 50, "subcategory": "Groceries"}]}`,
			wantKind:  FailureSchemaViolation,
			wantValue: "bitcoin",
		},
		{
			name:      "unknown subcategory",
			raw:       `{"category_id": 3, "amount": 50, "description": "x", "payment_method": "cash", "expense_date": "2026-01-02", "line_items": [{"item_name": "Taxi", "amount": 50, "subcategory": "Transportation"}]}`,
			wantKind:  FailureUnknownSubcategory,
			wantValue: "Transportation",
		},
		{
			name:      "subcategory case mismatch",
			raw:       `{"category_id": 1, "amount": 50, "description": "x", "payment_method": "cash", "expense_date": "2026-01-02", "line_items": [{"item_name": "Milk", "amount": 50, "subcategory": "groceries"}]}`,
			wantKind:  FailureUnknownSubcategory,
			wantValue: "groceries",
		},
		{
			name:     "empty line items",
			raw:      `{"category_id": 1, "amount": 50, "description": "x", "payment_method": "cash", "expense_date": "2026-01-02", "line_items": []}`,
			wantKind: FailureSchemaViolation,
		},
		{
			name:     "missing line items",
			raw:      `{"category_id": 1, "amount": 50, "description": "x", "payment_method": "cash", "expense_date": "2026-01-02"}`,
			wantKind: FailureSchemaViolation,
		},
		{
			name:     "fractional category id",
			raw:      `{"category_id": 1.5, "amount": 50, "description": "x", "payment_method": "cash", "expense_date": "2026-01-02", "line_items": [{"item_name": "Milk", "amount": 50, "subcategory": "Groceries"}]}`,
			wantKind: FailureSchemaViolation,
		},
		{
			name:      "category id not in directory",
			raw:       `{"category_id": 99, "amount": 50, "description": "x", "payment_method": "cash", "expense_date": "2026-01-02", "line_items": [{"item_name": "Milk", "amount": 50, "subcategory": "Groceries"}]}`,
			wantKind:  FailureSchemaViolation,
			wantValue: "99",
		},
		{
			name:     "bad expense date",
			raw:      `{"category_id": 1, "amount": 50, "description": "x", "payment_method": "cash", "expense_date": "02/01/2026", "line_items": [{"item_name": "Milk", "amount": 50, "subcategory": "Groceries"}]}`,
			wantKind: FailureSchemaViolation,
		},
		{
			name:     "empty item name",
			raw:      `{"category_id": 1, "amount": 50, "description": "x", "payment_method": "cash", "expense_date": "2026-01-02", "line_items": [{"item_name": "", "amount": 50, "subcategory": "Groceries"}]}`,
			wantKind: FailureSchemaViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateExtraction(tt.raw, testCategories())
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var extractionErr *ExtractionError
			if !errors.As(err, &extractionErr) {
				t.Fatalf("expected *ExtractionError, got %T: %v", err, err)
			}
			if extractionErr.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", extractionErr.Kind, tt.wantKind)
			}
			if tt.wantValue != "" && extractionErr.Value != tt.wantValue {
				t.Errorf("value = %q, want %q", extractionErr.Value, tt.wantValue)
			}
			if extractionErr.RawText != tt.raw {
				t.Errorf("raw text not carried through")
			}
		})
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  \n```json\n{\"a\": 1}\n```\n  ", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFences(tt.in); got != tt.want {
				t.Errorf("stripCodeFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeAgainstDirectory(t *testing.T) {
	tx := &models.Transaction{
		CategoryID:    1,
		Amount:        12345,
		PaymentMethod: "Debit",
		LineItems: []models.TransactionItem{
			{ItemName: "Bread", Amount: 3.333, Subcategory: "Groceries"},
			{ItemName: "Milk", Amount: 2.5, Subcategory: "Groceries"},
		},
	}

	if err := normalizeAgainstDirectory(tx, testCategories()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tx.PaymentMethod != models.PaymentMethodDebit {
		t.Errorf("payment_method = %q, want debit", tx.PaymentMethod)
	}
	if tx.Amount != 5.83 {
		t.Errorf("amount = %v, want 5.83", tx.Amount)
	}
	if tx.LineItems[0].Amount != 3.33 {
		t.Errorf("item amount = %v, want 3.33", tx.LineItems[0].Amount)
	}
	if tx.CreatedAt.IsZero() || tx.LineItems[0].CreatedAt.IsZero() {
		t.Error("timestamps not filled in")
	}
}

func TestNormalizeAgainstDirectoryRejectsUnknownSubcategory(t *testing.T) {
	tx := &models.Transaction{
		CategoryID:    1,
		PaymentMethod: models.PaymentMethodCash,
		LineItems: []models.TransactionItem{
			{ItemName: "Taxi", Amount: 10, Subcategory: "Rides"},
		},
	}

	err := normalizeAgainstDirectory(tx, testCategories())
	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) || extractionErr.Kind != FailureUnknownSubcategory {
		t.Fatalf("expected unknown_subcategory error, got %v", err)
	}
	if extractionErr.Value != "Rides" {
		t.Errorf("value = %q, want Rides", extractionErr.Value)
	}
}
