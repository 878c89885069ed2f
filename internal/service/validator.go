package service

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"receiptwise/internal/models"
)

const expenseDateLayout = "2006-01-02"

// ValidateExtraction parses raw model output against the transaction
// contract and the given category directory snapshot. It returns a fully
// normalized transaction or an *ExtractionError carrying the raw text.
// The amount invariant is enforced by recomputation, not comparison: the
// top-level amount is always overwritten with the rounded sum of the
// line item amounts, so running the result through validation again is a
// no-op.
func ValidateExtraction(raw string, categories []models.Category) (*models.Transaction, error) {
	cleaned := stripCodeFences(raw)

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &obj); err != nil {
		return nil, &ExtractionError{
			Kind:    FailureMalformedJSON,
			Message: "model output is not valid JSON",
			RawText: raw,
		}
	}

	ids, names := indexCategories(categories)

	tx := &models.Transaction{}

	categoryID, ok := getIntegerField(obj, fieldCategoryID)
	if !ok {
		return nil, schemaErr(raw, "%s must be an integer", fieldCategoryID)
	}
	if !ids[categoryID] {
		return nil, &ExtractionError{
			Kind:    FailureSchemaViolation,
			Message: fmt.Sprintf("%s does not exist in the category directory", fieldCategoryID),
			Value:   fmt.Sprintf("%d", categoryID),
			RawText: raw,
		}
	}
	tx.CategoryID = categoryID

	if _, ok := getFloat64Field(obj, fieldAmount); !ok {
		return nil, schemaErr(raw, "%s must be a number", fieldAmount)
	}

	description, ok := getStringField(obj, fieldDescription)
	if !ok {
		return nil, schemaErr(raw, "%s must be a string", fieldDescription)
	}
	tx.Description = sanitizeUTF8(description)

	methodRaw, ok := getStringField(obj, fieldPaymentMethod)
	if !ok {
		return nil, schemaErr(raw, "%s must be a string", fieldPaymentMethod)
	}
	method := models.PaymentMethod(strings.ToLower(methodRaw))
	if !method.IsValid() {
		return nil, &ExtractionError{
			Kind:    FailureSchemaViolation,
			Message: fmt.Sprintf("%s must be one of cash, credit, debit", fieldPaymentMethod),
			Value:   methodRaw,
			RawText: raw,
		}
	}
	tx.PaymentMethod = method

	dateRaw, ok := getStringField(obj, fieldExpenseDate)
	if !ok {
		return nil, schemaErr(raw, "%s must be a string", fieldExpenseDate)
	}
	expenseDate, err := parseExpenseDate(dateRaw)
	if err != nil {
		return nil, &ExtractionError{
			Kind:    FailureSchemaViolation,
			Message: fmt.Sprintf("%s must be a date in %s format", fieldExpenseDate, expenseDateLayout),
			Value:   dateRaw,
			RawText: raw,
		}
	}
	tx.ExpenseDate = expenseDate
	tx.CreatedAt = parseTimestampField(obj, fieldCreatedAt)

	rawItems, ok := obj[fieldLineItems].([]interface{})
	if !ok {
		return nil, schemaErr(raw, "%s must be an array", fieldLineItems)
	}
	if len(rawItems) == 0 {
		return nil, schemaErr(raw, "%s must contain at least one item", fieldLineItems)
	}

	items := make([]models.TransactionItem, 0, len(rawItems))
	for i, rawItem := range rawItems {
		itemObj, ok := rawItem.(map[string]interface{})
		if !ok {
			return nil, schemaErr(raw, "%s[%d] must be an object", fieldLineItems, i)
		}

		name, ok := getStringField(itemObj, fieldItemName)
		if !ok || name == "" {
			return nil, schemaErr(raw, "%s[%d].%s must be a non-empty string", fieldLineItems, i, fieldItemName)
		}

		amount, ok := getFloat64Field(itemObj, fieldAmount)
		if !ok {
			return nil, schemaErr(raw, "%s[%d].%s must be a number", fieldLineItems, i, fieldAmount)
		}

		subcategory, ok := getStringField(itemObj, fieldSubcategory)
		if !ok {
			return nil, schemaErr(raw, "%s[%d].%s must be a string", fieldLineItems, i, fieldSubcategory)
		}
		if _, known := names[subcategory]; !known {
			return nil, &ExtractionError{
				Kind:    FailureUnknownSubcategory,
				Message: "subcategory does not match any category name",
				Value:   subcategory,
				RawText: raw,
			}
		}

		items = append(items, models.TransactionItem{
			ItemName:    sanitizeUTF8(name),
			Amount:      round2(amount),
			Subcategory: subcategory,
			CreatedAt:   parseTimestampField(itemObj, fieldCreatedAt),
		})
	}
	tx.LineItems = items

	var sum float64
	for _, item := range tx.LineItems {
		sum += item.Amount
	}
	tx.Amount = round2(sum)

	return tx, nil
}

// normalizeAgainstDirectory enforces the same contract on a transaction
// submitted directly by a client, where there is no raw model text to
// carry. It mutates the transaction in place.
func normalizeAgainstDirectory(tx *models.Transaction, categories []models.Category) error {
	ids, names := indexCategories(categories)

	if !ids[tx.CategoryID] {
		return &ExtractionError{
			Kind:    FailureSchemaViolation,
			Message: "category_id does not exist in the category directory",
			Value:   fmt.Sprintf("%d", tx.CategoryID),
		}
	}

	method := models.PaymentMethod(strings.ToLower(string(tx.PaymentMethod)))
	if !method.IsValid() {
		return &ExtractionError{
			Kind:    FailureSchemaViolation,
			Message: "payment_method must be one of cash, credit, debit",
			Value:   string(tx.PaymentMethod),
		}
	}
	tx.PaymentMethod = method

	if len(tx.LineItems) == 0 {
		return &ExtractionError{
			Kind:    FailureSchemaViolation,
			Message: "line_items must contain at least one item",
		}
	}

	now := time.Now().UTC()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = now
	}

	var sum float64
	for i := range tx.LineItems {
		item := &tx.LineItems[i]
		if item.ItemName == "" {
			return &ExtractionError{
				Kind:    FailureSchemaViolation,
				Message: fmt.Sprintf("line_items[%d].item_name must be a non-empty string", i),
			}
		}
		if _, known := names[item.Subcategory]; !known {
			return &ExtractionError{
				Kind:    FailureUnknownSubcategory,
				Message: "subcategory does not match any category name",
				Value:   item.Subcategory,
			}
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}
		item.Amount = round2(item.Amount)
		sum += item.Amount
	}
	tx.Amount = round2(sum)

	return nil
}

func indexCategories(categories []models.Category) (map[int64]bool, map[string]int64) {
	ids := make(map[int64]bool, len(categories))
	names := make(map[string]int64, len(categories))
	for _, cat := range categories {
		ids[cat.CategoryID] = true
		names[cat.CategoryName] = cat.CategoryID
	}
	return ids, names
}

func schemaErr(raw, format string, args ...interface{}) *ExtractionError {
	return &ExtractionError{
		Kind:    FailureSchemaViolation,
		Message: fmt.Sprintf(format, args...),
		RawText: raw,
	}
}

// getStringField returns the field only when it is present as a JSON
// string. A number encoded as a string, or vice versa, does not pass.
func getStringField(obj map[string]interface{}, key string) (string, bool) {
	v, ok := obj[key].(string)
	return v, ok
}

func getFloat64Field(obj map[string]interface{}, key string) (float64, bool) {
	v, ok := obj[key].(float64)
	return v, ok
}

func getIntegerField(obj map[string]interface{}, key string) (int64, bool) {
	v, ok := obj[key].(float64)
	if !ok || v != math.Trunc(v) {
		return 0, false
	}
	return int64(v), true
}

// parseExpenseDate accepts the plain date the contract asks for, and a
// full timestamp as well: a round-tripped transaction re-encodes its
// date field as RFC3339, and re-validating that must not fail.
func parseExpenseDate(s string) (time.Time, error) {
	if t, err := time.Parse(expenseDateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// parseTimestampField reads an ISO-8601 timestamp, falling back to the
// current time when the field is missing or unparseable. Timestamps are
// bookkeeping, not extracted data, so a sloppy one is not worth failing
// the whole receipt over.
func parseTimestampField(obj map[string]interface{}, key string) time.Time {
	if s, ok := obj[key].(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}

// stripCodeFences removes a surrounding markdown code fence if the model
// wrapped its output in one despite instructions. Only fences are
// stripped; any other surrounding prose still fails JSON parsing.
func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// The rest of the fence line is a language tag like "json".
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
