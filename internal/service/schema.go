package service

import (
	"fmt"
	"strings"

	"receiptwise/internal/models"
)

// Field names of the transaction object the model must emit. The prompt
// and the validator both read these constants, so the contract rendered
// into the prompt and the contract enforced on the response cannot drift.
const (
	fieldCategoryID    = "category_id"
	fieldAmount        = "amount"
	fieldDescription   = "description"
	fieldPaymentMethod = "payment_method"
	fieldExpenseDate   = "expense_date"
	fieldCreatedAt     = "created_at"
	fieldLineItems     = "line_items"
	fieldItemName      = "item_name"
	fieldSubcategory   = "subcategory"
)

// renderSchemaBlock describes the required JSON shape for the prompt.
func renderSchemaBlock() string {
	return fmt.Sprintf(`The output must be a single JSON object with exactly these fields:
{
  %q: <integer, id of the best matching category>,
  %q: <number, total amount, equal to the sum of all line item amounts>,
  %q: <string, short description of the purchase>,
  %q: <string, one of "cash", "credit", "debit">,
  %q: <string, date of purchase in "YYYY-MM-DD" format>,
  %q: <string, ISO-8601 timestamp>,
  %q: [
    {
      %q: <string, name of the purchased item>,
      %q: <number, amount for this item>,
      %q: <string, a category name copied verbatim from the list below>,
      %q: <string, ISO-8601 timestamp>
    }
  ]
}`,
		fieldCategoryID, fieldAmount, fieldDescription, fieldPaymentMethod,
		fieldExpenseDate, fieldCreatedAt, fieldLineItems,
		fieldItemName, fieldAmount, fieldSubcategory, fieldCreatedAt)
}

// renderCategoryBlock renders the current category directory as
// reference data: the full list plus the derived name->id mapping, so
// the model picks identifiers consistent with the names it copies.
func renderCategoryBlock(categories []models.Category) string {
	var b strings.Builder
	b.WriteString("Available categories (id: name):\n")
	for _, cat := range categories {
		fmt.Fprintf(&b, "  %d: %s\n", cat.CategoryID, cat.CategoryName)
	}
	b.WriteString("\nName to id mapping:\n")
	for _, cat := range categories {
		fmt.Fprintf(&b, "  %q -> %d\n", cat.CategoryName, cat.CategoryID)
	}
	return b.String()
}

// renderRulesBlock is the fixed instruction set shared by extraction and
// refinement. The rules are advisory for the model; the validator is the
// enforcement point.
func renderRulesBlock() string {
	return `Rules:
1. Output ONLY valid JSON. No markdown fences, no commentary, no text before or after the object.
2. Every line item's "subcategory" must be a string copied verbatim from the category names listed above (case-sensitive).
3. The top-level "category_id" must be the id of the category that best matches the receipt as a whole.
4. All numeric fields must be JSON numbers, never strings.
5. The top-level "amount" must equal the sum of all line item amounts.
6. Line items must NOT include any id field; ids are assigned by the server.
7. All timestamps must be ISO-8601.
8. "payment_method" must be exactly one of: "cash", "credit", "debit".
9. "line_items" must contain at least one item.`
}

// extractionPrompt builds the full instruction block for parsing a
// receipt image.
func extractionPrompt(categories []models.Category) string {
	var b strings.Builder
	b.WriteString("You are a receipt parser for a personal finance tracker.\n")
	b.WriteString("Extract the purchase on the attached receipt image into structured data.\n\n")
	b.WriteString(renderSchemaBlock())
	b.WriteString("\n\n")
	b.WriteString(renderCategoryBlock(categories))
	b.WriteString("\n")
	b.WriteString(renderRulesBlock())
	return b.String()
}

// refinementPrompt builds the instruction block for one conversational
// edit. The model must return the entire updated object rather than a
// diff, which keeps merge logic out of the pipeline at the cost of
// re-sending the full extraction each turn.
func refinementPrompt(currentJSON, instruction string, categories []models.Category) string {
	var b strings.Builder
	b.WriteString("You are editing an extracted receipt for a personal finance tracker.\n\n")
	b.WriteString("Current extraction:\n")
	b.WriteString(currentJSON)
	b.WriteString("\n\nUser instruction:\n")
	b.WriteString(instruction)
	b.WriteString("\n\n")
	b.WriteString(renderSchemaBlock())
	b.WriteString("\n\n")
	b.WriteString(renderCategoryBlock(categories))
	b.WriteString("\n")
	b.WriteString(renderRulesBlock())
	b.WriteString("\n10. Apply the instruction and return the ENTIRE updated object, not just the changed parts.")
	return b.String()
}
