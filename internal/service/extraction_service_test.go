package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"receiptwise/internal/models"

	"go.uber.org/zap"
)

type fakeInferencer struct {
	response   string
	err        error
	lastPrompt string
	lastImage  *ImagePart
	calls      int
}

func (f *fakeInferencer) Generate(_ context.Context, prompt string, image *ImagePart) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	f.lastImage = image
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fakeDirectory struct {
	categories []models.Category
	err        error
}

func (f *fakeDirectory) List(_ context.Context, _ int64) ([]models.Category, error) {
	return f.categories, f.err
}

type fakeImageSource struct {
	data     []byte
	mimeType string
	err      error
}

func (f *fakeImageSource) Read(_ string) ([]byte, string, error) {
	return f.data, f.mimeType, f.err
}

const validResponse = `{
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

func newTestExtractionService(inf *fakeInferencer, images *fakeImageSource) *ExtractionService {
	return NewExtractionService(
		inf,
		&fakeDirectory{categories: testCategories()},
		images,
		zap.NewNop(),
	)
}

func TestExtract(t *testing.T) {
	inf := &fakeInferencer{response: validResponse}
	images := &fakeImageSource{data: []byte("fake-jpeg-bytes"), mimeType: "image/jpeg"}
	svc := newTestExtractionService(inf, images)

	tx, err := svc.Extract(context.Background(), 7, "receipt.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tx.OwnerID != 7 {
		t.Errorf("owner_id = %d, want 7", tx.OwnerID)
	}
	if tx.Amount != 160 {
		t.Errorf("amount = %v, want 160", tx.Amount)
	}
	if len(tx.LineItems) != 2 {
		t.Errorf("line_items = %d, want 2", len(tx.LineItems))
	}

	if inf.lastImage == nil {
		t.Fatal("image was not attached to the inference request")
	}
	if inf.lastImage.MIMEType != "image/jpeg" {
		t.Errorf("image mime type = %q, want image/jpeg", inf.lastImage.MIMEType)
	}
	for _, name := range []string{"Groceries", "Dining", "Transport", "Drink"} {
		if !strings.Contains(inf.lastPrompt, name) {
			t.Errorf("prompt does not mention category %q", name)
		}
	}
}

func TestExtractInferenceError(t *testing.T) {
	inf := &fakeInferencer{err: ErrInference}
	images := &fakeImageSource{data: []byte("x"), mimeType: "image/png"}
	svc := newTestExtractionService(inf, images)

	_, err := svc.Extract(context.Background(), 7, "receipt.png")
	if !errors.Is(err, ErrInference) {
		t.Fatalf("expected ErrInference, got %v", err)
	}
}

func TestExtractSingleAttempt(t *testing.T) {
	inf := &fakeInferencer{response: "garbage, not json"}
	images := &fakeImageSource{data: []byte("x"), mimeType: "image/png"}
	svc := newTestExtractionService(inf, images)

	_, err := svc.Extract(context.Background(), 7, "receipt.png")

	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("expected *ExtractionError, got %v", err)
	}
	if extractionErr.Kind != FailureMalformedJSON {
		t.Errorf("kind = %q, want malformed_json", extractionErr.Kind)
	}
	if extractionErr.RawText != "garbage, not json" {
		t.Errorf("raw text = %q, want the model output", extractionErr.RawText)
	}
	if inf.calls != 1 {
		t.Errorf("inference calls = %d, want exactly 1", inf.calls)
	}
}

func TestRefine(t *testing.T) {
	refined := `{
		"category_id": 2,
		"amount": 100,
		"description": "Lunch at cafe",
		"payment_method": "cash",
		"expense_date": "2026-03-14",
		"created_at": "2026-03-14T12:30:00Z",
		"line_items": [
			{"item_name": "Pasta", "amount": 100, "subcategory": "Dining", "created_at": "2026-03-14T12:30:00Z"}
		]
	}`
	inf := &fakeInferencer{response: refined}
	svc := newTestExtractionService(inf, &fakeImageSource{})

	current, err := ValidateExtraction(validResponse, testCategories())
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}

	tx, err := svc.Refine(context.Background(), 7, current, "remove the Cola item")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tx.LineItems) != 1 {
		t.Fatalf("line_items = %d, want 1", len(tx.LineItems))
	}
	if tx.Amount != 100 {
		t.Errorf("amount = %v, want 100", tx.Amount)
	}

	if inf.lastImage != nil {
		t.Error("refinement must not attach an image")
	}
	if !strings.Contains(inf.lastPrompt, "remove the Cola item") {
		t.Error("prompt does not contain the instruction")
	}
	if !strings.Contains(inf.lastPrompt, "Pasta") {
		t.Error("prompt does not contain the current transaction")
	}
}

func TestRefineFailureLeavesCurrentUntouched(t *testing.T) {
	inf := &fakeInferencer{response: `{"category_id": 2, "amount": 100}`}
	svc := newTestExtractionService(inf, &fakeImageSource{})

	current, err := ValidateExtraction(validResponse, testCategories())
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}

	_, err = svc.Refine(context.Background(), 7, current, "double everything")
	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("expected *ExtractionError, got %v", err)
	}

	if current.Amount != 160 || len(current.LineItems) != 2 {
		t.Error("failed refinement modified the caller's transaction")
	}
}
