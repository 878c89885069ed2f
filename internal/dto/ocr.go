package dto

import "receiptwise/internal/models"

type UploadResponse struct {
	Filename string `json:"filename"`
}

type ExtractRequest struct {
	ImagePath string `json:"imagePath" validate:"required"`
}

type RefineRequest struct {
	Transaction models.Transaction `json:"transaction" validate:"required"`
	Instruction string             `json:"instruction" validate:"required"`
}

// ExtractionFailure is the body returned when model output could not be
// validated. RawText carries the offending model output so the client can
// show the user what went wrong or offer manual correction.
type ExtractionFailure struct {
	Kind    string `json:"kind"`
	Error   string `json:"error"`
	Value   string `json:"value,omitempty"`
	RawText string `json:"raw_text,omitempty"`
}
