package service

import (
	"errors"
	"fmt"
)

// ErrInference marks transport-level failures talking to the model
// endpoint. Callers decide whether to re-invoke; nothing retries here.
var ErrInference = errors.New("inference request failed")

type FailureKind string

const (
	// FailureMalformedJSON: model output did not parse as JSON at all.
	FailureMalformedJSON FailureKind = "malformed_json"
	// FailureUnknownSubcategory: a line item named a subcategory absent
	// from the category directory snapshot.
	FailureUnknownSubcategory FailureKind = "unknown_subcategory"
	// FailureSchemaViolation: output parsed but violated the data
	// contract (missing field, wrong type, bad enum value).
	FailureSchemaViolation FailureKind = "schema_violation"
)

// ExtractionError is a validation failure of model output. It always
// carries the raw offending text so the caller can surface it to the
// user instead of guessing at a partial record.
type ExtractionError struct {
	Kind    FailureKind
	Message string
	Value   string
	RawText string
}

func (e *ExtractionError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %s (%q)", e.Kind, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}
