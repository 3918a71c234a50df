package rag

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyQuery       = errors.New("query is required")
	ErrUnsupportedKind  = errors.New("unsupported generation type")
	ErrMissingModel     = errors.New("generative model is required")
	ErrMissingRetriever = errors.New("retriever is required")
)

// Attempt records why one recovery strategy rejected a response.
type Attempt struct {
	Strategy StrategyName
	Err      error
}

// StructuredOutputError is returned when no strategy could recover a valid item
// list. Raw keeps the model response for diagnostics.
type StructuredOutputError struct {
	Kind     Kind
	Raw      string
	Attempts []Attempt
}

func (e *StructuredOutputError) Error() string {
	reasons := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		reasons = append(reasons, fmt.Sprintf("%s: %v", a.Strategy, a.Err))
	}
	return fmt.Sprintf("could not recover %s items from model output (%s)", e.Kind, strings.Join(reasons, "; "))
}
