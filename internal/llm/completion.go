package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned when the model service answered 2xx with a
// body that could not be decoded
var ErrMalformedResponse = errors.New("model service returned a malformed response")

// Completer sends a single prompt to a language model and returns the raw
// completion. Implementations never retry.
type Completer interface {
	Complete(ctx context.Context, prompt string, cfg GenerationConfig) (*Completion, error)
}

// FinishReason is the provider-independent reason a completion stopped
type FinishReason int

const (
	// FinishNone means the provider returned no candidate at all
	FinishNone FinishReason = iota
	FinishCompleted
	FinishSafetyBlocked
	FinishLengthTruncated
	FinishOther
)

func (r FinishReason) String() string {
	switch r {
	case FinishNone:
		return "none"
	case FinishCompleted:
		return "completed"
	case FinishSafetyBlocked:
		return "safety_blocked"
	case FinishLengthTruncated:
		return "length_truncated"
	default:
		return "other"
	}
}

// Usage reports token accounting when the provider supplies it
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// Completion is the raw model answer, built right after the network call.
// Text is only meaningful when HasText is true.
type Completion struct {
	FinishReason FinishReason
	// RawFinishReason is the provider's own finish reason string
	RawFinishReason string
	// BlockReason is set when the provider refused the prompt itself
	BlockReason string
	Text        string
	HasText     bool
	Model       string
	Usage       Usage
}

// NewTextCompletion builds a completed completion carrying text
func NewTextCompletion(text string) *Completion {
	return &Completion{
		FinishReason: FinishCompleted,
		Text:         text,
		HasText:      text != "",
	}
}

// ModelServiceError is returned when the model endpoint could not be reached
// or answered with a non-2xx status. StatusCode is 0 for transport failures.
type ModelServiceError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ModelServiceError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("model service request failed: %v", e.Err)
	}
	return fmt.Sprintf("model service returned status %d", e.StatusCode)
}

func (e *ModelServiceError) Unwrap() error { return e.Err }

// HTTPStatusCode returns the upstream status, 0 when no response was received
func (e *ModelServiceError) HTTPStatusCode() int { return e.StatusCode }
