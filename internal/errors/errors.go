// Package errors defines the typed error taxonomy shared by every
// subsystem (ingestion, retrieval, benchmark). Low-layer failures wrap one
// of these types and are recovered locally; mid/high-layer failures
// propagate them to the caller per spec §7.
package errors

import (
	"fmt"
	"time"

	"github.com/standardbeagle/semindex/internal/model"
)

// ErrorType tags which branch of the §7 taxonomy an error belongs to.
type ErrorType string

const (
	ErrorTypeInput           ErrorType = "input"
	ErrorTypeParse           ErrorType = "parse"
	ErrorTypeStorage         ErrorType = "storage"
	ErrorTypeEmbedding       ErrorType = "embedding"
	ErrorTypeLLM             ErrorType = "llm"
	ErrorTypeInvalidResponse ErrorType = "invalid_response"
	ErrorTypeTimeout         ErrorType = "timeout"
	ErrorTypePhase           ErrorType = "phase"
	ErrorTypeAborted         ErrorType = "aborted"
)

// InputError is raised for a malformed query, invalid option, or
// unsupported language. Surfaced to the caller; never retried.
type InputError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

func NewInputError(field, value string, err error) *InputError {
	return &InputError{Field: field, Value: value, Underlying: err, Timestamp: time.Now()}
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input error: field %s (value %q): %v", e.Field, e.Value, e.Underlying)
}
func (e *InputError) Unwrap() error { return e.Underlying }

// ParseError represents a tree-sitter failure for one file. Ingestion
// swallows this and still emits the file unit.
type ParseError struct {
	FilePath   string
	Line       int
	Column     int
	Underlying error
	Timestamp  time.Time
}

func NewParseError(path string, line, column int, err error) *ParseError {
	return &ParseError{FilePath: path, Line: line, Column: column, Underlying: err, Timestamp: time.Now()}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s:%d:%d: %v", e.FilePath, e.Line, e.Column, e.Underlying)
}
func (e *ParseError) Unwrap() error { return e.Underlying }

// StorageError represents an I/O or schema issue on the tracker, document
// index, or relational store. The transaction boundary rolls back partial
// writes; the operation is retried at most once by the caller.
type StorageError struct {
	Operation  string
	Underlying error
	Retryable  bool
	Timestamp  time.Time
}

func NewStorageError(op string, err error, retryable bool) *StorageError {
	return &StorageError{Operation: op, Underlying: err, Retryable: retryable, Timestamp: time.Now()}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Operation, e.Underlying)
}
func (e *StorageError) Unwrap() error { return e.Underlying }

// RemoteErrorKind distinguishes the retry behaviour of an embedding/LLM
// call per spec §7 point 4.
type RemoteErrorKind string

const (
	RemoteRateLimited    RemoteErrorKind = "rate_limited"
	RemoteRecoverable    RemoteErrorKind = "recoverable"
	RemoteNonRecoverable RemoteErrorKind = "non_recoverable"
)

// EmbeddingError wraps an embedding-provider failure.
type EmbeddingError struct {
	Kind         RemoteErrorKind
	Model        string
	RetryAfterMs int
	Underlying   error
	Timestamp    time.Time
}

func NewEmbeddingError(kind RemoteErrorKind, model string, retryAfterMs int, err error) *EmbeddingError {
	return &EmbeddingError{Kind: kind, Model: model, RetryAfterMs: retryAfterMs, Underlying: err, Timestamp: time.Now()}
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding error (%s, model=%s): %v", e.Kind, e.Model, e.Underlying)
}
func (e *EmbeddingError) Unwrap() error { return e.Underlying }

// LLMError wraps an LLM-provider failure (completion or structured call).
type LLMError struct {
	Kind         RemoteErrorKind
	Model        string
	RetryAfterMs int
	Underlying   error
	Timestamp    time.Time
}

func NewLLMError(kind RemoteErrorKind, model string, retryAfterMs int, err error) *LLMError {
	return &LLMError{Kind: kind, Model: model, RetryAfterMs: retryAfterMs, Underlying: err, Timestamp: time.Now()}
}

func (e *LLMError) Error() string {
	return fmt.Sprintf("llm error (%s, model=%s): %v", e.Kind, e.Model, e.Underlying)
}
func (e *LLMError) Unwrap() error { return e.Underlying }

// InvalidResponseError signals that LLM output failed JSON validation or
// was shorter than the 10-character floor. Counted as a non-recoverable
// per-item failure.
type InvalidResponseError struct {
	DocType   model.DocumentType
	Content   string
	Reason    string
	Timestamp time.Time
}

func NewInvalidResponseError(docType model.DocumentType, content, reason string) *InvalidResponseError {
	return &InvalidResponseError{DocType: docType, Content: content, Reason: reason, Timestamp: time.Now()}
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("invalid response for %s: %s", e.DocType, e.Reason)
}

// TimeoutError marks a batch or phase that exceeded its budget. The
// affected item/batch is failed; the phase continues.
type TimeoutError struct {
	Scope     string // "batch" | "phase"
	Budget    time.Duration
	Timestamp time.Time
}

func NewTimeoutError(scope string, budget time.Duration) *TimeoutError {
	return &TimeoutError{Scope: scope, Budget: budget, Timestamp: time.Now()}
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Scope, e.Budget)
}

// PhaseError wraps an uncaught exception from a benchmark phase executor.
// The state machine marks the run failed and blocks downstream phases.
type PhaseError struct {
	Phase      string
	Underlying error
	Timestamp  time.Time
}

func NewPhaseError(phase string, err error) *PhaseError {
	return &PhaseError{Phase: phase, Underlying: err, Timestamp: time.Now()}
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("phase %s failed: %v", e.Phase, e.Underlying)
}
func (e *PhaseError) Unwrap() error { return e.Underlying }

// AbortedError signals a clean user cancellation; state is persisted
// before returning.
type AbortedError struct {
	Scope     string
	Timestamp time.Time
}

func NewAbortedError(scope string) *AbortedError {
	return &AbortedError{Scope: scope, Timestamp: time.Now()}
}

func (e *AbortedError) Error() string { return fmt.Sprintf("%s aborted by caller", e.Scope) }

// MultiError aggregates independent failures, e.g. per-file ingestion
// errors collected across a batch.
type MultiError struct {
	Errors []error
}

func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

func (e *MultiError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
	}
}

func (e *MultiError) Unwrap() []error { return e.Errors }

// HasErrors reports whether the aggregate is non-empty.
func (e *MultiError) HasErrors() bool { return len(e.Errors) > 0 }
