package services

import "fmt"

type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Validation error"
}

// ConfigError means the server is missing something it needs, such as the Gemini credential.
type ConfigError struct{ Message string }

func (e *ConfigError) Error() string { return e.Message }

// BackendError wraps a failed call to the generative-AI backend. The cause is for logs only.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string { return fmt.Sprintf("gemini %s: %v", e.Op, e.Err) }

func (e *BackendError) Unwrap() error { return e.Err }

// ParseError carries model output that could not be turned into a NutritionRecord.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparseable nutrition output: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type ForbiddenError struct{ Message string }

func (e *ForbiddenError) Error() string { return e.Message }

// QuotaError means the caller spent a daily allowance of their plan.
type QuotaError struct {
	Message string
	Limit   Limit
}

func (e *QuotaError) Error() string { return e.Message }

var ErrMissingCredential = &ConfigError{Message: "Missing GEMINI_API_KEY"}
