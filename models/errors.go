package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses, CLI output and internal error handling.
const (
	ErrCodeTimeout      = "SCRAPE_TIMEOUT"
	ErrCodeNavigation   = "NAVIGATION_FAILED"
	ErrCodeBrowserCrash = "BROWSER_CRASH"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"

	// Extraction outcomes that end a run without a report.
	ErrCodePositionUnresolved = "POSITION_UNRESOLVED"
	ErrCodeRateUnresolved     = "RATE_UNRESOLVED"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Hints   []string `json:"hints,omitempty"`
}

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message, Hints: Hints(e)}
}

// AsScrapeError returns err as a *ScrapeError, wrapping unknown errors as
// ErrCodeInternal.
func AsScrapeError(err error) *ScrapeError {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se
	}
	return NewScrapeError(ErrCodeInternal, err.Error(), err)
}

// Likely causes shown to users when a run ends without a report.
const (
	HintNotSettled   = "the page loads its figures with JavaScript and had not finished rendering; raise LPCHECK_SETTLE_WAIT"
	HintStructure    = "the page structure changed and the figures are no longer rendered where expected"
	HintConnectivity = "network connectivity problems reaching the page or the quote service"
	HintRange        = "the reference rate is outside the configured plausibility range; adjust -rate-min/-rate-max"
	HintDebugDump    = "inspect the saved debug page for the rendered markup"
)

// Hints returns the likely causes of err, most likely first.
func Hints(err error) []string {
	var se *ScrapeError
	if !errors.As(err, &se) {
		return nil
	}
	switch se.Code {
	case ErrCodePositionUnresolved:
		return []string{HintNotSettled, HintStructure, HintConnectivity, HintDebugDump}
	case ErrCodeRateUnresolved:
		return []string{HintRange, HintNotSettled, HintStructure, HintConnectivity, HintDebugDump}
	case ErrCodeTimeout:
		return []string{HintConnectivity, HintNotSettled}
	case ErrCodeNavigation:
		return []string{HintConnectivity}
	case ErrCodeBrowserCrash:
		return []string{"the browser could not be started; set LPCHECK_BROWSER_BIN or LPCHECK_NO_SANDBOX"}
	}
	return nil
}
