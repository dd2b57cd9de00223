package domain

import (
	"errors"
	"fmt"
)

// Configuration errors reported by ScraperConfig.Validate.
var (
	ErrMissingCouncil      = errors.New("council is required")
	ErrMissingResultModel  = errors.New("result model is required")
	ErrUnknownResultModel  = errors.New("result model is not allowed")
	ErrUnknownRelatedModel = errors.New("related model is not allowed")
	ErrMissingURL          = errors.New("url is required")
	ErrUnknownScraperKind  = errors.New("unknown scraper kind")
)

// ScraperError is the base failure kind raised while scraping a single target.
type ScraperError struct {
	Message string
	Err     error
}

// NewScraperError builds a base scraper failure.
func NewScraperError(msg string, err error) *ScraperError {
	return &ScraperError{Message: msg, Err: err}
}

func (e *ScraperError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *ScraperError) Unwrap() error { return e.Err }

func (e *ScraperError) scraperError() {}

// RequestError is raised when the target content could not be obtained.
type RequestError struct {
	ScraperError
	URL        string
	StatusCode int
}

// NewRequestError wraps a transport failure for url. A zero status means no response was received.
func NewRequestError(url string, status int, err error) *RequestError {
	msg := fmt.Sprintf("problem getting data from %s", url)
	if status != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, status)
	}
	return &RequestError{
		ScraperError: ScraperError{Message: msg, Err: err},
		URL:          url,
		StatusCode:   status,
	}
}

// ParsingError is raised when content cannot be turned into records.
type ParsingError struct {
	ScraperError
}

// NewParsingError wraps a parse failure.
func NewParsingError(msg string, err error) *ParsingError {
	return &ParsingError{ScraperError: ScraperError{Message: msg, Err: err}}
}

type scraperFailure interface {
	error
	scraperError()
}

// IsScraperError reports whether err, or anything it wraps, belongs to the scraper error lineage.
func IsScraperError(err error) bool {
	var target scraperFailure
	return errors.As(err, &target)
}
