package scraper

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrPageTooLarge is wrapped by a FetchError when a page exceeds the read limit.
// A truncated page is never parsed.
var ErrPageTooLarge = errors.New("fixtures page exceeds size limit")

// FetchError reports a fixtures page that could not be downloaded
type FetchError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not fetch %q: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("could not fetch %q: unexpected status code: %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NotFound reports whether the page does not exist upstream
func (e *FetchError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone
}

// ParseError reports markup that no longer has the expected structure
type ParseError struct {
	Card   int // zero-based card index, -1 for page-level problems
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := e.Reason
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	if e.Card < 0 {
		return "parsing fixtures page: " + msg
	}
	return fmt.Sprintf("parsing match card %d: %s", e.Card, msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
