package core

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// FetchError reports a dataset that could not be retrieved from its source.
type FetchError struct {
	Dataset    string
	URL        string
	StatusCode int  // Non-zero for a non-success HTTP status
	Timeout    bool // The request hit its deadline
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("fetch %q: timeout", e.Dataset)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %q: unexpected status %d", e.Dataset, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("fetch %q: %v", e.Dataset, e.Err)
	default:
		return fmt.Sprintf("fetch %q failed", e.Dataset)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// newFetchError classifies a transport failure.
func newFetchError(dataset, url string, err error) *FetchError {
	fe := &FetchError{Dataset: dataset, URL: url, Err: err}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		fe.Timeout = true
	}
	return fe
}

// ParseError reports delimited text that could not be turned into a table.
type ParseError struct {
	Dataset string
	Line    int // 1-based source line, 0 when unknown
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid csv in %q at line %d: %v", e.Dataset, e.Line, e.Err)
	}
	return fmt.Sprintf("invalid csv in %q: %v", e.Dataset, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MissingColumnError reports a configured column that a table does not have.
// Summary and totals treat a missing column as an empty contribution; this
// error only surfaces through explicit lookups.
type MissingColumnError struct {
	Table  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("column not found: %q in table %q", e.Column, e.Table)
}

// ErrEmptyBody is wrapped by ParseError when a body has no header line.
var ErrEmptyBody = errors.New("empty file")

// ErrTableNotFound is returned when a requested tab does not exist.
var ErrTableNotFound = errors.New("table not found")
