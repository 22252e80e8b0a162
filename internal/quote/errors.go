// Package quote composes quotations from retrieved catalog items using a
// language model for item selection. Prices always come from the catalog;
// model output only chooses items and quantities.
package quote

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned for empty or whitespace-only inquiries, before
// any embedding or model call is made.
var ErrInvalidInput = errors.New("inquiry must not be empty")

// ParseError reports model output that could not be parsed as a quote
// selection, after the corrective retry.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparseable model output: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
