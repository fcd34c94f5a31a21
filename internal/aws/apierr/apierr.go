// Package apierr attaches the failing operation and its target to AWS SDK
// errors so they can be reported for manual follow-up.
package apierr

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

type Error struct {
	Operation string
	Target    string
	// Code is the service error code, empty for transport or client errors.
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Operation, e.Target, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap returns nil for a nil err.
func Wrap(operation, target string, err error) error {
	if err == nil {
		return nil
	}
	e := &Error{Operation: operation, Target: target, Err: err}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		e.Code = apiErr.ErrorCode()
	}
	return e
}

// Code returns the service error code carried anywhere in err's chain.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Code != "" {
		return e.Code
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
