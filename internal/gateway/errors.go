// Package gateway wraps every outbound call to the generation backend
// behind one failure-normalization contract: transport failures, non-2xx
// statuses, malformed bodies, and application-level `success:false`
// envelopes all surface as a TransferError carrying the operation's code
// and the server message when one was supplied.
package gateway

import (
	"errors"
	"fmt"
)

// Code identifies one member of the transfer error taxonomy.
type Code string

const (
	CodeInputTooShort       Code = "INPUT_TOO_SHORT"
	CodeUnsupportedFileType Code = "UNSUPPORTED_FILE_TYPE"
	CodeUploadRejected      Code = "UPLOAD_REJECTED"
	CodeParseFailed         Code = "PARSE_FAILED"
	CodeAnalyzeFailed       Code = "ANALYZE_FAILED"
	CodeTemplateUnavailable Code = "TEMPLATE_UNAVAILABLE"
	CodeGenerateFailed      Code = "GENERATE_FAILED"
	CodePollTransient       Code = "POLL_TRANSIENT"
	CodeNoActiveJob         Code = "NO_ACTIVE_JOB"
)

// TransferError is the normalized failure type for all gateway operations.
type TransferError struct {
	Code    Code
	Message string
	Err     error
}

func (e *TransferError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// NewError builds a TransferError without an underlying cause.
func NewError(code Code, message string) *TransferError {
	return &TransferError{Code: code, Message: message}
}

// WrapError builds a TransferError around an underlying cause.
func WrapError(code Code, message string, err error) *TransferError {
	return &TransferError{Code: code, Message: message, Err: err}
}

// CodeOf extracts the taxonomy code from err, or "" when err is not a
// TransferError.
func CodeOf(err error) Code {
	var te *TransferError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}
