package parser

import "errors"

// Reasons a line is rejected. Only the diagnose command and debug logging
// look at these; reports count every rejection the same way.
var (
	ErrNoTimestamp      = errors.New("no bracketed timestamp")
	ErrBadTimestamp     = errors.New("malformed timestamp")
	ErrUnknownMonth     = errors.New("unknown month abbreviation")
	ErrNoRequest        = errors.New("no quoted request line")
	ErrMalformedRequest = errors.New("request line is not METHOD PATH PROTOCOL")
	ErrBadStatus        = errors.New("missing or non-numeric status code")
	ErrInvalidJSON      = errors.New("line is not a JSON object")
	ErrLineTooLong      = errors.New("line longer than 1 MiB")
)

// Reasons lists every rejection reason in a stable order.
func Reasons() []error {
	return []error{
		ErrNoTimestamp,
		ErrBadTimestamp,
		ErrUnknownMonth,
		ErrNoRequest,
		ErrMalformedRequest,
		ErrBadStatus,
		ErrInvalidJSON,
		ErrLineTooLong,
	}
}
