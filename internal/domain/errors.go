package domain

import "errors"

var (
	// ErrMisconfigured signals a field whose name matches neither a relation nor
	// an attribute of its topic record type. It is a setup mistake, not user input.
	ErrMisconfigured = errors.New("field misconfigured")
	// ErrUnknownField signals a request for a field that is not configured.
	ErrUnknownField = errors.New("unknown field")
	// ErrUnknownRecordType signals a record type missing from the schema.
	ErrUnknownRecordType = errors.New("unknown record type")
	// ErrRecordNotFound signals a missing record.
	ErrRecordNotFound = errors.New("record not found")
	// ErrInvalidRecord signals a record that does not fit its type descriptor.
	ErrInvalidRecord = errors.New("invalid record")
)
