package taginput

import "github.com/kailas-cloud/taginput/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrMisconfigured     = domain.ErrMisconfigured
	ErrUnknownField      = domain.ErrUnknownField
	ErrUnknownRecordType = domain.ErrUnknownRecordType
	ErrRecordNotFound    = domain.ErrRecordNotFound
	ErrInvalidRecord     = domain.ErrInvalidRecord
)
