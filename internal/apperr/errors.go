package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrMalformed         = errors.New("malformed data")
	ErrUnknownField      = errors.New("unknown field")
	ErrUnknownTable      = errors.New("unknown table")
	ErrUnknownSection    = errors.New("unknown section")
	ErrReadOnlyField     = errors.New("field is not editable")
	ErrInvalidValue      = errors.New("invalid value")
	ErrLastRow           = errors.New("table must keep at least one row")
	ErrStorageFull       = errors.New("storage full")
	ErrResetDeclined     = errors.New("reset not confirmed")
	ErrReportUnavailable = errors.New("report unavailable")
)
