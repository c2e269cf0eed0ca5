package apis

import (
	"errors"
)

const (
	// HTTP Request Fields
	IfModifiedSince   = "If-Modified-Since"
	IfUnmodifiedSince = "If-Unmodified-Since"
	IfMatch           = "If-Match"
	IfNoneMatch       = "If-None-Match"

	// HTTP Response Fields
	Location = "Location"
	ETag     = "ETag"

	// Self-defined Fields
	Filter   = "filter"
	Interval = "interval"
	Limit    = "limit"
	Latest   = "latest"
)

var (
	ErrMismatch     = errors.New("resource mismatch")
	ErrInternal     = errors.New("internal error")
	ErrInvalidValue = errors.New("invalid value")
	ErrImmutable    = errors.New("immutable")
)
