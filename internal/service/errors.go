package service

import "errors"

// ErrInvalidInput marks validation failures so the transport layer can map
// them to a 400 response. Wrap it with context about the failing field.
var ErrInvalidInput = errors.New("invalid input")
