package domain

import "errors"

var (
	ErrInvalidChunk   = errors.New("invalid chunk")
	ErrInvalidSegment = errors.New("invalid segment")
	ErrNotFound       = errors.New("not found")
)
