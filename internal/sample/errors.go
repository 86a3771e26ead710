package sample

import (
	"errors"
	"fmt"
)

// Sentinel errors for expected decode failure modes
var (
	ErrEmptyPayload      = errors.New("empty audio payload")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrCorruptedPayload  = errors.New("audio payload corrupted or unreadable")
)

// DecodeError reports a payload that could not be turned into a playable buffer
type DecodeError struct {
	MIMEType string
	Cause    error
}

func (e *DecodeError) Error() string {
	if e.MIMEType == "" {
		return fmt.Sprintf("decode audio: %v", e.Cause)
	}
	return fmt.Sprintf("decode %s: %v", e.MIMEType, e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}
