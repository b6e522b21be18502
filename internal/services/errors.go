package services

import "errors"

// Dashboard service errors
var (
	// Session errors
	ErrSessionRequired = errors.New("session id is required")

	// Export errors
	ErrUnsupportedFormat = errors.New("unsupported export format")
)
