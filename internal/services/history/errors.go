package history

import "errors"

// Service errors
var (
	ErrInvalidUserID = errors.New("missing or invalid user id")
	ErrFetchFailed   = errors.New("failed to fetch history")
)
