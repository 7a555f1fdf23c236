package session

import "errors"

var (
	InvalidTokenErr          = errors.New("invalid auth token")
	PersistenceUnverifiedErr = errors.New("auth token persistence unverified")
)
