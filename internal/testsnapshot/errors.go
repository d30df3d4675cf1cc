package testsnapshot

import "errors"

// Sentinel kinds for test run errors.
var (
	ErrInvalidConfig = errors.New("invalid test config")
	ErrUnexpected    = errors.New("unexpected response")
	ErrVerification  = errors.New("verification failed")
)
