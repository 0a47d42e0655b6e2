package probe

import "errors"

// Sentinel errors reported by a probe run.
var (
	ErrInvalidConfig = errors.New("invalid probe config")
	ErrUnhealthy     = errors.New("service not ready")
	ErrStatus        = errors.New("unexpected status")
	ErrDecode        = errors.New("malformed response")
	ErrVerification  = errors.New("verification failed")
)
