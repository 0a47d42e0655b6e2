package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrQuery       = errors.New("query failed")
	ErrScan        = errors.New("scan failed")
	ErrUnavailable = errors.New("database unavailable")
	ErrOpen        = errors.New("open database failed")
)
