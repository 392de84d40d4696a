package challan

import "errors"

var (
	ErrChallanNotFound      = errors.New("statutory challan not found")
	ErrChallanAlreadyPaid   = errors.New("statutory challan already paid")
	ErrInvalidStatusAdvance = errors.New("statutory challan status can only move forward")
)
