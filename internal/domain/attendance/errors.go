package attendance

import "errors"

var (
	ErrInvalidRange = errors.New("attendance range end is before start")
)
