package surgery

import "errors"

var (
	ErrUnknownCategory     = errors.New("unknown doctor type")
	ErrUnsupportedCategory = errors.New("doctor type not supported by room")
	ErrRequestNotFound     = errors.New("operation request not found")
)
