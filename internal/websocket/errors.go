package websocket

import "errors"

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrInvalidJSON      = errors.New("payload is not JSON-encodable")
	ErrWriteTimeout     = errors.New("write timed out")
)
