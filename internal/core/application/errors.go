package application

import "errors"

var (
	// ErrNullRepository ...
	ErrNullRepository = errors.New("vault repository must not be null")
	// ErrNullSession ...
	ErrNullSession = errors.New("session must not be null")
	// ErrNullExplorer ...
	ErrNullExplorer = errors.New("explorer service must not be null")
	// ErrChannelNotFound is returned when delivering a message to a page
	// that disconnected in the meantime.
	ErrChannelNotFound = errors.New("channel not found")
)
