package core

import "errors"

var (
	// ErrEmptyMessage is returned when an inbound message has no text
	ErrEmptyMessage = errors.New("empty message")
	// ErrEmptyQuery is returned when a forget request has no query
	ErrEmptyQuery = errors.New("empty query")
)
