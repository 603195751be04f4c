package rpc

import "errors"

var (
	// ErrUnavailable covers network failures, timeouts, 5xx and unreadable replies.
	ErrUnavailable = errors.New("rpc: node unavailable")

	// ErrNotFound indicates the requested height does not exist on the node.
	ErrNotFound = errors.New("rpc: block not found")
)
