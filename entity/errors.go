package entity

import "errors"

var (
	// ErrInvalidInput covers malformed IP literals, empty message bodies
	// and unknown roles. Rejected locally, never retried.
	ErrInvalidInput = errors.New("invalid input")

	ErrDomainNotFound   = errors.New("domain not found")
	ErrRoomNotFound     = errors.New("room not found")
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrProfileRequired signals that the domain wants the widget's
	// profile form filled before a customer record is created.
	ErrProfileRequired = errors.New("profile collection required")

	// ErrAssistant wraps generation failures and timeouts. The room is
	// left awaiting a retry or operator takeover; nothing is persisted.
	ErrAssistant = errors.New("assistant error")
)
