package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionEnded is returned when a turn arrives after the conversation closed.
var ErrSessionEnded = errors.New("session has ended")

// ErrUnroutable is returned when a session names a stage or handler outside the known set.
var ErrUnroutable = errors.New("unroutable stage or handler")

// ErrUnknownDocument is returned for a document type tag that is not accepted.
var ErrUnknownDocument = errors.New("unknown document type")

// ErrDocumentRejected is returned when an upload fails format or size checks.
var ErrDocumentRejected = errors.New("document rejected")

// ErrCustomerNotFound is returned by customer directory lookups.
var ErrCustomerNotFound = errors.New("customer not found")
