package triage

import "errors"

// ErrTicketNotFound is returned when an operation names an unknown ticket.
var ErrTicketNotFound = errors.New("triage: ticket not found")

// ErrInvalidCorrection is returned when a category correction is empty.
var ErrInvalidCorrection = errors.New("triage: correction requires a ticket id and a category")

// ErrEmptyBatch is returned when an ingestion request carries no records.
var ErrEmptyBatch = errors.New("triage: empty ingestion batch")
