// Package model provides the shared types of the CwC log pipeline.
package model

import (
	"errors"
	"fmt"
)

// Direction says whether the facilitator sent or received a message.
type Direction string

const (
	// DirectionSent marks an <S ...> block.
	DirectionSent Direction = "S"
	// DirectionReceived marks an <R ...> block.
	DirectionReceived Direction = "R"
)

// Preposition returns "to" for sent records and "from" for received ones.
func (d Direction) Preposition() string {
	if d == DirectionSent {
		return "to"
	}
	return "from"
}

// RawRecord is one segment of a facilitator log.
type RawRecord struct {
	Direction Direction
	Timestamp string // verbatim, e.g. "13:04:05.123"
	Partner   string // counterparty agent
	Text      string // unparsed message body
}

var (
	// ErrNoSectionsFound is returned when a log contains no message segments.
	ErrNoSectionsFound = errors.New("no log sections found")
	// ErrMissingStartTime is returned when a log lacks its <LOG TIME=.. DATE=..> header.
	ErrMissingStartTime = errors.New("log start time not found")
)

// InvalidKindError reports a kind outside the closed set. It signals a bug
// in the calling code rather than bad log data.
type InvalidKindError struct {
	Label string
}

func (e *InvalidKindError) Error() string {
	return fmt.Sprintf("invalid kind: %q", e.Label)
}
