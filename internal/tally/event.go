package tally

import (
	"errors"
	"time"
)

var ErrInvalidEvent = errors.New("invalid event")

type EventType string

const (
	EventView    EventType = "view"
	EventConvert EventType = "convert"
)

type Event struct {
	Variant   int
	EventType EventType
	VisitorID string
	CreatedAt time.Time
}

// VariantStats are distinct-visitor counts for one variant.
type VariantStats struct {
	Variant     int
	Views       int
	Conversions int
}

// Tally is the aggregated view of an event stream.
type Tally struct {
	Variants []VariantStats
	// Duplicates counts repeated (visitor, event type) pairs that were ignored.
	Duplicates int
	// OrphanConversions counts conversions from visitors with no view of that variant.
	OrphanConversions int
}
