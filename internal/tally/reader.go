package tally

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var csvHeader = []string{"timestamp", "variant", "event_type", "visitor_id"}

// ReadCSV parses the CSV export format:
//
//	timestamp,variant,event_type,visitor_id
//	1700000000,0,view,abc
func ReadCSV(r io.Reader) ([]Event, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i, name := range csvHeader {
		if strings.TrimSpace(header[i]) != name {
			return nil, fmt.Errorf("%w: unexpected header %v", ErrInvalidEvent, header)
		}
	}

	var events []Event
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		ts, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad timestamp %q", ErrInvalidEvent, line, record[0])
		}
		variant, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad variant %q", ErrInvalidEvent, line, record[1])
		}

		e := Event{
			Variant:   variant,
			EventType: EventType(record[2]),
			VisitorID: record[3],
			CreatedAt: time.Unix(ts, 0),
		}
		if err := e.validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, e)
	}

	return events, nil
}

type jsonExport struct {
	Events []jsonEvent `json:"events"`
}

type jsonEvent struct {
	Timestamp int64  `json:"timestamp"`
	Variant   int    `json:"variant"`
	EventType string `json:"event_type"`
	VisitorID string `json:"visitor_id"`
}

// ReadJSON parses the JSON export format ({"events": [...]}).
func ReadJSON(r io.Reader) ([]Event, error) {
	var export jsonExport
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}

	events := make([]Event, 0, len(export.Events))
	for i, je := range export.Events {
		e := Event{
			Variant:   je.Variant,
			EventType: EventType(je.EventType),
			VisitorID: je.VisitorID,
			CreatedAt: time.Unix(je.Timestamp, 0),
		}
		if err := e.validate(); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, e)
	}
	return events, nil
}

// ReadFile picks the format from the file extension; anything other than
// .json is read as CSV.
func ReadFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open events file: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ReadJSON(f)
	}
	return ReadCSV(f)
}
