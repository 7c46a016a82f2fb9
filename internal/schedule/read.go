package schedule

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rota/internal/ir"
)

// ReadFile reads a schedule from disk. Files ending in .csv are read as a
// solver grid; anything else as a YAML or JSON slot list.
func ReadFile(path string) (*Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schedule: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return ReadCSV(bytes.NewReader(data))
	}
	return ParseYAML(data)
}

// ReadCSV reads the solver's grid export: a header row of
// "Position,<time>,<time>,..." followed by one row per position, where each
// cell holds the individual assigned at that time or is empty.
//
// Rows for people off the floor (Break, ToffTL) are skipped. Every header
// time is on the timeline, including columns with no assignments.
func ReadCSV(r io.Reader) (*Schedule, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &Error{Code: ErrCodeMalformed, Message: "empty schedule grid", Line: 1}
	}
	if err != nil {
		return nil, csvError(err)
	}
	if len(header) == 0 || !strings.EqualFold(strings.TrimSpace(header[0]), "Position") {
		return nil, &Error{
			Code:    ErrCodeMalformed,
			Message: `grid header must start with "Position"`,
			Line:    1,
		}
	}

	times := make([]ir.ClockTime, len(header)-1)
	for i, cell := range header[1:] {
		t, err := ir.ParseClock(cell)
		if err != nil {
			return nil, &Error{
				Code:    ErrCodeInvalidTime,
				Message: fmt.Sprintf("column %d: %v", i+2, err),
				Line:    1,
			}
		}
		times[i] = t
	}

	var slots []ir.Slot
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		line, _ := reader.FieldPos(0)

		position := ir.NormalizeName(record[0])
		if position == "" {
			return nil, &Error{Code: ErrCodeEmptyPosition, Message: "grid row names no position", Line: line}
		}
		if ir.IsNonWorkRow(position) {
			continue
		}
		for i, cell := range record[1:] {
			individual := ir.NormalizeName(cell)
			if individual == "" {
				continue
			}
			slots = append(slots, ir.Slot{Position: position, Time: times[i], Individual: individual})
		}
	}

	return NewWithTimeline(times, slots)
}

func csvError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &Error{Code: ErrCodeMalformed, Message: pe.Err.Error(), Line: pe.Line}
	}
	return fmt.Errorf("reading schedule grid: %w", err)
}

// document is the YAML/JSON slot-list form.
type document struct {
	// Times optionally declares the whole timeline, including times
	// where nobody in a governed position works.
	Times []ir.ClockTime `yaml:"times"`
	Slots []ir.Slot      `yaml:"slots"`
}

// ParseYAML reads a slot list:
//
//	times: ["11:00 AM", "11:30 AM", "12:00 PM"]   # optional
//	slots:
//	  - {position: Expo, time: "11:00 AM", individual: Ana}
//
// JSON with the same shape is accepted.
func ParseYAML(data []byte) (*Schedule, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &Error{Code: ErrCodeMalformed, Message: "empty schedule document"}
		}
		return nil, &Error{Code: ErrCodeMalformed, Message: err.Error()}
	}
	if doc.Times == nil {
		return New(doc.Slots)
	}
	return NewWithTimeline(doc.Times, doc.Slots)
}

// MarshalYAML renders the schedule in the slot-list form ParseYAML reads,
// always declaring the timeline.
func (s *Schedule) MarshalYAML() (interface{}, error) {
	return document{Times: s.Times(), Slots: s.Slots()}, nil
}
