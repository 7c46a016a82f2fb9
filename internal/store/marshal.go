package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/rota/internal/ir"
)

// timeLayout stores recorded_at as sortable UTC text.
const timeLayout = time.RFC3339Nano

// marshalPositions converts a position list to canonical JSON TEXT.
func marshalPositions(positions []string) (string, error) {
	if positions == nil {
		positions = []string{}
	}
	data, err := ir.MarshalCanonical(positions)
	if err != nil {
		return "", fmt.Errorf("marshal positions: %w", err)
	}
	return string(data), nil
}

// unmarshalPositions parses a stored position list.
func unmarshalPositions(s string) ([]string, error) {
	var positions []string
	if err := json.Unmarshal([]byte(s), &positions); err != nil {
		return nil, fmt.Errorf("unmarshal positions: %w", err)
	}
	if positions == nil {
		positions = []string{}
	}
	return positions, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse recorded_at: %w", err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
