package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/rota/internal/ir"
)

func at(h, m int) *ir.ClockTime {
	t := ir.Clock(h, m)
	return &t
}

func TestIsActiveWithoutWindow(t *testing.T) {
	rule := ir.PositionRule{Positions: []string{"Expo"}, MaxConsecutiveSlots: 1}
	for m := ir.ClockTime(0); m < ir.MinutesPerDay; m++ {
		if !IsActive(rule, m) {
			t.Fatalf("window-less rule inactive at %s", m)
		}
	}
}

func TestIsActiveBounds(t *testing.T) {
	tests := []struct {
		name   string
		window ir.Window
		at     ir.ClockTime
		want   bool
	}{
		{"start only, before", ir.Window{Start: at(12, 30)}, ir.Clock(12, 29), false},
		{"start only, at start", ir.Window{Start: at(12, 30)}, ir.Clock(12, 30), true},
		{"start only, late", ir.Window{Start: at(12, 30)}, ir.Clock(23, 59), true},
		{"end only, early", ir.Window{End: at(12, 30)}, ir.Clock(0, 0), true},
		{"end only, before end", ir.Window{End: at(12, 30)}, ir.Clock(12, 29), true},
		{"end only, at end", ir.Window{End: at(12, 30)}, ir.Clock(12, 30), false},
		{"both, at start", ir.Window{Start: at(11, 0), End: at(14, 0)}, ir.Clock(11, 0), true},
		{"both, inside", ir.Window{Start: at(11, 0), End: at(14, 0)}, ir.Clock(13, 59), true},
		{"both, at end", ir.Window{Start: at(11, 0), End: at(14, 0)}, ir.Clock(14, 0), false},
		{"both, before", ir.Window{Start: at(11, 0), End: at(14, 0)}, ir.Clock(10, 59), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := ir.PositionRule{Window: tt.window}
			assert.Equal(t, tt.want, IsActive(rule, tt.at))
		})
	}
}

func TestIsActiveSharedBoundary(t *testing.T) {
	morning := ir.PositionRule{Window: ir.Window{End: at(12, 30)}}
	afternoon := ir.PositionRule{Window: ir.Window{Start: at(12, 30)}}

	assert.False(t, IsActive(morning, ir.Clock(12, 30)))
	assert.True(t, IsActive(afternoon, ir.Clock(12, 30)))

	// exactly one of the two adjacent rules applies at every minute
	for m := ir.ClockTime(0); m < ir.MinutesPerDay; m++ {
		if IsActive(morning, m) == IsActive(afternoon, m) {
			t.Fatalf("at %s: morning=%v afternoon=%v", m, IsActive(morning, m), IsActive(afternoon, m))
		}
	}
}
