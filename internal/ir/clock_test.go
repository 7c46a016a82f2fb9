package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		input    string
		expected ClockTime
	}{
		{"12:30 PM", Clock(12, 30)},
		{"12:00 AM", Clock(0, 0)},
		{"7:30 AM", Clock(7, 30)},
		{"07:30 AM", Clock(7, 30)},
		{"7:30am", Clock(7, 30)},
		{"10:00 pm", Clock(22, 0)},
		{"  3:15   PM ", Clock(15, 15)},
		{"15:45", Clock(15, 45)},
		{"0:00", Clock(0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseClock(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseClockRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "noon", "25:00", "12:61 PM", "13:00 PM", "N/A"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseClock(input)
			assert.Error(t, err)
		})
	}
}

func TestClockTimeString(t *testing.T) {
	assert.Equal(t, "12:30 PM", Clock(12, 30).String())
	assert.Equal(t, "12:00 AM", Clock(0, 0).String())
	assert.Equal(t, "7:30 AM", Clock(7, 30).String())
	assert.Equal(t, "10:00 PM", Clock(22, 0).String())
}

func TestClockTimeOnHour(t *testing.T) {
	assert.True(t, Clock(9, 0).OnHour())
	assert.False(t, Clock(9, 30).OnHour())
	assert.Equal(t, 9, Clock(9, 30).Hour())
	assert.Equal(t, 30, Clock(9, 30).Minute())
}

func TestClockTimeJSON(t *testing.T) {
	data, err := json.Marshal(Clock(13, 5))
	require.NoError(t, err)
	assert.Equal(t, `"1:05 PM"`, string(data))

	var c ClockTime
	require.NoError(t, json.Unmarshal([]byte(`"1:05 PM"`), &c))
	assert.Equal(t, Clock(13, 5), c)

	assert.Error(t, json.Unmarshal([]byte(`65`), &c))
}

func TestClockTimeYAML(t *testing.T) {
	var doc struct {
		At ClockTime `yaml:"at"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(`at: "12:30 PM"`), &doc))
	assert.Equal(t, Clock(12, 30), doc.At)

	out, err := yaml.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(out), "12:30 PM")

	var back struct {
		At ClockTime `yaml:"at"`
	}
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, doc.At, back.At)

	err = yaml.Unmarshal([]byte("at: [1, 2]"), &doc)
	assert.Error(t, err)
}
