package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/roach88/rota/internal/ir"
	"github.com/roach88/rota/internal/schedule"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestValidateLunchGridText(t *testing.T) {
	rootOpts := &RootOptions{Format: "text", Logger: zaptest.NewLogger(t)}
	out, err := execute(t, NewValidateCommand(rootOpts), "--rules", rulesFixture, lunchFixture)

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "7 violation(s)", err.Error())

	newGoldie(t).Assert(t, "validate-lunch", []byte(out))
}

func TestValidateLunchGridJSON(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}),
		"--rules", rulesFixture, "--workers", "2", lunchFixture)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string         `json:"status"`
		Data   ValidateReport `json:"data"`
		Error  *CLIError      `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_VIOLATIONS", resp.Error.Code)

	report := resp.Data
	assert.False(t, report.OK)
	assert.Equal(t, rulesFixture, report.Rules)
	assert.Equal(t, lunchFixture, report.Schedule)
	assert.Equal(t, 5, report.RuleCount)
	assert.Equal(t, 42, report.SlotCount)
	require.Len(t, report.Violations, 7)
	assert.Equal(t, "Lee W.", report.Violations[0].Individual)
	assert.Equal(t, ir.Clock(13, 0), report.Violations[0].AtTime)
	assert.Empty(t, report.RunID)
}

func TestValidatePassingSchedules(t *testing.T) {
	for _, path := range []string{cleanFixture, boundaryFixture} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "--rules", rulesFixture, path)
			require.NoError(t, err)
			assert.Contains(t, out, "✓ "+path+" satisfies 5 rule(s)")
			assert.Contains(t, out, "Consistency:")
		})
	}
}

func TestValidatePassingJSON(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), "--rules", rulesFixture, cleanFixture)
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   ValidateReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.OK)
	assert.NotNil(t, resp.Data.Violations)
	assert.Empty(t, resp.Data.Violations)
}

func TestValidateRulesFromEnvironment(t *testing.T) {
	t.Setenv("ROTA_RULES", rulesFixture)

	cmd := NewRootCommand()
	out, err := execute(t, cmd, "validate", cleanFixture)
	require.NoError(t, err)
	assert.Contains(t, out, "satisfies 5 rule(s)")
}

func TestValidateCommandErrors(t *testing.T) {
	badRules := writeFile(t, "bad.yaml", "position_rules:\n  - position: Expo\n")
	doubleBooked := writeFile(t, "double.yaml", `slots:
  - {position: Expo, time: "9:00 AM", individual: Lee}
  - {position: Conductor, time: "9:00 AM", individual: Lee}
`)

	tests := []struct {
		name     string
		args     []string
		wantCode string
		wantOut  string
	}{
		{"missing rules flag", []string{cleanFixture}, ErrCodeMissingArg, "rules file is required"},
		{"rules not found", []string{"--rules", "/nonexistent/rules.yaml", cleanFixture}, ErrCodeNotFound, "rules file not found"},
		{"schedule not found", []string{"--rules", rulesFixture, "/nonexistent/lunch.csv"}, ErrCodeNotFound, "schedule file not found"},
		{"invalid rules", []string{"--rules", badRules, cleanFixture}, "config error", "E108"},
		{"malformed schedule", []string{"--rules", rulesFixture, doubleBooked}, "malformed schedule", "DOUBLE_BOOKED"},
		{"negative workers", []string{"--rules", rulesFixture, "--workers", "-1", cleanFixture}, ErrCodeMissingArg, "workers must be non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantCode)
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestValidateMalformedScheduleJSON(t *testing.T) {
	doubleBooked := writeFile(t, "double.yaml", `slots:
  - {position: Expo, time: "9:00 AM", individual: Lee}
  - {position: Conductor, time: "9:00 AM", individual: Lee}
`)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), "--rules", rulesFixture, doubleBooked)
	require.Error(t, err)
	assert.True(t, schedule.HasCode(err, schedule.ErrCodeDoubleBooked))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "DOUBLE_BOOKED", resp.Error.Code)
}

func TestValidateRecordsRun(t *testing.T) {
	journal := filepath.Join(t.TempDir(), "rota.db")
	rootOpts := &RootOptions{Format: "text", Journal: journal}

	out, err := execute(t, NewValidateCommand(rootOpts), "--rules", rulesFixture, lunchFixture)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Recorded run ")

	out, err = execute(t, NewHistoryCommand(&RootOptions{Format: "json", Journal: journal}))
	require.NoError(t, err)

	var resp struct {
		Data HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Runs, 1)
	run := resp.Data.Runs[0]
	assert.False(t, run.OK)
	assert.Equal(t, 7, run.ViolationCount)
	assert.Equal(t, rulesFixture, run.RulesSource)
	assert.Equal(t, lunchFixture, run.ScheduleSource)
	assert.Contains(t, out, run.ID)
}

func TestDescribeViolation(t *testing.T) {
	onHour := ir.Violation{
		Kind: ir.ViolationStartOnHour, RuleIndex: 0, Positions: []string{"Conductor"},
		Individual: "Ana G.", StartTime: ir.Clock(11, 30), AtTime: ir.Clock(11, 30), Length: 2,
	}
	assert.Equal(t, "Ana G. started Conductor at 11:30 AM, not on the hour [rule 0]", describeViolation(onHour))

	streak := ir.Violation{
		Kind: ir.ViolationMaxConsecutive, RuleIndex: 3, Positions: []string{"Line Buster 1", "Line Buster 2"},
		Individual: "Sam P.", StartTime: ir.Clock(9, 0), AtTime: ir.Clock(10, 0), Length: 3, Limit: 2,
	}
	assert.Equal(t,
		"Sam P. held Line Buster 1 + Line Buster 2 for 3 consecutive slot(s) from 9:00 AM (limit 2) [rule 3]",
		describeViolation(streak))
}
