package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rotationScenario = `name: group-rotation
description: Rotating between line buster positions does not reset the group streak.
rules:
  position_rules:
    - position: [Line Buster 1, Line Buster 2]
      max_consecutive_slots_in_group: 2
slots:
  - {position: Line Buster 1, time: "9:00 AM", individual: Sam}
  - {position: Line Buster 2, time: "9:30 AM", individual: Sam}
  - {position: Line Buster 1, time: "10:00 AM", individual: Sam}
assertions:
  - type: violation_count
    count: 1
`

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), t.TempDir())
	require.NoError(t, err)

	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), harnessFixtures)
	require.NoError(t, err)

	for _, name := range []string{"lunch-boundary", "lunch-grid", "group-rotation", "conductor-on-hour", "bad-limit"} {
		assert.Contains(t, out, "✓ "+name+"\n")
	}
	assert.Contains(t, out, "Test Summary: 5 passed, 0 failed, 5 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFilterJSON(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), harnessFixtures, "--filter", "lunch-*")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 2, resp.Data.Passed)
}

func TestTestCommandGoldenLifecycle(t *testing.T) {
	dir := t.TempDir()
	scenarioFile := filepath.Join(dir, "rotation.yaml")
	require.NoError(t, os.WriteFile(scenarioFile, []byte(rotationScenario), 0o644))
	goldenPath := filepath.Join(dir, "golden", "rotation.golden")

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ group-rotation (golden updated)")

	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario_name":"group-rotation"`)
	assert.Contains(t, string(golden), `"at_time":"10:00 AM"`)

	out, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ group-rotation\n")

	require.NoError(t, os.WriteFile(goldenPath, []byte(`{"scenario_name":"stale"}`), 0o644))
	out, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ group-rotation")
	assert.Contains(t, out, "does not match golden file")
}

func TestTestCommandFailures(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(`name: wrong
description: expects a clean schedule that is not clean
rules:
  position_rules:
    - {position: Expo, max_consecutive_slots: 1}
slots:
  - {position: Expo, time: "9:00 AM", individual: Lee}
  - {position: Expo, time: "9:30 AM", individual: Lee}
assertions:
  - type: ok
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: broken\n"), 0o644))

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestReport `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, 2, resp.Data.Failed)

	require.Len(t, resp.Data.Scenarios, 2)
	assert.Equal(t, "broken.yaml", resp.Data.Scenarios[0].Name)
	assert.Contains(t, resp.Data.Scenarios[0].Errors[0], "failed to load scenario")
	assert.Equal(t, "wrong", resp.Data.Scenarios[1].Name)
	assert.Contains(t, resp.Data.Scenarios[1].Errors[0], "expected schedule to pass")
}

func TestTestHelpText(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "conformance")
	assert.Contains(t, out, "--update")
	assert.Contains(t, out, "--filter")
	assert.Contains(t, out, "scenarios-dir")
}

func TestFindScenarioFiles(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "subdir")
	goldenDir := filepath.Join(tmpDir, "golden")
	require.NoError(t, os.MkdirAll(subDir, 0o755))
	require.NoError(t, os.MkdirAll(goldenDir, 0o755))

	for _, f := range []string{"lunch-a.yaml", "lunch-b.yml", "ignore.txt", "subdir/dinner.yaml", "golden/skip.yaml"} {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, f), []byte(""), 0o644))
	}

	files, err := findScenarioFiles(tmpDir, "")
	require.NoError(t, err)
	assert.Len(t, files, 3)

	files, err = findScenarioFiles(tmpDir, "lunch-*")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = findScenarioFiles(tmpDir, "[")
	require.Error(t, err)
}

func TestGoldenFilePath(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"/path/to/scenario.yaml", "/path/to/golden/scenario.golden"},
		{"/path/to/scenario.yml", "/path/to/golden/scenario.golden"},
		{"scenarios/test.yaml", "scenarios/golden/test.golden"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, goldenFilePath(tc.input))
	}
}
