package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

var (
	rulesFixture    = filepath.Join("..", "..", "testdata", "rules", "rules.yaml")
	cueRulesFixture = filepath.Join("..", "..", "testdata", "rules", "rules.cue")
	lunchFixture    = filepath.Join("..", "..", "testdata", "schedules", "lunch.csv")
	boundaryFixture = filepath.Join("..", "..", "testdata", "schedules", "lunch.yaml")
	cleanFixture    = filepath.Join("..", "..", "testdata", "schedules", "clean.yaml")
	harnessFixtures = filepath.Join("..", "harness", "testdata", "scenarios")
)

// execute runs cmd with args and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// writeFile writes content to name inside a fresh temp directory and
// returns its path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
