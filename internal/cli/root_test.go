package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "rota", cmd.Use)
	assert.Contains(t, cmd.Long, "rotation rules")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"rules", "validate", "test", "history"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	journalFlag := cmd.PersistentFlags().Lookup("journal")
	require.NotNil(t, journalFlag)
	assert.Equal(t, "", journalFlag.DefValue)
}

func TestValidateCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	validateCmd, _, err := cmd.Find([]string{"validate"})
	require.NoError(t, err)

	rulesFlag := validateCmd.Flags().Lookup("rules")
	require.NotNil(t, rulesFlag)
	assert.Equal(t, "r", rulesFlag.Shorthand)

	workersFlag := validateCmd.Flags().Lookup("workers")
	require.NotNil(t, workersFlag)
	assert.Equal(t, "0", workersFlag.DefValue)
}

func TestEnvironmentDefaults(t *testing.T) {
	t.Setenv("ROTA_RULES", "floor.yaml")
	t.Setenv("ROTA_FORMAT", "json")
	t.Setenv("ROTA_JOURNAL", "rota.db")
	t.Setenv("ROTA_WORKERS", "3")
	t.Setenv("ROTA_VERBOSE", "true")

	cmd := NewRootCommand()
	assert.Equal(t, "json", cmd.PersistentFlags().Lookup("format").DefValue)
	assert.Equal(t, "rota.db", cmd.PersistentFlags().Lookup("journal").DefValue)
	assert.Equal(t, "true", cmd.PersistentFlags().Lookup("verbose").DefValue)

	validateCmd, _, err := cmd.Find([]string{"validate"})
	require.NoError(t, err)
	assert.Equal(t, "floor.yaml", validateCmd.Flags().Lookup("rules").DefValue)
	assert.Equal(t, "3", validateCmd.Flags().Lookup("workers").DefValue)
}

func TestLoadConfigInvalidEnvironment(t *testing.T) {
	t.Setenv("ROTA_WORKERS", "many")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"rules", rulesFixture})
	err = cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid environment")
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "xml", "rules", rulesFixture})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestVerboseLogsToStderr(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{"--verbose", "validate", "--rules", rulesFixture, cleanFixture})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "✓")
	assert.Contains(t, errOut.String(), `"msg":"schedule validated"`)
	assert.NotContains(t, out.String(), "schedule validated")
}

func TestQuietByDefault(t *testing.T) {
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{"validate", "--rules", rulesFixture, cleanFixture})

	require.NoError(t, cmd.Execute())
	assert.NotContains(t, errOut.String(), "schedule validated")
}
