package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "tablegraph", cmd.Use)
	assert.Contains(t, cmd.Long, "N-Triples")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, cmdName := range []string{"map", "compile", "validate", "test"} {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
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

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestMapCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	mapCmd, _, err := cmd.Find([]string{"map"})
	require.NoError(t, err)

	for _, name := range []string{"db", "output", "parallelism", "row-workers", "best-effort", "skip-invalid-rows", "max-rows", "stats"} {
		assert.NotNil(t, mapCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "o", mapCmd.Flags().Lookup("output").Shorthand)
	assert.Equal(t, "1", mapCmd.Flags().Lookup("parallelism").DefValue)
}

func TestInvalidFormat(t *testing.T) {
	mappingPath := writeFile(t, t.TempDir(), "person.cue", personDeptMapping)

	_, _, err := execute(NewRootCommand(), "--format", "xml", "validate", mappingPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.False(t, IsReported(err))
}

func TestInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	mappingPath := writeFile(t, dir, "person.cue", personDeptMapping)
	configPath := writeFile(t, dir, "bad.yaml", "databse: x.db\n")

	_, _, err := execute(NewRootCommand(), "--config", configPath, "validate", mappingPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid config")
}

func TestConfigFormat(t *testing.T) {
	dir := t.TempDir()
	mappingPath := writeFile(t, dir, "person.cue", personDeptMapping)
	configPath := writeFile(t, dir, "tablegraph.yaml", "format: json\n")

	stdout, _, err := execute(NewRootCommand(), "--config", configPath, "validate", mappingPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, `"status": "ok"`)
}
