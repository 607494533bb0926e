package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldokuritsu/powminer/internal/config"
	"github.com/aldokuritsu/powminer/internal/report"
)

func execute(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRunSuccess(t *testing.T) {
	stdout, stderr, err := execute("abc", "0", "2")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Pattern: 0\n")
	assert.Contains(t, stdout, "Difficulty: 2\n")
	assert.Contains(t, stdout, "Hash: 00")
	assert.Empty(t, stderr)
}

func TestRunDefaultDifficulty(t *testing.T) {
	stdout, _, err := execute("--format", "json", "abc", "a")
	require.NoError(t, err)

	var rec report.Record
	require.NoError(t, json.Unmarshal([]byte(stdout), &rec))
	assert.Equal(t, uint64(1), rec.Difficulty)
	assert.True(t, strings.HasPrefix(rec.Hash, "a"), rec.Hash)
	assert.Len(t, rec.Hash, 64)
	assert.Less(t, rec.ElapsedMs, int64(10000))
}

func TestRunDifficultyZero(t *testing.T) {
	stdout, _, err := execute("-f", "json", "abc", "0", "0")
	require.NoError(t, err)

	var rec report.Record
	require.NoError(t, json.Unmarshal([]byte(stdout), &rec))
	assert.Equal(t, uint64(0), rec.Nonce)
	assert.Equal(t, uint64(1), rec.Attempts)
}

func TestRunParallel(t *testing.T) {
	stdout, _, err := execute("--workers", "4", "abc", "0", "2")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Hash: 00")
}

func TestRunArgumentErrors(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		errMsg string
	}{
		{"missing pattern", []string{"abc"}, "accepts between 2 and 3 arg(s)"},
		{"no arguments", []string{}, "accepts between 2 and 3 arg(s)"},
		{"too many arguments", []string{"abc", "0", "1", "x"}, "accepts between 2 and 3 arg(s)"},
		{"negative difficulty", []string{"abc", "0", "-1"}, config.ErrInvalidDifficulty.Error()},
		{"non-numeric difficulty", []string{"abc", "0", "abc"}, config.ErrInvalidDifficulty.Error()},
		{"empty data", []string{"", "0"}, config.ErrMissingData.Error()},
		{"empty pattern", []string{"abc", ""}, config.ErrMissingPattern.Error()},
		{"bad format", []string{"--format", "xml", "abc", "0"}, config.ErrInvalidFormat.Error()},
		{"zero workers", []string{"--workers", "0", "abc", "0"}, config.ErrInvalidWorkers.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, err := execute(tt.args...)
			require.Error(t, err)
			assert.Contains(t, stderr, "Error: "+tt.errMsg)
			assert.NotContains(t, stdout, "Hash:")
		})
	}
}

func TestRunConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "powminer.toml")
	require.NoError(t, os.WriteFile(path, []byte("difficulty = 2\nformat = \"json\"\nworkers = 2\n"), 0o644))

	stdout, _, err := execute("--config", path, "abc", "0")
	require.NoError(t, err)

	var rec report.Record
	require.NoError(t, json.Unmarshal([]byte(stdout), &rec))
	assert.Equal(t, uint64(2), rec.Difficulty)
	assert.True(t, strings.HasPrefix(rec.Hash, "00"), rec.Hash)
}

func TestRunConfigFilePositionalDifficultyWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "powminer.toml")
	require.NoError(t, os.WriteFile(path, []byte("difficulty = 5\nformat = \"json\"\n"), 0o644))

	stdout, _, err := execute("-c", path, "abc", "0", "1")
	require.NoError(t, err)

	var rec report.Record
	require.NoError(t, json.Unmarshal([]byte(stdout), &rec))
	assert.Equal(t, uint64(1), rec.Difficulty)
}

func TestRunMissingConfigFile(t *testing.T) {
	_, stderr, err := execute("-c", filepath.Join(t.TempDir(), "missing.toml"), "abc", "0")
	require.Error(t, err)
	assert.Contains(t, stderr, "Error: reading config file")
}

func TestRunLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "miner.log")

	_, _, err := execute("--log-file", logPath, "--verbose", "abc", "0", "1")
	require.NoError(t, err)

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "INFO")
	assert.Contains(t, string(content), "Found match with nonce")
}

func TestRunNonHexPatternDifficultyZero(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "miner.log")

	// the empty prefix always matches, so no warning is due
	_, _, err := execute("-l", logPath, "abc", "z", "0")
	require.NoError(t, err)

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "can never match")
}

func TestRunUnknownFlag(t *testing.T) {
	_, stderr, err := execute("--bogus", "abc", "0")
	require.Error(t, err)
	assert.Contains(t, stderr, "Error: unknown flag: --bogus")
}
