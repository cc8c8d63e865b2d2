package cmd

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBuild = BuildInfo{Version: "1.2.3", Commit: "abc123", Date: "2026-01-01"}

// execute runs a fresh command tree and returns what it wrote to stdout.
func execute(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand(testBuild)
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand(testBuild)
	assert.Equal(t, "landing-detect", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, expected := range []string{"detect", "serve", "version"} {
		assert.Contains(t, names, expected, "Expected subcommand '%s' not found", expected)
	}
}

func TestRootCommandHelp(t *testing.T) {
	out, err := execute(t, nil, "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "landing pads")
	assert.Contains(t, out, "Available Commands:")
	assert.Contains(t, out, "--config")
}

func TestRootCommandVersion(t *testing.T) {
	out, err := execute(t, nil, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "1.2.3")
	assert.Contains(t, out, "abc123")
}

func TestVersionCommand(t *testing.T) {
	// version must work even with a broken config path
	out, err := execute(t, nil, "version", "--config", "/nonexistent/landing-detect.yaml")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "landing-detect 1.2.3\n"))
	assert.Contains(t, out, "Git commit: abc123")
	assert.Contains(t, out, "Build time: 2026-01-01")
}

func TestRootCommandInvalidFlag(t *testing.T) {
	_, err := execute(t, nil, "--no-such-flag")
	assert.Error(t, err)
}

func TestRootCommandMissingConfig(t *testing.T) {
	_, err := execute(t, strings.NewReader(""), "serve", "--config", "/nonexistent/landing-detect.yaml")
	assert.Error(t, err)
}

func TestRootCommandInvalidLogLevel(t *testing.T) {
	_, err := execute(t, strings.NewReader(""), "serve", "--log-level", "chatty")
	assert.Error(t, err)
}

func TestBuildInfoString(t *testing.T) {
	assert.Equal(t, "1.2.3 (commit: abc123, built: 2026-01-01)", testBuild.String())
}
