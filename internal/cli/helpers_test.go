package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// testEnv is a configuration file pointing at a fake endpoint.
type testEnv struct {
	configPath string
	storePath  string
}

// writeConfig writes a configuration for endpointURL registering exts.
// An empty storeName leaves the execution log out.
func writeConfig(t *testing.T, endpointURL string, exts []string, storeName string) testEnv {
	t.Helper()
	dir := t.TempDir()

	quoted, err := json.Marshal(exts)
	require.NoError(t, err)

	src := fmt.Sprintf("endpoint: url: %q\nextensions: %s\n", endpointURL, quoted)
	env := testEnv{configPath: filepath.Join(dir, "semanteco.cue")}
	if storeName != "" {
		env.storePath = filepath.Join(dir, storeName)
		src += fmt.Sprintf("store: %q\n", env.storePath)
	}
	require.NoError(t, os.WriteFile(env.configPath, []byte(src), 0644))
	return env
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// decodeResponse parses a JSON CLIResponse with a typed payload.
func decodeResponse[T any](t *testing.T, out string) (CLIResponse, T) {
	t.Helper()
	var envelope struct {
		CLIResponse
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &envelope), out)
	return envelope.CLIResponse, envelope.Data
}
