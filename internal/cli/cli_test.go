package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semmy-space/keyring/internal/output"
	"github.com/semmy-space/keyring/pkg/keyring"
)

type result struct {
	stdout string
	stderr string
	err    error
}

// isolate points XDG dirs and process streams at test-owned values.
func isolate(t *testing.T) {
	t.Helper()
	oldConfig, oldData := xdg.ConfigHome, xdg.DataHome
	oldOut, oldErr, oldIn := stdout, stderr, stdin
	oldInTerm, oldOutTerm := stdinIsTerminal, stdoutIsTerminal
	xdg.ConfigHome = t.TempDir()
	xdg.DataHome = t.TempDir()
	stdinIsTerminal = func() bool { return false }
	stdoutIsTerminal = func() bool { return false }
	t.Setenv("KEYRING_QUIET", "1")
	t.Cleanup(func() {
		xdg.ConfigHome, xdg.DataHome = oldConfig, oldData
		stdout, stderr, stdin = oldOut, oldErr, oldIn
		stdinIsTerminal, stdoutIsTerminal = oldInTerm, oldOutTerm
		keyring.UnsetDefaultStore()
		keyring.SetLogger(nil)
	})
}

// run parses and executes one command line with input on stdin.
func run(t *testing.T, input string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	stdout, stderr, stdin = &out, &errOut, strings.NewReader(input)

	parser, err := kong.New(&CLI{}, kong.Name("keyring"), kong.Vars{"version": "test"})
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	if err == nil {
		err = ctx.Run()
	}
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

// sampleArgs selects a sample store in a temp file.
func sampleArgs(t *testing.T) []string {
	t.Helper()
	return []string{"--store", "sample", "--file", filepath.Join(t.TempDir(), "credentials.yaml")}
}

func exitCode(err error) int {
	return output.FromKeyringError(err).ExitCode
}

func TestPasswordCommands(t *testing.T) {
	isolate(t)
	store := sampleArgs(t)

	r := run(t, "", append([]string{"password", "get", "svc", "alice"}, store...)...)
	require.Error(t, r.err)
	assert.Equal(t, output.ExitNotFound, exitCode(r.err))

	r = run(t, "s3cret\n", append([]string{"password", "set", "svc", "alice"}, store...)...)
	require.NoError(t, r.err)
	assert.Contains(t, r.stderr, "Stored password for svc/alice")

	r = run(t, "", append([]string{"password", "get", "svc", "alice"}, store...)...)
	require.NoError(t, r.err)
	assert.Equal(t, "s3cret\n", r.stdout)

	r = run(t, "", append([]string{"password", "get", "svc", "alice", "-o", "json"}, store...)...)
	require.NoError(t, r.err)
	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &got))
	assert.Equal(t, "s3cret", got["password"])

	r = run(t, "", append([]string{"password", "delete", "svc", "alice"}, store...)...)
	require.NoError(t, r.err)
	r = run(t, "", append([]string{"password", "delete", "svc", "alice"}, store...)...)
	assert.Equal(t, output.ExitNotFound, exitCode(r.err))
}

func TestAmbiguousExitCode(t *testing.T) {
	isolate(t)
	store := sampleArgs(t)

	for _, comment := range []string{"laptop", "desktop"} {
		r := run(t, "pw-"+comment, append([]string{"password", "set", "svc", "bob", "-m", "force-create=" + comment}, store...)...)
		require.NoError(t, r.err)
	}

	r := run(t, "", append([]string{"password", "get", "svc", "bob"}, store...)...)
	require.Error(t, r.err)
	cliErr := output.FromKeyringError(r.err)
	assert.Equal(t, output.ExitConflict, cliErr.ExitCode)
	assert.Contains(t, cliErr.Hint, "uuid")

	r = run(t, "", append([]string{"search", "user=bob", "-o", "json"}, store...)...)
	require.NoError(t, r.err)
	var envelope struct {
		Data  []searchRow `json:"data"`
		Count int         `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &envelope))
	require.Equal(t, 2, envelope.Count)
	assert.Equal(t, "laptop", envelope.Data[0].Comment)
	assert.Equal(t, "desktop", envelope.Data[1].Comment)

	desktop := envelope.Data[1].UUID
	r = run(t, "", append([]string{"password", "get", "svc", "bob", "--uuid", desktop}, store...)...)
	require.NoError(t, r.err)
	assert.Equal(t, "pw-desktop\n", r.stdout)

	r = run(t, "", append([]string{"password", "delete", "svc", "bob", "--uuid", desktop}, store...)...)
	require.NoError(t, r.err)
	r = run(t, "", append([]string{"password", "get", "svc", "bob"}, store...)...)
	require.NoError(t, r.err)
	assert.Equal(t, "pw-laptop\n", r.stdout)

	r = run(t, "", append([]string{"password", "get", "svc", "bob", "--uuid", desktop}, store...)...)
	assert.Equal(t, output.ExitNotFound, exitCode(r.err))
}

func TestSecretCommands(t *testing.T) {
	isolate(t)
	store := sampleArgs(t)

	r := run(t, "", append([]string{"secret", "set", "svc", "key", "--base64", "AP8="}, store...)...)
	require.NoError(t, r.err)
	assert.Contains(t, r.stderr, "2-byte secret")

	r = run(t, "", append([]string{"secret", "get", "svc", "key"}, store...)...)
	require.NoError(t, r.err)
	assert.Equal(t, "\x00\xff", r.stdout)

	r = run(t, "", append([]string{"secret", "get", "svc", "key", "--base64"}, store...)...)
	require.NoError(t, r.err)
	assert.Equal(t, "AP8=\n", r.stdout)

	r = run(t, "", append([]string{"password", "get", "svc", "key"}, store...)...)
	assert.Equal(t, output.ExitUsage, exitCode(r.err))

	r = run(t, "\x01\x02\x03", append([]string{"secret", "set", "svc", "piped"}, store...)...)
	require.NoError(t, r.err)
	r = run(t, "", append([]string{"secret", "get", "svc", "piped"}, store...)...)
	require.NoError(t, r.err)
	assert.Equal(t, "\x01\x02\x03", r.stdout)

	r = run(t, "", append([]string{"secret", "set", "svc", "key", "--base64", "!!"}, store...)...)
	assert.Equal(t, output.ExitUsage, exitCode(r.err))
}

func TestAttrsCommands(t *testing.T) {
	isolate(t)
	store := sampleArgs(t)

	r := run(t, "pw", append([]string{"password", "set", "svc", "carol"}, store...)...)
	require.NoError(t, r.err)

	r = run(t, "", append([]string{"attrs", "set", "svc", "carol", "comment=main"}, store...)...)
	require.NoError(t, r.err)

	r = run(t, "", append([]string{"attrs", "get", "svc", "carol", "-o", "json"}, store...)...)
	require.NoError(t, r.err)
	var attrs map[string]string
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &attrs))
	assert.Equal(t, "main", attrs["comment"])
	assert.NotEmpty(t, attrs["uuid"])

	r = run(t, "", append([]string{"attrs", "set", "svc", "carol", "uuid=x"}, store...)...)
	assert.Equal(t, output.ExitUsage, exitCode(r.err))

	r = run(t, "", append([]string{"attrs", "set", "svc", "carol", "novalue"}, store...)...)
	assert.Equal(t, output.ExitUsage, exitCode(r.err))
}

func TestInfoCommand(t *testing.T) {
	isolate(t)
	store := sampleArgs(t)

	r := run(t, "", append([]string{"info"}, store...)...)
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "Vendor\tkeyring-sample")
	assert.Contains(t, r.stdout, "Persistence\tuntil-delete")

	r = run(t, "", "info", "--store", "mock")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "Vendor\tmock")
}

func TestStoreFromConfig(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "creds.yaml")

	r := run(t, "", "config", "set", "store", "sample")
	require.NoError(t, r.err)
	r = run(t, "", "config", "set", "sample_file", path)
	require.NoError(t, r.err)

	r = run(t, "", "config", "get", "store")
	require.NoError(t, r.err)
	assert.Equal(t, "sample\n", r.stdout)

	r = run(t, "", "info")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, path)

	r = run(t, "", "config", "set", "store", "vault")
	assert.Equal(t, output.ExitUsage, exitCode(r.err))
	r = run(t, "", "config", "get", "region")
	assert.Equal(t, output.ExitNotFound, exitCode(r.err))
}

func TestNoInputWithTerminal(t *testing.T) {
	isolate(t)
	stdinIsTerminal = func() bool { return true }

	r := run(t, "", append([]string{"password", "set", "svc", "dave", "--no-input"}, sampleArgs(t)...)...)
	assert.Equal(t, output.ExitUsage, exitCode(r.err))
}

func TestPromptedPassword(t *testing.T) {
	isolate(t)
	stdinIsTerminal = func() bool { return true }
	oldRead := readTerminal
	readTerminal = func(string) ([]byte, error) { return []byte("typed"), nil }
	t.Cleanup(func() { readTerminal = oldRead })
	store := sampleArgs(t)

	r := run(t, "", append([]string{"password", "set", "svc", "erin"}, store...)...)
	require.NoError(t, r.err)
	r = run(t, "", append([]string{"password", "get", "svc", "erin"}, store...)...)
	require.NoError(t, r.err)
	assert.Equal(t, "typed\n", r.stdout)
}

func TestVersion(t *testing.T) {
	isolate(t)
	r := run(t, "", "version")
	require.NoError(t, r.err)
	assert.Equal(t, "keyring version test\n", r.stdout)
}

func TestVerboseLogging(t *testing.T) {
	isolate(t)
	r := run(t, "", append([]string{"info", "-v"}, sampleArgs(t)...)...)
	require.NoError(t, r.err)
	assert.Contains(t, r.stderr, "setting default credential store")
}
