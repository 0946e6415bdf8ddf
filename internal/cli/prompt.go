package cli

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/semmy-space/keyring/internal/output"
)

// stdin is read when no value is given on a non-terminal; tests replace it.
var stdin io.Reader = os.Stdin

// readTerminal prompts on stderr and reads a line without echo.
var readTerminal = func(prompt string) ([]byte, error) {
	fmt.Fprint(stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(stderr)
	return b, err
}

// readInput reads a secret value: from a no-echo prompt when stdin is a
// terminal, otherwise all of stdin.
func readInput(g *Globals, prompt string) ([]byte, bool, error) {
	if stdinIsTerminal() {
		if g.NoInput {
			return nil, true, output.NewCLIError(output.ExitUsage, "no value on stdin and prompts are disabled").
				WithHint("Pipe the value on stdin or drop --no-input")
		}
		b, err := readTerminal(prompt)
		if err != nil {
			return nil, true, fmt.Errorf("failed to read from terminal: %w", err)
		}
		return b, true, nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read stdin: %w", err)
	}
	return b, false, nil
}

// readPassword reads a password, dropping one trailing newline from piped input.
func readPassword(g *Globals) (string, error) {
	b, _, err := readInput(g, "Password: ")
	if err != nil {
		return "", err
	}
	b = bytes.TrimSuffix(b, []byte("\n"))
	b = bytes.TrimSuffix(b, []byte("\r"))
	return string(b), nil
}

// readSecret reads a binary secret. Typed input is base64; piped input is raw.
func readSecret(g *Globals) ([]byte, error) {
	b, typed, err := readInput(g, "Secret (base64): ")
	if err != nil {
		return nil, err
	}
	if !typed {
		return b, nil
	}
	return decodeBase64(string(b))
}

func decodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, output.NewCLIError(output.ExitUsage, fmt.Sprintf("invalid base64: %v", err))
	}
	return b, nil
}
