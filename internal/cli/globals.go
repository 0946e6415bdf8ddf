package cli

import (
	"os"

	"golang.org/x/term"
)

// Globals holds global flags available to all commands
type Globals struct {
	Store    string            `help:"Credential store (auto, sample, keyring, mock)" default:"" enum:"auto,sample,keyring,mock," env:"KEYRING_STORE"`
	File     string            `help:"Sample store backing file" type:"path" predictor:"file" env:"KEYRING_FILE"`
	Modifier map[string]string `help:"Store-specific modifier, repeatable" short:"m" placeholder:"KEY=VALUE"`
	Output   string            `help:"Output format" default:"auto" enum:"json,plain,rich,auto" short:"o" env:"KEYRING_OUTPUT"`
	Verbose  bool              `help:"Verbose output (debug logging)" short:"v" env:"KEYRING_VERBOSE"`
	Retries  uint64            `help:"Retry transient store failures this many times" default:"0" env:"KEYRING_RETRIES"`
	NoInput  bool              `help:"Disable interactive prompts (fail instead)" env:"KEYRING_NO_INPUT"`
}

// ResolvedOutput returns the effective output mode
// "auto" detects TTY: if stdout is TTY -> rich, else -> plain
func (g *Globals) ResolvedOutput() string {
	if g.Output != "auto" {
		return g.Output
	}

	// Detect if stdout is a TTY
	if stdoutIsTerminal() {
		return "rich"
	}

	return "plain"
}

// Terminal checks; tests replace them.
var (
	stdinIsTerminal  = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	stdoutIsTerminal = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }
)
