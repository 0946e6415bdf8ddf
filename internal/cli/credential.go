package cli

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/semmy-space/keyring/internal/output"
	"github.com/semmy-space/keyring/pkg/keyring"
)

// CredentialArgs names the credential a command works on
type CredentialArgs struct {
	Service string `arg:"" help:"Service name"`
	User    string `arg:"" help:"User name"`
	UUID    string `name:"uuid" help:"Pick one of several matching credentials by the uuid its store reports"`
}

// entry builds the credential once, so retries and store-side creation
// (sample force-create) apply to a single record.
func (a *CredentialArgs) entry(sp *StoreProvider, g *Globals) (*keyring.Entry, error) {
	store, err := sp.Store()
	if err != nil {
		return nil, err
	}
	if a.UUID != "" {
		return a.byUUID(store)
	}
	return keyring.NewEntryWithCredential(store, a.Service, a.User, g.Modifier)
}

// byUUID resolves the credential through search, since Build matches on
// modifiers only.
func (a *CredentialArgs) byUUID(store keyring.Store) (*keyring.Entry, error) {
	entries, err := keyring.Search(store, map[string]string{"service": a.Service, "user": a.User, "uuid": a.UUID})
	if err != nil {
		return nil, err
	}
	var found []*keyring.Entry
	for _, e := range entries {
		key := e.Key()
		if key.Service != a.Service || key.User != a.User {
			continue
		}
		if attrs, err := e.GetAttributes(); err == nil && attrs["uuid"] == a.UUID {
			found = append(found, e)
		}
	}
	switch len(found) {
	case 0:
		return nil, keyring.NoEntry()
	case 1:
		return found[0], nil
	default:
		return nil, keyring.Ambiguous(found)
	}
}

// PasswordCmd holds password subcommands
type PasswordCmd struct {
	Get    PasswordGetCmd    `cmd:"" help:"Print a password"`
	Set    PasswordSetCmd    `cmd:"" help:"Store a password (prompted, or read from stdin)"`
	Delete PasswordDeleteCmd `cmd:"" help:"Delete a credential"`
}

// PasswordGetCmd implements password get
type PasswordGetCmd struct {
	CredentialArgs
}

func (cmd *PasswordGetCmd) Run(sp *StoreProvider, g *Globals, fp *FormatterProvider) error {
	entry, err := cmd.entry(sp, g)
	if err != nil {
		return err
	}
	var pw string
	err = withRetry(g.Retries, func() error {
		var err error
		pw, err = entry.GetPassword()
		return err
	})
	if err != nil {
		return err
	}

	if fp.Mode == "json" {
		return fp.Formatter.Print(map[string]string{"service": cmd.Service, "user": cmd.User, "password": pw})
	}
	fmt.Fprintln(stdout, pw)
	return nil
}

// PasswordSetCmd implements password set
type PasswordSetCmd struct {
	CredentialArgs
}

func (cmd *PasswordSetCmd) Run(sp *StoreProvider, g *Globals) error {
	pw, err := readPassword(g)
	if err != nil {
		return err
	}
	entry, err := cmd.entry(sp, g)
	if err != nil {
		return err
	}
	if err := withRetry(g.Retries, func() error { return entry.SetPassword(pw) }); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "Stored password for %s\n", entry.Key())
	return nil
}

// PasswordDeleteCmd implements password delete
type PasswordDeleteCmd struct {
	CredentialArgs
}

func (cmd *PasswordDeleteCmd) Run(sp *StoreProvider, g *Globals) error {
	return deleteCredential(&cmd.CredentialArgs, sp, g)
}

func deleteCredential(a *CredentialArgs, sp *StoreProvider, g *Globals) error {
	entry, err := a.entry(sp, g)
	if err != nil {
		return err
	}
	if err := withRetry(g.Retries, entry.DeleteCredential); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "Deleted %s\n", entry.Key())
	return nil
}

// SecretCmd holds binary secret subcommands
type SecretCmd struct {
	Get    SecretGetCmd    `cmd:"" help:"Print a secret (base64 on a terminal, raw bytes otherwise)"`
	Set    SecretSetCmd    `cmd:"" help:"Store a secret (base64 prompt, or raw bytes from stdin)"`
	Delete SecretDeleteCmd `cmd:"" help:"Delete a credential"`
}

// SecretGetCmd implements secret get
type SecretGetCmd struct {
	CredentialArgs

	Base64 bool `help:"Always print base64, even when piped"`
}

func (cmd *SecretGetCmd) Run(sp *StoreProvider, g *Globals, fp *FormatterProvider) error {
	entry, err := cmd.entry(sp, g)
	if err != nil {
		return err
	}
	var secret []byte
	err = withRetry(g.Retries, func() error {
		var err error
		secret, err = entry.GetSecret()
		return err
	})
	if err != nil {
		return err
	}

	encoded := base64.StdEncoding.EncodeToString(secret)
	switch {
	case fp.Mode == "json":
		return fp.Formatter.Print(map[string]string{"service": cmd.Service, "user": cmd.User, "secret": encoded})
	case cmd.Base64 || stdoutIsTerminal():
		fmt.Fprintln(stdout, encoded)
	default:
		_, err = stdout.Write(secret)
	}
	return err
}

// SecretSetCmd implements secret set
type SecretSetCmd struct {
	CredentialArgs

	Base64 string `help:"Secret as base64 instead of reading it"`
}

func (cmd *SecretSetCmd) Run(sp *StoreProvider, g *Globals) error {
	var secret []byte
	var err error
	if cmd.Base64 != "" {
		secret, err = decodeBase64(cmd.Base64)
	} else {
		secret, err = readSecret(g)
	}
	if err != nil {
		return err
	}

	entry, err := cmd.entry(sp, g)
	if err != nil {
		return err
	}
	if err := withRetry(g.Retries, func() error { return entry.SetSecret(secret) }); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "Stored %d-byte secret for %s\n", len(secret), entry.Key())
	return nil
}

// SecretDeleteCmd implements secret delete
type SecretDeleteCmd struct {
	CredentialArgs
}

func (cmd *SecretDeleteCmd) Run(sp *StoreProvider, g *Globals) error {
	return deleteCredential(&cmd.CredentialArgs, sp, g)
}

// AttrsCmd holds attribute subcommands
type AttrsCmd struct {
	Get AttrsGetCmd `cmd:"" help:"Print a credential's attributes"`
	Set AttrsSetCmd `cmd:"" help:"Update a credential's attributes"`
}

// AttrsGetCmd implements attrs get
type AttrsGetCmd struct {
	CredentialArgs
}

func (cmd *AttrsGetCmd) Run(sp *StoreProvider, g *Globals, fp *FormatterProvider) error {
	entry, err := cmd.entry(sp, g)
	if err != nil {
		return err
	}
	var attrs map[string]string
	err = withRetry(g.Retries, func() error {
		var err error
		attrs, err = entry.GetAttributes()
		return err
	})
	if err != nil {
		return err
	}
	return fp.Formatter.Print(attrs)
}

// AttrsSetCmd implements attrs set
type AttrsSetCmd struct {
	CredentialArgs

	Pairs []string `arg:"" help:"Attributes to set" placeholder:"KEY=VALUE"`
}

func (cmd *AttrsSetCmd) Run(sp *StoreProvider, g *Globals) error {
	attrs, err := parsePairs(cmd.Pairs)
	if err != nil {
		return err
	}
	entry, err := cmd.entry(sp, g)
	if err != nil {
		return err
	}
	if err := withRetry(g.Retries, func() error { return entry.UpdateAttributes(attrs) }); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "Updated %s\n", entry.Key())
	return nil
}

// parsePairs turns key=value arguments into a map
func parsePairs(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, output.NewCLIError(output.ExitUsage, fmt.Sprintf("expected key=value, got %q", p))
		}
		out[k] = v
	}
	return out, nil
}
