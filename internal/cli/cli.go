package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/willabides/kongplete"

	"github.com/semmy-space/keyring/internal/config"
	"github.com/semmy-space/keyring/internal/output"
	"github.com/semmy-space/keyring/pkg/keyring"
)

// Process streams; tests replace them.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// FormatterProvider wraps the formatter interface for Kong binding
type FormatterProvider struct {
	Formatter output.Formatter
	Mode      string
}

// CLI is the root command structure
type CLI struct {
	Globals

	Password           PasswordCmd                   `cmd:"" help:"Read, write or delete a password"`
	Secret             SecretCmd                     `cmd:"" help:"Read, write or delete a binary secret"`
	Attrs              AttrsCmd                      `cmd:"" help:"Read or update credential attributes"`
	Search             SearchCmd                     `cmd:"" help:"Search the store for credentials"`
	Info               InfoCmd                       `cmd:"" help:"Show the selected credential store"`
	Config             ConfigCmd                     `cmd:"" help:"Configuration commands"`
	InstallCompletions kongplete.InstallCompletions `cmd:"" help:"Install shell completions"`
	Version            VersionCmd                    `cmd:"" help:"Show version information"`
}

// AfterApply runs once flags are parsed, before any command executes.
// It loads config, sets up logging, creates the formatter and store
// provider, and binds them.
func (c *CLI) AfterApply(ctx *kong.Context) error {
	// Load config from XDG path (returns defaults if missing)
	cfg, err := config.Load()
	if err != nil {
		return output.NewCLIError(output.ExitConfigError, err.Error()).
			WithHint("Check " + config.ConfigPath())
	}

	// Output: CLI flag > config > auto
	if c.Output == "auto" && cfg.DefaultOutput != "" {
		c.Output = cfg.DefaultOutput
	}
	mode := c.ResolvedOutput()

	level := slog.LevelWarn
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	keyring.SetLogger(logger)

	formatter := &FormatterProvider{
		Formatter: output.NewWithWriters(mode, stdout, stderr),
		Mode:      mode,
	}

	// Bind dependencies to kong context
	ctx.Bind(cfg)
	ctx.Bind(formatter)
	ctx.Bind(&c.Globals)
	ctx.Bind(NewStoreProvider(&c.Globals, cfg))

	return nil
}

// ConfigCmd holds configuration subcommands
type ConfigCmd struct {
	Get   ConfigGetCmd        `cmd:"" help:"Get a configuration value"`
	Set   ConfigSetCmd        `cmd:"" help:"Set a configuration value"`
	Unset ConfigUnsetCmd      `cmd:"" help:"Remove a configuration value"`
	List  ConfigListConfigCmd `cmd:"" name:"list" help:"List all configuration values"`
	Path  ConfigPathCmd       `cmd:"" help:"Show config file path"`
}

// InfoCmd describes the store commands would use
type InfoCmd struct{}

type storeInfo struct {
	Vendor      string `json:"vendor"`
	ID          string `json:"id"`
	Persistence string `json:"persistence"`
	Path        string `json:"path,omitempty"`
}

func (cmd *InfoCmd) Run(sp *StoreProvider, fp *FormatterProvider) error {
	store, err := sp.Store()
	if err != nil {
		return err
	}
	info := storeInfo{
		Vendor:      store.Vendor(),
		ID:          store.ID(),
		Persistence: store.Persistence().String(),
	}
	if p, ok := store.(interface{ Path() string }); ok {
		info.Path = p.Path()
	}
	return fp.Formatter.Print(info)
}

// VersionCmd shows version information
type VersionCmd struct{}

func (cmd *VersionCmd) Run(ctx *kong.Context) error {
	version := ctx.Model.Vars()["version"]
	fmt.Fprintln(stdout, "keyring version "+version)
	return nil
}
