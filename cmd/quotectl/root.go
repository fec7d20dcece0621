package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quote-keeper/internal/app"
	"github.com/jsamuelsen/quote-keeper/internal/bootstrap"
	"github.com/jsamuelsen/quote-keeper/internal/platform/config"
	"github.com/jsamuelsen/quote-keeper/internal/platform/logging"
)

// cli holds the state shared by every subcommand of one invocation.
type cli struct {
	configDir string
	profile   string
	storage   string
	logLevel  string

	components *bootstrap.Components
}

// run executes one invocation and always releases the store, including when
// the command fails.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	c := &cli{}

	root := c.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)

	return errors.Join(err, c.close())
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "quotectl",
		Short:         "Manage the quote collection",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.open(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configDir, "config-dir", config.DefaultConfigDir, "directory holding base.yaml and profile files")
	flags.StringVar(&c.profile, "profile", os.Getenv("APP_ENVIRONMENT"), "config profile to layer over base.yaml")
	flags.StringVar(&c.storage, "storage", "", "sqlite file to use instead of storage.path")
	flags.StringVar(&c.logLevel, "log-level", "warn", "log level written to stderr")

	root.AddCommand(
		newAddCmd(c),
		newListCmd(c),
		newCategoriesCmd(c),
		newFilterCmd(c),
		newRandomCmd(c),
		newExportCmd(c),
		newImportCmd(c),
		newSyncCmd(c),
	)

	return root
}

func (c *cli) open(cmd *cobra.Command) error {
	cfg, err := config.LoadDir(c.configDir, c.profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if c.storage != "" {
		cfg.Storage.Path = c.storage
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.NewWithWriter(&logging.Config{
		Level:   c.logLevel,
		Format:  cfg.Log.Format,
		Service: "quotectl",
		Version: Version,
	}, cmd.ErrOrStderr())

	components, err := bootstrap.Build(cmd.Context(), cfg, logger, bootstrap.Options{
		UserAgent: "quotectl/" + Version,
	})
	if err != nil {
		return err
	}

	c.components = components

	return nil
}

func (c *cli) close() error {
	if c.components == nil {
		return nil
	}

	err := c.components.Close()
	c.components = nil

	return err
}

func (c *cli) service() *app.QuoteService {
	return c.components.Service
}

// errNoArgs is returned by commands that need input they did not get.
var errNoArgs = errors.New("missing argument")
