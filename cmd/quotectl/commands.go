package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quote-keeper/internal/domain"
)

// stdioName selects stdin or stdout instead of a file.
const stdioName = "-"

func newAddCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "add <text> <category>",
		Short: "Add a quote",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := c.service().AddQuote(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added: %s\n", q.Display())

			return nil
		},
	}
}

func newListCmd(c *cli) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List quotes in a category, or in the current filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if category == "" {
				category = c.service().CurrentCategory(cmd.Context())
			}

			out := cmd.OutOrStdout()
			for _, q := range c.service().Quotes(category) {
				fmt.Fprintln(out, q.Display())
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "category to list (defaults to the current filter)")

	return cmd
}

func newCategoriesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the filter options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, domain.CategoryAll)

			for _, category := range c.service().Categories() {
				fmt.Fprintln(out, category)
			}

			return nil
		},
	}
}

func newFilterCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "filter [category]",
		Short: "Show or change the persisted category filter",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := c.service().SelectCategory(cmd.Context(), args[0]); err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), c.service().CurrentCategory(cmd.Context()))

			return nil
		},
	}
}

func newRandomCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "random",
		Short: "Show a random quote from the current filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := c.service().ShowRandom(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), q.Display())

			return nil
		},
	}
}

func newExportCmd(c *cli) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole collection as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == stdioName {
				return c.service().Export(cmd.Context(), cmd.OutOrStdout())
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating %s: %w", out, err)
			}

			if err := c.service().Export(cmd.Context(), f); err != nil {
				_ = f.Close()
				return err
			}

			if err := f.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", out, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d quotes to %s\n", c.service().Len(), out)

			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "quotes.json", `output file, or "-" for stdout`)

	return cmd
}

func newImportCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: `Append every quote in a JSON file ("-" reads stdin)`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return errNoArgs
			}

			var r io.Reader = cmd.InOrStdin()

			if name != stdioName {
				f, err := os.Open(name)
				if err != nil {
					return fmt.Errorf("opening %s: %w", name, err)
				}
				defer f.Close()

				r = f
			}

			n, err := c.service().Import(cmd.Context(), r)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d quotes\n", n)

			return nil
		},
	}
}

func newSyncCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync round against the remote mirror",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.service().Sync(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d added, %d local, %d remote (%s)\n",
				res.Outcome, res.Added, res.LocalCount, res.RemoteCount, res.Duration.Round(time.Millisecond))

			return nil
		},
	}
}
