package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quid-pro-quote/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quid-pro-quote/internal/app"
	"github.com/jsamuelsen/quid-pro-quote/internal/domain"
)

// defaultImportLimit is the number of quotes asked of each source.
const defaultImportLimit = 10

// errUnhealthy is returned by check when any check fails.
var errUnhealthy = errors.New("library is unhealthy")

func (c *cli) collectionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "collections",
		Short: "List collections with their size and rating",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			collections, err := c.app.service.ListCollections(cmd.Context())
			if err != nil {
				return err
			}

			return c.out().collections(collections)
		},
	}
}

func (c *cli) quotesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "quotes [collection]",
		Short: "List the quotes of a collection, the default one when omitted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := c.app.service.ListQuotes(cmd.Context(), optionalArg(args), -1, 0)
			if err != nil {
				return err
			}

			return c.out().quotes(page.Quotes)
		},
	}
}

func (c *cli) randomCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "random [collection]",
		Short: "Print a random quote",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			quote, err := c.app.service.RandomQuote(cmd.Context(), optionalArg(args))
			if err != nil {
				return err
			}

			return c.out().quote(quote)
		},
	}
}

func (c *cli) addCommand() *cobra.Command {
	var collection string

	cmd := &cobra.Command{
		Use:     "add <text>",
		Short:   "Add a quote",
		Long:    "Add a quote. The arguments are joined with spaces, so the text need not be quoted.",
		Example: `  qpq add --collection stoics Waste no more time arguing what a good man should be. Be one.`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")

			id, err := c.app.service.AddQuote(cmd.Context(), collection, text)
			if err != nil {
				return err
			}

			return c.out().message(map[string]any{"id": id, "collection": orDefault(collection)}, "added quote %d", id)
		},
	}

	cmd.Flags().StringVarP(&collection, "collection", "c", "", "collection to add to (default collection when empty)")

	return cmd
}

func (c *cli) newCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "new <collection>",
		Short: "Create an empty collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := c.app.service.AddCollection(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return c.out().message(summary, "created collection %s", summary.Name)
		},
	}
}

func (c *cli) removeCommand() *cobra.Command {
	var move bool

	cmd := &cobra.Command{
		Use:   "remove <collection>",
		Short: "Remove a collection",
		Long: `Remove a collection. With --move its quotes join the default collection.
Without the flag the move-quotes-on-remove feature flag decides.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var movePtr *bool
			if cmd.Flags().Changed("move") {
				movePtr = &move
			}

			if err := c.app.service.RemoveCollection(cmd.Context(), args[0], movePtr); err != nil {
				return err
			}

			return c.out().message(map[string]string{"removed": args[0]}, "removed collection %s", args[0])
		},
	}

	cmd.Flags().BoolVar(&move, "move", false, "move the quotes to the default collection")

	return cmd
}

func (c *cli) rateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rate <collection> <id> <delta>",
		Short: "Change the rating of a quote",
		Long:  `Change the rating of a quote by delta. Negative deltas follow "--".`,
		Example: `  qpq rate default 3 2
  qpq rate default 3 -- -1`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[1])
			if err != nil || id < 0 {
				return domain.NewValidationErrorWithValue("id", "must be a non-negative integer", args[1])
			}

			delta, err := strconv.Atoi(args[2])
			if err != nil {
				return domain.NewValidationErrorWithValue("delta", "must be an integer", args[2])
			}

			rating, err := c.app.service.RateQuote(cmd.Context(), args[0], id, delta)
			if err != nil {
				return err
			}

			return c.out().message(map[string]int{"id": id, "rating": rating}, "quote %d is rated %d", id, rating)
		},
	}
}

func (c *cli) importCommand() *cobra.Command {
	var (
		sources []string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "import <collection>",
		Short: "Import quotes from remote sources",
		Long: `Fetch quotes from the configured sources and add those the collection
does not hold yet. Without --source every configured source is asked.`,
		Example: `  qpq import default --source quotable --limit 5`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Sources see one correlation id per run, as they would for an
			// import made over HTTP.
			ctx := middleware.ContextWithCorrelationID(cmd.Context(), uuid.NewString())

			result, err := c.app.service.ImportQuotes(ctx, app.ImportRequest{
				Collection: args[0],
				Sources:    sources,
				Limit:      limit,
			})
			if err != nil {
				return err
			}

			return c.out().imported(result)
		},
	}

	cmd.Flags().StringArrayVarP(&sources, "source", "s", nil, "source to import from, repeatable")
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultImportLimit, "quotes to ask of each source")

	return cmd
}

func (c *cli) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run the library integrity and source checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result := c.app.health.CheckAll(cmd.Context())

			if err := c.out().health(result); err != nil {
				return err
			}

			if !result.Healthy() {
				return errUnhealthy
			}

			return nil
		},
	}
}

func (c *cli) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipApplication: "true"},
		RunE: func(*cobra.Command, []string) error {
			info := map[string]string{"version": Version, "commit": Commit, "buildTime": BuildTime}

			return c.out().print(info, func(w io.Writer) {
				fmt.Fprintf(w, "qpq %s (commit %s, built %s)\n", Version, Commit, BuildTime)
			})
		},
	}
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}

	return args[0]
}

func orDefault(collection string) string {
	if strings.TrimSpace(collection) == "" {
		return domain.DefaultCollectionName
	}

	return collection
}
