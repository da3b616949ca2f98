package main

import (
	"cmp"
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quid-pro-quote/internal/platform/logging"
)

// closeTimeout bounds the telemetry flush on exit.
const closeTimeout = 5 * time.Second

// skipApplication marks commands that run without loading the library.
const skipApplication = "qpq/skip-application"

// cli carries the streams, global flags and the lazily loaded application.
// One cli serves every command of a shell session.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	profile    string
	jsonOutput bool

	app *application

	// load builds the application on first use. Tests replace it.
	load func(ctx context.Context, profile string, logOut io.Writer) (*application, error)
}

func newCLI(stdin io.Reader, stdout, stderr io.Writer) *cli {
	return &cli{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		load:   loadApplication,
	}
}

// rootCommand builds a fresh command tree bound to c.
func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "qpq",
		Short: "Keep collections of quotes in memory",
		Long: `qpq keeps named collections of quotes in memory, seeded from the
library section of the configuration. Quotes can be added, rated, moved
between collections on removal and imported from quotable.io or RSS/Atom
feeds. Run "qpq shell" to issue several commands against one library, or
"qpq serve" to expose it over HTTP.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipApplication] != "" {
				return nil
			}

			if c.app == nil {
				a, err := c.load(cmd.Context(), c.profile, c.stderr)
				if err != nil {
					return err
				}

				c.app = a
			}

			// Shell lines replace the logger of the shell command instead of
			// nesting under it.
			cmd.SetContext(logging.WithContext(cmd.Context(), c.app.logger.With(slog.String("command", cmd.Name()))))

			return nil
		},
	}

	root.SetIn(c.stdin)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	root.PersistentFlags().StringVar(&c.profile, "profile", cmp.Or(c.profile, defaultProfile()), "configuration profile, loads {profile}.yaml from $QPQ_CONFIG_DIR or configs/")
	root.PersistentFlags().BoolVar(&c.jsonOutput, "json", c.jsonOutput, "render results as JSON")

	root.AddCommand(
		c.collectionsCommand(),
		c.quotesCommand(),
		c.randomCommand(),
		c.addCommand(),
		c.newCommand(),
		c.removeCommand(),
		c.rateCommand(),
		c.importCommand(),
		c.checkCommand(),
		c.shellCommand(),
		c.serveCommand(),
		c.versionCommand(),
	)

	return root
}

func (c *cli) out() printer {
	return printer{w: c.stdout, json: c.jsonOutput}
}

// close flushes telemetry of a loaded application.
func (c *cli) close() {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	c.app.close(ctx)
}

// defaultProfile mirrors how the service picks its profile: APP_ENVIRONMENT,
// then local.
func defaultProfile() string {
	if profile := os.Getenv("APP_ENVIRONMENT"); profile != "" {
		return profile
	}

	return "local"
}
