package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// errUnterminatedQuote is returned for a shell line with an open quote.
var errUnterminatedQuote = errors.New("unterminated quote")

// commands that make no sense inside a shell session.
var shellExcluded = map[string]bool{"shell": true, "serve": true}

func (c *cli) shellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Read commands from stdin, one per line, against one library",
		Long: `Read commands from stdin, one per line, and run each against the same
library. Blank lines and lines starting with # are skipped. Double or single
quotes group words. A failing command prints its error and the session goes
on. "exit" or end of input ends the session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scanner := bufio.NewScanner(c.stdin)

			for scanner.Scan() {
				if err := cmd.Context().Err(); err != nil {
					return err
				}

				line := strings.TrimSpace(scanner.Text())
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}

				if line == "exit" || line == "quit" {
					return nil
				}

				if err := c.runLine(cmd, line); err != nil {
					fmt.Fprintf(c.stderr, "error: %v\n", err)
				}
			}

			return scanner.Err()
		},
	}
}

// runLine executes one shell line with a fresh command tree. Global flags
// start from the session values and are restored once the line is done.
func (c *cli) runLine(parent *cobra.Command, line string) error {
	args, err := splitLine(line)
	if err != nil {
		return err
	}

	if shellExcluded[args[0]] {
		return fmt.Errorf("%s is not available inside the shell", args[0])
	}

	profile, jsonOutput := c.profile, c.jsonOutput
	defer func() { c.profile, c.jsonOutput = profile, jsonOutput }()

	root := c.rootCommand()
	root.SetArgs(args)

	return root.ExecuteContext(parent.Context())
}

// splitLine splits a line into words. Single or double quotes group
// words; a backslash escapes the next rune outside single quotes.
func splitLine(line string) ([]string, error) {
	var (
		words   []string
		current strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)

	for _, r := range line {
		switch {
		case escaped:
			current.WriteRune(r)

			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inWord = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inWord = true
		case r == ' ' || r == '\t':
			if inWord {
				words = append(words, current.String())
				current.Reset()

				inWord = false
			}
		default:
			current.WriteRune(r)

			inWord = true
		}
	}

	if quote != 0 || escaped {
		return nil, errUnterminatedQuote
	}

	if inWord {
		words = append(words, current.String())
	}

	return words, nil
}
