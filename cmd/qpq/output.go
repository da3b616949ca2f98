package main

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/jsamuelsen/quid-pro-quote/internal/app"
	"github.com/jsamuelsen/quid-pro-quote/internal/ports"
)

var outputJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// printer renders command results as indented JSON or as text lines.
type printer struct {
	w    io.Writer
	json bool
}

// print writes v as JSON in JSON mode and calls text otherwise.
func (p printer) print(v any, text func(w io.Writer)) error {
	if p.json {
		enc := outputJSON.NewEncoder(p.w)
		enc.SetIndent("", "  ")

		return enc.Encode(v)
	}

	text(p.w)

	return nil
}

func (p printer) collections(collections []app.CollectionSummary) error {
	return p.print(collections, func(w io.Writer) {
		for _, c := range collections {
			name := c.Name
			if c.DisplayName != "" && c.DisplayName != c.Name {
				name = fmt.Sprintf("%s (%s)", c.Name, c.DisplayName)
			}

			fmt.Fprintf(w, "%s\t%d quotes\trating %d\n", name, c.Size, c.Rating)
		}
	})
}

func (p printer) quotes(quotes []app.QuoteView) error {
	if quotes == nil {
		quotes = []app.QuoteView{}
	}

	return p.print(quotes, func(w io.Writer) {
		for _, q := range quotes {
			fmt.Fprintf(w, "%d\t%s\trating %d\n", q.ID, q.Text, q.Rating)
		}
	})
}

func (p printer) quote(q app.QuoteView) error {
	return p.print(q, func(w io.Writer) {
		fmt.Fprintf(w, "%d\t%s\trating %d\n", q.ID, q.Text, q.Rating)
	})
}

func (p printer) imported(result app.ImportResult) error {
	return p.print(result, func(w io.Writer) {
		fmt.Fprintf(w, "imported %d quotes into %s, skipped %d\n", len(result.IDs), result.Collection, result.Skipped)

		for source, reason := range result.Failures {
			fmt.Fprintf(w, "source %s failed: %s\n", source, reason)
		}
	})
}

func (p printer) health(result *ports.HealthResult) error {
	return p.print(result, func(w io.Writer) {
		for _, name := range result.Names() {
			check := result.Checks[name]

			line := fmt.Sprintf("%s\t%s", name, check.Status)
			if check.Advisory {
				line += " (advisory)"
			}

			if check.Message != "" {
				line += "\t" + check.Message
			}

			fmt.Fprintln(w, line)
		}
	})
}

// message prints a one-line confirmation. In JSON mode v is rendered.
func (p printer) message(v any, format string, args ...any) error {
	return p.print(v, func(w io.Writer) {
		fmt.Fprintf(w, format+"\n", args...)
	})
}
