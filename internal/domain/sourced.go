package domain

import "strings"

// SourcedQuote is a quote fetched from a remote source that has not been
// added to a collection yet.
type SourcedQuote struct {
	SourceID string
	Text     string
	Author   string
	Tags     []string
}

// Format returns the text stored in a collection: the quote text, followed
// by the author in parentheses when one is known.
func (q SourcedQuote) Format() string {
	text := strings.TrimSpace(q.Text)
	author := strings.TrimSpace(q.Author)

	if text == "" || author == "" {
		return text
	}

	return text + " (" + author + ")"
}
