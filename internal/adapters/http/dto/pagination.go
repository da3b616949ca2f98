package dto

import (
	"encoding/base64"
	"errors"

	jsoniter "github.com/json-iterator/go"
)

var cursorJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultLimit is the default number of quotes per page.
const DefaultLimit = 20

// MaxLimit is the maximum allowed quotes per page.
const MaxLimit = 100

var (
	// ErrInvalidCursor is returned for a cursor qpq did not issue, or one
	// issued for another collection.
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrNoCursor signals a first page request.
	ErrNoCursor = errors.New("no cursor provided")
)

// Cursor is the position a page ends at: the id of its last quote. It is
// bound to the collection it was issued for.
type Cursor struct {
	Collection string `json:"c"`
	After      int    `json:"a"`
}

// EncodeCursor renders c as URL-safe base64 JSON.
func EncodeCursor(c Cursor) string {
	data, err := cursorJSON.Marshal(c)
	if err != nil {
		return ""
	}

	return base64.URLEncoding.EncodeToString(data)
}

// DecodeCursor parses an EncodeCursor string. An empty string yields
// ErrNoCursor.
func DecodeCursor(encoded string) (Cursor, error) {
	if encoded == "" {
		return Cursor{}, ErrNoCursor
	}

	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}

	var c Cursor

	if err := cursorJSON.Unmarshal(data, &c); err != nil || c.After < 0 {
		return Cursor{}, ErrInvalidCursor
	}

	return c, nil
}

// PaginationRequest holds the query of a paginated quote listing.
type PaginationRequest struct {
	// Cursor is the NextCursor of the previous page.
	Cursor string `form:"cursor"`

	// Limit is the page size, 1 to MaxLimit. Zero means DefaultLimit.
	Limit int `form:"limit" validate:"omitempty,gte=1,lte=100"`
}

// GetLimit returns the limit with defaults applied.
func (p *PaginationRequest) GetLimit() int {
	switch {
	case p.Limit <= 0:
		return DefaultLimit
	case p.Limit > MaxLimit:
		return MaxLimit
	default:
		return p.Limit
	}
}

// AfterID resolves the cursor to the quote id to continue after in
// collection. No cursor yields -1, the start of the collection.
func (p *PaginationRequest) AfterID(collection string) (int, error) {
	c, err := DecodeCursor(p.Cursor)

	switch {
	case errors.Is(err, ErrNoCursor):
		return -1, nil
	case err != nil:
		return 0, err
	case c.Collection != collection:
		return 0, ErrInvalidCursor
	}

	return c.After, nil
}

// PaginatedResponse is one page of a listing.
type PaginatedResponse[T any] struct {
	Items []T `json:"items"`

	// NextCursor is empty on the last page.
	NextCursor string `json:"nextCursor,omitempty"`

	HasMore bool `json:"hasMore"`
}

// NewPage wraps a page the service already cut. When hasMore is set the
// next cursor points after the id of the last item.
func NewPage[T any](items []T, hasMore bool, collection string, id func(T) int) *PaginatedResponse[T] {
	if items == nil {
		items = []T{}
	}

	page := &PaginatedResponse[T]{Items: items, HasMore: hasMore}

	if hasMore && len(items) > 0 {
		page.NextCursor = EncodeCursor(Cursor{Collection: collection, After: id(items[len(items)-1])})
	}

	return page
}
