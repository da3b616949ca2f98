package dto

import "github.com/jsamuelsen/quid-pro-quote/internal/domain"

// CreateCollectionRequest is the body of POST /collections.
type CreateCollectionRequest struct {
	Name string `json:"name" validate:"required,notempty,collection,max=64"`
}

// RenameCollectionRequest is the body of PATCH /collections/:name.
type RenameCollectionRequest struct {
	DisplayName string `json:"display_name" validate:"required,notempty,max=200"`
}

// RemoveCollectionQuery holds the query of DELETE /collections/:name.
// An absent move leaves the choice to the move-quotes-on-remove flag.
type RemoveCollectionQuery struct {
	Move *bool `form:"move"`
}

// RateRequest is the body of the rating endpoints. Delta may be negative.
type RateRequest struct {
	Delta *int `json:"delta" validate:"required"`
}

// AddQuoteRequest is the body of POST /collections/:name/quotes.
type AddQuoteRequest struct {
	Text string `json:"text" validate:"required,notempty,max=2000"`
}

// ImportRequest is the body of POST /collections/:name/import. No sources
// means every configured source.
type ImportRequest struct {
	Sources []string `json:"sources" validate:"omitempty,dive,required"`
	Limit   int      `json:"limit"   validate:"required,min=1,max=50"`
}

// Validate rejects a source named twice.
func (r ImportRequest) Validate() error {
	seen := make(map[string]bool, len(r.Sources))

	for _, source := range r.Sources {
		if seen[source] {
			return domain.NewValidationErrorWithValue("sources", "must not repeat a source", source)
		}

		seen[source] = true
	}

	return nil
}
