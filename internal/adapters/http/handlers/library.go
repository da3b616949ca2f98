package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quid-pro-quote/internal/adapters/http/dto"
	"github.com/jsamuelsen/quid-pro-quote/internal/app"
	"github.com/jsamuelsen/quid-pro-quote/internal/domain"
)

// ImportPath is the route pattern of the import endpoint. Imports wait on
// remote sources, so the router exempts it from the request timeout.
const ImportPath = "/collections/:name/import"

// LibraryHandler serves the collection and quote endpoints.
type LibraryHandler struct {
	service *app.QuoteService
}

// NewLibraryHandler creates a new library handler.
func NewLibraryHandler(service *app.QuoteService) *LibraryHandler {
	return &LibraryHandler{
		service: service,
	}
}

// RatingResponse carries a rating after a change.
type RatingResponse struct {
	Rating int `json:"rating"`
}

// QuoteCreatedResponse is returned when a quote is added.
type QuoteCreatedResponse struct {
	ID         int    `json:"id"`
	Collection string `json:"collection"`
}

// CollectionsResponse lists every collection in manager order.
type CollectionsResponse struct {
	Collections []app.CollectionSummary `json:"collections"`
}

// ListCollections handles GET /api/v1/collections.
func (h *LibraryHandler) ListCollections(c *gin.Context) {
	collections, err := h.service.ListCollections(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	if collections == nil {
		collections = []app.CollectionSummary{}
	}

	c.JSON(http.StatusOK, CollectionsResponse{Collections: collections})
}

// AddCollection handles POST /api/v1/collections.
func (h *LibraryHandler) AddCollection(c *gin.Context) {
	var req dto.CreateCollectionRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	summary, err := h.service.AddCollection(c.Request.Context(), req.Name)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, summary)
}

// RenameCollection handles PATCH /api/v1/collections/:name.
func (h *LibraryHandler) RenameCollection(c *gin.Context) {
	var req dto.RenameCollectionRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	summary, err := h.service.RenameCollection(c.Request.Context(), c.Param("name"), req.DisplayName)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// RemoveCollection handles DELETE /api/v1/collections/:name. Without
// ?move the move-quotes-on-remove flag decides.
func (h *LibraryHandler) RemoveCollection(c *gin.Context) {
	var query dto.RemoveCollectionQuery
	if err := dto.BindQueryAndValidate(c, &query); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	if err := h.service.RemoveCollection(c.Request.Context(), c.Param("name"), query.Move); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RateCollection handles POST /api/v1/collections/:name/rating.
func (h *LibraryHandler) RateCollection(c *gin.Context) {
	var req dto.RateRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	rating, err := h.service.RateCollection(c.Request.Context(), c.Param("name"), *req.Delta)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, RatingResponse{Rating: rating})
}

// ListQuotes handles GET /api/v1/collections/:name/quotes with cursor
// pagination over quote ids.
func (h *LibraryHandler) ListQuotes(c *gin.Context) {
	var page dto.PaginationRequest
	if err := dto.BindQueryAndValidate(c, &page); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	name := c.Param("name")

	after, err := page.AfterID(name)
	if err != nil {
		dto.HandleError(c, domain.NewValidationErrorWithValue("cursor", err.Error(), page.Cursor))
		return
	}

	result, err := h.service.ListQuotes(c.Request.Context(), name, after, page.GetLimit())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPage(result.Quotes, result.HasMore, name, func(q app.QuoteView) int {
		return q.ID
	}))
}

// AddQuote handles POST /api/v1/collections/:name/quotes.
func (h *LibraryHandler) AddQuote(c *gin.Context) {
	var req dto.AddQuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	name := c.Param("name")

	id, err := h.service.AddQuote(c.Request.Context(), name, req.Text)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, QuoteCreatedResponse{ID: id, Collection: name})
}

// RandomQuote handles GET /api/v1/collections/:name/quotes/random.
func (h *LibraryHandler) RandomQuote(c *gin.Context) {
	quote, err := h.service.RandomQuote(c.Request.Context(), c.Param("name"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

// GetQuote handles GET /api/v1/collections/:name/quotes/:id.
func (h *LibraryHandler) GetQuote(c *gin.Context) {
	id, ok := quoteID(c)
	if !ok {
		return
	}

	quote, err := h.service.GetQuote(c.Request.Context(), c.Param("name"), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

// RemoveQuote handles DELETE /api/v1/collections/:name/quotes/:id.
func (h *LibraryHandler) RemoveQuote(c *gin.Context) {
	id, ok := quoteID(c)
	if !ok {
		return
	}

	if err := h.service.RemoveQuote(c.Request.Context(), c.Param("name"), id); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RateQuote handles POST /api/v1/collections/:name/quotes/:id/rating.
func (h *LibraryHandler) RateQuote(c *gin.Context) {
	id, ok := quoteID(c)
	if !ok {
		return
	}

	var req dto.RateRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	rating, err := h.service.RateQuote(c.Request.Context(), c.Param("name"), id, *req.Delta)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, RatingResponse{Rating: rating})
}

// ImportQuotes handles POST /api/v1/collections/:name/import.
func (h *LibraryHandler) ImportQuotes(c *gin.Context) {
	var req dto.ImportRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	result, err := h.service.ImportQuotes(c.Request.Context(), app.ImportRequest{
		Collection: c.Param("name"),
		Sources:    req.Sources,
		Limit:      req.Limit,
	})
	if err != nil {
		var execErr *app.ExecutionError
		if errors.As(err, &execErr) {
			err = execErr.Unwrap()
		}

		dto.HandleError(c, err)

		return
	}

	c.JSON(http.StatusOK, result)
}

// RegisterRoutes registers the library routes on rg. Mutating routes run
// behind guard, which may be empty.
func (h *LibraryHandler) RegisterRoutes(rg *gin.RouterGroup, guard ...gin.HandlerFunc) {
	write := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, guard...), handler)
	}

	rg.GET("/collections", h.ListCollections)
	rg.POST("/collections", write(h.AddCollection)...)
	rg.PATCH("/collections/:name", write(h.RenameCollection)...)
	rg.DELETE("/collections/:name", write(h.RemoveCollection)...)
	rg.POST("/collections/:name/rating", write(h.RateCollection)...)

	rg.GET("/collections/:name/quotes", h.ListQuotes)
	rg.POST("/collections/:name/quotes", write(h.AddQuote)...)
	rg.GET("/collections/:name/quotes/random", h.RandomQuote)
	rg.GET("/collections/:name/quotes/:id", h.GetQuote)
	rg.DELETE("/collections/:name/quotes/:id", write(h.RemoveQuote)...)
	rg.POST("/collections/:name/quotes/:id/rating", write(h.RateQuote)...)

	rg.POST(ImportPath, write(h.ImportQuotes)...)
}

// quoteID parses the :id path parameter and writes a 400 when it is not
// a quote id.
func quoteID(c *gin.Context) (int, bool) {
	raw := c.Param("id")

	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		dto.HandleError(c, domain.NewValidationErrorWithValue("id", "must be a non-negative integer", raw))
		return 0, false
	}

	return id, true
}
