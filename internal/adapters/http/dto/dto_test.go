package dto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quid-pro-quote/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestErrorResponse(t *testing.T) {
	plain := NewErrorResponse(ErrorCodeNotFound, `collection "stoics" not found`)
	assert.Equal(t, &ErrorResponse{Error: ErrorDetail{Code: ErrorCodeNotFound, Message: `collection "stoics" not found`}}, plain)

	details := map[string]string{"limit": "must be at most 50", "name": "this field is required"}
	detailed := NewErrorResponseWithDetails(ErrorCodeValidation, "validation failed", details)
	assert.Equal(t, details, detailed.Error.Details)

	assert.Same(t, detailed, detailed.WithTraceID("trace-123"))
	assert.Equal(t, "trace-123", detailed.TraceID)

	body, err := json.Marshal(plain)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":{"code":"NOT_FOUND","message":"collection \"stoics\" not found"}}`, string(body))
}

func TestHTTPStatusFromCode(t *testing.T) {
	want := map[string]int{
		ErrorCodeNotFound:         http.StatusNotFound,
		ErrorCodeRouteNotFound:    http.StatusNotFound,
		ErrorCodeConflict:         http.StatusConflict,
		ErrorCodeValidation:       http.StatusBadRequest,
		ErrorCodeBadRequest:       http.StatusBadRequest,
		ErrorCodeForbidden:        http.StatusForbidden,
		ErrorCodeUnauthorized:     http.StatusUnauthorized,
		ErrorCodeUnavailable:      http.StatusServiceUnavailable,
		ErrorCodeTimeout:          http.StatusGatewayTimeout,
		ErrorCodeMethodNotAllowed: http.StatusMethodNotAllowed,
		ErrorCodePayloadTooLarge:  http.StatusRequestEntityTooLarge,
		ErrorCodeInternal:         http.StatusInternalServerError,
		"UNKNOWN_CODE":            http.StatusInternalServerError,
	}

	for code, status := range want {
		assert.Equal(t, status, HTTPStatusFromCode(code), code)
	}
}

func TestGetTraceID(t *testing.T) {
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x4b, 0xf9, 0x2f, 0x35, 0x77, 0xb3, 0x4d, 0xa6, 0xa3, 0xce, 0x92, 0x9d, 0x0e, 0x0e, 0x47, 0x36},
		SpanID:     trace.SpanID{0x00, 0xf0, 0x67, 0xaa, 0x0b, 0xa9, 0x02, 0xb7},
		TraceFlags: trace.FlagsSampled,
	})

	tests := []struct {
		name  string
		setup func(*gin.Context)
		want  string
	}{
		{
			name: "span in request context",
			setup: func(c *gin.Context) {
				c.Request = c.Request.WithContext(trace.ContextWithSpanContext(c.Request.Context(), spanCtx))
				c.Set(ContextKeyTraceID, "ignored")
			},
			want: "4bf92f3577b34da6a3ce929d0e0e4736",
		},
		{
			name:  "gin context value",
			setup: func(c *gin.Context) { c.Set(ContextKeyTraceID, "context-trace-123") },
			want:  "context-trace-123",
		},
		{
			name: "context value wins over header",
			setup: func(c *gin.Context) {
				c.Set(ContextKeyTraceID, "context-trace-123")
				c.Request.Header.Set("X-Request-ID", "header-trace-456")
			},
			want: "context-trace-123",
		},
		{
			name:  "request id header",
			setup: func(c *gin.Context) { c.Request.Header.Set("X-Request-ID", "header-trace-456") },
			want:  "header-trace-456",
		},
		{
			name:  "context value of another type",
			setup: func(c *gin.Context) { c.Set(ContextKeyTraceID, 12345) },
			want:  "",
		},
		{
			name:  "nothing",
			setup: func(*gin.Context) {},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			tt.setup(c)

			assert.Equal(t, tt.want, GetTraceID(c))
		})
	}
}

// TestHandleError tests error handling middleware.
func TestHandleError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		traceID        string
		wantStatus     int
		wantCode       string
		wantMessageKey string
	}{
		{
			name:           "not found error",
			err:            domain.QuoteNotFound("default", 123),
			traceID:        "trace-123",
			wantStatus:     http.StatusNotFound,
			wantCode:       ErrorCodeNotFound,
			wantMessageKey: "quote 123",
		},
		{
			name:           "conflict error",
			err:            domain.CollectionExists("stoics"),
			traceID:        "trace-456",
			wantStatus:     http.StatusConflict,
			wantCode:       ErrorCodeConflict,
			wantMessageKey: "stoics",
		},
		{
			name:           "validation error",
			err:            domain.NewValidationError("text", "must not be empty"),
			traceID:        "trace-789",
			wantStatus:     http.StatusBadRequest,
			wantCode:       ErrorCodeValidation,
			wantMessageKey: "text",
		},
		{
			name:           "forbidden error",
			err:            domain.NewForbiddenError("import", "source refused credentials"),
			traceID:        "trace-abc",
			wantStatus:     http.StatusForbidden,
			wantCode:       ErrorCodeForbidden,
			wantMessageKey: "import",
		},
		{
			name:           "unavailable error",
			err:            domain.NewUnavailableError("quotable", "connection refused"),
			traceID:        "trace-def",
			wantStatus:     http.StatusServiceUnavailable,
			wantCode:       ErrorCodeUnavailable,
			wantMessageKey: "temporarily unavailable",
		},
		{
			name:           "internal error",
			err:            errors.New("unexpected error"),
			traceID:        "trace-ghi",
			wantStatus:     http.StatusInternalServerError,
			wantCode:       ErrorCodeInternal,
			wantMessageKey: "internal error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set("trace_id", tt.traceID)

			HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)

			var response ErrorResponse
			err := json.Unmarshal(w.Body.Bytes(), &response)
			require.NoError(t, err)

			assert.Equal(t, tt.wantCode, response.Error.Code)
			assert.Contains(t, response.Error.Message, tt.wantMessageKey)
			assert.Equal(t, tt.traceID, response.TraceID)
		})
	}
}

// TestGetLimit tests pagination limit calculation.
func TestGetLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{
			name:  "zero returns default",
			limit: 0,
			want:  DefaultLimit,
		},
		{
			name:  "negative returns default",
			limit: -1,
			want:  DefaultLimit,
		},
		{
			name:  "valid limit",
			limit: 50,
			want:  50,
		},
		{
			name:  "over max returns max",
			limit: 150,
			want:  MaxLimit,
		},
		{
			name:  "max limit",
			limit: MaxLimit,
			want:  MaxLimit,
		},
		{
			name:  "one",
			limit: 1,
			want:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &PaginationRequest{Limit: tt.limit}
			got := p.GetLimit()
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestNewPage tests wrapping a service page.
func TestNewPage(t *testing.T) {
	type item struct{ ID int }

	id := func(i item) int { return i.ID }

	tests := []struct {
		name      string
		items     []item
		hasMore   bool
		wantAfter int
	}{
		{name: "last page", items: []item{{ID: 1}, {ID: 2}}},
		{name: "more pages", items: []item{{ID: 1}, {ID: 4}}, hasMore: true, wantAfter: 4},
		{name: "nil items", items: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewPage(tt.items, tt.hasMore, "stoics", id)

			assert.NotNil(t, got.Items)
			assert.Len(t, got.Items, len(tt.items))
			assert.Equal(t, tt.hasMore, got.HasMore)

			if !tt.hasMore {
				assert.Empty(t, got.NextCursor)
				return
			}

			cursor, err := DecodeCursor(got.NextCursor)
			require.NoError(t, err)
			assert.Equal(t, Cursor{Collection: "stoics", After: tt.wantAfter}, cursor)
		})
	}
}

// TestAfterID tests resolving quote cursors.
func TestAfterID(t *testing.T) {
	tests := []struct {
		name    string
		cursor  string
		want    int
		wantErr bool
	}{
		{name: "no cursor starts at the beginning", want: -1},
		{name: "id cursor", cursor: EncodeCursor(Cursor{Collection: "default", After: 7}), want: 7},
		{name: "zero id", cursor: EncodeCursor(Cursor{Collection: "default"}), want: 0},
		{name: "garbage", cursor: "not-base64!", wantErr: true},
		{name: "other collection", cursor: EncodeCursor(Cursor{Collection: "stoics", After: 3}), wantErr: true},
		{name: "negative id", cursor: EncodeCursor(Cursor{Collection: "default", After: -2}), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := PaginationRequest{Cursor: tt.cursor}

			got, err := req.AfterID("default")

			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidCursor)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestEncodeCursor tests the cursor wire form.
func TestEncodeCursor(t *testing.T) {
	got := EncodeCursor(Cursor{Collection: "stoics", After: 12})

	raw, err := base64.URLEncoding.DecodeString(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"c":"stoics","a":12}`, string(raw))
}

// TestDecodeCursor tests cursor decoding.
func TestDecodeCursor(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
		want    Cursor
		wantErr error
	}{
		{
			name:    "empty string returns ErrNoCursor",
			wantErr: ErrNoCursor,
		},
		{
			name:    "valid cursor",
			encoded: EncodeCursor(Cursor{Collection: "default", After: 3}),
			want:    Cursor{Collection: "default", After: 3},
		},
		{
			name:    "invalid base64",
			encoded: "invalid-base64!",
			wantErr: ErrInvalidCursor,
		},
		{
			name:    "valid base64 but invalid JSON",
			encoded: base64.URLEncoding.EncodeToString([]byte("not json")),
			wantErr: ErrInvalidCursor,
		},
		{
			name:    "id of the wrong type",
			encoded: base64.URLEncoding.EncodeToString([]byte(`{"c":"default","a":"7"}`)),
			wantErr: ErrInvalidCursor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCursor(tt.encoded)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidator(t *testing.T) {
	assert.Same(t, Validator(), Validator())
}

// TestValidate tests struct validation.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		wantErr bool
	}{
		{
			name:  "valid collection",
			input: &CreateCollectionRequest{Name: "stoics"},
		},
		{
			name:    "missing display name",
			input:   &RenameCollectionRequest{},
			wantErr: true,
		},
		{
			name:    "name with slash",
			input:   &CreateCollectionRequest{Name: "poems/2024"},
			wantErr: true,
		},
		{
			name:    "name too long",
			input:   &CreateCollectionRequest{Name: strings.Repeat("s", 65)},
			wantErr: true,
		},
		{
			name:    "limit above import cap",
			input:   &ImportRequest{Limit: 51},
			wantErr: true,
		},
		{
			name:  "limit at import cap",
			input: &ImportRequest{Limit: 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.input)

			if tt.wantErr {
				require.Error(t, err)
				require.ErrorIs(t, err, ErrValidation)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// TestBindAndValidate tests JSON binding and validation.
func TestBindAndValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{
			name: "valid JSON",
			body: `{"name":"stoics"}`,
		},
		{
			name:    "invalid JSON",
			body:    `{invalid}`,
			wantErr: ErrBinding,
		},
		{
			name:    "wrong field type",
			body:    `{"name":7}`,
			wantErr: ErrBinding,
		},
		{
			name:    "blank name",
			body:    `{"name":"   "}`,
			wantErr: ErrValidation,
		},
		{
			name:    "reserved rune in name",
			body:    `{"name":"what?"}`,
			wantErr: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var input CreateCollectionRequest
			err := BindAndValidate(c, &input)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "stoics", input.Name)
		})
	}
}

// TestBindQueryAndValidate tests query binding and validation.
func TestBindQueryAndValidate(t *testing.T) {
	type queryStruct struct {
		Limit  int    `form:"limit" validate:"omitempty,gte=1,lte=100"`
		Cursor string `form:"cursor"`
	}

	tests := []struct {
		name    string
		query   string
		wantErr bool
		errType error
	}{
		{
			name:    "valid query",
			query:   "?limit=10&cursor=abc",
			wantErr: false,
		},
		{
			name:    "empty query",
			query:   "",
			wantErr: false,
		},
		{
			name:    "limit out of range",
			query:   "?limit=150",
			wantErr: true,
			errType: ErrValidation,
		},
		{
			name:    "negative limit",
			query:   "?limit=-1",
			wantErr: true,
			errType: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/path"+tt.query, nil)

			var input queryStruct
			err := BindQueryAndValidate(c, &input)

			if tt.wantErr {
				require.Error(t, err)
				if tt.errType != nil {
					require.ErrorIs(t, err, tt.errType)
				}
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestFieldErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		wantKeys []string
	}{
		{name: "collection name", input: &CreateCollectionRequest{Name: "a/b"}, wantKeys: []string{"name"}},
		{name: "import limit", input: &ImportRequest{Limit: 0}, wantKeys: []string{"limit"}},
		{name: "blank source name", input: &ImportRequest{Sources: []string{"quotable", ""}, Limit: 5}, wantKeys: []string{"sources[1]"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.input)
			require.Error(t, err)
			assert.True(t, HasFieldErrors(err))

			got := FieldErrors(err)
			assert.Len(t, got, len(tt.wantKeys))

			for _, key := range tt.wantKeys {
				assert.NotEmpty(t, got[key], key)
			}
		})
	}

	t.Run("other errors carry no fields", func(t *testing.T) {
		err := fmt.Errorf("%w: %w", ErrValidation, domain.NewValidationError("sources", "listed twice"))

		assert.False(t, HasFieldErrors(err))
		assert.False(t, HasFieldErrors(nil))
		assert.Empty(t, FieldErrors(err))
	})
}

func TestFieldMessage(t *testing.T) {
	type shelf struct {
		Name   string  `json:"name" validate:"required"`
		Shelf  string  `json:"collection" validate:"collection"`
		Count  int     `json:"count" validate:"min=1,max=10"`
		Weight float64 `json:"weight" validate:"min=0.5"`
		Order  string  `json:"order" validate:"oneof=asc desc"`
		Text   string  `json:"text" validate:"min=5,max=100"`
		Title  string  `json:"title" validate:"max=3"`
		Offset int     `json:"offset" validate:"gte=0,lte=120"`
		Floor  int     `json:"floor" validate:"gte=1"`
		Score  int     `json:"score" validate:"gt=0,lt=100"`
		Rank   int     `json:"rank" validate:"gt=0"`
		Author string  `json:"author" validate:"notempty"`
		Source string  `json:"source" validate:"uuid"`
	}

	// Every field fails its first failing rule.
	err := Validator().Struct(&shelf{
		Shelf:  "poems/2024",
		Count:  20,
		Weight: 0.1,
		Order:  "random",
		Text:   "abc",
		Title:  "Meditations",
		Offset: 150,
		Score:  150,
		Author: "  ",
		Source: "quotable",
	})
	require.Error(t, err)

	want := map[string]string{
		"name":       "this field is required",
		"collection": "must not contain / ? # % or control characters",
		"count":      "must be at most 10",
		"weight":     "must be at least 0.5",
		"order":      "must be one of: asc desc",
		"text":       "must be at least 5 characters",
		"title":      "must be at most 3 characters",
		"offset":     "must be less than or equal to 120",
		"floor":      "must be greater than or equal to 1",
		"score":      "must be less than 100",
		"rank":       "must be greater than 0",
		"author":     "must not be empty",
		"source":     "failed validation: uuid",
	}

	assert.Equal(t, want, FieldErrors(err))
}

func TestValidateCollectionName(t *testing.T) {
	type named struct {
		Name string `validate:"collection"`
	}

	tests := []struct {
		value string
		valid bool
	}{
		{value: "stoics", valid: true},
		{value: "Pensées de Pascal", valid: true},
		{value: "", valid: true},
		{value: "a/b"},
		{value: "what?"},
		{value: "#1"},
		{value: "100%"},
		{value: "tab\there"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.value), func(t *testing.T) {
			err := Validator().Struct(&named{Name: tt.value})
			assert.Equal(t, tt.valid, err == nil, "err: %v", err)
		})
	}
}

func TestValidateNotEmpty(t *testing.T) {
	type quoted struct {
		Text string `validate:"notempty"`
	}

	for value, valid := range map[string]bool{
		"Less is more.": true,
		"  padded  ":    true,
		"":              false,
		"   ":           false,
		"\t  \n":        false,
	} {
		err := Validator().Struct(&quoted{Text: value})
		assert.Equal(t, valid, err == nil, "%q: %v", value, err)
	}
}

type renameWithRule struct {
	DisplayName string `json:"display_name" validate:"required"`
}

func (r *renameWithRule) Validate() error {
	if r.DisplayName == "default" {
		return domain.NewValidationError("display_name", "is reserved")
	}

	return nil
}

func TestValidateAll(t *testing.T) {
	var _ Validatable = (*renameWithRule)(nil)

	tests := []struct {
		name        string
		input       any
		wantErr     bool
		wantDomain  bool
		wantTagFail bool
	}{
		{name: "passes both", input: &renameWithRule{DisplayName: "Poems"}},
		{name: "tag fails first", input: &renameWithRule{}, wantErr: true, wantTagFail: true},
		{name: "cross-field rule fails", input: &renameWithRule{DisplayName: "default"}, wantErr: true, wantDomain: true},
		{name: "not validatable", input: &CreateCollectionRequest{Name: "poems"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAll(tt.input)

			if !tt.wantErr {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, tt.wantDomain, domain.IsValidation(err))
			assert.Equal(t, tt.wantTagFail, HasFieldErrors(err))
		})
	}
}

// TestMapDomainError tests the status and envelope for each domain error.
func TestMapDomainError(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		status, resp := MapDomainError(nil)

		assert.Equal(t, http.StatusOK, status)
		assert.Nil(t, resp)
	})

	t.Run("validation details", func(t *testing.T) {
		status, resp := MapDomainError(domain.NewValidationError("limit", "must be between 1 and 50"))

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, map[string]string{"limit": "must be between 1 and 50"}, resp.Error.Details)
	})

	t.Run("unavailable details", func(t *testing.T) {
		status, resp := MapDomainError(domain.NewUnavailableError("quotable", "circuit open"))

		assert.Equal(t, http.StatusServiceUnavailable, status)
		assert.Equal(t, "quotable", resp.Error.Details["service"])
		assert.Equal(t, "circuit open", resp.Error.Details["reason"])
	})

	t.Run("wrapped not found", func(t *testing.T) {
		err := fmt.Errorf("loading: %w", domain.NewNotFoundError("collection", "poems"))

		status, resp := MapDomainError(err)

		assert.Equal(t, http.StatusNotFound, status)
		assert.Contains(t, resp.Error.Message, "poems")
	})

	t.Run("internal errors hide the cause", func(t *testing.T) {
		status, resp := MapDomainError(errors.New("secret detail"))

		assert.Equal(t, http.StatusInternalServerError, status)
		assert.NotContains(t, resp.Error.Message, "secret")
	})
}

// TestHandleBindError tests responses for binding and validation failures.
func TestHandleBindError(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantCode    string
		wantDetails map[string]string
	}{
		{
			name:     "malformed json",
			body:     `{"text":`,
			wantCode: ErrorCodeBadRequest,
		},
		{
			name:        "blank text",
			body:        `{"text":"   "}`,
			wantCode:    ErrorCodeValidation,
			wantDetails: map[string]string{"text": "must not be empty"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var req AddQuoteRequest
			err := BindAndValidate(c, &req)
			require.Error(t, err)

			HandleBindError(c, err)

			assert.Equal(t, http.StatusBadRequest, w.Code)

			var response ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tt.wantCode, response.Error.Code)

			if tt.wantDetails != nil {
				assert.Equal(t, tt.wantDetails, response.Error.Details)
			}
		})
	}
}

// TestLibraryRequests tests the validation rules of the quote API bodies.
func TestLibraryRequests(t *testing.T) {
	delta := -1

	tests := []struct {
		name    string
		req     any
		wantErr bool
	}{
		{name: "collection name", req: CreateCollectionRequest{Name: "poems"}},
		{name: "blank collection name", req: CreateCollectionRequest{Name: " "}, wantErr: true},
		{name: "long collection name", req: CreateCollectionRequest{Name: strings.Repeat("x", 65)}, wantErr: true},
		{name: "rename", req: RenameCollectionRequest{DisplayName: "Poems"}},
		{name: "negative rating", req: RateRequest{Delta: &delta}},
		{name: "missing rating", req: RateRequest{}, wantErr: true},
		{name: "quote text", req: AddQuoteRequest{Text: "Less is more."}},
		{name: "import all sources", req: ImportRequest{Limit: 5}},
		{name: "import limit too big", req: ImportRequest{Limit: 51}, wantErr: true},
		{name: "import blank source", req: ImportRequest{Limit: 5, Sources: []string{""}}, wantErr: true},
		{name: "collection name with slash", req: CreateCollectionRequest{Name: "a/b"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestBindAndValidate_Validatable tests that cross-field rules run after
// binding and answer with field details.
func TestBindAndValidate_Validatable(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"sources":["feed","feed"],"limit":3}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var req ImportRequest
	err := BindAndValidate(c, &req)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.True(t, domain.IsValidation(err))

	HandleBindError(c, err)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, ErrorCodeValidation, response.Error.Code)
	assert.Equal(t, map[string]string{"sources": "must not repeat a source"}, response.Error.Details)
}

// TestNoRouteAndNoMethod tests the envelopes for unmatched requests.
func TestNoRouteAndNoMethod(t *testing.T) {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.NoRoute(NoRoute)
	router.NoMethod(NoMethod)
	router.GET("/collections", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantCode   string
	}{
		{name: "no route", method: http.MethodGet, path: "/nope", wantStatus: http.StatusNotFound, wantCode: ErrorCodeRouteNotFound},
		{name: "no method", method: http.MethodDelete, path: "/collections", wantStatus: http.StatusMethodNotAllowed, wantCode: ErrorCodeMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.wantStatus, w.Code)

			var response ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tt.wantCode, response.Error.Code)
			assert.Contains(t, response.Error.Message, tt.path)
		})
	}
}
