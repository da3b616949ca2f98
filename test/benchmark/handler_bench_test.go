package benchmark

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	httpAdapter "github.com/jsamuelsen/quid-pro-quote/internal/adapters/http"
	"github.com/jsamuelsen/quid-pro-quote/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quid-pro-quote/internal/app"
	"github.com/jsamuelsen/quid-pro-quote/internal/domain"
	"github.com/jsamuelsen/quid-pro-quote/internal/platform/config"
	"github.com/jsamuelsen/quid-pro-quote/internal/ports"
)

// libraryQuotes is the size of the default collection in the benchmarks.
const libraryQuotes = 1000

func init() {
	// Set Gin to release mode for accurate benchmarks
	gin.SetMode(gin.ReleaseMode)
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// createGinContext creates a Gin context for handler testing.
func createGinContext(w http.ResponseWriter, r *http.Request) *gin.Context {
	c, _ := gin.CreateTestContext(w)
	c.Request = r
	return c
}

// setupService creates a service whose default collection holds
// libraryQuotes quotes.
func setupService(b *testing.B) *app.QuoteService {
	b.Helper()

	service := app.NewQuoteService(app.QuoteServiceConfig{
		Manager: domain.NewManager(),
		Logger:  discard,
	})

	texts := make([]string, libraryQuotes)
	for i := range texts {
		texts[i] = fmt.Sprintf("quote number %d", i)
	}

	if err := service.Seed(context.Background(), map[string][]string{domain.DefaultCollectionName: texts}); err != nil {
		b.Fatal(err)
	}

	return service
}

// setupHealthHandler creates a HealthHandler running the library checks.
func setupHealthHandler(b *testing.B) *handlers.HealthHandler {
	b.Helper()

	registry := ports.NewHealthRegistry()
	if err := setupService(b).RegisterHealthChecks(registry); err != nil {
		b.Fatal(err)
	}

	buildInfo := handlers.NewBuildInfo("1.0.0", "abc123", "2024-01-01T00:00:00Z")
	return handlers.NewHealthHandler(registry, buildInfo, nil)
}

// setupRouter serves the library through the production middleware chain.
func setupRouter(b *testing.B) *gin.Engine {
	b.Helper()

	service := setupService(b)

	registry := ports.NewHealthRegistry()
	if err := service.RegisterHealthChecks(registry); err != nil {
		b.Fatal(err)
	}

	router := gin.New()
	httpAdapter.SetupRouter(router, httpAdapter.NewDefaultRouterConfig(
		discard,
		&config.AppConfig{Name: "qpq-bench"},
		nil,
		handlers.NewHealthHandler(registry, handlers.BuildInfo{}, nil),
		handlers.NewLibraryHandler(service),
	))

	return router
}

// BenchmarkLivenessHandler measures the performance of the liveness endpoint.
// This is a critical path for Kubernetes probes and should be extremely fast.
func BenchmarkLivenessHandler(b *testing.B) {
	handler := setupHealthHandler(b)
	req := httptest.NewRequest(http.MethodGet, "/-/live", http.NoBody)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		c := createGinContext(w, req)
		handler.Liveness(c)
	}
}

// BenchmarkReadinessHandler measures readiness with the library integrity
// checks, which walk every quote.
func BenchmarkReadinessHandler(b *testing.B) {
	handler := setupHealthHandler(b)
	req := httptest.NewRequest(http.MethodGet, "/-/ready", http.NoBody)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		c := createGinContext(w, req)
		handler.Readiness(c)
	}
}

// BenchmarkGetQuote measures a single quote lookup through the full
// middleware chain.
func BenchmarkGetQuote(b *testing.B) {
	router := setupRouter(b)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/collections/default/quotes/500", http.NoBody)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}
}

// BenchmarkListQuotes measures one page of a large collection.
func BenchmarkListQuotes(b *testing.B) {
	router := setupRouter(b)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/collections/default/quotes?limit=50", http.NoBody)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}
}

// BenchmarkRateQuote measures a write, including event staging.
func BenchmarkRateQuote(b *testing.B) {
	router := setupRouter(b)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/collections/default/quotes/7/rating", strings.NewReader(`{"delta":1}`))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}
}

// BenchmarkRandomQuote measures the random pick under parallel load, which
// contends on the service lock.
func BenchmarkRandomQuote(b *testing.B) {
	service := setupService(b)
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := service.RandomQuote(ctx, ""); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
