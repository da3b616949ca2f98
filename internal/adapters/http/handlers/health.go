// Package handlers serves the qpq HTTP API and the operational /-/ routes.
package handlers

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jsamuelsen/quid-pro-quote/internal/ports"
)

// BuildInfo contains build-time information about qpq, injected with
// ldflags.
type BuildInfo struct {
	// Version is the semantic version of qpq.
	Version string `json:"version"`

	// Commit is the git commit SHA.
	Commit string `json:"commit"`

	// BuildTime is the timestamp when the binary was built.
	BuildTime string `json:"buildTime"`

	// GoVersion is the Go version used to build the binary.
	GoVersion string `json:"goVersion"`
}

// NewBuildInfo creates a BuildInfo with the Go version automatically set.
func NewBuildInfo(version, commit, buildTime string) BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
}

// HealthHandler handles health-related HTTP endpoints.
type HealthHandler struct {
	registry  ports.HealthRegistry
	buildInfo BuildInfo
	gatherer  prometheus.Gatherer
}

// NewHealthHandler creates a new health handler. /-/metrics serves
// gatherer, or the default registry when it is nil.
func NewHealthHandler(registry ports.HealthRegistry, buildInfo BuildInfo, gatherer prometheus.Gatherer) *HealthHandler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	return &HealthHandler{
		registry:  registry,
		buildInfo: buildInfo,
		gatherer:  gatherer,
	}
}

// OpsPrefix is the group of the operational routes. They carry no auth and
// no timeout, and the request logger skips them.
const OpsPrefix = "/-"

type livenessResponse struct {
	Status string `json:"status"`
}

// Liveness answers 200 while the process runs and checks nothing.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, livenessResponse{Status: "ok"})
}

type readinessResponse struct {
	Status  ports.HealthStatus            `json:"status"`
	Checks  map[string]*ports.CheckResult `json:"checks,omitempty"`
	Failing []string                      `json:"failing,omitempty"`
}

// Readiness runs the integrity and source checks. A failed critical check
// answers 503. Failed advisory checks, the sources and the default
// collection, leave qpq ready but degraded.
func (h *HealthHandler) Readiness(c *gin.Context) {
	result := h.registry.CheckAll(c.Request.Context())

	resp := readinessResponse{
		Status: result.Status,
		Checks: result.Checks,
	}

	for _, name := range result.Names() {
		if result.Checks[name].Status != ports.HealthStatusHealthy {
			resp.Failing = append(resp.Failing, name)
		}
	}

	status := http.StatusOK
	if !result.Ready() {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, resp)
}

// Build answers the version, commit and build time of the binary.
func (h *HealthHandler) Build(c *gin.Context) {
	c.JSON(http.StatusOK, h.buildInfo)
}

// MetricsHandler returns the Prometheus exposition handler for the
// handler's gatherer.
func (h *HealthHandler) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})
}

// Register mounts the operational routes under OpsPrefix:
//
//	GET /-/live     liveness
//	GET /-/ready    readiness
//	GET /-/build    build information
//	GET /-/metrics  Prometheus exposition
func (h *HealthHandler) Register(engine *gin.Engine) {
	ops := engine.Group(OpsPrefix)

	ops.GET("/live", h.Liveness)
	ops.GET("/ready", h.Readiness)
	ops.GET("/build", h.Build)
	ops.GET("/metrics", gin.WrapH(h.MetricsHandler()))
}
