package ports

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrDuplicateChecker is returned when attempting to register a health checker
// with a name that is already registered.
var ErrDuplicateChecker = errors.New("duplicate health checker")

// HealthChecker is implemented by components that can report their health:
// the integrity checks over the quote library and the remote quote sources.
type HealthChecker interface {
	// Name returns a unique identifier for this health check.
	Name() string

	// Check returns nil when the component is healthy. Implementations
	// should respect ctx.
	Check(ctx context.Context) error
}

// Advisory is implemented by checkers whose failure degrades qpq without
// making it unready. Remote quote sources are advisory: the library keeps
// serving while a source is down.
type Advisory interface {
	Advisory() bool
}

// HealthRegistry aggregates health checks. It backs both GET /-/ready and
// the check command.
type HealthRegistry interface {
	// Register adds a health checker to the registry.
	// Returns an error if a checker with the same name is already registered.
	Register(checker HealthChecker) error

	// CheckAll runs all registered health checks concurrently and returns
	// the aggregated result.
	CheckAll(ctx context.Context) *HealthResult
}

// HealthStatus represents a health state.
type HealthStatus string

const (
	// HealthStatusHealthy indicates all checks passed.
	HealthStatusHealthy HealthStatus = "healthy"

	// HealthStatusDegraded indicates only advisory checks failed.
	HealthStatusDegraded HealthStatus = "degraded"

	// HealthStatusUnhealthy indicates a critical check failed.
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResult contains the aggregated health check results.
type HealthResult struct {
	Status    HealthStatus            `json:"status"`
	Checks    map[string]*CheckResult `json:"checks"`
	Timestamp time.Time               `json:"timestamp"`
}

// CheckResult contains the result of a single health check. A failed
// check is unhealthy whether or not it is advisory.
type CheckResult struct {
	Status   HealthStatus  `json:"status"`
	Message  string        `json:"message,omitempty"`
	Advisory bool          `json:"advisory,omitempty"`
	Duration time.Duration `json:"duration"`
}

// CheckFunc adapts a function to HealthChecker.
type CheckFunc struct {
	name     string
	advisory bool
	check    func(ctx context.Context) error
}

// NewCheck creates a named critical HealthChecker from fn.
func NewCheck(name string, fn func(ctx context.Context) error) *CheckFunc {
	return &CheckFunc{name: name, check: fn}
}

// NewAdvisoryCheck creates a named HealthChecker from fn whose failure
// only degrades the result.
func NewAdvisoryCheck(name string, fn func(ctx context.Context) error) *CheckFunc {
	return &CheckFunc{name: name, advisory: true, check: fn}
}

// Name implements HealthChecker.
func (c *CheckFunc) Name() string {
	return c.name
}

// Check implements HealthChecker.
func (c *CheckFunc) Check(ctx context.Context) error {
	return c.check(ctx)
}

// Advisory implements Advisory.
func (c *CheckFunc) Advisory() bool {
	return c.advisory
}

// Names returns the names of all checks in the result, sorted.
func (r *HealthResult) Names() []string {
	names := make([]string, 0, len(r.Checks))
	for name := range r.Checks {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Healthy reports whether every check passed.
func (r *HealthResult) Healthy() bool {
	return r.Status == HealthStatusHealthy
}

// Ready reports whether every critical check passed.
func (r *HealthResult) Ready() bool {
	return r.Status != HealthStatusUnhealthy
}

// add records one check and lowers the overall status as needed.
func (r *HealthResult) add(name string, check *CheckResult) {
	r.Checks[name] = check

	switch {
	case check.Status == HealthStatusHealthy:
	case !check.Advisory:
		r.Status = HealthStatusUnhealthy
	case r.Status == HealthStatusHealthy:
		r.Status = HealthStatusDegraded
	}
}

// DefaultHealthRegistry is a thread-safe implementation of HealthRegistry.
type DefaultHealthRegistry struct {
	mu       sync.RWMutex
	checkers []HealthChecker
}

// NewHealthRegistry creates a new health registry.
func NewHealthRegistry() *DefaultHealthRegistry {
	return &DefaultHealthRegistry{}
}

// Register adds a health checker to the registry.
// Returns an error if a checker with the same name is already registered.
func (r *DefaultHealthRegistry) Register(checker HealthChecker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := checker.Name()
	if slices.ContainsFunc(r.checkers, func(c HealthChecker) bool { return c.Name() == name }) {
		return fmt.Errorf("%w: %s", ErrDuplicateChecker, name)
	}

	r.checkers = append(r.checkers, checker)

	return nil
}

// CheckAll runs all registered health checks concurrently.
func (r *DefaultHealthRegistry) CheckAll(ctx context.Context) *HealthResult {
	r.mu.RLock()
	checkers := slices.Clone(r.checkers)
	r.mu.RUnlock()

	checks := make([]*CheckResult, len(checkers))

	// Checks never fail the group; their errors land in the result.
	var g errgroup.Group

	for i, checker := range checkers {
		g.Go(func() error {
			checks[i] = runCheck(ctx, checker)
			return nil
		})
	}

	_ = g.Wait()

	result := &HealthResult{
		Status:    HealthStatusHealthy,
		Checks:    make(map[string]*CheckResult, len(checkers)),
		Timestamp: time.Now(),
	}

	for i, checker := range checkers {
		result.add(checker.Name(), checks[i])
	}

	return result
}

func runCheck(ctx context.Context, checker HealthChecker) *CheckResult {
	start := time.Now()
	err := checker.Check(ctx)

	check := &CheckResult{
		Status:   HealthStatusHealthy,
		Duration: time.Since(start),
	}

	if a, ok := checker.(Advisory); ok {
		check.Advisory = a.Advisory()
	}

	if err != nil {
		check.Status = HealthStatusUnhealthy
		check.Message = err.Error()
	}

	return check
}
