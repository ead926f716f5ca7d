package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Checker is a function that checks the health of a dependency.
type Checker func(ctx context.Context) error

// Status represents the health status of a component.
type Status string

const (
	StatusUp       Status = "up"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// DefaultTimeout bounds a full Run when the caller's context has no deadline.
const DefaultTimeout = 5 * time.Second

// Report is the aggregated result of one Run.
type Report struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the result of a single health check.
type CheckResult struct {
	Status   Status        `json:"status"`
	Critical bool          `json:"critical"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Names returns the check names in sorted order.
func (r Report) Names() []string {
	names := make([]string, 0, len(r.Checks))
	for name := range r.Checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type registration struct {
	check    Checker
	critical bool
}

// Registry holds named checkers. A failing critical check marks the report
// down; a failing non-critical one only degrades it.
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]registration
	now      func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		checkers: make(map[string]registration),
		now:      time.Now,
	}
}

// Register adds a critical checker. Registering a name twice replaces it.
func (r *Registry) Register(name string, check Checker) {
	r.RegisterCritical(name, check)
}

// RegisterCritical adds a checker whose failure marks the report down.
func (r *Registry) RegisterCritical(name string, check Checker) {
	r.add(name, check, true)
}

// RegisterNonCritical adds a checker whose failure only degrades the report.
func (r *Registry) RegisterNonCritical(name string, check Checker) {
	r.add(name, check, false)
}

func (r *Registry) add(name string, check Checker, critical bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = registration{check: check, critical: critical}
}

// Run executes every checker concurrently and aggregates the outcome.
func (r *Registry) Run(ctx context.Context) Report {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	r.mu.RLock()
	checkers := make(map[string]registration, len(r.checkers))
	for k, v := range r.checkers {
		checkers[k] = v
	}
	r.mu.RUnlock()

	var (
		mu     sync.Mutex
		checks = make(map[string]CheckResult, len(checkers))
		g      errgroup.Group
	)
	for name, reg := range checkers {
		g.Go(func() error {
			start := time.Now()
			err := reg.check(ctx)
			res := CheckResult{Status: StatusUp, Critical: reg.critical, Duration: time.Since(start)}
			if err != nil {
				res.Status = StatusDown
				res.Error = err.Error()
			}
			mu.Lock()
			checks[name] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	overall := StatusUp
	for _, c := range checks {
		if c.Status != StatusDown {
			continue
		}
		if c.Critical {
			overall = StatusDown
			break
		}
		overall = StatusDegraded
	}

	return Report{
		Status:    overall,
		Timestamp: r.now().UTC(),
		Checks:    checks,
	}
}
