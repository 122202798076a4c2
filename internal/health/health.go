// Package health provides liveness and readiness probes for the
// gateway.
package health

import (
	"context"
	"sync"
	"time"
)

// Status represents a probe status.
type Status string

const (
	// StatusOK indicates the check passed.
	StatusOK Status = "ok"
	// StatusError indicates the check failed.
	StatusError Status = "error"
)

// Check is an individual readiness check result.
type Check struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// LivenessResponse is the body served for liveness probes.
type LivenessResponse struct {
	Status  Status `json:"status"`
	Service string `json:"service"`
	Uptime  string `json:"uptime,omitempty"`
}

// ReadinessResponse is the body served for readiness probes.
type ReadinessResponse struct {
	Status    Status           `json:"status"`
	Checks    map[string]Check `json:"checks,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// CheckFunc probes a single dependency. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

// Checker aggregates dependency checks into probe responses.
type Checker struct {
	service   string
	startTime time.Time
	timeout   time.Duration

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// NewChecker creates a checker for the named service.
func NewChecker(service string) *Checker {
	return &Checker{
		service:   service,
		startTime: time.Now(),
		timeout:   5 * time.Second,
		checks:    make(map[string]CheckFunc),
	}
}

// RegisterCheck registers a named readiness check.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// UnregisterCheck removes a readiness check.
func (c *Checker) UnregisterCheck(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.checks, name)
}

// Liveness reports whether the process itself is up. It never consults
// dependencies.
func (c *Checker) Liveness() LivenessResponse {
	return LivenessResponse{
		Status:  StatusOK,
		Service: c.service,
		Uptime:  time.Since(c.startTime).Round(time.Second).String(),
	}
}

// Readiness runs every registered check. Any failing check marks the
// whole response as error.
func (c *Checker) Readiness(ctx context.Context) ReadinessResponse {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, fn := range c.checks {
		checks[name] = fn
	}
	c.mu.RUnlock()

	response := ReadinessResponse{
		Status:    StatusOK,
		Checks:    make(map[string]Check, len(checks)),
		Timestamp: time.Now(),
	}

	for name, fn := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := fn(checkCtx)
		cancel()

		if err != nil {
			response.Checks[name] = Check{Status: StatusError, Message: err.Error()}
			response.Status = StatusError
			continue
		}
		response.Checks[name] = Check{Status: StatusOK}
	}

	return response
}
