package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vanshika/chargeback/backend/internal/graph"
)

// HealthService defines behaviour for readiness checks.
type HealthService interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a ping function to HealthService.
type PingFunc func(ctx context.Context) error

// Ping implements HealthService.
func (f PingFunc) Ping(ctx context.Context) error {
	if f == nil {
		return nil
	}
	return f(ctx)
}

// GraphHealthService verifies evidence graph connectivity.
type GraphHealthService struct {
	Client graph.Client
}

// Ping implements the HealthService interface.
func (s GraphHealthService) Ping(ctx context.Context) error {
	if s.Client == nil {
		return nil
	}
	return s.Client.VerifyConnectivity(ctx)
}

// Check is one named dependency check.
type Check struct {
	Name    string
	Service HealthService
}

// CheckReport is the outcome of every check. Status is "ok" or the error text.
type CheckReport map[string]string

// Checks runs every dependency check concurrently.
type Checks []Check

// Ping implements HealthService; it fails when any dependency fails.
func (c Checks) Ping(ctx context.Context) error {
	_, err := c.Run(ctx)
	return err
}

// Run checks each dependency and returns the per-dependency report.
func (c Checks) Run(ctx context.Context) (CheckReport, error) {
	report := make(CheckReport, len(c))
	errs := make([]error, len(c))

	var wg sync.WaitGroup
	for i, check := range c {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if check.Service == nil {
				return
			}
			if err := check.Service.Ping(ctx); err != nil {
				errs[i] = fmt.Errorf("%s: %w", check.Name, err)
			}
		}()
	}
	wg.Wait()

	for i, check := range c {
		report[check.Name] = "ok"
		if errs[i] != nil {
			report[check.Name] = errors.Unwrap(errs[i]).Error()
		}
	}
	return report, errors.Join(errs...)
}
