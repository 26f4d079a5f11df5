package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-portal/internal/observability"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

type dependency struct {
	name     string
	pinger   Pinger
	critical bool
}

// HealthHandler serves liveness, readiness and the metrics snapshot.
type HealthHandler struct {
	service string
	version string
	deps    []dependency
	metrics *observability.Metrics
}

// NewHealthHandler checks postgres as a hard dependency and redis as a soft
// one: the login throttle fails open without it.
func NewHealthHandler(service, version string, postgres, redis Pinger, metrics *observability.Metrics) *HealthHandler {
	return &HealthHandler{
		service: service,
		version: version,
		deps: []dependency{
			{name: "postgres", pinger: postgres, critical: true},
			{name: "redis", pinger: redis},
		},
		metrics: metrics,
	}
}

func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "alive", "service": h.service, "version": h.version})
}

// Ready pings every dependency concurrently. A failed critical dependency
// answers 503; a failed soft one reports "degraded".
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	results := make([]error, len(h.deps))
	var wg sync.WaitGroup
	for i, dep := range h.deps {
		wg.Add(1)
		go func(i int, p Pinger) {
			defer wg.Done()
			results[i] = p.Ping(ctx)
		}(i, dep.pinger)
	}
	wg.Wait()

	report := fiber.Map{}
	status := "ready"
	for i, dep := range h.deps {
		if results[i] == nil {
			report[dep.name] = "ok"
			continue
		}
		report[dep.name] = results[i].Error()
		if dep.critical {
			status = "unavailable"
		} else if status == "ready" {
			status = "degraded"
		}
	}

	if status == "unavailable" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "DEPENDENCY_UNAVAILABLE",
				"message": "a required dependency is unavailable",
				"details": report,
			},
		})
	}
	return c.JSON(fiber.Map{"status": status, "dependencies": report})
}

// Metrics returns the in-memory counters.
func (h *HealthHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}
