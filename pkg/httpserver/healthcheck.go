package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/dmitrymomot/authz/pkg/logger"
)

// Check tests one dependency.
type Check func(context.Context) error

// HealthReport is the readiness response body.
type HealthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LivenessHandler always answers 200.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeReport(w, http.StatusOK, HealthReport{Status: "alive"})
	}
}

// ReadinessHandler runs every check concurrently, each bounded by timeout,
// and answers 503 when any of them fails.
func ReadinessHandler(log *slog.Logger, timeout time.Duration, checks map[string]Check) http.HandlerFunc {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		results := make([]error, len(names))
		var wg sync.WaitGroup
		for i, name := range names {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i] = checks[name](ctx)
			}()
		}
		wg.Wait()

		report := HealthReport{Status: "ready", Checks: make(map[string]string, len(names))}
		status := http.StatusOK
		for i, name := range names {
			if err := results[i]; err != nil {
				log.ErrorContext(ctx, "readiness check failed", slog.String("check", name), logger.Error(err))
				report.Checks[name] = "fail"
				report.Status = "not_ready"
				status = http.StatusServiceUnavailable
				continue
			}
			report.Checks[name] = "ok"
		}
		writeReport(w, status, report)
	}
}

func writeReport(w http.ResponseWriter, status int, report HealthReport) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(report)
}
