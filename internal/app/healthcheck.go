package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/keelproject/keel/internal/boot"
	"github.com/keelproject/keel/internal/ctxlog"
)

// healthRoutes builds the handler serving liveness, readiness, the startup
// report and prometheus metrics.
func (a *App) healthRoutes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", a.handleHealthz)
	mux.HandleFunc("/readyz", a.handleReadyz)
	mux.HandleFunc("/startup", a.handleStartup)
	mux.Handle("/metrics", promhttp.HandlerFor(a.promRegistry, promhttp.HandlerOpts{}))
	return mux
}

// handleHealthz is the liveness probe: up as long as the process serves.
func (a *App) handleHealthz(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// handleReadyz flips to 200 once the bootstrap sequence reports ready.
func (a *App) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if !a.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintln(w, "starting")
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ready")
}

// handleStartup serves the last bootstrap report as JSON.
func (a *App) handleStartup(w http.ResponseWriter, r *http.Request) {
	if a.orch == nil {
		http.Error(w, "boot has not started", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(startupView(a.orch.Report())); err != nil {
		a.logger.Error("Failed to encode startup report", "error", err)
	}
}

// taskJSON is the wire shape of one bootstrap construction.
type taskJSON struct {
	Key      string `json:"key"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

type waveJSON struct {
	Wave     int        `json:"wave"`
	Duration string     `json:"duration"`
	Tasks    []taskJSON `json:"tasks,omitempty"`
}

type startupJSON struct {
	RunID              string     `json:"run_id"`
	Phase              string     `json:"phase"`
	StartedAt          time.Time  `json:"started_at"`
	TotalDuration      string     `json:"total_duration"`
	CriticalDuration   string     `json:"critical_duration"`
	BudgetExceeded     bool       `json:"critical_budget_exceeded"`
	Critical           []taskJSON `json:"critical,omitempty"`
	Waves              []waveJSON `json:"waves,omitempty"`
	BackgroundLaunched int        `json:"background_launched"`
	Failures           int        `json:"failures"`
}

// startupView flattens a report into its JSON shape; keys, durations and
// errors become strings.
func startupView(report boot.StartupReport) startupJSON {
	view := startupJSON{
		RunID:              report.RunID,
		Phase:              report.Phase.String(),
		StartedAt:          report.StartedAt,
		TotalDuration:      report.TotalDuration.String(),
		CriticalDuration:   report.CriticalDuration.String(),
		BudgetExceeded:     report.BudgetExceeded,
		BackgroundLaunched: report.BackgroundLaunched,
		Failures:           report.Failures(),
	}
	for _, rec := range report.Critical {
		view.Critical = append(view.Critical, taskView(rec))
	}
	for _, wave := range report.Parallel.Waves {
		wv := waveJSON{Wave: wave.Wave, Duration: wave.Duration.String()}
		for _, rec := range wave.Records {
			wv.Tasks = append(wv.Tasks, taskView(rec))
		}
		view.Waves = append(view.Waves, wv)
	}
	return view
}

func taskView(rec boot.TaskRecord) taskJSON {
	task := taskJSON{Key: rec.Key.String(), Duration: rec.Duration.String()}
	if rec.Err != nil {
		task.Error = rec.Err.Error()
	}
	return task
}

// startHealthcheckServer initializes and runs the health check HTTP server.
func (a *App) startHealthcheckServer(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Configuring health check server.")

	a.httpServer = &http.Server{
		Addr:    a.cfg.HealthcheckAddr,
		Handler: a.healthRoutes(),
	}

	go func() {
		logger.Info("🩺 Health check server starting", "address", a.cfg.HealthcheckAddr)
		// ListenAndServe returns ErrServerClosed on graceful shutdown; only
		// other errors are real failures.
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Health check server failed unexpectedly", "error", err)
		}
	}()
}

func (a *App) closeHealthcheckServer(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	if a.httpServer == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	logger.Info("🩺 Shutting down health check server...")
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Health check server shutdown failed", "error", err)
		return err
	}

	logger.Debug("Health check server shut down gracefully.")
	return nil
}
