// Package audit orchestrates a full page audit: snapshot capture, external
// lab metrics, prompt compilation, and report reconciliation.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pagelens/pagelens/llm"
	"github.com/pagelens/pagelens/metrics"
	"github.com/pagelens/pagelens/models"
	"github.com/pagelens/pagelens/prompt"
	"github.com/pagelens/pagelens/snapshot"
)

// Service ties the pipeline stages together.
type Service struct {
	orchestrator *snapshot.Orchestrator
	metrics      *metrics.Client
	compiler     *prompt.Compiler
	reconciler   *llm.Reconciler
}

// NewService creates the audit service over its pipeline stages.
// metricsClient may have metrics disabled; the pipeline treats its
// result as optional either way.
func NewService(orch *snapshot.Orchestrator, metricsClient *metrics.Client, compiler *prompt.Compiler, reconciler *llm.Reconciler) *Service {
	return &Service{
		orchestrator: orch,
		metrics:      metricsClient,
		compiler:     compiler,
		reconciler:   reconciler,
	}
}

// Result is the outcome of a completed audit run.
type Result struct {
	Report      *models.Report
	Backend     string
	FetchMethod string
	Screenshots map[string]string
	Timing      models.TimingInfo
}

// Run executes the audit pipeline for the request.
//
// The snapshot capture and the external metrics fetch run concurrently:
// metrics come from a third-party endpoint and always resolve to a value
// or nil, never an error, so a metrics outage can slow an audit but not
// fail it. The snapshot is the authoritative input; its failure aborts
// the run.
func (s *Service) Run(ctx context.Context, req *models.AuditRequest) (*Result, error) {
	totalStart := time.Now()

	ctx, cancel := context.WithTimeout(ctx, time.Duration(req.Timeout)*time.Second)
	defer cancel()

	var (
		wg         sync.WaitGroup
		snap       *models.Snapshot
		snapErr    error
		snapMs     int64
		labMetrics *models.ExternalMetrics
		metricsMs  int64
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		start := time.Now()
		snap, snapErr = s.orchestrator.Capture(ctx, req.URL)
		snapMs = time.Since(start).Milliseconds()
	}()

	if s.metrics.Enabled() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			labMetrics = s.metrics.Fetch(ctx, req.URL)
			metricsMs = time.Since(start).Milliseconds()
		}()
	}

	wg.Wait()

	if snapErr != nil {
		return nil, snapErr
	}
	snap.ExternalMetrics = labMetrics

	compiled := s.compiler.Compile(req.URL, snap, req.AuditOptions)

	genStart := time.Now()
	report, backend, err := s.reconciler.Resolve(ctx, compiled, req.Model)
	generationMs := time.Since(genStart).Milliseconds()
	if err != nil {
		return nil, err
	}

	slog.Info("audit complete",
		"url", req.URL,
		"backend", backend,
		"fetch_method", snap.FetchMethod,
		"total_ms", time.Since(totalStart).Milliseconds())

	return &Result{
		Report:      report,
		Backend:     backend,
		FetchMethod: snap.FetchMethod,
		Screenshots: snap.Screenshots,
		Timing: models.TimingInfo{
			TotalMs:      time.Since(totalStart).Milliseconds(),
			SnapshotMs:   snapMs,
			MetricsMs:    metricsMs,
			GenerationMs: generationMs,
		},
	}, nil
}

// Snapshot captures a page without running the generation stage.
func (s *Service) Snapshot(ctx context.Context, req *models.SnapshotRequest) (*models.Snapshot, models.TimingInfo, error) {
	totalStart := time.Now()

	ctx, cancel := context.WithTimeout(ctx, time.Duration(req.Timeout)*time.Second)
	defer cancel()

	snap, err := s.orchestrator.Capture(ctx, req.URL)
	timing := models.TimingInfo{
		TotalMs:    time.Since(totalStart).Milliseconds(),
		SnapshotMs: time.Since(totalStart).Milliseconds(),
	}
	if err != nil {
		return nil, timing, err
	}
	return snap, timing, nil
}

// BrowserAvailable reports whether rendered capture is possible.
func (s *Service) BrowserAvailable() bool {
	return s.orchestrator.BrowserAvailable()
}
