package llm

import (
	"context"
	"log/slog"

	"github.com/pagelens/pagelens/config"
	"github.com/pagelens/pagelens/models"
)

// Reconciler walks the backend ladder until one attempt yields a report
// that survives parsing and repair. Attempts are sequential; the first
// success wins and the ladder never races backends against each other.
type Reconciler struct {
	client   *Client
	defaults []string
}

// NewReconciler creates a reconciler over the given client and the
// configured default backend ladder.
func NewReconciler(client *Client, cfg config.LLMConfig) *Reconciler {
	return &Reconciler{client: client, defaults: cfg.Models}
}

// Resolve generates a report for the prompt, trying the requested backend
// first and the defaults after it. It returns the normalized report and
// the name of the backend that produced it. The ladder advances only on
// generation failures; once a backend answers, its text is the winning
// attempt, and a parse that survives neither strict decoding nor repair
// is fatal rather than a reason to try another backend. When every
// backend fails to answer, the error carries every attempt's reason.
func (r *Reconciler) Resolve(ctx context.Context, prompt, requested string) (*models.Report, string, error) {
	ladder := buildLadder(requested, r.defaults)
	if len(ladder) == 0 {
		return nil, "", models.NewAuditError(models.ErrCodeLLMFailure, "no generation backends configured", nil)
	}

	var attempts []Attempt
	for _, backend := range ladder {
		if err := ctx.Err(); err != nil {
			attempts = append(attempts, Attempt{Backend: backend, Err: err})
			break
		}

		raw, err := r.client.Generate(ctx, backend, prompt)
		if err != nil {
			slog.Warn("generation attempt failed", "backend", backend, "error", err)
			attempts = append(attempts, Attempt{Backend: backend, Err: err})
			continue
		}

		report, err := parseReport(raw)
		if err != nil {
			slog.Warn("report parse failed", "backend", backend, "error", err)
			return nil, "", err
		}

		report.Normalize()
		slog.Info("report generated", "backend", backend, "categories", len(report.Categories))
		return report, backend, nil
	}

	return nil, "", models.NewAuditError(models.ErrCodeLLMExhausted,
		"report generation exhausted all backends", &LadderError{Attempts: attempts})
}
