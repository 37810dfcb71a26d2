package snapshot

import (
	"context"
	"log/slog"
	"time"

	"github.com/pagelens/pagelens/config"
	"github.com/pagelens/pagelens/models"
)

// Orchestrator sequences the full-render capture pipeline and owns the
// fallback to the static Fetcher. It holds only configuration; each
// Capture launches its own isolated browser process and releases it on
// every exit path.
type Orchestrator struct {
	browserCfg config.BrowserConfig
	snapCfg    config.SnapshotConfig
	fetcher    *Fetcher
}

// NewOrchestrator creates an Orchestrator. No browser is launched until
// the first Capture.
func NewOrchestrator(browserCfg config.BrowserConfig, snapCfg config.SnapshotConfig) *Orchestrator {
	return &Orchestrator{
		browserCfg: browserCfg,
		snapCfg:    snapCfg,
		fetcher:    NewFetcher(snapCfg),
	}
}

// BrowserAvailable reports whether captures will attempt the render path.
func (o *Orchestrator) BrowserAvailable() bool {
	return !o.browserCfg.Disabled
}

// Capture renders url and extracts the snapshot. It does not fail for a
// reachable-but-hostile page: any full-render failure falls back to the
// static fetch, and only both paths failing surfaces an error.
func (o *Orchestrator) Capture(ctx context.Context, url string) (*models.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, o.snapCfg.CaptureTimeout)
	defer cancel()

	if !o.browserCfg.Disabled {
		snap, err := o.captureRendered(ctx, url)
		if err == nil {
			return snap, nil
		}
		slog.Warn("full render failed, falling back to static fetch",
			"url", url, "error", err)
	}

	snap, err := o.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// captureRendered runs the sequential browser pipeline. The steps share
// one page whose state (viewport, user agent, zoom) each step mutates for
// the next, so they must not be parallelised.
func (o *Orchestrator) captureRendered(ctx context.Context, url string) (*models.Snapshot, error) {
	s, err := newSession(o.browserCfg, o.snapCfg, url)
	if err != nil {
		return nil, err
	}
	defer s.close()

	// Navigation failing at all is the abort condition for the render
	// path; everything after this degrades per-stage instead.
	if err := s.navigate(ctx); err != nil {
		return nil, err
	}
	s.settle(ctx)
	s.autoScroll(ctx)

	rawHTML, err := s.html(ctx)
	if err != nil {
		return nil, err
	}

	snap := &models.Snapshot{
		URL:            url,
		FinalURL:       s.finalURL(),
		FetchedAt:      time.Now().UTC(),
		FetchMethod:    "browser",
		HTML:           rawHTML,
		StructuredData: ExtractDOM(rawHTML, o.snapCfg.MaxTextBytes),
	}

	if style, err := runStyleProbe(s.page.Context(ctx), o.snapCfg.MaxElements, desktopTargetMin); err != nil {
		slog.Warn("desktop style probe failed", "url", url, "error", err)
	} else {
		snap.StyleAnalysis = style
	}

	if o.snapCfg.Screenshots {
		snap.Screenshots = s.screenshots(ctx)
	}

	if reflow, err := s.runReflowTest(ctx); err != nil {
		slog.Warn("reflow test failed", "url", url, "error", err)
	} else {
		snap.ReflowTest = reflow
	}

	// Back to desktop conditions before the zoom measurement.
	if err := s.setDesktopEmulation(); err != nil {
		slog.Warn("failed to restore desktop viewport", "url", url, "error", err)
	} else {
		s.settle(ctx)
		if zoom, err := s.runZoomTest(ctx); err != nil {
			slog.Warn("zoom test failed", "url", url, "error", err)
		} else {
			snap.ZoomTest = zoom
		}
	}

	// Mobile pass last: it reloads the page, destroying the desktop DOM.
	// Failures here never abort the snapshot.
	if mobile, err := s.captureMobile(ctx); err != nil {
		slog.Warn("mobile capture failed entirely", "url", url, "error", err)
	} else {
		snap.MobileData = mobile
	}

	return snap, nil
}
