package snapshot

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/pagelens/pagelens/config"
	"github.com/pagelens/pagelens/models"
)

const (
	desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	mobileUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

	desktopWidth  = 1366
	desktopHeight = 768
	reflowWidth   = 320
	mobileWidth   = 390
	mobileHeight  = 844
)

// session owns one browser process and one page for the duration of a
// single capture. The steps that run against it are strictly sequential:
// each mutates shared page state (viewport, user agent, zoom) that the
// next step depends on.
type session struct {
	browser *rod.Browser
	cleanup func()
	page    *rod.Page
	cfg     config.SnapshotConfig
	url     string
}

// newSession launches an isolated headless browser and opens one page with
// the desktop viewport and user agent applied. The caller must invoke
// close() on every exit path.
func newSession(browserCfg config.BrowserConfig, snapCfg config.SnapshotConfig, url string) (*session, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewAuditError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, models.NewAuditError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	s := &session{
		browser: browser,
		cleanup: func() {
			_ = browser.Close()
			l.Kill()
		},
		cfg: snapCfg,
		url: url,
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		s.close()
		return nil, models.NewAuditError(models.ErrCodeBrowserCrash, "failed to create page", err)
	}
	s.page = page

	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
	}

	if err := s.setDesktopEmulation(); err != nil {
		s.close()
		return nil, err
	}

	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: proto.NetworkHeaders{
			"Accept-Language": gson.New("en-US,en;q=0.9"),
		},
	}.Call(page)

	return s, nil
}

// close tears down the page and kills the browser process. Safe to call
// more than once; the capture defers it so no exit path leaks a process.
func (s *session) close() {
	if s.cleanup == nil {
		return
	}
	cleanup := s.cleanup
	s.cleanup = nil
	cleanup()
}

func (s *session) setDesktopEmulation() error {
	if err := s.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: desktopUA}); err != nil {
		return models.NewAuditError(models.ErrCodeBrowserCrash, "failed to set user agent", err)
	}
	return s.setViewport(desktopWidth, desktopHeight, false)
}

func (s *session) setViewport(width, height int, mobile bool) error {
	scale := 1.0
	if mobile {
		scale = 3.0
	}
	err := s.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: scale,
		Mobile:            mobile,
	})
	if err != nil {
		return models.NewAuditError(models.ErrCodeBrowserCrash, "failed to set viewport", err)
	}
	return nil
}

// navigate loads the target URL with the two-tier wait strategy: a bounded
// "network idle" wait first, then a DOM-stable wait as fallback. Neither
// converging is tolerated; the capture proceeds with whatever loaded.
func (s *session) navigate(ctx context.Context) error {
	p := s.page.Context(ctx)
	if err := p.Navigate(s.url); err != nil {
		return models.NewAuditError(models.ErrCodeNavigation, "navigation to target URL failed", err)
	}
	s.waitLoaded(ctx)
	return nil
}

func (s *session) waitLoaded(ctx context.Context) {
	idleCtx, cancel := context.WithTimeout(ctx, s.cfg.NetworkIdleTimeout)
	defer cancel()

	wait := s.page.Context(idleCtx).WaitRequestIdle(500*time.Millisecond, nil, nil, nil)
	wait()
	if idleCtx.Err() == nil {
		return
	}

	if err := s.page.Context(ctx).WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("DOM did not stabilise, proceeding with current state",
			"url", s.url, "error", err)
	}
}

// settle pauses for the fixed delay, letting late paints and font swaps land.
func (s *session) settle(ctx context.Context) {
	select {
	case <-time.After(s.cfg.SettleDelay):
	case <-ctx.Done():
	}
}

// autoScrollJS scrolls to the bottom in viewport-sized steps and back to
// the top, resolving once the return scroll has completed. Triggers
// lazy-loaded content before extraction.
const autoScrollJS = `() => new Promise((resolve) => {
	const step = window.innerHeight;
	let last = -1;
	const down = () => {
		window.scrollBy(0, step);
		const y = window.scrollY;
		if (y === last || y + window.innerHeight >= document.documentElement.scrollHeight) {
			window.scrollTo(0, 0);
			setTimeout(resolve, 150);
			return;
		}
		last = y;
		setTimeout(down, 120);
	};
	down();
})`

func (s *session) autoScroll(ctx context.Context) {
	if _, err := s.page.Context(ctx).Eval(autoScrollJS); err != nil {
		slog.Debug("auto-scroll failed, proceeding without lazy-load trigger",
			"url", s.url, "error", err)
	}
}

// html returns the current markup, truncated to the configured byte budget.
func (s *session) html(ctx context.Context) (string, error) {
	raw, err := s.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("extract html: %w", err)
	}
	return truncate(raw, s.cfg.MaxHTMLBytes), nil
}

// emulateMobile switches to the phone user agent and viewport and reloads
// so the page re-renders against the mobile conditions, then settles and
// re-runs the lazy-load scroll.
func (s *session) emulateMobile(ctx context.Context) error {
	if err := s.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: mobileUA}); err != nil {
		return fmt.Errorf("set mobile user agent: %w", err)
	}
	if err := s.setViewport(mobileWidth, mobileHeight, true); err != nil {
		return err
	}

	p := s.page.Context(ctx)
	if err := p.Reload(); err != nil {
		return fmt.Errorf("mobile reload: %w", err)
	}
	s.waitLoaded(ctx)
	s.settle(ctx)
	s.autoScroll(ctx)
	return nil
}

// screenshotSelectors are the per-selector artifacts captured alongside the
// full-page shot, when present on the page.
var screenshotSelectors = []string{"header", "nav", "main", "footer"}

// screenshots captures the full page plus any matching selector regions as
// base64-encoded PNG strings. Entirely best-effort: failures log and skip.
func (s *session) screenshots(ctx context.Context) map[string]string {
	p := s.page.Context(ctx)
	shots := make(map[string]string)

	if data, err := p.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	}); err == nil {
		shots["fullpage"] = base64.StdEncoding.EncodeToString(data)
	} else {
		slog.Debug("full-page screenshot failed", "url", s.url, "error", err)
	}

	for _, sel := range screenshotSelectors {
		has, el, err := p.Has(sel)
		if err != nil || !has {
			continue
		}
		data, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
		if err != nil {
			slog.Debug("selector screenshot failed", "selector", sel, "error", err)
			continue
		}
		shots[sel] = base64.StdEncoding.EncodeToString(data)
	}

	if len(shots) == 0 {
		return nil
	}
	return shots
}

// finalURL reports the post-redirect location, falling back to the request URL.
func (s *session) finalURL() string {
	res, err := s.page.Eval(`() => window.location.href`)
	if err != nil {
		return s.url
	}
	if href := res.Value.Str(); href != "" {
		return href
	}
	return s.url
}
