package snapshot

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	tls "github.com/refraction-networking/utls"
	"golang.org/x/net/html"

	"github.com/pagelens/pagelens/config"
	"github.com/pagelens/pagelens/models"
)

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to
// http/1.1 only, so the server never negotiates HTTP/2 (which Go's
// http.Transport cannot frame over a utls connection). Computed once.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// Fetcher is the no-JavaScript fallback path: a plain GET with a Chrome TLS
// fingerprint and bounded timeout, parsing only static HTML. It never
// produces style analysis, stress tests, or mobile data.
type Fetcher struct {
	client *http.Client
	cfg    config.SnapshotConfig
}

// NewFetcher creates a Fetcher with a Chrome-like TLS fingerprint.
func NewFetcher(cfg config.SnapshotConfig) *Fetcher {
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
			if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
				conn.Close()
				return nil, fmt.Errorf("fetcher: apply tls spec: %w", err)
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2: false,
	}
	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		cfg: cfg,
	}
}

// Fetch retrieves targetURL without script execution and builds a snapshot
// with only the content summary populated.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*models.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, models.NewAuditError(models.ErrCodeInvalidInput, "fetcher: build request", err)
	}

	req.Header.Set("User-Agent", desktopUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, models.NewAuditError(models.ErrCodeFetchFailed, "fetcher: request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, models.NewAuditError(models.ErrCodeFetchFailed,
			fmt.Sprintf("fetcher: HTTP %d for %s", resp.StatusCode, targetURL), nil)
	}
	if ct := resp.Header.Get("Content-Type"); !isHTMLContentType(ct) {
		return nil, models.NewAuditError(models.ErrCodeFetchFailed,
			fmt.Sprintf("fetcher: non-html content-type %q", ct), nil)
	}

	// Read at most the HTML budget plus slack; the snapshot truncates to
	// the exact budget afterwards.
	limit := int64(f.cfg.MaxHTMLBytes) + 1<<20
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, models.NewAuditError(models.ErrCodeFetchFailed, "fetcher: read body", err)
	}

	rawHTML := truncate(string(body), f.cfg.MaxHTMLBytes)
	structured := ExtractDOM(rawHTML, f.cfg.MaxTextBytes)
	if structured.Title == "" {
		structured.Title = fallbackTitle(rawHTML)
	}
	return &models.Snapshot{
		URL:            targetURL,
		FinalURL:       resp.Request.URL.String(),
		FetchedAt:      time.Now().UTC(),
		FetchMethod:    "http",
		HTML:           rawHTML,
		StructuredData: structured,
	}, nil
}

func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}

// fallbackTitle finds the first <title> element with the HTML tokenizer.
// Cheaper than a DOM parse for markup ExtractDOM could not handle.
func fallbackTitle(htmlStr string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(htmlStr))
	inTitle := false
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			if string(tn) == "title" {
				inTitle = true
			}
		case html.TextToken:
			if inTitle {
				return strings.TrimSpace(string(tokenizer.Text()))
			}
		case html.EndTagToken:
			if inTitle {
				return ""
			}
		}
	}
}
