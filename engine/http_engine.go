package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	tls "github.com/refraction-networking/utls"
	"github.com/use-agent/lpcheck/dom"
	"github.com/use-agent/lpcheck/models"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// HTTPEngine fetches the page with a single GET and derives fragments from
// the static markup. It does not run JavaScript, so it only finds figures
// that the server renders.
type HTTPEngine struct {
	client         *http.Client
	scope          string
	acceptLanguage string
}

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	// Go's http.Transport cannot speak h2 over a utls connection.
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// HTTPOption configures an HTTPEngine.
type HTTPOption func(*HTTPEngine)

// WithScope limits fragment collection to elements matching selector.
func WithScope(selector string) HTTPOption {
	return func(e *HTTPEngine) { e.scope = selector }
}

// WithAcceptLanguage sets the Accept-Language request header.
func WithAcceptLanguage(v string) HTTPOption {
	return func(e *HTTPEngine) { e.acceptLanguage = v }
}

// WithProxy routes requests through an http(s) proxy.
func WithProxy(proxy string) HTTPOption {
	return func(e *HTTPEngine) {
		u, err := url.Parse(proxy)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			slog.Warn("http engine: ignoring unsupported proxy", "proxy", proxy)
			return
		}
		if t, ok := e.client.Transport.(*http.Transport); ok {
			t.Proxy = http.ProxyURL(u)
		}
	}
}

// NewHTTPEngine creates an HTTPEngine with a Chrome-like TLS fingerprint.
func NewHTTPEngine(timeout time.Duration, opts ...HTTPOption) *HTTPEngine {
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
				return nil, fmt.Errorf("http_engine: apply tls spec: %w", err)
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2: false,
	}
	e := &HTTPEngine{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *HTTPEngine) Name() string { return "http" }

func (e *HTTPEngine) Render(ctx context.Context, targetURL string) (*models.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "invalid position URL", err)
	}
	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "identity")
	if e.acceptLanguage != "" {
		req.Header.Set("Accept-Language", e.acceptLanguage)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, classify(err, "fetching position page failed")
	}
	defer resp.Body.Close()

	const maxBody = 10 << 20
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, classify(err, "reading position page failed")
	}

	ct := resp.Header.Get("Content-Type")
	if resp.StatusCode >= 400 || !isHTMLContentType(ct) {
		return nil, models.NewScrapeError(
			models.ErrCodeNavigation,
			fmt.Sprintf("position page returned status %d (content-type: %s)", resp.StatusCode, ct),
			nil,
		)
	}

	markup := string(body)
	if dom.NeedsBrowser(markup) {
		slog.Warn("page looks client-rendered; figures may be missing without the browser engine",
			"url", targetURL,
			"title", dom.Title(markup),
		)
	}

	fragments, err := dom.Fragments(markup, e.scope)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "collecting page text failed", err)
	}

	return &models.Snapshot{
		URL:       resp.Request.URL.String(),
		Markup:    markup,
		Fragments: fragments,
		Engine:    e.Name(),
		FetchedAt: time.Now(),
	}, nil
}

// isHTMLContentType returns true if the content-type header looks like HTML.
func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}
