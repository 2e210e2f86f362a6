// Package fetch retrieves XML documents over an ordered list of network
// strategies: the direct request (through the local reverse proxy for hosts
// that need it) and then a public CORS proxy.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"

	"github.com/lysyi3m/nse-pulse/app/proxy"
	"github.com/lysyi3m/nse-pulse/app/value"
)

const maxBodySize = 32 << 20

// Strategy is one way of obtaining the body behind a URL.
type Strategy struct {
	Name  string
	Fetch func(ctx context.Context, rawURL string) ([]byte, error)
}

type Options struct {
	HTTPClient *http.Client
	Routes     *proxy.Table
	LocalBase  string
	ProxyURL   string
	UserAgent  string
	Timeout    time.Duration
}

type Pipeline struct {
	httpClient *http.Client
	routes     *proxy.Table
	localBase  string
	proxyURL   string
	userAgent  string
	timeout    time.Duration
	strategies []Strategy
}

func NewPipeline(opts Options) *Pipeline {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	p := &Pipeline{
		httpClient: httpClient,
		routes:     opts.Routes,
		localBase:  opts.LocalBase,
		proxyURL:   opts.ProxyURL,
		userAgent:  opts.UserAgent,
		timeout:    opts.Timeout,
	}

	p.strategies = []Strategy{
		{Name: "direct", Fetch: p.fetchDirect},
	}
	if p.proxyURL != "" {
		p.strategies = append(p.strategies, Strategy{Name: "public-proxy", Fetch: p.fetchViaPublicProxy})
	}

	return p
}

// Document is a fetched body together with its canonical value.
type Document struct {
	URL   string
	Body  []byte
	Value value.Value
}

// Fetch returns the canonical value of the XML document behind rawURL. A
// body that fails to parse counts as a failed attempt.
func (p *Pipeline) Fetch(ctx context.Context, rawURL string) (value.Value, error) {
	doc, err := p.FetchDocument(ctx, rawURL)
	if err != nil {
		return value.Value{}, err
	}
	return doc.Value, nil
}

// FetchDocument is Fetch keeping the raw body, for consumers that also sniff
// the feed header.
func (p *Pipeline) FetchDocument(ctx context.Context, rawURL string) (Document, error) {
	return run(ctx, p.strategies, rawURL, func(body []byte) (Document, error) {
		v, err := value.Parse(body)
		if err != nil {
			return Document{}, err
		}
		return Document{URL: rawURL, Body: body, Value: v}, nil
	})
}

// run tries each strategy in order. The first one whose body decodes wins;
// the failure of the last strategy is terminal.
func run[T any](ctx context.Context, strategies []Strategy, rawURL string, decode func([]byte) (T, error)) (T, error) {
	var zero T
	var earlier []error

	for i, s := range strategies {
		result, err := attempt(ctx, s, rawURL, decode)
		if err == nil {
			if i > 0 {
				slog.Info("Fetched via fallback", "strategy", s.Name, "url", rawURL)
			}
			return result, nil
		}

		if i == len(strategies)-1 {
			return zero, &Error{URL: rawURL, Cause: err, Earlier: earlier}
		}

		slog.Warn("Fetch attempt failed, falling back", "strategy", s.Name, "url", rawURL, "error", err)
		earlier = append(earlier, err)
	}

	return zero, &Error{URL: rawURL, Cause: fmt.Errorf("no fetch strategies configured")}
}

func attempt[T any](ctx context.Context, s Strategy, rawURL string, decode func([]byte) (T, error)) (T, error) {
	var zero T

	body, err := s.Fetch(ctx, rawURL)
	if err != nil {
		return zero, err
	}
	return decode(body)
}

func (p *Pipeline) fetchDirect(ctx context.Context, rawURL string) ([]byte, error) {
	target := rawURL
	if p.routes != nil {
		if rewritten, ok := p.routes.Rewrite(rawURL, p.localBase); ok {
			slog.Debug("Routing through local proxy", "url", rawURL, "local", rewritten)
			target = rewritten
		}
	}
	return p.get(ctx, target)
}

type envelope struct {
	Contents json.RawMessage `json:"contents"`
}

func (p *Pipeline) fetchViaPublicProxy(ctx context.Context, rawURL string) ([]byte, error) {
	body, err := p.get(ctx, p.proxyURL+url.QueryEscape(rawURL))
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &ProxyEnvelopeError{Reason: "body is not JSON", Err: err}
	}
	if len(env.Contents) == 0 || bytes.Equal(env.Contents, []byte("null")) {
		return nil, &ProxyEnvelopeError{Reason: "missing contents"}
	}

	var contents string
	if err := json.Unmarshal(env.Contents, &contents); err != nil {
		return nil, &ProxyEnvelopeError{Reason: "contents is not a string", Err: err}
	}

	return []byte(contents), nil
}

func (p *Pipeline) get(ctx context.Context, target string) ([]byte, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &TransportError{URL: target, Err: err}
	}

	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{URL: target, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &TransportError{URL: target, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	return data, nil
}
