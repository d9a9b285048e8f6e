package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/http/httpproxy"

	"github.com/ppiankov/overlap/internal/logging"
	"github.com/ppiankov/overlap/internal/model"
)

// StdinSource names standard input as a source
const StdinSource = "-"

// Loader reads claim input from a file, standard input, or an http(s) URL
type Loader struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	stdin      io.Reader
	logger     *zap.Logger
}

// NewLoader creates a new Loader with the given configuration
func NewLoader(cfg model.HTTPConfig, logger *zap.Logger) *Loader {
	return &Loader{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: newProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
		stdin:     os.Stdin,
		logger:    logging.OrNop(logger),
	}
}

// LoadResult contains the raw input and where it came from
type LoadResult struct {
	Data    []byte
	Source  string // Final location (after redirects for URLs)
	Subject string
}

// IsRemote reports whether source is an http(s) URL
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Load reads the whole source, refusing inputs larger than the configured limit
func (l *Loader) Load(ctx context.Context, source string) (*LoadResult, error) {
	switch {
	case source == StdinSource:
		data, err := l.readLimited(l.stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return &LoadResult{Data: data, Source: source, Subject: "stdin"}, nil

	case IsRemote(source):
		return l.fetch(ctx, source)

	default:
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer func() { _ = f.Close() }()

		data, err := l.readLimited(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", source, err)
		}
		l.logger.Debug("Loaded file", zap.String("path", source), zap.Int("bytes", len(data)))
		return &LoadResult{Data: data, Source: source, Subject: extractSubject(source)}, nil
	}
}

func (l *Loader) fetch(ctx context.Context, rawURL string) (*LoadResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "text/plain, */*;q=0.8")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	data, err := l.readLimited(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	finalURL := resp.Request.URL.String()
	l.logger.Debug("Fetched URL",
		zap.String("url", finalURL),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)))

	return &LoadResult{Data: data, Source: finalURL, Subject: extractSubject(finalURL)}, nil
}

// readLimited reads r fully, failing once more than maxBytes arrive
func (l *Loader) readLimited(r io.Reader) ([]byte, error) {
	if l.maxBytes <= 0 {
		return io.ReadAll(r)
	}

	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("input exceeds %d bytes", l.maxBytes)
	}
	return data, nil
}

// newProxyFunc selects proxies from explicit settings, falling back to the
// HTTP_PROXY/HTTPS_PROXY/NO_PROXY environment
func newProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	cfg := httpproxy.FromEnvironment()
	if httpProxy != "" {
		cfg.HTTPProxy = httpProxy
	}
	if httpsProxy != "" {
		cfg.HTTPSProxy = httpsProxy
	}
	if noProxy != "" {
		cfg.NoProxy = noProxy
	}

	proxy := cfg.ProxyFunc()
	return func(req *http.Request) (*url.URL, error) {
		return proxy(req.URL)
	}
}

// extractSubject derives a human-readable subject from a path or URL
func extractSubject(source string) string {
	name := source
	if IsRemote(source) {
		parsed, err := url.Parse(source)
		if err != nil {
			return source
		}
		name = strings.Trim(parsed.Path, "/")
		if name == "" {
			return parsed.Host
		}
	}

	last := filepath.Base(filepath.FromSlash(name))
	if idx := strings.LastIndex(last, "."); idx > 0 {
		last = last[:idx]
	}

	last = strings.ReplaceAll(last, "_", " ")
	last = strings.ReplaceAll(last, "-", " ")

	return last
}
