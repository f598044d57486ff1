// Package geocode resolves media point addresses to coordinates with the
// Google Geocoding API.
package geocode

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/colmeia-ooh/colmeia/internal/cache"
	"github.com/colmeia-ooh/colmeia/internal/resilience"
)

// Client geocodes addresses.
type Client interface {
	// Geocode geocodes a single address. An unmatched address is not an error.
	Geocode(ctx context.Context, addr AddressInput) (*Result, error)

	// BatchGeocode geocodes addrs concurrently. Results align with addrs.
	BatchGeocode(ctx context.Context, addrs []AddressInput) ([]Result, error)
}

// AddressInput represents an address to geocode.
type AddressInput struct {
	ID       string // optional identifier for batch correlation
	Endereco string
	Cidade   string
	Estado   string
	Pais     string // defaults to "Brasil"
}

// Result holds the geocoding output for an address.
type Result struct {
	ID        string
	Latitude  float64
	Longitude float64
	Source    string // "google"
	Quality   string // "rooftop", "range", "centroid", "approximate"
	Matched   bool
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithGoogleAPIKey sets the Google Geocoding API key.
func WithGoogleAPIKey(key string) Option {
	return func(g *geocoder) {
		g.googleKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second limit for API calls.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		g.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
	}
}

// WithConcurrency bounds the in-flight requests of BatchGeocode.
func WithConcurrency(n int) Option {
	return func(g *geocoder) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

// WithRetry overrides the retry policy for transient API failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(g *geocoder) {
		g.retry = cfg
	}
}

type geocoder struct {
	httpClient  *http.Client
	googleKey   string
	limiter     *rate.Limiter
	concurrency int
	retry       resilience.RetryConfig
	results     *cache.Cache[Result]
}

// NewClient creates a new geocoding Client with the given options.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		limiter:     rate.NewLimiter(10, 10),
		concurrency: 4,
		retry:       resilience.DefaultRetryConfig(),
		results:     cache.New[Result](),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.retry.OnRetry = resilience.RetryLogger("google", "geocode")
	return g
}

// Geocode geocodes one address. Repeated addresses are answered from the
// client's memory, matched or not.
func (g *geocoder) Geocode(ctx context.Context, addr AddressInput) (*Result, error) {
	if strings.TrimSpace(addr.Endereco) == "" && strings.TrimSpace(addr.Cidade) == "" {
		return &Result{ID: addr.ID, Matched: false}, nil
	}

	key := addressKey(addr)
	if r, ok := g.results.Get(key); ok {
		r.ID = addr.ID
		return &r, nil
	}

	r, err := resilience.DoVal(ctx, g.retry, func(ctx context.Context) (*Result, error) {
		return g.geocodeGoogle(ctx, addr)
	})
	if err != nil {
		return nil, err
	}
	g.results.Put(key, *r)
	r.ID = addr.ID
	return r, nil
}

// BatchGeocode geocodes addresses with bounded concurrency. A failed address
// yields an unmatched result; only context cancellation fails the batch.
func (g *geocoder) BatchGeocode(ctx context.Context, addrs []AddressInput) ([]Result, error) {
	if len(addrs) == 0 {
		return nil, nil
	}

	results := make([]Result, len(addrs))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for i, addr := range addrs {
		eg.Go(func() error {
			r, err := g.Geocode(gctx, addr)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				zap.L().Warn("geocode: address failed",
					zap.String("id", addr.ID),
					zap.String("endereco", addr.Endereco),
					zap.Error(err),
				)
				results[i] = Result{ID: addr.ID}
				return nil
			}
			results[i] = *r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, eris.Wrap(err, "geocode: batch")
	}
	return results, nil
}

func addressKey(addr AddressInput) string {
	return cache.Key("geocode", addr.Endereco, addr.Cidade, addr.Estado, country(addr))
}

func country(addr AddressInput) string {
	if addr.Pais == "" {
		return "Brasil"
	}
	return addr.Pais
}

// formatOneLine joins the non-empty address parts with ", ".
func formatOneLine(addr AddressInput) string {
	var parts []string
	for _, p := range []string{addr.Endereco, addr.Cidade, addr.Estado, country(addr)} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
