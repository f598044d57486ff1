package geocode

import (
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"
)

// newTestLimiter never blocks.
func newTestLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

// newRewriteClient sends requests for targetPrefix to the test server,
// keeping the path suffix and query.
func newRewriteClient(testServerURL, targetPrefix string) *http.Client {
	return &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		orig := req.URL.String()
		if !strings.HasPrefix(orig, targetPrefix) {
			return http.DefaultTransport.RoundTrip(req)
		}
		u, err := url.Parse(testServerURL + strings.TrimPrefix(orig, targetPrefix))
		if err != nil {
			return nil, err
		}
		out := req.Clone(req.Context())
		out.URL, out.Host = u, u.Host
		return http.DefaultTransport.RoundTrip(out)
	})}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }
