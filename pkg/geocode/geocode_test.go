package geocode

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colmeia-ooh/colmeia/internal/cache"
	"github.com/colmeia-ooh/colmeia/internal/resilience"
)

const okBody = `{
	"status": "OK",
	"results": [{
		"geometry": {
			"location": {"lat": -23.5614, "lng": -46.6559},
			"location_type": "ROOFTOP"
		},
		"formatted_address": "Av. Paulista, 1000 - Bela Vista, São Paulo - SP"
	}]
}`

func newTestGeocoder(srvURL string) *geocoder {
	return &geocoder{
		httpClient:  newRewriteClient(srvURL, googleGeocodeURL),
		googleKey:   "test-key",
		limiter:     newTestLimiter(),
		concurrency: 2,
		retry:       resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond},
		results:     cache.New[Result](),
	}
}

func TestGoogleGeocode_Rooftop(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("address")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, okBody)
	}))
	defer srv.Close()

	g := newTestGeocoder(srv.URL)
	result, err := g.geocodeGoogle(context.Background(), AddressInput{
		Endereco: "Av. Paulista, 1000", Cidade: "São Paulo", Estado: "SP",
	})
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.InDelta(t, -23.5614, result.Latitude, 0.0001)
	assert.InDelta(t, -46.6559, result.Longitude, 0.0001)
	assert.Equal(t, "google", result.Source)
	assert.Equal(t, "rooftop", result.Quality)
	assert.Equal(t, "Av. Paulista, 1000, São Paulo, SP, Brasil", gotQuery)
}

func TestGoogleGeocode_ZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status": "ZERO_RESULTS", "results": []}`)
	}))
	defer srv.Close()

	result, err := newTestGeocoder(srv.URL).geocodeGoogle(context.Background(), AddressInput{Endereco: "Rua Inexistente"})
	require.NoError(t, err)
	assert.False(t, result.Matched)
}

func TestGoogleGeocode_RequestDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status": "REQUEST_DENIED", "error_message": "The provided API key is invalid."}`)
	}))
	defer srv.Close()

	_, err := newTestGeocoder(srv.URL).geocodeGoogle(context.Background(), AddressInput{Endereco: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
	assert.False(t, resilience.IsTransient(err))
}

func TestGoogleGeocode_NoKey(t *testing.T) {
	g := newTestGeocoder("http://unused")
	g.googleKey = ""
	_, err := g.geocodeGoogle(context.Background(), AddressInput{Endereco: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key not configured")
}

func TestGeocode_RetriesTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		case 2:
			_, _ = io.WriteString(w, `{"status": "OVER_QUERY_LIMIT"}`)
		default:
			_, _ = io.WriteString(w, okBody)
		}
	}))
	defer srv.Close()

	result, err := newTestGeocoder(srv.URL).Geocode(context.Background(), AddressInput{ID: "7", Endereco: "Av. Paulista, 1000"})
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, "7", result.ID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGeocode_PermanentHTTPError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestGeocoder(srv.URL).Geocode(context.Background(), AddressInput{Endereco: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeocode_RepeatedAddressServedFromMemory(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, okBody)
	}))
	defer srv.Close()

	g := newTestGeocoder(srv.URL)
	_, err := g.Geocode(context.Background(), AddressInput{ID: "1", Endereco: "Av. Paulista, 1000", Cidade: "São Paulo"})
	require.NoError(t, err)
	r, err := g.Geocode(context.Background(), AddressInput{ID: "2", Endereco: " av. paulista, 1000", Cidade: "SÃO PAULO"})
	require.NoError(t, err)

	assert.Equal(t, "2", r.ID)
	assert.True(t, r.Matched)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeocode_EmptyAddress(t *testing.T) {
	g := newTestGeocoder("http://unused")
	r, err := g.Geocode(context.Background(), AddressInput{ID: "9"})
	require.NoError(t, err)
	assert.False(t, r.Matched)
	assert.Equal(t, "9", r.ID)
}

func TestBatchGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("address") == "Rua Ruim, Brasil" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = io.WriteString(w, okBody)
	}))
	defer srv.Close()

	addrs := []AddressInput{
		{ID: "a", Endereco: "Av. Paulista, 1000"},
		{ID: "b", Endereco: "Rua Ruim"},
		{ID: "c", Endereco: "Rua Augusta, 5"},
		{ID: "d"},
	}
	results, err := newTestGeocoder(srv.URL).BatchGeocode(context.Background(), addrs)
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.True(t, results[0].Matched)
	assert.Equal(t, "a", results[0].ID)
	assert.False(t, results[1].Matched)
	assert.Equal(t, "b", results[1].ID)
	assert.True(t, results[2].Matched)
	assert.False(t, results[3].Matched)
}

func TestBatchGeocode_Empty(t *testing.T) {
	results, err := NewClient().BatchGeocode(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestBatchGeocode_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, okBody)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestGeocoder(srv.URL).BatchGeocode(ctx, []AddressInput{{Endereco: "x"}, {Endereco: "y"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geocode: batch")
}

func TestFormatOneLine(t *testing.T) {
	assert.Equal(t, "Rua A, 1, Recife, PE, Brasil", formatOneLine(AddressInput{Endereco: " Rua A, 1 ", Cidade: "Recife", Estado: "PE"}))
	assert.Equal(t, "Lisboa, Portugal", formatOneLine(AddressInput{Cidade: "Lisboa", Pais: "Portugal"}))
}

func TestGoogleLocationTypeToQuality(t *testing.T) {
	assert.Equal(t, "rooftop", googleLocationTypeToQuality("ROOFTOP"))
	assert.Equal(t, "range", googleLocationTypeToQuality("range_interpolated"))
	assert.Equal(t, "centroid", googleLocationTypeToQuality("GEOMETRIC_CENTER"))
	assert.Equal(t, "approximate", googleLocationTypeToQuality("APPROXIMATE"))
	assert.Equal(t, "approximate", googleLocationTypeToQuality(""))
}
