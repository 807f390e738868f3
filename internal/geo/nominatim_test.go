package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roxosabor/storefront-api/internal/resilience"
)

func testHTTPClient() *resilience.HTTPClient {
	return &resilience.HTTPClient{
		Client:      &http.Client{Timeout: 2 * time.Second},
		MaxAttempts: 1,
	}
}

func TestNominatimSearch(t *testing.T) {
	var gotQuery, gotFormat, gotLimit, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotFormat = r.URL.Query().Get("format")
		gotLimit = r.URL.Query().Get("limit")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"-20.6655","lon":"-43.8045","display_name":"Ouro Branco, MG"}]`))
	}))
	defer srv.Close()

	client := NominatimClient{
		BaseURL:   srv.URL,
		UserAgent: "storefront-test/1.0",
		HTTP:      testHTTPClient(),
	}

	candidates, err := client.Search(context.Background(), "Rua A, Centro, Ouro Branco")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.InDelta(t, -20.6655, candidates[0].Point.Lat, 1e-9)
	require.InDelta(t, -43.8045, candidates[0].Point.Lon, 1e-9)
	require.Equal(t, "Ouro Branco, MG", candidates[0].DisplayName)

	require.Equal(t, "Rua A, Centro, Ouro Branco", gotQuery)
	require.Equal(t, "json", gotFormat)
	require.Equal(t, "1", gotLimit)
	require.Equal(t, "storefront-test/1.0", gotUA)
}

func TestNominatimSearchEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NominatimClient{BaseURL: srv.URL, HTTP: testHTTPClient()}
	candidates, err := client.Search(context.Background(), "nowhere")
	require.NoError(t, err)
	require.Empty(t, candidates)
}

func TestNominatimSearchBadCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"lat":"not-a-number","lon":"-43.8","display_name":"x"}]`))
	}))
	defer srv.Close()

	client := NominatimClient{BaseURL: srv.URL, HTTP: testHTTPClient()}
	_, err := client.Search(context.Background(), "anywhere")
	require.ErrorIs(t, err, ErrBadCoordinates)
}

func TestNominatimSearchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NominatimClient{BaseURL: srv.URL, HTTP: testHTTPClient()}
	_, err := client.Search(context.Background(), "anywhere")
	require.Error(t, err)
}
