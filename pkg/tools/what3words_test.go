package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newGeocodeServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("User-Agent"), "maestro") {
			t.Errorf("User-Agent = %q, want identifying agent", r.Header.Get("User-Agent"))
		}
		fmt.Fprint(w, body)
	}))
}

func TestWhat3WordsConvertsAddress(t *testing.T) {
	geocode := newGeocodeServer(t, `[{"lat": "39.2721", "lon": "-76.7319"}]`)
	defer geocode.Close()

	var gotKey, gotCoords string
	w3w := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		gotCoords = r.URL.Query().Get("coordinates")
		fmt.Fprint(w, `{"words": "filled.count.soap", "map": "https://w3w.co/filled.count.soap"}`)
	}))
	defer w3w.Close()

	tool := NewWhat3WordsTool("w3w-key")
	tool.SetBaseURLs(geocode.URL, w3w.URL)

	output := tool.Execute(context.Background(), map[string]interface{}{
		"address": "317 N Beaumont Ave, Catonsville, MD",
	})

	if gotKey != "w3w-key" {
		t.Errorf("key param = %q", gotKey)
	}
	if gotCoords != "39.272100,-76.731900" {
		t.Errorf("coordinates param = %q", gotCoords)
	}

	for _, want := range []string{
		"What3Words Address for: 317 N Beaumont Ave, Catonsville, MD",
		"W3W: ///filled.count.soap",
		"Coordinates: 39.2721, -76.7319",
		"Map: https://w3w.co/filled.count.soap",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestWhat3WordsQuotaFallsBackToMapLink(t *testing.T) {
	geocode := newGeocodeServer(t, `[{"lat": "39.2721", "lon": "-76.7319"}]`)
	defer geocode.Close()

	w3w := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer w3w.Close()

	tool := NewWhat3WordsTool("w3w-key")
	tool.SetBaseURLs(geocode.URL, w3w.URL)

	output := tool.Execute(context.Background(), map[string]interface{}{"address": "somewhere"})

	for _, want := range []string{
		"Address geocoded successfully: somewhere",
		"Coordinates: 39.2721, -76.7319",
		"What3Words API quota exceeded",
		"https://map.what3words.com/39.272100,-76.731900",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestWhat3WordsAPIErrorMessage(t *testing.T) {
	geocode := newGeocodeServer(t, `[{"lat": "1.0", "lon": "2.0"}]`)
	defer geocode.Close()

	w3w := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": {"code": "InvalidKey", "message": "Authentication failed"}}`)
	}))
	defer w3w.Close()

	tool := NewWhat3WordsTool("bad-key")
	tool.SetBaseURLs(geocode.URL, w3w.URL)

	output := tool.Execute(context.Background(), map[string]interface{}{"address": "somewhere"})
	if output != "What3Words API error: Authentication failed" {
		t.Errorf("output = %q", output)
	}
}

func TestWhat3WordsAddressNotFound(t *testing.T) {
	geocode := newGeocodeServer(t, `[]`)
	defer geocode.Close()

	tool := NewWhat3WordsTool("w3w-key")
	tool.SetBaseURLs(geocode.URL, "http://unused.invalid")

	output := tool.Execute(context.Background(), map[string]interface{}{"address": "Atlantis"})
	if output != "Address not found: Atlantis" {
		t.Errorf("output = %q", output)
	}
}

func TestWhat3WordsMissingKey(t *testing.T) {
	tool := NewWhat3WordsTool("")
	if got := tool.Execute(context.Background(), nil); got != "What3Words API key not configured" {
		t.Errorf("output = %q", got)
	}
}
