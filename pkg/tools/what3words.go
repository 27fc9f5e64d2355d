package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/maestrohq/maestro/pkg/httpclient"
)

const (
	defaultNominatimBaseURL  = "https://nominatim.openstreetmap.org"
	defaultWhat3WordsBaseURL = "https://api.what3words.com/v3"
	nominatimUserAgent       = "maestro/1.0 (https://github.com/maestrohq/maestro)"
)

// What3WordsTool converts a street address to a what3words address by
// geocoding through Nominatim first. Quota exhaustion degrades to raw
// coordinates plus a map link instead of failing.
type What3WordsTool struct {
	apiKey         string
	geocodeBase    string
	what3wordsBase string
	httpClient     *httpclient.Client
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

type what3wordsResponse struct {
	Words string `json:"words"`
	Map   string `json:"map"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewWhat3WordsTool(apiKey string) *What3WordsTool {
	return &What3WordsTool{
		apiKey:         apiKey,
		geocodeBase:    defaultNominatimBaseURL,
		what3wordsBase: defaultWhat3WordsBaseURL,
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}),
			httpclient.WithMaxRetries(1),
		),
	}
}

// SetBaseURLs overrides both endpoints, used by tests.
func (t *What3WordsTool) SetBaseURLs(geocode, what3words string) {
	t.geocodeBase = geocode
	t.what3wordsBase = what3words
}

func (t *What3WordsTool) GetName() string { return "get_what3words_address" }

func (t *What3WordsTool) GetDescription() string {
	return "Convert any street address to a What3Words address (3 unique words that identify a precise 3m x 3m location). Use this when users ask for W3W addresses, precise location sharing, or emergency location identification."
}

func (t *What3WordsTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        t.GetName(),
		Description: t.GetDescription(),
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"address": map[string]interface{}{
					"type":        "string",
					"description": "Street address to convert (e.g., '317 N Beaumont Ave, Catonsville, MD' or 'Times Square, New York')",
				},
			},
			"required": []interface{}{"address"},
		},
	}
}

func (t *What3WordsTool) Execute(ctx context.Context, args map[string]interface{}) string {
	if t.apiKey == "" {
		return "What3Words API key not configured"
	}

	address := StringArg(args, "address")

	lat, lon, errStr := t.geocode(ctx, address)
	if errStr != "" {
		return errStr
	}

	params := url.Values{}
	params.Set("coordinates", fmt.Sprintf("%f,%f", lat, lon))
	params.Set("key", t.apiKey)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, "GET", t.what3wordsBase+"/convert-to-3wa?"+params.Encode(), nil)
	if err != nil {
		return fmt.Sprintf("Network error: %v", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil && resp == nil {
		return fmt.Sprintf("Network error: %v", err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return fmt.Sprintf("Network error: %v", readErr)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var data what3wordsResponse
		if err := json.Unmarshal(body, &data); err != nil {
			return fmt.Sprintf("What3Words API error: %v", err)
		}
		if data.Words == "" {
			return fmt.Sprintf("No W3W address returned for coordinates: %f, %f", lat, lon)
		}

		result := []string{
			"What3Words Address for: " + address,
			fmt.Sprintf("W3W: ///%s", data.Words),
			fmt.Sprintf("Coordinates: %.4f, %.4f", lat, lon),
		}
		if data.Map != "" {
			result = append(result, "Map: "+data.Map)
		}
		return strings.Join(result, "\n")

	case http.StatusPaymentRequired:
		// Quota exceeded: hand back what we do have.
		return strings.Join([]string{
			"Address geocoded successfully: " + address,
			fmt.Sprintf("Coordinates: %.4f, %.4f", lat, lon),
			"What3Words API quota exceeded",
			fmt.Sprintf("To get the W3W address, visit: https://map.what3words.com/%f,%f", lat, lon),
		}, "\n")

	default:
		var data what3wordsResponse
		errMsg := "Unknown error"
		if err := json.Unmarshal(body, &data); err == nil && data.Error != nil && data.Error.Message != "" {
			errMsg = data.Error.Message
		}
		return "What3Words API error: " + errMsg
	}
}

func (t *What3WordsTool) geocode(ctx context.Context, address string) (float64, float64, string) {
	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, "GET", t.geocodeBase+"/search?"+params.Encode(), nil)
	if err != nil {
		return 0, 0, fmt.Sprintf("Network error: %v", err)
	}
	// Nominatim requires an identifying User-Agent.
	req.Header.Set("User-Agent", nominatimUserAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return 0, 0, "Failed to geocode address: " + address
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, "Failed to geocode address: " + address
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, 0, fmt.Sprintf("Network error: %v", err)
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil || len(results) == 0 {
		return 0, 0, "Address not found: " + address
	}

	lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(results[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		return 0, 0, "Address not found: " + address
	}

	return lat, lon, ""
}
