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

const defaultBraveBaseURL = "https://api.search.brave.com/res/v1"

// BraveSearchTool searches the web through the Brave Search API.
type BraveSearchTool struct {
	apiKey     string
	baseURL    string
	httpClient *httpclient.Client
}

type braveResponse struct {
	Web struct {
		Results []braveResult `json:"results"`
	} `json:"web"`
}

type braveResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

func NewBraveSearchTool(apiKey string) *BraveSearchTool {
	return &BraveSearchTool{
		apiKey:  apiKey,
		baseURL: defaultBraveBaseURL,
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
			httpclient.WithMaxRetries(2),
		),
	}
}

// SetBaseURL overrides the API endpoint, used by tests.
func (t *BraveSearchTool) SetBaseURL(base string) {
	t.baseURL = base
}

func (t *BraveSearchTool) GetName() string { return "brave_search" }

func (t *BraveSearchTool) GetDescription() string {
	return "Search the web using Brave Search API."
}

func (t *BraveSearchTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        t.GetName(),
		Description: t.GetDescription(),
		Parameters:  DefaultQuerySchema(),
	}
}

func (t *BraveSearchTool) Execute(ctx context.Context, args map[string]interface{}) string {
	query := StringArg(args, "query")
	numResults := IntArg(args, "num_results", 3)

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(numResults))

	req, err := http.NewRequestWithContext(ctx, "GET", t.baseURL+"/web/search?"+params.Encode(), nil)
	if err != nil {
		return fmt.Sprintf("Brave search failed: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", t.apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return fmt.Sprintf("Brave search failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("Brave search failed: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("Brave API error %d: %s", resp.StatusCode, string(body))
	}

	var data braveResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return fmt.Sprintf("Brave search failed: %v", err)
	}

	results := data.Web.Results
	if len(results) > numResults {
		results = results[:numResults]
	}
	if len(results) == 0 {
		return "No results found."
	}

	lines := make([]string, 0, len(results))
	for i, r := range results {
		title := r.Title
		if title == "" {
			title = "No title"
		}
		lines = append(lines, fmt.Sprintf("[%d] %s\nURL: %s\n%s\n", i+1, title, r.URL, r.Description))
	}
	return strings.Join(lines, "\n")
}
