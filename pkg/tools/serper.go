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

const defaultSerperBaseURL = "https://google.serper.dev"

// SerperSearchTool searches Google through the Serper.dev API.
type SerperSearchTool struct {
	apiKey     string
	baseURL    string
	httpClient *httpclient.Client
}

type serperResponse struct {
	AnswerBox *struct {
		Title   string `json:"title"`
		Answer  string `json:"answer"`
		Snippet string `json:"snippet"`
	} `json:"answerBox"`
	KnowledgeGraph *struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"knowledgeGraph"`
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

func NewSerperSearchTool(apiKey string) *SerperSearchTool {
	return &SerperSearchTool{
		apiKey:  apiKey,
		baseURL: defaultSerperBaseURL,
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
			httpclient.WithMaxRetries(2),
		),
	}
}

// SetBaseURL overrides the API endpoint, used by tests.
func (t *SerperSearchTool) SetBaseURL(base string) {
	t.baseURL = base
}

func (t *SerperSearchTool) GetName() string { return "serper_search" }

func (t *SerperSearchTool) GetDescription() string {
	return "Search Google via Serper.dev."
}

func (t *SerperSearchTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        t.GetName(),
		Description: t.GetDescription(),
		Parameters:  DefaultQuerySchema(),
	}
}

func (t *SerperSearchTool) Execute(ctx context.Context, args map[string]interface{}) string {
	query := StringArg(args, "query")
	numResults := IntArg(args, "num_results", 3)

	params := url.Values{}
	params.Set("q", query)
	params.Set("num", strconv.Itoa(numResults))

	req, err := http.NewRequestWithContext(ctx, "GET", t.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return fmt.Sprintf("Serper search failed: %v", err)
	}
	req.Header.Set("X-API-KEY", t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return fmt.Sprintf("Serper search failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("Serper search failed: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("Serper API error %d: %s", resp.StatusCode, string(body))
	}

	var data serperResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return fmt.Sprintf("Serper search failed: %v", err)
	}

	var lines []string
	if ab := data.AnswerBox; ab != nil {
		lines = append(lines, fmt.Sprintf("[Featured] %s%s%s\n", ab.Title, ab.Answer, ab.Snippet))
	}
	if kg := data.KnowledgeGraph; kg != nil {
		lines = append(lines, fmt.Sprintf("[Knowledge] %s: %s\n", kg.Title, kg.Description))
	}

	organic := data.Organic
	if len(organic) > numResults {
		organic = organic[:numResults]
	}
	for i, r := range organic {
		lines = append(lines, fmt.Sprintf("[%d] %s\nURL: %s\n%s\n", i+1, r.Title, r.Link, r.Snippet))
	}

	if len(lines) == 0 {
		return "No results found."
	}
	return strings.Join(lines, "\n")
}
