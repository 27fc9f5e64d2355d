package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBraveSearchFormatsResults(t *testing.T) {
	var gotToken, gotCount string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Subscription-Token")
		gotCount = r.URL.Query().Get("count")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"web": {"results": [
				{"title": "First", "url": "https://a.example", "description": "alpha"},
				{"title": "", "url": "https://b.example", "description": "beta"},
				{"title": "Third", "url": "https://c.example", "description": "gamma"}
			]}
		}`))
	}))
	defer srv.Close()

	tool := NewBraveSearchTool("brave-key")
	tool.SetBaseURL(srv.URL)

	output := tool.Execute(context.Background(), map[string]interface{}{
		"query":       "tide tables",
		"num_results": float64(2),
	})

	if gotToken != "brave-key" {
		t.Errorf("X-Subscription-Token = %q", gotToken)
	}
	if gotCount != "2" {
		t.Errorf("count param = %q, want 2", gotCount)
	}
	if !strings.Contains(output, "[1] First") {
		t.Errorf("output missing first result:\n%s", output)
	}
	if !strings.Contains(output, "[2] No title") {
		t.Errorf("untitled result should render as No title:\n%s", output)
	}
	if strings.Contains(output, "Third") {
		t.Errorf("num_results=2 should drop the third result:\n%s", output)
	}
}

func TestBraveSearchEmptyAndErrorResponses(t *testing.T) {
	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"web": {"results": []}}`))
	}))
	defer empty.Close()

	tool := NewBraveSearchTool("k")
	tool.SetBaseURL(empty.URL)
	if got := tool.Execute(context.Background(), map[string]interface{}{"query": "x"}); got != "No results found." {
		t.Errorf("empty result output = %q", got)
	}

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message": "bad query"}`))
	}))
	defer failing.Close()

	tool.SetBaseURL(failing.URL)
	got := tool.Execute(context.Background(), map[string]interface{}{"query": "x"})
	if !strings.HasPrefix(got, "Brave API error 422") {
		t.Errorf("error output = %q, want Brave API error 422 prefix", got)
	}
}

func TestSerperSearchFormatsAnswerBoxAndOrganic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "serper-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{
			"answerBox": {"title": "Population: ", "answer": "8 million"},
			"knowledgeGraph": {"title": "London", "description": "Capital of the UK"},
			"organic": [
				{"title": "Wiki", "link": "https://wiki.example", "snippet": "About London"}
			]
		}`))
	}))
	defer srv.Close()

	tool := NewSerperSearchTool("serper-key")
	tool.SetBaseURL(srv.URL)

	output := tool.Execute(context.Background(), map[string]interface{}{"query": "london population"})

	for _, want := range []string{
		"[Featured] Population: 8 million",
		"[Knowledge] London: Capital of the UK",
		"[1] Wiki",
		"URL: https://wiki.example",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestSerperSearchNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	tool := NewSerperSearchTool("k")
	tool.SetBaseURL(srv.URL)

	if got := tool.Execute(context.Background(), map[string]interface{}{"query": "x"}); got != "No results found." {
		t.Errorf("output = %q, want No results found.", got)
	}
}
