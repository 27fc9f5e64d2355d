package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/maestrohq/maestro/pkg/httpclient"
	"github.com/maestrohq/maestro/pkg/logger"
)

const defaultOpenWeatherBaseURL = "https://api.openweathermap.org/data/2.5"

// WeatherForecastTool answers worldwide weather queries through
// OpenWeatherMap (current conditions + 5-day forecast, imperial units).
type WeatherForecastTool struct {
	apiKey     string
	baseURL    string
	httpClient *httpclient.Client
	now        func() time.Time
}

type owmCurrentResponse struct {
	Name  string `json:"name"`
	Dt    int64  `json:"dt"`
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Sys struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

type owmForecastResponse struct {
	List []struct {
		DtTxt string `json:"dt_txt"`
		Main  struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"list"`
}

func NewWeatherForecastTool(apiKey string) *WeatherForecastTool {
	return &WeatherForecastTool{
		apiKey:  apiKey,
		baseURL: defaultOpenWeatherBaseURL,
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}),
			httpclient.WithMaxRetries(1),
		),
		now: time.Now,
	}
}

// SetBaseURL overrides the API endpoint, used by tests.
func (t *WeatherForecastTool) SetBaseURL(base string) {
	t.baseURL = base
}

func (t *WeatherForecastTool) GetName() string { return "get_weather_forecast" }

func (t *WeatherForecastTool) GetDescription() string {
	return "Get weather forecast for any worldwide location using OpenWeatherMap. Input should be city name, country (e.g., 'London,UK' or 'New York,US')."
}

func (t *WeatherForecastTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        t.GetName(),
		Description: t.GetDescription(),
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"location": map[string]interface{}{
					"type":        "string",
					"description": "The location to get weather for (e.g., 'London,UK' or 'Tokyo,JP')",
				},
				"days": map[string]interface{}{
					"type":        "integer",
					"description": "Number of days to forecast (1-5)",
				},
			},
			"required": []interface{}{"location"},
		},
	}
}

// locationVariants lists the spellings tried in order when OpenWeatherMap
// rejects the raw location.
func locationVariants(location string) []string {
	variants := []string{location}
	if !strings.Contains(location, ",US") {
		variants = append(variants, location+",US")
	}
	for _, state := range []string{"MD", "CA", "TX", "FL", "NY"} {
		suffix := "," + state
		if strings.Contains(location, suffix) && !strings.Contains(location, suffix+",US") {
			variants = append(variants, strings.Replace(location, suffix, suffix+",US", 1))
		}
	}
	return variants
}

func (t *WeatherForecastTool) Execute(ctx context.Context, args map[string]interface{}) string {
	if t.apiKey == "" {
		return "Error: OpenWeatherMap API key not configured."
	}

	location := StringArg(args, "location")
	days := IntArg(args, "days", 3)
	if days < 1 {
		days = 1
	}
	if days > 5 {
		days = 5
	}

	log := logger.GetLogger()
	log.Info("fetching weather", "location", location)

	var current *owmCurrentResponse
	var lastError string

	for _, variant := range locationVariants(location) {
		data, errStr := t.fetchCurrent(ctx, variant)
		if data != nil {
			current = data
			break
		}
		lastError = errStr
	}

	if current == nil {
		return fmt.Sprintf("Could not find location: %s. Tried multiple formats. Last error: %s", location, lastError)
	}

	forecast, errStr := t.fetchForecast(ctx, current.Coord.Lat, current.Coord.Lon)
	if forecast == nil {
		log.Error("forecast request failed", "error", errStr)
		return "Sorry, I couldn't fetch the weather information. Please check the location name or try again later."
	}

	return t.format(current, forecast, days)
}

func (t *WeatherForecastTool) fetchCurrent(ctx context.Context, location string) (*owmCurrentResponse, string) {
	params := url.Values{}
	params.Set("q", location)
	params.Set("appid", t.apiKey)
	params.Set("units", "imperial")

	req, err := http.NewRequestWithContext(ctx, "GET", t.baseURL+"/weather?"+params.Encode(), nil)
	if err != nil {
		return nil, err.Error()
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, err.Error()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Sprintf("Status %d for %s", resp.StatusCode, location)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err.Error()
	}

	var data owmCurrentResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, err.Error()
	}
	return &data, ""
}

func (t *WeatherForecastTool) fetchForecast(ctx context.Context, lat, lon float64) (*owmForecastResponse, string) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lon", fmt.Sprintf("%f", lon))
	params.Set("appid", t.apiKey)
	params.Set("units", "imperial")

	req, err := http.NewRequestWithContext(ctx, "GET", t.baseURL+"/forecast?"+params.Encode(), nil)
	if err != nil {
		return nil, err.Error()
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, err.Error()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Sprintf("Status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err.Error()
	}

	var data owmForecastResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, err.Error()
	}
	return &data, ""
}

func (t *WeatherForecastTool) format(current *owmCurrentResponse, forecast *owmForecastResponse, days int) string {
	description := ""
	if len(current.Weather) > 0 {
		description = titleCase(current.Weather[0].Description)
	}

	result := []string{
		fmt.Sprintf("Weather for %s, %s:", current.Name, current.Sys.Country),
		"Retrieved: " + t.now().Format("2006-01-02 03:04 PM"),
		"Data Time: " + time.Unix(current.Dt, 0).Format("2006-01-02 03:04 PM"),
		fmt.Sprintf("Current: %d°F (feels like %d°F)",
			int(math.Round(current.Main.Temp)), int(math.Round(current.Main.FeelsLike))),
		fmt.Sprintf("%s, Humidity: %d%%, Wind: %d mph",
			description, current.Main.Humidity, int(math.Round(current.Wind.Speed))),
		"",
		"Forecast:",
	}

	type dayAgg struct {
		temps      []float64
		conditions []string
	}

	// 3-hour intervals, 8 per day.
	daily := make(map[string]*dayAgg)
	var order []string
	limit := days * 8
	for i, item := range forecast.List {
		if i >= limit {
			break
		}
		dateStr := strings.SplitN(item.DtTxt, " ", 2)[0]
		agg, ok := daily[dateStr]
		if !ok {
			agg = &dayAgg{}
			daily[dateStr] = agg
			order = append(order, dateStr)
		}
		agg.temps = append(agg.temps, item.Main.Temp)
		if len(item.Weather) > 0 {
			agg.conditions = append(agg.conditions, item.Weather[0].Description)
		}
	}

	if len(order) > days {
		order = order[:days]
	}
	for _, dateStr := range order {
		agg := daily[dateStr]
		if len(agg.temps) == 0 {
			continue
		}

		high := agg.temps[0]
		low := agg.temps[0]
		for _, temp := range agg.temps[1:] {
			if temp > high {
				high = temp
			}
			if temp < low {
				low = temp
			}
		}

		mostCommon := titleCase(mostCommonString(agg.conditions))

		dayName := dateStr
		if parsed, err := time.Parse("2006-01-02", dateStr); err == nil {
			dayName = parsed.Format("Monday")
		}

		umbrella := ""
		lower := strings.ToLower(mostCommon)
		if strings.Contains(lower, "rain") || strings.Contains(lower, "shower") || strings.Contains(lower, "drizzle") {
			umbrella = " (bring an umbrella)"
		}

		result = append(result, fmt.Sprintf("%s: %d°F/%d°F, %s%s",
			dayName, int(math.Round(high)), int(math.Round(low)), mostCommon, umbrella))
	}

	return strings.Join(result, "\n")
}

func mostCommonString(values []string) string {
	if len(values) == 0 {
		return ""
	}
	counts := make(map[string]int)
	for _, v := range values {
		counts[v]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	// Stable winner under ties.
	sort.Strings(keys)
	best := keys[0]
	for _, k := range keys[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
