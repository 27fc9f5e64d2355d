package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/maestrohq/maestro/pkg/httpclient"
	"github.com/maestrohq/maestro/pkg/logger"
)

const defaultWeatherFlowBaseURL = "https://swd.weatherflow.com/swd/rest"

// HomeWeatherTool reads the user's personal WeatherFlow Tempest station:
// current observations plus an optional multi-day forecast.
type HomeWeatherTool struct {
	token      string
	stationID  string
	baseURL    string
	httpClient *httpclient.Client
	now        func() time.Time
}

type weatherFlowObservations struct {
	Obs []map[string]interface{} `json:"obs"`
}

type weatherFlowStation struct {
	Forecast *struct {
		Daily []struct {
			DayStartLocal     int64   `json:"day_start_local"`
			AirTempHigh       float64 `json:"air_temp_high"`
			AirTempLow        float64 `json:"air_temp_low"`
			Conditions        string  `json:"conditions"`
			PrecipProbability float64 `json:"precip_probability"`
		} `json:"daily"`
	} `json:"forecast"`
}

func NewHomeWeatherTool(token, stationID string) *HomeWeatherTool {
	return &HomeWeatherTool{
		token:     token,
		stationID: stationID,
		baseURL:   defaultWeatherFlowBaseURL,
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: 15 * time.Second}),
			httpclient.WithMaxRetries(1),
		),
		now: time.Now,
	}
}

// SetBaseURL overrides the API endpoint, used by tests.
func (t *HomeWeatherTool) SetBaseURL(base string) {
	t.baseURL = base
}

func (t *HomeWeatherTool) GetName() string { return "get_home_weather" }

func (t *HomeWeatherTool) GetDescription() string {
	return "Get current weather data from the user's personal home weather station. Use this for questions about 'home weather', 'my weather station', 'personal weather station', or 'weather at home'."
}

func (t *HomeWeatherTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        t.GetName(),
		Description: t.GetDescription(),
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"include_forecast": map[string]interface{}{
					"type":        "boolean",
					"description": "Whether to include multi-day forecast (default: true)",
				},
			},
			"required": []interface{}{},
		},
	}
}

func (t *HomeWeatherTool) Execute(ctx context.Context, args map[string]interface{}) string {
	includeForecast := BoolArg(args, "include_forecast", true)
	return t.report(ctx, includeForecast)
}

func (t *HomeWeatherTool) report(ctx context.Context, includeForecast bool) string {
	if t.token == "" {
		return "Error: WeatherFlow access token not found. Please check WEATHERFLOW_TOKEN."
	}
	if t.stationID == "" {
		return "Error: WeatherFlow station ID not found. Please check WEATHERFLOW_STATION_ID."
	}

	log := logger.GetLogger()
	log.Info("fetching home weather", "station", t.stationID)

	params := url.Values{}
	params.Set("token", t.token)

	obsURL := fmt.Sprintf("%s/observations/station/%s?%s", t.baseURL, t.stationID, params.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", obsURL, nil)
	if err != nil {
		return fmt.Sprintf("WeatherFlow API request failed: %v", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return fmt.Sprintf("WeatherFlow API request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("WeatherFlow API request failed: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		errBody := string(body)
		if len(errBody) > 200 {
			errBody = errBody[:200]
		}
		return fmt.Sprintf("WeatherFlow API error %d: %s", resp.StatusCode, errBody)
	}

	var obsData weatherFlowObservations
	if err := json.Unmarshal(body, &obsData); err != nil {
		return fmt.Sprintf("WeatherFlow response format error: %v", err)
	}

	if len(obsData.Obs) == 0 {
		return "No recent observations available from your home weather station."
	}

	latest := obsData.Obs[0]

	obsTime := "Unknown"
	if ts := floatField(latest, "timestamp"); ts != nil && *ts > 0 {
		obsTime = time.Unix(int64(*ts), 0).Format("03:04 PM")
	}

	result := []string{
		fmt.Sprintf("Home Weather Station (as of %s):", obsTime),
		"Retrieved: " + t.now().Format("2006-01-02 03:04 PM"),
		"Station ID: " + t.stationID,
		"",
	}

	tempC := floatField(latest, "air_temperature")
	if tempC != nil {
		tempF := int(math.Round(*tempC*9/5 + 32))
		result = append(result, fmt.Sprintf("Temperature: %d°F (%.1f°C)", tempF, *tempC))
	} else {
		result = append(result, "Temperature: Not available")
	}

	if humidity := floatField(latest, "relative_humidity"); humidity != nil {
		result = append(result, fmt.Sprintf("Humidity: %.0f%%", *humidity))
	} else {
		result = append(result, "Humidity: Not available")
	}

	if windAvg := floatField(latest, "wind_avg"); windAvg != nil {
		result = append(result, fmt.Sprintf("Wind: %.1f mph from %s",
			*windAvg, windDirToCompass(floatField(latest, "wind_direction"))))
		if gust := floatField(latest, "wind_gust"); gust != nil && *gust > *windAvg {
			result = append(result, fmt.Sprintf("Wind Gusts: %.1f mph", *gust))
		}
	}

	pressure := floatField(latest, "barometric_pressure")
	if pressure == nil {
		pressure = floatField(latest, "station_pressure")
	}
	if pressure != nil {
		result = append(result, fmt.Sprintf("Pressure: %.1f mb (%.2f inHg)", *pressure, *pressure*0.02953))
	}

	if uv := floatField(latest, "uv"); uv != nil {
		result = append(result, fmt.Sprintf("UV Index: %.1f (%s)", *uv, uvDescription(*uv)))
	}

	if rain := floatField(latest, "precip"); rain != nil && *rain > 0 {
		result = append(result, fmt.Sprintf("Current precipitation: %.2f inches", *rain))
	}
	if rainToday := floatField(latest, "precip_accum_local_day"); rainToday != nil && *rainToday > 0 {
		result = append(result, fmt.Sprintf("Rain today: %.2f inches", *rainToday))
	}

	if includeForecast {
		forecastLines, err := t.fetchForecast(ctx, params)
		if err != nil {
			log.Warn("could not fetch station forecast", "error", err)
			result = append(result, "", "(Forecast unavailable)")
		} else if len(forecastLines) > 0 {
			result = append(result, "")
			result = append(result, forecastLines...)
		}
	}

	return strings.Join(result, "\n")
}

func (t *HomeWeatherTool) fetchForecast(ctx context.Context, params url.Values) ([]string, error) {
	stationURL := fmt.Sprintf("%s/stations/%s?%s", t.baseURL, t.stationID, params.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", stationURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var stationData weatherFlowStation
	if err := json.Unmarshal(body, &stationData); err != nil {
		return nil, err
	}

	if stationData.Forecast == nil || len(stationData.Forecast.Daily) == 0 {
		return nil, nil
	}

	lines := []string{"Forecast:"}
	for i, day := range stationData.Forecast.Daily {
		if i >= 5 {
			break
		}
		dayName := time.Unix(day.DayStartLocal, 0).Format("Monday")
		rainNote := ""
		if day.PrecipProbability > 30 {
			rainNote = " (rain likely)"
		}
		lines = append(lines, fmt.Sprintf("%s: %d°F/%d°F, %s%s",
			dayName, int(math.Round(day.AirTempHigh)), int(math.Round(day.AirTempLow)),
			day.Conditions, rainNote))
	}
	return lines, nil
}

func floatField(obs map[string]interface{}, key string) *float64 {
	v, ok := obs[key]
	if !ok || v == nil {
		return nil
	}
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return &f
		}
	}
	return nil
}

func windDirToCompass(degrees *float64) string {
	if degrees == nil || *degrees == 0 {
		return "N/A"
	}
	directions := []string{"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
		"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW"}
	return directions[int(math.Round(*degrees/22.5))%16]
}

func uvDescription(uv float64) string {
	switch {
	case uv <= 2:
		return "Low"
	case uv <= 5:
		return "Moderate"
	case uv <= 7:
		return "High"
	case uv <= 10:
		return "Very High"
	default:
		return "Extreme"
	}
}

// PWSCurrentConditionsTool is the no-argument current-conditions view of the
// personal station; it is the home weather tool without the forecast.
type PWSCurrentConditionsTool struct {
	home *HomeWeatherTool
}

func NewPWSCurrentConditionsTool(home *HomeWeatherTool) *PWSCurrentConditionsTool {
	return &PWSCurrentConditionsTool{home: home}
}

func (t *PWSCurrentConditionsTool) GetName() string { return "get_pws_current_conditions" }

func (t *PWSCurrentConditionsTool) GetDescription() string {
	return "Get CURRENT temperature, humidity, wind speed, and weather conditions from the user's PERSONAL WeatherFlow Tempest weather station. Use this for PWS data, home weather readings, personal weather station data."
}

func (t *PWSCurrentConditionsTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        t.GetName(),
		Description: t.GetDescription(),
		Parameters: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
			"required":   []interface{}{},
		},
	}
}

func (t *PWSCurrentConditionsTool) Execute(ctx context.Context, _ map[string]interface{}) string {
	return t.home.report(ctx, false)
}
