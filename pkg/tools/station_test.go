package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func stationTestServer(obs string, forecast string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/observations/station/"):
			fmt.Fprint(w, obs)
		case strings.HasPrefix(r.URL.Path, "/stations/"):
			fmt.Fprint(w, forecast)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestHomeWeatherReport(t *testing.T) {
	obs := `{"obs": [{
		"timestamp": 1700000000,
		"air_temperature": 20.0,
		"relative_humidity": 55,
		"wind_avg": 3.2,
		"wind_gust": 6.5,
		"wind_direction": 180,
		"barometric_pressure": 1013.2,
		"uv": 4.0,
		"precip_accum_local_day": 0.12
	}]}`
	forecast := `{"forecast": {"daily": [
		{"day_start_local": 1700000000, "air_temp_high": 72.4, "air_temp_low": 55.6,
		 "conditions": "Partly Cloudy", "precip_probability": 45}
	]}}`

	srv := stationTestServer(obs, forecast)
	defer srv.Close()

	tool := NewHomeWeatherTool("token", "12345")
	tool.SetBaseURL(srv.URL)
	tool.now = func() time.Time { return time.Date(2023, 11, 15, 14, 30, 0, 0, time.UTC) }

	output := tool.Execute(context.Background(), nil)

	for _, want := range []string{
		"Station ID: 12345",
		"Temperature: 68°F (20.0°C)",
		"Humidity: 55%",
		"Wind: 3.2 mph from S",
		"Wind Gusts: 6.5 mph",
		"Pressure: 1013.2 mb (29.92 inHg)",
		"UV Index: 4.0 (Moderate)",
		"Rain today: 0.12 inches",
		"Forecast:",
		"72°F/56°F, Partly Cloudy (rain likely)",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestHomeWeatherNoObservations(t *testing.T) {
	srv := stationTestServer(`{"obs": []}`, `{}`)
	defer srv.Close()

	tool := NewHomeWeatherTool("token", "12345")
	tool.SetBaseURL(srv.URL)

	output := tool.Execute(context.Background(), nil)
	if output != "No recent observations available from your home weather station." {
		t.Errorf("output = %q", output)
	}
}

func TestHomeWeatherMissingCredentials(t *testing.T) {
	noToken := NewHomeWeatherTool("", "12345")
	if got := noToken.Execute(context.Background(), nil); !strings.Contains(got, "WEATHERFLOW_TOKEN") {
		t.Errorf("output = %q", got)
	}

	noStation := NewHomeWeatherTool("token", "")
	if got := noStation.Execute(context.Background(), nil); !strings.Contains(got, "WEATHERFLOW_STATION_ID") {
		t.Errorf("output = %q", got)
	}
}

func TestPWSCurrentConditionsSkipsForecast(t *testing.T) {
	obs := `{"obs": [{"timestamp": 1700000000, "air_temperature": 10.0}]}`
	var forecastRequested bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/stations/") {
			forecastRequested = true
		}
		fmt.Fprint(w, obs)
	}))
	defer srv.Close()

	home := NewHomeWeatherTool("token", "12345")
	home.SetBaseURL(srv.URL)
	tool := NewPWSCurrentConditionsTool(home)

	output := tool.Execute(context.Background(), nil)

	if forecastRequested {
		t.Error("current-conditions view must not fetch the forecast")
	}
	if !strings.Contains(output, "Temperature: 50°F (10.0°C)") {
		t.Errorf("output missing converted temperature:\n%s", output)
	}
	if strings.Contains(output, "Forecast:") {
		t.Error("current-conditions output should not contain a forecast section")
	}
}

func TestWindDirToCompass(t *testing.T) {
	tests := []struct {
		degrees float64
		want    string
	}{
		{90, "E"}, {180, "S"}, {270, "W"}, {359, "N"},
	}
	for _, tt := range tests {
		d := tt.degrees
		if got := windDirToCompass(&d); got != tt.want {
			t.Errorf("windDirToCompass(%g) = %q, want %q", tt.degrees, got, tt.want)
		}
	}
	if got := windDirToCompass(nil); got != "N/A" {
		t.Errorf("windDirToCompass(nil) = %q, want N/A", got)
	}
}

func TestUVDescription(t *testing.T) {
	tests := []struct {
		uv   float64
		want string
	}{
		{1, "Low"}, {4, "Moderate"}, {6.5, "High"}, {9, "Very High"}, {12, "Extreme"},
	}
	for _, tt := range tests {
		if got := uvDescription(tt.uv); got != tt.want {
			t.Errorf("uvDescription(%g) = %q, want %q", tt.uv, got, tt.want)
		}
	}
}
