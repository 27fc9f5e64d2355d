package config

import "os"

// ToolsConfig carries credentials for the built-in tools. A missing key
// disables the tool; it is simply not registered at startup.
type ToolsConfig struct {
	BraveAPIKey          string `json:"brave_api_key,omitempty"`
	SerperAPIKey         string `json:"serper_api_key,omitempty"`
	OpenWeatherMapAPIKey string `json:"openweathermap_api_key,omitempty"`
	What3WordsAPIKey     string `json:"what3words_api_key,omitempty"`

	WeatherFlowToken     string `json:"weatherflow_token,omitempty"`
	WeatherFlowStationID string `json:"weatherflow_station_id,omitempty"`
}

func (c *ToolsConfig) SetDefaults() {
	if c.BraveAPIKey == "" {
		c.BraveAPIKey = os.Getenv("BRAVE_API_KEY")
	}
	if c.SerperAPIKey == "" {
		c.SerperAPIKey = os.Getenv("SERPER_API_KEY")
	}
	if c.OpenWeatherMapAPIKey == "" {
		c.OpenWeatherMapAPIKey = os.Getenv("OPENWEATHERMAP_API_KEY")
	}
	if c.What3WordsAPIKey == "" {
		c.What3WordsAPIKey = os.Getenv("WHAT3WORDS_API_KEY")
	}
	if c.WeatherFlowToken == "" {
		c.WeatherFlowToken = os.Getenv("WEATHERFLOW_TOKEN")
	}
	if c.WeatherFlowStationID == "" {
		c.WeatherFlowStationID = os.Getenv("WEATHERFLOW_STATION_ID")
	}
}

func (c *ToolsConfig) BraveEnabled() bool { return c.BraveAPIKey != "" }
func (c *ToolsConfig) SerperEnabled() bool { return c.SerperAPIKey != "" }
func (c *ToolsConfig) WeatherEnabled() bool {
	return c.OpenWeatherMapAPIKey != ""
}
func (c *ToolsConfig) StationEnabled() bool {
	return c.WeatherFlowToken != "" && c.WeatherFlowStationID != ""
}
func (c *ToolsConfig) What3WordsEnabled() bool {
	return c.What3WordsAPIKey != ""
}
