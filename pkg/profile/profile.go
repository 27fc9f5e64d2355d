// Package profile personalizes turns: it loads the user's profile,
// renders it into system-prompt context, and answers the "should this
// query use the personal weather station" style questions.
package profile

import (
	"fmt"
	"strings"
	"time"
)

const DefaultUserID = "default_user"

// UserProfile is the persisted per-user document.
type UserProfile struct {
	UserID string `bson:"user_id" json:"user_id"`
	Name   string `bson:"name" json:"name"`

	PersonalInfo   PersonalInfo   `bson:"personal_info" json:"personal_info"`
	HomeAddress    HomeAddress    `bson:"home_address" json:"home_address"`
	Coordinates    Coordinates    `bson:"coordinates" json:"coordinates"`
	Timezone       string         `bson:"timezone" json:"timezone"`
	WeatherStation WeatherStation `bson:"weather_station" json:"weather_station"`
	Preferences    Preferences    `bson:"preferences" json:"preferences"`
	AIContext      AIContext      `bson:"ai_context" json:"ai_context"`
	Privacy        Privacy        `bson:"privacy" json:"privacy"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
	Version   string    `bson:"version" json:"version"`
}

type PersonalInfo struct {
	Email string `bson:"email" json:"email"`
	Phone string `bson:"phone" json:"phone"`
}

type HomeAddress struct {
	Street  string `bson:"street" json:"street"`
	City    string `bson:"city" json:"city"`
	State   string `bson:"state" json:"state"`
	Zip     string `bson:"zip" json:"zip"`
	Country string `bson:"country" json:"country"`
}

type Coordinates struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
	W3W       string  `bson:"w3w" json:"w3w"`
	Accuracy  string  `bson:"accuracy" json:"accuracy"`
}

type WeatherStation struct {
	Provider    string `bson:"provider" json:"provider"`
	StationID   string `bson:"station_id" json:"station_id"`
	Description string `bson:"description" json:"description"`
	Enabled     bool   `bson:"enabled" json:"enabled"`
}

type Preferences struct {
	Units           string `bson:"units" json:"units"`
	TemperatureUnit string `bson:"temperature_unit" json:"temperature_unit"`
	DefaultModel    string `bson:"default_model" json:"default_model"`
	Language        string `bson:"language" json:"language"`
}

type AIContext struct {
	Personality        string   `bson:"personality" json:"personality"`
	ExpertiseAreas     []string `bson:"expertise_areas" json:"expertise_areas"`
	CommunicationStyle string   `bson:"communication_style" json:"communication_style"`
}

type Privacy struct {
	ShareLocation       bool `bson:"share_location" json:"share_location"`
	ShareWeatherStation bool `bson:"share_weather_station" json:"share_weather_station"`
	ShareName           bool `bson:"share_name" json:"share_name"`
}

// DefaultProfile builds the profile used when a user has none stored yet.
func DefaultProfile(userID, stationID string) *UserProfile {
	now := time.Now()
	return &UserProfile{
		UserID:   userID,
		Name:     "User",
		Timezone: "UTC",
		WeatherStation: WeatherStation{
			Provider:    "weatherflow",
			StationID:   stationID,
			Description: "Personal weather station",
			Enabled:     stationID != "",
		},
		Preferences: Preferences{
			Units:           "imperial",
			TemperatureUnit: "fahrenheit",
			Language:        "en",
		},
		AIContext: AIContext{
			Personality:        "helpful and professional",
			CommunicationStyle: "conversational",
		},
		Privacy: Privacy{
			ShareLocation:       true,
			ShareWeatherStation: true,
			ShareName:           true,
		},
		CreatedAt: now,
		UpdatedAt: now,
		Version:   "1.0",
	}
}

// SystemContext renders the profile into system-prompt lines, honoring the
// privacy flags. now is injectable for tests.
func (p *UserProfile) SystemContext(now func() time.Time) string {
	name := "User"
	if p.Privacy.ShareName && p.Name != "" {
		name = p.Name
	}

	parts := []string{fmt.Sprintf("You are %s's AI assistant.", name)}

	if p.Privacy.ShareLocation {
		if p.HomeAddress.City != "" && p.HomeAddress.State != "" {
			parts = append(parts, fmt.Sprintf("User's home: %s, %s", p.HomeAddress.City, p.HomeAddress.State))
		}
		if p.Coordinates.Latitude != 0 && p.Coordinates.Longitude != 0 {
			parts = append(parts, fmt.Sprintf("Home coordinates: %.4f, %.4f",
				p.Coordinates.Latitude, p.Coordinates.Longitude))
		}
		if p.Coordinates.W3W != "" {
			parts = append(parts, "What3Words: "+p.Coordinates.W3W)
		}
	}

	timezone := p.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	parts = append(parts, "User timezone: "+timezone)

	current := now()
	if loc, err := time.LoadLocation(timezone); err == nil {
		parts = append(parts, "Current date/time: "+current.In(loc).Format("2006-01-02 03:04 PM MST"))
	} else {
		parts = append(parts, "Current date/time: "+current.UTC().Format("2006-01-02 03:04 PM")+" UTC")
	}

	if p.Privacy.ShareWeatherStation && p.WeatherStation.Enabled && p.WeatherStation.StationID != "" {
		parts = append(parts, fmt.Sprintf("Personal weather station: %s station %s",
			p.WeatherStation.Provider, p.WeatherStation.StationID))
		parts = append(parts, "When user asks about 'home weather' or 'personal weather station', use this station data.")
	}

	if p.Preferences.Units != "" {
		parts = append(parts, "Preferred units: "+p.Preferences.Units)
	}

	if p.AIContext.Personality != "" {
		parts = append(parts, "Communication style: "+p.AIContext.Personality)
	}

	return strings.Join(parts, "\n")
}

// verbatimToolValuesClause keeps providers from paraphrasing tool output.
const verbatimToolValuesClause = `CRITICAL: When using tool/function call results, you MUST use the EXACT values returned by the tools. Do not approximate, round, or generate similar values. If a tool returns "74°F", you must state "74°F" exactly. This is especially important for weather data, prices, measurements, and other precise information.`

// EnhanceSystemPrompt combines the user context with the base system
// prompt. When privacy reduces the context to nothing useful, the original
// prompt passes through unchanged.
func (p *UserProfile) EnhanceSystemPrompt(original string, now func() time.Time) string {
	context := p.SystemContext(now)

	if strings.TrimSpace(context) == "" || strings.TrimSpace(context) == "You are User's AI assistant." {
		return original
	}

	if strings.TrimSpace(original) != "" {
		return context + "\n\n" + original + "\n\n" +
			"Remember to use the user's personal context (location, weather station, preferences) when relevant to their queries.\n\n" +
			verbatimToolValuesClause
	}

	return context + "\n\n" +
		"Be helpful, accurate, and use the user's personal context when relevant to their queries.\n\n" +
		verbatimToolValuesClause
}

// LocationForWeather is the location string for weather queries, or empty
// when location sharing is off.
func (p *UserProfile) LocationForWeather() string {
	if !p.Privacy.ShareLocation {
		return ""
	}
	if p.HomeAddress.City != "" && p.HomeAddress.State != "" {
		return p.HomeAddress.City + ", " + p.HomeAddress.State
	}
	if p.Coordinates.Latitude != 0 && p.Coordinates.Longitude != 0 {
		return fmt.Sprintf("%v,%v", p.Coordinates.Latitude, p.Coordinates.Longitude)
	}
	return ""
}

// HasPersonalWeatherStation reports whether PWS tools apply to this user.
func (p *UserProfile) HasPersonalWeatherStation() bool {
	return p.WeatherStation.Enabled && p.WeatherStation.StationID != "" && p.Privacy.ShareWeatherStation
}

var homeWeatherKeywords = []string{
	"home", "my", "personal", "here", "current",
	"pws", "weather station", "tempest",
}

var weatherKeywords = []string{
	"weather", "temperature", "temp", "conditions",
	"humidity", "wind", "rain", "pressure",
}

// ShouldUsePersonalStation reports whether the query is about the user's
// own station: it needs both a home/personal indicator and a weather term.
func (p *UserProfile) ShouldUsePersonalStation(query string) bool {
	if !p.HasPersonalWeatherStation() {
		return false
	}

	queryLower := strings.ToLower(query)
	return containsAny(queryLower, homeWeatherKeywords) && containsAny(queryLower, weatherKeywords)
}

var locationTerms = []string{
	"here", "local", "nearby", "around me", "in my area",
	"home", "my city", "my location",
}

// LocationForSearch returns the user's location when the query references
// it ("near me", "local", ...), otherwise empty.
func (p *UserProfile) LocationForSearch(query string) string {
	if containsAny(strings.ToLower(query), locationTerms) {
		return p.LocationForWeather()
	}
	return ""
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
