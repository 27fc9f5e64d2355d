package tools

import (
	"fmt"

	"github.com/maestrohq/maestro/pkg/config"
	"github.com/maestrohq/maestro/pkg/logger"
)

// RegisterBuiltins registers every built-in tool whose credentials are
// present. Tools with missing keys are skipped with a log line; they are
// simply absent from the catalog.
func RegisterBuiltins(reg *ToolRegistry, cfg *config.ToolsConfig) error {
	log := logger.GetLogger()

	if cfg.BraveEnabled() {
		if err := reg.RegisterTool(NewBraveSearchTool(cfg.BraveAPIKey), false); err != nil {
			return fmt.Errorf("register brave_search: %w", err)
		}
	} else {
		log.Info("brave_search disabled: no API key")
	}

	if cfg.SerperEnabled() {
		if err := reg.RegisterTool(NewSerperSearchTool(cfg.SerperAPIKey), false); err != nil {
			return fmt.Errorf("register serper_search: %w", err)
		}
	} else {
		log.Info("serper_search disabled: no API key")
	}

	if cfg.WeatherEnabled() {
		if err := reg.RegisterTool(NewWeatherForecastTool(cfg.OpenWeatherMapAPIKey), false); err != nil {
			return fmt.Errorf("register get_weather_forecast: %w", err)
		}
	} else {
		log.Info("get_weather_forecast disabled: no API key")
	}

	if cfg.StationEnabled() {
		home := NewHomeWeatherTool(cfg.WeatherFlowToken, cfg.WeatherFlowStationID)
		if err := reg.RegisterTool(home, false); err != nil {
			return fmt.Errorf("register get_home_weather: %w", err)
		}
		if err := reg.RegisterTool(NewPWSCurrentConditionsTool(home), false); err != nil {
			return fmt.Errorf("register get_pws_current_conditions: %w", err)
		}
	} else {
		log.Info("personal weather station disabled: missing token or station id")
	}

	if cfg.What3WordsEnabled() {
		if err := reg.RegisterTool(NewWhat3WordsTool(cfg.What3WordsAPIKey), false); err != nil {
			return fmt.Errorf("register get_what3words_address: %w", err)
		}
	} else {
		log.Info("get_what3words_address disabled: no API key")
	}

	return nil
}
