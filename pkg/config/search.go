package config

// SearchConfig tunes the search manager and the orchestrator's acceptance
// thresholds.
type SearchConfig struct {
	// MaxAttempts bounds engine tries per query.
	MaxAttempts int `json:"max_attempts,omitempty"`

	// QualityThreshold stops the search early once met (0-10 scale).
	QualityThreshold float64 `json:"quality_threshold,omitempty"`

	// RetryThreshold triggers a retry with the unoptimized query.
	RetryThreshold float64 `json:"retry_threshold,omitempty"`

	// AcceptThreshold is the minimum score to ground the provider call.
	AcceptThreshold float64 `json:"accept_threshold,omitempty"`

	// Engines is the rotation order of search tool names.
	Engines []string `json:"engines,omitempty"`

	// AttemptDelaySeconds is the pause between attempts after the first.
	AttemptDelaySeconds int `json:"attempt_delay_seconds,omitempty"`

	// ToolTimeoutSeconds bounds one engine invocation.
	ToolTimeoutSeconds int `json:"tool_timeout_seconds,omitempty"`
}

func (c *SearchConfig) SetDefaults() {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 5
	}
	if c.QualityThreshold == 0 {
		c.QualityThreshold = 7.0
	}
	if c.RetryThreshold == 0 {
		c.RetryThreshold = 3.0
	}
	if c.AcceptThreshold == 0 {
		c.AcceptThreshold = 2.0
	}
	if len(c.Engines) == 0 {
		c.Engines = []string{"brave_search", "serper_search"}
	}
	if c.AttemptDelaySeconds == 0 {
		c.AttemptDelaySeconds = 1
	}
	if c.ToolTimeoutSeconds == 0 {
		c.ToolTimeoutSeconds = 30
	}
}
