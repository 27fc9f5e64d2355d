package config

import "os"

// StoreConfig configures the conversation document store.
type StoreConfig struct {
	URI      string `json:"uri,omitempty"`
	Database string `json:"database,omitempty"`
	// TimeoutSeconds bounds individual store operations.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
}

func (c *StoreConfig) SetDefaults() {
	if c.URI == "" {
		c.URI = os.Getenv("MONGO_URI")
	}
	if c.URI == "" {
		c.URI = "mongodb://localhost:27017/"
	}
	if c.Database == "" {
		c.Database = os.Getenv("MONGO_DATABASE")
	}
	if c.Database == "" {
		c.Database = "maestro"
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 10
	}
}
