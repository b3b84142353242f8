package config

import "time"

// Defaults applied by Load when a key is not configured.
const (
	DefaultVSN               = "2.0.0"
	DefaultConnectTimeout    = 10 * time.Second
	DefaultReadTimeout       = 90 * time.Second
	DefaultWriteTimeout      = 15 * time.Second
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultRequestTimeout    = 10 * time.Second

	DefaultRecorderFile = "records.db"
)

// Supported values for enumerated settings.
var (
	SupportedVSNs          = []string{"1.0.0", "2.0.0"}
	SupportedOutputFormats = []string{"json", "yaml", "text"}
	SupportedLogFormats    = []string{"console", "json"}
	SupportedRecordTypes   = []string{"status", "message", "reply", "rejected", "timeout"}
)
