package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/brianly1003/phxstream/internal/domain"
)

// Validate checks cfg for values the rest of the program cannot work with.
func Validate(cfg *Config) error {
	if err := validateSocket(&cfg.Socket); err != nil {
		return err
	}
	if err := validateStream(&cfg.Stream); err != nil {
		return err
	}
	if err := validateOutput(&cfg.Output); err != nil {
		return err
	}
	if err := validateRecorder(&cfg.Recorder); err != nil {
		return err
	}
	return validateLogging(&cfg.Logging)
}

func validateSocket(cfg *SocketConfig) error {
	if cfg.URL != "" {
		u, err := url.Parse(cfg.URL)
		if err != nil {
			return domain.NewValidationError("socket.url", err.Error())
		}
		switch u.Scheme {
		case "ws", "wss", "http", "https":
		default:
			return domain.NewValidationError("socket.url", fmt.Sprintf("unsupported scheme %q (want ws, wss, http or https)", u.Scheme))
		}
		if u.Host == "" {
			return domain.NewValidationError("socket.url", "missing host")
		}
	}

	if !slices.Contains(SupportedVSNs, cfg.VSN) {
		return domain.NewValidationError("socket.vsn", fmt.Sprintf("must be one of %s", strings.Join(SupportedVSNs, ", ")))
	}

	durations := []struct {
		field string
		value int64
	}{
		{"socket.connect_timeout", int64(cfg.ConnectTimeout)},
		{"socket.read_timeout", int64(cfg.ReadTimeout)},
		{"socket.write_timeout", int64(cfg.WriteTimeout)},
		{"socket.request_timeout", int64(cfg.RequestTimeout)},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return domain.NewValidationError(d.field, "must be positive")
		}
	}
	if cfg.HeartbeatInterval < 0 {
		return domain.NewValidationError("socket.heartbeat_interval", "must not be negative")
	}

	return nil
}

func validateStream(cfg *StreamConfig) error {
	if cfg.Demand < 0 {
		return domain.NewValidationError("stream.demand", "must not be negative")
	}
	if cfg.Replenish < 0 {
		return domain.NewValidationError("stream.replenish", "must not be negative")
	}
	for _, topic := range cfg.Topics {
		if strings.TrimSpace(topic) == "" {
			return domain.NewValidationError("stream.topics", "contains an empty topic")
		}
	}
	return nil
}

func validateOutput(cfg *OutputConfig) error {
	if !slices.Contains(SupportedOutputFormats, cfg.Format) {
		return domain.NewValidationError("output.format", fmt.Sprintf("must be one of %s", strings.Join(SupportedOutputFormats, ", ")))
	}
	for _, t := range cfg.Types {
		if !slices.Contains(SupportedRecordTypes, t) {
			return domain.NewValidationError("output.types", fmt.Sprintf("unknown record type %q", t))
		}
	}
	return nil
}

func validateRecorder(cfg *RecorderConfig) error {
	if cfg.Enabled && cfg.Path == "" {
		return domain.NewValidationError("recorder.path", "required when recorder is enabled")
	}
	return nil
}

func validateLogging(cfg *LoggingConfig) error {
	if _, err := zerolog.ParseLevel(cfg.Level); err != nil {
		return domain.NewValidationError("logging.level", err.Error())
	}
	if !slices.Contains(SupportedLogFormats, cfg.Format) {
		return domain.NewValidationError("logging.format", fmt.Sprintf("must be one of %s", strings.Join(SupportedLogFormats, ", ")))
	}
	return nil
}
