package cmd

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/brianly1003/phxstream/internal/config"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		key   string
		value string
		want  interface{}
	}{
		{"stream.status", "true", true},
		{"recorder.enabled", "false", false},
		{"stream.demand", "10", 10},
		{"stream.demand", "ten", "ten"},
		{"socket.request_timeout", "5s", "5s"},
		{"stream.topics", "room:1, room:2,", []interface{}{"room:1", "room:2"}},
		{"socket.url", "wss://example.com/socket", "wss://example.com/socket"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			got := parseValue(tt.key, tt.value)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseValue(%q, %q) = %#v, want %#v", tt.key, tt.value, got, tt.want)
			}
		})
	}
}

func TestSetNestedValue(t *testing.T) {
	data := map[string]interface{}{
		"logging": map[string]interface{}{"level": "info"},
		"socket":  "not a map",
	}

	if err := setNestedValue(data, "logging.level", "debug"); err != nil {
		t.Fatalf("setNestedValue() error = %v", err)
	}
	if err := setNestedValue(data, "stream.demand", "3"); err != nil {
		t.Fatalf("setNestedValue() error = %v", err)
	}

	logging := data["logging"].(map[string]interface{})
	if logging["level"] != "debug" {
		t.Errorf("logging.level = %v, want debug", logging["level"])
	}
	stream := data["stream"].(map[string]interface{})
	if stream["demand"] != 3 {
		t.Errorf("stream.demand = %#v, want 3", stream["demand"])
	}

	if err := setNestedValue(data, "socket.url", "ws://x"); err == nil {
		t.Error("setNestedValue() through a scalar succeeded, want error")
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"nil", nil, ""},
		{"string", "info", "info"},
		{"duration", 30 * time.Second, "30s"},
		{"int", 7, "7"},
		{"bool", true, "true"},
		{"list", []string{"a", "b"}, "- a\n- b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatValue(tt.value); got != tt.want {
				t.Errorf("formatValue(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestDefaultConfig_Loads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(defaultConfig), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(defaultConfig) error = %v", err)
	}
	if cfg.Socket.VSN != config.DefaultVSN {
		t.Errorf("Socket.VSN = %q, want %q", cfg.Socket.VSN, config.DefaultVSN)
	}
	if cfg.Socket.HeartbeatInterval != config.DefaultHeartbeatInterval {
		t.Errorf("Socket.HeartbeatInterval = %v, want %v", cfg.Socket.HeartbeatInterval, config.DefaultHeartbeatInterval)
	}
	if !cfg.Stream.Status {
		t.Error("Stream.Status = false, want true")
	}
}

func TestTailFlags_MapToKnownKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	v, err := config.NewViper("")
	if err != nil {
		t.Fatalf("NewViper() error = %v", err)
	}

	for flag, key := range tailFlags {
		if tailCmd.Flags().Lookup(flag) == nil {
			t.Errorf("flag --%s is not defined", flag)
		}
		if !v.IsSet(key) {
			t.Errorf("key %s for --%s has no default", key, flag)
		}
	}
}
