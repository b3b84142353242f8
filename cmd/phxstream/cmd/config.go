package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/brianly1003/phxstream/internal/config"
)

var (
	configInitLocal bool
	configInitForce bool
)

// configCmd displays or manages configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display and manage configuration",
	Long: `Display and manage phxstream configuration.

Without subcommands, prints the effective configuration as YAML.

Examples:
  phxstream config                 # Show current config
  phxstream config init            # Create config file with defaults
  phxstream config path            # Show config file location
  phxstream config get <key>       # Get a config value
  phxstream config set <key> <value>  # Set a config value`,
	RunE: runConfigShow,
}

// configInitCmd creates a config file with defaults.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file with default settings",
	Long: `Create a config file with default settings and documentation.

By default, creates ~/.phxstream/config.yaml.
Use --local to create ./config.yaml in the current directory.`,
	RunE: runConfigInit,
}

// configPathCmd shows config file location.
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config file location",
	Run:   runConfigPath,
}

// configGetCmd gets a config value.
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a configuration value by key.

Keys use dot notation to access nested values.

Examples:
  phxstream config get socket.url
  phxstream config get stream.demand`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

// configSetCmd sets a config value.
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value by key in ~/.phxstream/config.yaml.

Creates the config file if it doesn't exist.

Examples:
  phxstream config set socket.url wss://example.com/socket
  phxstream config set stream.demand 10
  phxstream config set logging.level debug`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	configInitCmd.Flags().BoolVar(&configInitLocal, "local", false, "create config in current directory instead of ~/.phxstream/")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite existing config file")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	v, err := config.NewViper(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if _, err := config.FromViper(v); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	content, err := yaml.Marshal(v.AllSettings())
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	if used := v.ConfigFileUsed(); used != "" {
		fmt.Printf("# %s\n", used)
	}
	fmt.Print(string(content))
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	var configPath string

	if configInitLocal {
		configPath = "config.yaml"
	} else {
		configDir, err := config.EnsureConfigDir()
		if err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		configPath = filepath.Join(configDir, "config.yaml")
	}

	if _, err := os.Stat(configPath); err == nil && !configInitForce {
		return fmt.Errorf("config file already exists: %s\nUse --force to overwrite", configPath)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Created %s\n", configPath)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) {
	configDir, err := config.GetConfigDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting config dir: %v\n", err)
		os.Exit(1)
	}

	locations := []string{
		"./config.yaml",
		filepath.Join(configDir, "config.yaml"),
		"/etc/phxstream/config.yaml",
	}

	fmt.Println("Config search paths (in order):")
	for i, loc := range locations {
		exists := "not found"
		if _, err := os.Stat(loc); err == nil {
			exists = "exists"
		}
		fmt.Printf("  %d. %s (%s)\n", i+1, loc, exists)
	}

	fmt.Printf("\nConfig directory: %s\n", configDir)
	fmt.Printf("Environment prefix: %s_\n", config.EnvPrefix)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(args[0])

	v, err := config.NewViper(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !v.IsSet(key) {
		return fmt.Errorf("unknown config key: %s", key)
	}

	fmt.Println(formatValue(v.Get(key)))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := strings.ToLower(args[0]), args[1]

	configPath := cfgFile
	if configPath == "" {
		configDir, err := config.EnsureConfigDir()
		if err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		configPath = filepath.Join(configDir, "config.yaml")
	}

	data := make(map[string]interface{})
	if content, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(content, &data); err != nil {
			return fmt.Errorf("failed to parse existing config: %w", err)
		}
	}

	if err := setNestedValue(data, key, value); err != nil {
		return err
	}

	content, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Set %s = %s in %s\n", key, value, configPath)
	return nil
}

// formatValue renders scalars plainly and everything else as inline YAML.
func formatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case bool, int, int64, float64:
		return fmt.Sprint(v)
	}
	content, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return strings.TrimSpace(string(content))
}

func setNestedValue(data map[string]interface{}, key string, value string) error {
	parts := strings.Split(key, ".")

	current := data
	for _, part := range parts[:len(parts)-1] {
		if _, ok := current[part]; !ok {
			current[part] = make(map[string]interface{})
		}
		nested, ok := current[part].(map[string]interface{})
		if !ok {
			return fmt.Errorf("cannot set nested value: %s is not a map", part)
		}
		current = nested
	}

	current[parts[len(parts)-1]] = parseValue(key, value)
	return nil
}

// intKeys lists the settings stored as integers.
var intKeys = []string{"stream.demand", "stream.replenish"}

// listKeys lists the settings stored as comma-separated lists.
var listKeys = []string{"stream.topics", "stream.events", "output.types"}

func parseValue(key string, value string) interface{} {
	if value == "true" {
		return true
	}
	if value == "false" {
		return false
	}

	for _, k := range intKeys {
		if key == k {
			if i, err := strconv.Atoi(value); err == nil {
				return i
			}
		}
	}

	for _, k := range listKeys {
		if key == k {
			var items []interface{}
			for _, item := range strings.Split(value, ",") {
				if item = strings.TrimSpace(item); item != "" {
					items = append(items, item)
				}
			}
			return items
		}
	}

	return value
}

const defaultConfig = `# phxstream configuration
# Every key can be overridden with an environment variable, e.g.
# PHXSTREAM_SOCKET_URL or PHXSTREAM_LOGGING_LEVEL. A .env file in the
# working directory is loaded first.

socket:
  # Socket endpoint. http(s) is mapped to ws(s) and /websocket is appended.
  url: ""

  # Serializer version: "2.0.0" (array frames) or "1.0.0" (object frames)
  vsn: "2.0.0"

  # Extra query parameters sent with the connect request
  params: {}

  connect_timeout: 10s
  read_timeout: 90s
  write_timeout: 15s

  # 0s disables heartbeats
  heartbeat_interval: 30s

  # Timeout for joins, leaves and pushes
  request_timeout: 10s

stream:
  # Topics joined after connecting
  topics: []

  # Payload sent with every join
  join_params: {}

  # Only stream these channel events; empty streams every message
  events: []

  # Initial demand per stream; 0 is unlimited
  demand: 0

  # Demand added after each element
  replenish: 0

  # Also stream socket open/close/error transitions
  status: true

output:
  # json, yaml or text
  format: "json"

  # Only print these record types: status, message, reply, rejected, timeout
  types: []

recorder:
  enabled: false
  # Defaults to ~/.phxstream/records.db
  path: ""

logging:
  # debug, info, warn, error
  level: "info"
  # console or json
  format: "console"
`
