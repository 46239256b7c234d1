// Package config manages application configuration using viper.
// It supports configuration from YAML files (.brdesk.yaml), environment variables
// (BRDESK_ prefix), and command-line flags with sensible defaults.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration values.
// It is populated from config files, environment variables, and command-line flags.
type Config struct {
	API        APIConfig        `mapstructure:"api" yaml:"api"`               // Backend service endpoints
	Chat       ChatConfig       `mapstructure:"chat" yaml:"chat"`             // Chat request behavior
	Confluence ConfluenceConfig `mapstructure:"confluence" yaml:"confluence"` // Wiki access
	Jira       JiraConfig       `mapstructure:"jira" yaml:"jira"`             // Issue search defaults
	State      StateConfig      `mapstructure:"state" yaml:"state"`           // Session persistence
	Drafts     DraftsConfig     `mapstructure:"drafts" yaml:"drafts"`         // BRD draft history
	Log        LogConfig        `mapstructure:"log" yaml:"log"`               // Debug log output
	Debug      bool             `mapstructure:"debug" yaml:"debug"`           // Enable debug logging
}

// APIConfig holds the backend endpoints.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"` // Projects, templates, files and Jira endpoints
	ChatURL string `mapstructure:"chat_url" yaml:"chat_url"` // Chat endpoint; defaults to <base_url>/chat
	Timeout int    `mapstructure:"timeout" yaml:"timeout"`   // Seconds for non-streaming requests
}

// ChatConfig holds chat request settings.
type ChatConfig struct {
	Stream         bool `mapstructure:"stream" yaml:"stream"`                   // Request event-stream replies
	IncludeContext bool `mapstructure:"include_context" yaml:"include_context"` // Ask the service to use conversation history
	JiraNonStream  bool `mapstructure:"jira_non_stream" yaml:"jira_non_stream"` // Force JSON replies for Jira questions
}

// ConfluenceConfig holds wiki connection settings.
// The token is sent with basic auth alongside the user.
type ConfluenceConfig struct {
	BaseURL  string `mapstructure:"base_url" yaml:"base_url"`   // e.g. https://example.atlassian.net/wiki
	User     string `mapstructure:"user" yaml:"user"`           // Account email
	Token    string `mapstructure:"token" yaml:"token"`         // API token
	SpaceKey string `mapstructure:"space_key" yaml:"space_key"` // Space holding BRD pages
	ParentID string `mapstructure:"parent_id" yaml:"parent_id"` // Parent page for new pages; "0" for none
	Limit    int    `mapstructure:"limit" yaml:"limit"`         // Page list size
}

// JiraConfig holds issue search defaults.
type JiraConfig struct {
	JQL        string `mapstructure:"jql" yaml:"jql"`                 // Default query
	MaxResults int    `mapstructure:"max_results" yaml:"max_results"` // Search page size
}

// StateConfig holds where the session state file lives.
type StateConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// DraftsConfig holds where BRD drafts are versioned.
type DraftsConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// LogConfig holds debug log output settings.
type LogConfig struct {
	File string `mapstructure:"file" yaml:"file"` // Empty writes to stderr
}

const maskedSecret = "********"

var (
	cfg        Config
	configFile string
)

// Init initializes the configuration system by setting defaults,
// loading config files from current and home directories, and
// enabling environment variable overrides with the BRDESK_ prefix.
func Init() {
	setDefaults()
	loadConfigFile()
	loadEnvVars()
}

func setDefaults() {
	// Backend defaults
	viper.SetDefault("api.base_url", "http://localhost:8000/api/v1")
	viper.SetDefault("api.chat_url", "")
	viper.SetDefault("api.timeout", 30)

	// Chat defaults
	viper.SetDefault("chat.stream", true)
	viper.SetDefault("chat.include_context", true)
	viper.SetDefault("chat.jira_non_stream", true)

	// Confluence defaults
	viper.SetDefault("confluence.base_url", "")
	viper.SetDefault("confluence.user", "")
	viper.SetDefault("confluence.token", "")
	viper.SetDefault("confluence.space_key", "SO")
	viper.SetDefault("confluence.parent_id", "0")
	viper.SetDefault("confluence.limit", 100)

	// Jira defaults
	viper.SetDefault("jira.jql", "order by created DESC")
	viper.SetDefault("jira.max_results", 50)

	// Local storage defaults
	viper.SetDefault("state.path", filepath.Join(dataDir(), "state.yaml"))
	viper.SetDefault("drafts.dir", filepath.Join(dataDir(), "drafts"))

	viper.SetDefault("log.file", "")
	viper.SetDefault("debug", false)
}

func loadConfigFile() {
	viper.SetConfigName(".brdesk")
	viper.SetConfigType("yaml")

	// Add config paths in priority order
	// 1. Current directory (project config)
	viper.AddConfigPath(".")
	// 2. Home directory (global config)
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}

	if err := viper.ReadInConfig(); err == nil {
		configFile = viper.ConfigFileUsed()
	}
}

func loadEnvVars() {
	viper.SetEnvPrefix("BRDESK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// BindFlags binds cobra command-line flags to viper configuration values.
// This enables flags like --api-url and --debug to override config file settings.
func BindFlags(cmd *cobra.Command) {
	// Errors are ignored as flags are guaranteed to exist
	_ = viper.BindPFlag("api.base_url", cmd.PersistentFlags().Lookup("api-url"))
	_ = viper.BindPFlag("api.chat_url", cmd.PersistentFlags().Lookup("chat-url"))
	_ = viper.BindPFlag("debug", cmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("log.file", cmd.PersistentFlags().Lookup("log-file"))
}

// Get returns the current configuration by unmarshaling all viper values.
// Call this after Init and BindFlags to get the final merged configuration.
func Get() *Config {
	// Error is ignored as defaults are always valid
	_ = viper.Unmarshal(&cfg)
	return &cfg
}

// GetConfigPath returns the path to the config file that was loaded,
// or an empty string if no config file was found.
func GetConfigPath() string {
	return configFile
}

// GetDefaultConfigPath returns the default global config file path (~/.brdesk.yaml).
func GetDefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".brdesk.yaml")
}

// dataDir returns ~/.brdesk, the home of local state and drafts.
func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".brdesk"
	}
	return filepath.Join(home, ".brdesk")
}

// ChatEndpoint returns the chat URL, falling back to <base_url>/chat.
func (c *Config) ChatEndpoint() string {
	if c.API.ChatURL != "" {
		return c.API.ChatURL
	}
	return strings.TrimRight(c.API.BaseURL, "/") + "/chat"
}

// RequestTimeout returns the timeout for non-streaming requests.
func (c *Config) RequestTimeout() time.Duration {
	if c.API.Timeout <= 0 {
		return 0
	}
	return time.Duration(c.API.Timeout) * time.Second
}

// ConfluenceEnabled reports whether direct wiki access is configured.
func (c *Config) ConfluenceEnabled() bool {
	return c.Confluence.BaseURL != "" && c.Confluence.User != "" && c.Confluence.Token != ""
}

// YAML renders the configuration with secrets masked.
func (c *Config) YAML() (string, error) {
	masked := *c
	if masked.Confluence.Token != "" {
		masked.Confluence.Token = maskedSecret
	}
	out, err := yaml.Marshal(&masked)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
