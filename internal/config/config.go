package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	apperrors "github.com/hpungsan/healthyfy/internal/errors"
)

// Chat providers for free-form messages the assistant cannot handle locally.
const (
	ProviderNone  = "none"
	ProviderHTTP  = "http"
	ProviderGenAI = "genai"
)

// Config holds application configuration.
type Config struct {
	// ChatProvider selects the remote chat fallback: none, http or genai.
	ChatProvider string `json:"chat_provider,omitempty"`

	// ChatEndpoint is the Healthyfy backend base URL for the http provider.
	ChatEndpoint string `json:"chat_endpoint,omitempty"`

	// ChatTimeoutSeconds bounds one remote chat call.
	ChatTimeoutSeconds int `json:"chat_timeout_seconds,omitempty"`

	// GenAIModel is the Gemini model for the genai provider.
	GenAIModel string `json:"genai_model,omitempty"`

	// GenAIAPIKey is only read from the environment.
	GenAIAPIKey string `json:"-"`

	// BrowserURL is a Chrome DevTools websocket URL. When set, navigation and
	// form filling drive that browser instead of the in-memory page.
	BrowserURL string `json:"browser_url,omitempty"`

	// AppURL is the web app origin routes are appended to.
	AppURL string `json:"app_url,omitempty"`

	// ExportsDir overrides ~/.healthyfy/exports.
	ExportsDir string `json:"exports_dir,omitempty"`

	// AllowedPaths is an allowlist of directories for exports.
	// Paths outside the exports dir require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for exports.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `json:"log_level,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ChatProvider:       ProviderNone,
		ChatEndpoint:       "http://localhost:8000",
		ChatTimeoutSeconds: 30,
		AppURL:             "http://localhost:5173",
		LogLevel:           "info",
	}
}

// ChatTimeout is ChatTimeoutSeconds as a duration.
func (c *Config) ChatTimeout() time.Duration {
	return time.Duration(c.ChatTimeoutSeconds) * time.Second
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	switch c.ChatProvider {
	case ProviderNone, ProviderHTTP, ProviderGenAI:
	default:
		return fmt.Errorf("unknown chat provider %q (want none, http or genai)", c.ChatProvider)
	}
	if c.ChatProvider == ProviderHTTP && strings.TrimSpace(c.ChatEndpoint) == "" {
		return fmt.Errorf("chat_endpoint is required for the http provider")
	}
	if c.ChatProvider == ProviderGenAI && c.GenAIAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required for the genai provider")
	}
	if c.ChatTimeoutSeconds <= 0 {
		return fmt.Errorf("chat_timeout_seconds must be > 0")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.healthyfy.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.healthyfy) and repo (.healthyfy) directories.
// Repo config is found by walking upward from startDir to find the nearest .healthyfy/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .healthyfy/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".healthyfy", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

func pickString(base, overlay string) string {
	if overlay != "" {
		return overlay
	}
	return base
}

func pickInt(base, overlay int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		ChatProvider:       pickString(base.ChatProvider, overlay.ChatProvider),
		ChatEndpoint:       pickString(base.ChatEndpoint, overlay.ChatEndpoint),
		ChatTimeoutSeconds: pickInt(base.ChatTimeoutSeconds, overlay.ChatTimeoutSeconds),
		GenAIModel:         pickString(base.GenAIModel, overlay.GenAIModel),
		GenAIAPIKey:        pickString(base.GenAIAPIKey, overlay.GenAIAPIKey),
		BrowserURL:         pickString(base.BrowserURL, overlay.BrowserURL),
		AppURL:             pickString(base.AppURL, overlay.AppURL),
		ExportsDir:         pickString(base.ExportsDir, overlay.ExportsDir),
		DBMaxOpenConns:     pickInt(base.DBMaxOpenConns, overlay.DBMaxOpenConns),
		DBMaxIdleConns:     pickInt(base.DBMaxIdleConns, overlay.DBMaxIdleConns),
		LogLevel:           pickString(base.LogLevel, overlay.LogLevel),
	}

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string(nil), a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// LoadDotEnv loads .env files into the process environment. Variables
// already set are kept. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// LoadEnvFile loads one explicitly named .env file. Unlike LoadDotEnv, a
// missing file is an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return apperrors.NewFileNotFound(path)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays environment settings onto c. lookup is os.LookupEnv
// outside tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) *Config {
	env := &Config{}
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}
	env.ChatProvider = strings.ToLower(get("HEALTHYFY_CHAT_PROVIDER"))
	env.ChatEndpoint = get("HEALTHYFY_CHAT_ENDPOINT")
	if n, err := strconv.Atoi(get("HEALTHYFY_CHAT_TIMEOUT_SECONDS")); err == nil && n > 0 {
		env.ChatTimeoutSeconds = n
	}
	env.GenAIAPIKey = get("GEMINI_API_KEY")
	env.GenAIModel = get("HEALTHYFY_GENAI_MODEL")
	env.BrowserURL = get("HEALTHYFY_BROWSER_URL")
	env.AppURL = get("HEALTHYFY_APP_URL")
	env.LogLevel = strings.ToLower(get("HEALTHYFY_LOG_LEVEL"))
	return Merge(c, env)
}
