package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Provider names accepted in AI_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderArk    = "ark"
)

// Config aggregates the configuration of both binaries.
type Config struct {
	Server    ServerConfig
	AI        AIConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Client    ClientConfig
}

// Load reads configuration from the environment only.
func Load() (*Config, error) {
	return LoadWithFile("")
}

// LoadWithFile applies, in order: defaults, the TOML file at path (when it
// exists), then environment variables.
func LoadWithFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := decodeFile(cfg, path); err != nil {
			return nil, err
		}
	}

	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}
	cfg.Server = server

	ai, err := loadAIConfig(cfg.AI)
	if err != nil {
		return nil, err
	}
	cfg.AI = ai

	rateLimit, err := loadRateLimitConfig(cfg.RateLimit)
	if err != nil {
		return nil, err
	}
	cfg.RateLimit = rateLimit

	cfg.Log = loadLogConfig(cfg.Log)

	client, err := loadClientConfig(cfg.Client)
	if err != nil {
		return nil, err
	}
	cfg.Client = client

	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	dir := DefaultDir()
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		AI: AIConfig{
			Provider: ProviderGemini,
			Gemini:   GeminiConfig{Model: "gemini-2.5-flash"},
			Ark: ArkConfig{
				BaseURL: "https://ark.cn-beijing.volces.com/api/v3",
				Region:  "cn-beijing",
			},
			Generation: GenerationConfig{
				Temperature: 0.7,
				TopP:        0.95,
				TopK:        40,
				MaxTokens:   2048,
			},
		},
		RateLimit: RateLimitConfig{Window: time.Minute, MaxRequests: 4},
		Log:       LogConfig{Level: "info", Format: "text"},
		Client: ClientConfig{
			Endpoint:      "http://localhost:8080/api/gemini",
			Storage:       "file",
			StoragePath:   filepath.Join(dir, "state.json"),
			Persona:       "glitch",
			RetryAttempts: 3,
			RetryDelay:    Duration{time.Second},
			Timeout:       Duration{90 * time.Second},
		},
	}
}

// DefaultDir is the per-user directory for client state.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return ".zaviye"
	}
	return filepath.Join(home, ".zaviye")
}

// DefaultFile is the default client configuration file.
func DefaultFile() string {
	return filepath.Join(DefaultDir(), "config.toml")
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

// loadServerConfig parses the listen address.
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// accepts ":8080" or "127.0.0.1:8080"
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the upstream text generation provider.
type AIConfig struct {
	Provider   string
	Gemini     GeminiConfig
	Ark        ArkConfig
	Generation GenerationConfig
}

// GeminiConfig holds Google AI credentials.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// ArkConfig holds Volcengine Ark credentials.
type ArkConfig struct {
	APIKey    string
	AccessKey string
	SecretKey string
	Model     string
	BaseURL   string
	Region    string
}

// GenerationConfig holds the fixed sampling parameters.
type GenerationConfig struct {
	Temperature float64
	TopP        float64
	TopK        int
	MaxTokens   int
}

// Enabled reports whether the selected provider has credentials.
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderArk:
		return c.Ark.Enabled()
	default:
		return c.Gemini.APIKey != ""
	}
}

// Enabled reports whether the required keys are present.
func (c ArkConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel creates an Ark chat model using the generation parameters.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Ark.Enabled() {
		return nil, errors.New("ark credentials or model missing: provide ARK_API_KEY + Model or an AK/SK pair")
	}

	temperature := float32(c.Generation.Temperature)
	topP := float32(c.Generation.TopP)
	maxTokens := c.Generation.MaxTokens

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.Ark.BaseURL,
		Region:      c.Ark.Region,
		APIKey:      c.Ark.APIKey,
		AccessKey:   c.Ark.AccessKey,
		SecretKey:   c.Ark.SecretKey,
		Model:       c.Ark.Model,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
		TopP:        &topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig(base AIConfig) (AIConfig, error) {
	cfg := base
	cfg.Provider = strings.ToLower(getEnvOrDefault("AI_PROVIDER", base.Provider))
	if cfg.Provider != ProviderGemini && cfg.Provider != ProviderArk {
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q", cfg.Provider)
	}

	cfg.Gemini.APIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	cfg.Gemini.Model = getEnvOrDefault("GEMINI_MODEL", base.Gemini.Model)

	cfg.Ark.APIKey = strings.TrimSpace(os.Getenv("ARK_API_KEY"))
	cfg.Ark.AccessKey = strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY"))
	cfg.Ark.SecretKey = strings.TrimSpace(os.Getenv("ARK_SECRET_KEY"))
	cfg.Ark.Model = getEnvOrDefault("Model", base.Ark.Model)
	cfg.Ark.BaseURL = getEnvOrDefault("ARK_BASE_URL", base.Ark.BaseURL)
	cfg.Ark.Region = getEnvOrDefault("ARK_REGION", base.Ark.Region)

	temperature, err := parseOptionalFloatEnv("GENERATION_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}
	if temperature != nil {
		cfg.Generation.Temperature = *temperature
	}

	topP, err := parseOptionalFloatEnv("GENERATION_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}
	if topP != nil {
		cfg.Generation.TopP = *topP
	}

	topK, err := parseOptionalIntEnv("GENERATION_TOP_K")
	if err != nil {
		return AIConfig{}, err
	}
	if topK != nil {
		cfg.Generation.TopK = *topK
	}

	maxTokens, err := parseOptionalIntEnv("GENERATION_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}
	if maxTokens != nil {
		if *maxTokens < 1 {
			return AIConfig{}, fmt.Errorf("invalid GENERATION_MAX_TOKENS value %d", *maxTokens)
		}
		cfg.Generation.MaxTokens = *maxTokens
	}

	return cfg, nil
}

// RateLimitConfig describes the boundary's fixed-window limiter.
type RateLimitConfig struct {
	Window      time.Duration
	MaxRequests int
}

func loadRateLimitConfig(base RateLimitConfig) (RateLimitConfig, error) {
	cfg := base

	window, err := parseOptionalDurationEnv("RATE_LIMIT_WINDOW")
	if err != nil {
		return RateLimitConfig{}, err
	}
	if window != nil {
		if *window <= 0 {
			return RateLimitConfig{}, fmt.Errorf("invalid RATE_LIMIT_WINDOW value %s", *window)
		}
		cfg.Window = *window
	}

	max, err := parseOptionalIntEnv("RATE_LIMIT_MAX")
	if err != nil {
		return RateLimitConfig{}, err
	}
	if max != nil {
		if *max < 1 {
			return RateLimitConfig{}, fmt.Errorf("invalid RATE_LIMIT_MAX value %d", *max)
		}
		cfg.MaxRequests = *max
	}

	return cfg, nil
}

// LogConfig describes log output.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

func loadLogConfig(base LogConfig) LogConfig {
	return LogConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", base.Level),
		Format: getEnvOrDefault("LOG_FORMAT", base.Format),
		File:   getEnvOrDefault("LOG_FILE", base.File),
	}
}

// ClientConfig describes the terminal chat client.
type ClientConfig struct {
	Endpoint      string   `toml:"endpoint"`
	Storage       string   `toml:"storage"`
	StoragePath   string   `toml:"storage_path"`
	Persona       string   `toml:"persona"`
	RetryAttempts int      `toml:"retry_attempts"`
	RetryDelay    Duration `toml:"retry_delay"`
	Timeout       Duration `toml:"timeout"`
}

func loadClientConfig(base ClientConfig) (ClientConfig, error) {
	cfg := base
	cfg.Endpoint = getEnvOrDefault("ZAVIYE_ENDPOINT", base.Endpoint)
	cfg.Storage = strings.ToLower(getEnvOrDefault("ZAVIYE_STORAGE", base.Storage))
	cfg.StoragePath = getEnvOrDefault("ZAVIYE_STORAGE_PATH", base.StoragePath)
	cfg.Persona = getEnvOrDefault("ZAVIYE_PERSONA", base.Persona)

	attempts, err := parseOptionalIntEnv("ZAVIYE_RETRY_ATTEMPTS")
	if err != nil {
		return ClientConfig{}, err
	}
	if attempts != nil {
		cfg.RetryAttempts = *attempts
	}
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}

	delay, err := parseOptionalDurationEnv("ZAVIYE_RETRY_DELAY")
	if err != nil {
		return ClientConfig{}, err
	}
	if delay != nil {
		cfg.RetryDelay = Duration{*delay}
	}

	timeout, err := parseOptionalDurationEnv("ZAVIYE_TIMEOUT")
	if err != nil {
		return ClientConfig{}, err
	}
	if timeout != nil {
		cfg.Timeout = Duration{*timeout}
	}

	return cfg, nil
}

// Duration decodes TOML strings such as "1s" or "90s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type fileConfig struct {
	Log    *LogConfig    `toml:"log"`
	Client *ClientConfig `toml:"client"`
}

func decodeFile(cfg *Config, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	file := fileConfig{Log: &cfg.Log, Client: &cfg.Client}
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

// parseOptionalDurationEnv accepts Go durations ("90s") or bare seconds ("90").
func parseOptionalDurationEnv(key string) (*time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		d := time.Duration(seconds) * time.Second
		return &d, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &d, nil
}
