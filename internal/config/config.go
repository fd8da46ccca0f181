// Package config provides configuration for avatarlink commands.
// Configuration is loaded from an optional YAML file and overridden
// by AVATARLINK_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the gateway HTTP server.
type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

// PipelineConfig configures how clients reach the AI pipeline.
type PipelineConfig struct {
	// Provider selects the pipeline flavor: "local" or "openai".
	Provider string `yaml:"provider"`

	// Host is the WebSocket server host, e.g. "frontend.avarynx.mywire.org".
	Host string `yaml:"host"`

	// Secure forces wss:// URLs regardless of host heuristics.
	Secure bool `yaml:"secure"`

	// Simulate enables the built-in pipeline simulator endpoint.
	Simulate bool `yaml:"simulate"`
}

// AuthConfig configures the remote authentication API.
type AuthConfig struct {
	// APIBase is the auth service base URL, e.g. "https://api.avarynx.mywire.org".
	APIBase string `yaml:"api_base"`

	// CallbackPath is where the OAuth bridge redirects browsers to.
	CallbackPath string `yaml:"callback_path"`
}

// TTSConfig configures the TTS proxy.
type TTSConfig struct {
	ElevenLabsAPIKey string `yaml:"elevenlabs_api_key"`
	DefaultVoice     string `yaml:"default_voice"`
}

// ProfileConfig is the default user profile sent with chat requests.
type ProfileConfig struct {
	Name           string `yaml:"name"`
	Gender         string `yaml:"gender"`
	Age            int    `yaml:"age"`
	Country        string `yaml:"country"`
	LanguageInput  string `yaml:"language_input"`
	LanguageOutput string `yaml:"language_output"`
}

// ExpertConfig selects the expert persona and voice for chat requests.
type ExpertConfig struct {
	Area  string `yaml:"area"`
	Voice string `yaml:"voice"`
}

// Config is the root configuration.
type Config struct {
	LogLevel string         `yaml:"log_level"`
	Server   ServerConfig   `yaml:"server"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Auth     AuthConfig     `yaml:"auth"`
	TTS      TTSConfig      `yaml:"tts"`
	Profile  ProfileConfig  `yaml:"profile"`
	Expert   ExpertConfig   `yaml:"expert"`
}

// Default returns the configuration used when no file or env is present.
func Default() Config {
	return Config{
		LogLevel: "info",
		Server: ServerConfig{
			Bind: "0.0.0.0",
			Port: 7300,
		},
		Pipeline: PipelineConfig{
			Provider: "local",
			Host:     "frontend.avarynx.mywire.org",
			Simulate: false,
		},
		Auth: AuthConfig{
			APIBase:      "https://api.avarynx.mywire.org",
			CallbackPath: "/auth/callback",
		},
		TTS: TTSConfig{
			DefaultVoice: "Brian",
		},
		Profile: ProfileConfig{
			Name:           "Guest",
			Gender:         "unspecified",
			Age:            25,
			Country:        "Portugal",
			LanguageInput:  "en-us",
			LanguageOutput: "en-us",
		},
		Expert: ExpertConfig{
			Area:  "health",
			Voice: "af_heart",
		},
	}
}

// Load reads the config file at path (if non-empty), applies env
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.LogLevel, "AVATARLINK_LOG_LEVEL")
	overrideString(&cfg.Server.Bind, "AVATARLINK_SERVER_BIND")
	overrideInt(&cfg.Server.Port, "AVATARLINK_SERVER_PORT")
	overrideString(&cfg.Pipeline.Provider, "MODEL_PROVIDER")
	overrideString(&cfg.Pipeline.Host, "WEBSOCKET_HOST")
	overrideBool(&cfg.Pipeline.Secure, "AVATARLINK_PIPELINE_SECURE")
	overrideBool(&cfg.Pipeline.Simulate, "AVATARLINK_PIPELINE_SIMULATE")
	overrideString(&cfg.Auth.APIBase, "AVATARLINK_AUTH_API_BASE")
	overrideString(&cfg.Auth.CallbackPath, "AVATARLINK_AUTH_CALLBACK_PATH")
	overrideString(&cfg.TTS.ElevenLabsAPIKey, "ELEVENLABS_API_KEY")
	overrideString(&cfg.TTS.DefaultVoice, "AVATARLINK_TTS_VOICE")
	overrideString(&cfg.Profile.Name, "AVATARLINK_PROFILE_NAME")
	overrideString(&cfg.Profile.LanguageInput, "AVATARLINK_PROFILE_LANGUAGE_INPUT")
	overrideString(&cfg.Profile.LanguageOutput, "AVATARLINK_PROFILE_LANGUAGE_OUTPUT")
	overrideString(&cfg.Expert.Area, "AVATARLINK_EXPERT_AREA")
	overrideString(&cfg.Expert.Voice, "AVATARLINK_EXPERT_VOICE")
}

func validate(cfg Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", cfg.Server.Port)
	}
	switch cfg.Pipeline.Provider {
	case "local", "openai":
	default:
		return fmt.Errorf("config: unknown pipeline provider %q", cfg.Pipeline.Provider)
	}
	if cfg.Auth.APIBase != "" && !strings.Contains(cfg.Auth.APIBase, "://") {
		return fmt.Errorf("config: auth api_base must be an absolute URL, got %q", cfg.Auth.APIBase)
	}
	return nil
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			*target = parsed
		}
	}
}
