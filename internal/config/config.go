// Package config loads the process-wide, read-only application configuration.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config is populated once at startup and treated as immutable afterwards.
// Tests build their own copy (see Default) and pass it to the application.
type Config struct {
	Port      int    `mapstructure:"VAXBOT_PORT" yaml:"VAXBOT_PORT"`
	LogLevel  string `mapstructure:"VAXBOT_LOG_LEVEL" yaml:"VAXBOT_LOG_LEVEL"`
	LogFormat string `mapstructure:"VAXBOT_LOG_FORMAT" yaml:"VAXBOT_LOG_FORMAT"`

	Store       string        `mapstructure:"VAXBOT_STORE" yaml:"VAXBOT_STORE"`
	RedisURL    string        `mapstructure:"REDIS_URL" yaml:"REDIS_URL"`
	RedisPrefix string        `mapstructure:"REDIS_PREFIX" yaml:"REDIS_PREFIX"`
	SessionTTL  time.Duration `mapstructure:"SESSION_TTL" yaml:"SESSION_TTL"`
	BoltPath    string        `mapstructure:"BOLT_PATH" yaml:"BOLT_PATH"`

	MQTTBroker   string `mapstructure:"MQTT_BROKER" yaml:"MQTT_BROKER"`
	MQTTTopic    string `mapstructure:"MQTT_TOPIC" yaml:"MQTT_TOPIC"`
	MQTTClientID string `mapstructure:"MQTT_CLIENT_ID" yaml:"MQTT_CLIENT_ID"`

	PIIKeys       []string `mapstructure:"PII_KEYS" yaml:"PII_KEYS"`
	EncryptionKey string   `mapstructure:"ENCRYPTION_KEY" yaml:"ENCRYPTION_KEY"`

	EVDSURL      string `mapstructure:"EVDS_URL" yaml:"EVDS_URL"`
	EVDSUsername string `mapstructure:"EVDS_USERNAME" yaml:"EVDS_USERNAME"`
	EVDSPassword string `mapstructure:"EVDS_PASSWORD" yaml:"EVDS_PASSWORD"`
	EVDSDataset  string `mapstructure:"EVDS_DATASET" yaml:"EVDS_DATASET"`
	EVDSVersion  string `mapstructure:"EVDS_VERSION" yaml:"EVDS_VERSION"`

	EventStoreURL   string `mapstructure:"VACREG_EVENTSTORE_URL" yaml:"VACREG_EVENTSTORE_URL"`
	EventStoreToken string `mapstructure:"VACREG_EVENTSTORE_TOKEN" yaml:"VACREG_EVENTSTORE_TOKEN"`

	RapidProURL    string `mapstructure:"RAPIDPRO_URL" yaml:"RAPIDPRO_URL"`
	RapidProToken  string `mapstructure:"RAPIDPRO_TOKEN" yaml:"RAPIDPRO_TOKEN"`
	ContentRepoURL string `mapstructure:"CONTENTREPO_API_URL" yaml:"CONTENTREPO_API_URL"`
	AAQURL         string `mapstructure:"AAQ_URL" yaml:"AAQ_URL"`
	AAQToken       string `mapstructure:"AAQ_TOKEN" yaml:"AAQ_TOKEN"`
	LoveLifeURL    string `mapstructure:"LOVELIFE_URL" yaml:"LOVELIFE_URL"`
	TurnURL        string `mapstructure:"TURN_URL" yaml:"TURN_URL"`
	TurnToken      string `mapstructure:"TURN_TOKEN" yaml:"TURN_TOKEN"`
	RapidProFlow   string `mapstructure:"RAPIDPRO_FOLLOWUP_FLOW" yaml:"RAPIDPRO_FOLLOWUP_FLOW"`
	PlacesURL      string `mapstructure:"GOOGLE_PLACES_URL" yaml:"GOOGLE_PLACES_URL"`
	PlacesKey      string `mapstructure:"GOOGLE_PLACES_KEY" yaml:"GOOGLE_PLACES_KEY"`

	AgeGateMin         int     `mapstructure:"ELIGIBILITY_AGE_GATE_MIN" yaml:"ELIGIBILITY_AGE_GATE_MIN"`
	AmbiguousMaxAge    int     `mapstructure:"AMBIGUOUS_MAX_AGE" yaml:"AMBIGUOUS_MAX_AGE"`
	ThrottlePercentage float64 `mapstructure:"THROTTLE_PERCENTAGE" yaml:"THROTTLE_PERCENTAGE"`
	EVDSSourceID       string  `mapstructure:"EVDS_SOURCE_ID" yaml:"EVDS_SOURCE_ID"`
	VacRegSourceID     string  `mapstructure:"VACREG_SOURCE_ID" yaml:"VACREG_SOURCE_ID"`
	TraversalLimit     int     `mapstructure:"TRAVERSAL_LIMIT" yaml:"TRAVERSAL_LIMIT"`
}

// defaults are applied before the file and the environment.
var defaults = map[string]any{
	"VAXBOT_PORT":              8080,
	"VAXBOT_LOG_LEVEL":         "info",
	"VAXBOT_LOG_FORMAT":        "text",
	"VAXBOT_STORE":             "memory",
	"REDIS_PREFIX":             "vaxbot:user:",
	"SESSION_TTL":              "0s",
	"BOLT_PATH":                "vaxbot.db",
	"MQTT_TOPIC":               "vaxbot/answers",
	"MQTT_CLIENT_ID":           "vaxbot",
	"EVDS_DATASET":             "2021Covid19VaccineRegistration",
	"EVDS_VERSION":             "1",
	"GOOGLE_PLACES_URL":        "https://maps.googleapis.com",
	"ELIGIBILITY_AGE_GATE_MIN": 18,
	"AMBIGUOUS_MAX_AGE":        122,
	"THROTTLE_PERCENTAGE":      0.0,
	"EVDS_SOURCE_ID":           "aeb8444d-cfa4-4c52-bfaf-eed1495124b7",
	"VACREG_SOURCE_ID":         "5b8e3b8f-9f3a-4d4c-a6a5-2e2f0c0f4f3d",
	"TRAVERSAL_LIMIT":          16,
}

// Default returns the configuration with every default applied and nothing else.
func Default() Config {
	cfg, err := decode(copyDefaults())
	if err != nil {
		panic(fmt.Sprintf("invalid default configuration: %v", err))
	}
	return cfg
}

// Load builds the configuration from defaults, an optional YAML file and the process environment.
// Environment values win over the file.
func Load(path string) (Config, error) {
	return LoadFrom(path, os.Environ())
}

// LoadFrom is Load with an explicit environment in "KEY=value" form.
func LoadFrom(path string, environ []string) (Config, error) {
	raw := copyDefaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		var file map[string]any
		if err := yaml.Unmarshal(data, &file); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
		for k, v := range file {
			raw[strings.ToUpper(k)] = v
		}
	}

	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if knownKeys[k] {
			raw[k] = v
		}
	}

	cfg, err := decode(raw)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Store {
	case "memory", "bolt":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when VAXBOT_STORE=redis")
		}
	default:
		return fmt.Errorf("unknown VAXBOT_STORE %q", c.Store)
	}
	if c.ThrottlePercentage < 0 || c.ThrottlePercentage > 100 {
		return fmt.Errorf("THROTTLE_PERCENTAGE must be between 0 and 100, got %v", c.ThrottlePercentage)
	}
	if c.TraversalLimit <= 0 {
		return fmt.Errorf("TRAVERSAL_LIMIT must be positive")
	}
	return nil
}

func decode(raw map[string]any) (Config, error) {
	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &cfg,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			splitCommaHook,
		),
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// splitCommaHook turns "a, b" into []string{"a", "b"} and drops empty entries.
func splitCommaHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf([]string{}) {
		return data, nil
	}
	var out []string
	for _, part := range strings.Split(data.(string), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out, nil
}

func copyDefaults() map[string]any {
	raw := make(map[string]any, len(defaults))
	for k, v := range defaults {
		raw[k] = v
	}
	return raw
}

var knownKeys = func() map[string]bool {
	keys := make(map[string]bool)
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		keys[t.Field(i).Tag.Get("mapstructure")] = true
	}
	return keys
}()
