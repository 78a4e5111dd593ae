package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL              string `yaml:"ttl"`
		TimeLimitSeconds *int   `yaml:"time_limit_seconds"`
		FeedbackDelay    string `yaml:"feedback_delay"`
	} `yaml:"quiz"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // json, text or pretty
	} `yaml:"log"`
	Events struct {
		KafkaBrokers []string `yaml:"kafka_brokers"`
		Topic        string   `yaml:"topic"`
	} `yaml:"events"`
}

// Load reads YAML config from path. Values of the form ${VAR} are expanded
// from the environment.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// validate rejects duration fields that are set but do not parse, so a typo
// such as "2" instead of "2s" fails at startup.
func (c Config) validate() error {
	durations := []struct {
		field, raw string
	}{
		{"redis.ttl", c.Redis.TTL},
		{"quiz.ttl", c.Quiz.TTL},
		{"quiz.feedback_delay", c.Quiz.FeedbackDelay},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		if _, err := time.ParseDuration(d.raw); err != nil {
			return fmt.Errorf("config %s: %w", d.field, err)
		}
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
// Values from Load are already validated.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// TimeLimit returns the configured per-question limit, or fallback when unset.
// An explicit zero is kept.
func (c Config) TimeLimit(fallback int) int {
	if c.Quiz.TimeLimitSeconds == nil {
		return fallback
	}
	return *c.Quiz.TimeLimitSeconds
}

// EventsTopic returns the topic completion events are published to.
func (c Config) EventsTopic() string {
	if c.Events.Topic == "" {
		return "quiz.attempts"
	}
	return c.Events.Topic
}
