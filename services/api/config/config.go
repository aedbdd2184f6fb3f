package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment-driven settings for the plant monitor backend.
type Config struct {
	DatabaseURL string
	Port        int
	CORSOrigins []string

	MaxReadings        int
	FreshnessThreshold time.Duration

	AlertCooldown  time.Duration
	NightStartHour int
	NightEndHour   int
	CivilOffset    time.Duration

	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPass       string
	AlertFrom      string
	AlertRecipient string

	MQTTBrokerURL string
	MQTTTopic     string
	MQTTClientID  string
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		Port:               8080,
		CORSOrigins:        []string{"*"},
		MaxReadings:        1000,
		FreshnessThreshold: 180 * time.Second,
		AlertCooldown:      30 * time.Minute,
		NightStartHour:     19,
		NightEndHour:       6,
		CivilOffset:        345 * time.Minute, // UTC+5:45
		MQTTTopic:          "plantmonitor/readings",
		MQTTClientID:       "plant-monitor-backend",
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
		cfg.Port = port
	}

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		parts := strings.Split(origins, ",")
		cfg.CORSOrigins = cfg.CORSOrigins[:0]
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, trimmed)
			}
		}
		if len(cfg.CORSOrigins) == 0 {
			cfg.CORSOrigins = []string{"*"}
		}
	}

	if err := loadInt("MAX_READINGS", &cfg.MaxReadings); err != nil {
		return cfg, err
	}

	if err := loadSeconds("FRESHNESS_SECONDS", &cfg.FreshnessThreshold); err != nil {
		return cfg, err
	}

	if err := loadMinutes("ALERT_COOLDOWN_MINUTES", &cfg.AlertCooldown); err != nil {
		return cfg, err
	}

	if err := loadHour("NIGHT_START_HOUR", &cfg.NightStartHour); err != nil {
		return cfg, err
	}
	if err := loadHour("NIGHT_END_HOUR", &cfg.NightEndHour); err != nil {
		return cfg, err
	}

	if offStr := os.Getenv("UTC_OFFSET_MINUTES"); offStr != "" {
		off, err := strconv.Atoi(offStr)
		if err != nil || off < -14*60 || off > 14*60 {
			return cfg, fmt.Errorf("invalid UTC_OFFSET_MINUTES: %s", offStr)
		}
		cfg.CivilOffset = time.Duration(off) * time.Minute
	}

	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	cfg.SMTPUser = os.Getenv("SMTP_USER")
	cfg.SMTPPass = os.Getenv("SMTP_PASS")
	cfg.AlertFrom = os.Getenv("ALERT_FROM")
	cfg.AlertRecipient = os.Getenv("ALERT_RECIPIENT")
	cfg.SMTPPort = 587
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 {
			return cfg, fmt.Errorf("invalid SMTP_PORT: %s", portStr)
		}
		cfg.SMTPPort = port
	}

	cfg.MQTTBrokerURL = os.Getenv("MQTT_BROKER_URL")
	if topic := os.Getenv("MQTT_TOPIC"); topic != "" {
		cfg.MQTTTopic = topic
	}
	if clientID := os.Getenv("MQTT_CLIENT_ID"); clientID != "" {
		cfg.MQTTClientID = clientID
	}

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// SMTPConfigured reports whether enough SMTP settings are present to send
// real alert emails.
func (c Config) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.AlertFrom != "" && c.AlertRecipient != ""
}

// MQTTEnabled reports whether the MQTT ingestion bridge should start.
func (c Config) MQTTEnabled() bool {
	return c.MQTTBrokerURL != ""
}

func loadInt(name string, dst *int) error {
	s := os.Getenv(name)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return fmt.Errorf("invalid %s: %s", name, s)
	}
	*dst = v
	return nil
}

func loadSeconds(name string, dst *time.Duration) error {
	var v int
	if err := loadInt(name, &v); err != nil {
		return err
	}
	if v > 0 {
		*dst = time.Duration(v) * time.Second
	}
	return nil
}

func loadMinutes(name string, dst *time.Duration) error {
	var v int
	if err := loadInt(name, &v); err != nil {
		return err
	}
	if v > 0 {
		*dst = time.Duration(v) * time.Minute
	}
	return nil
}

func loadHour(name string, dst *int) error {
	s := os.Getenv(name)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 || v > 23 {
		return fmt.Errorf("invalid %s: %s", name, s)
	}
	*dst = v
	return nil
}
