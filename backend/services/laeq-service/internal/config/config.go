package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "noisemap/backend/libs/config"
)

const (
	SourcePostGIS = "postgis"
	SourceWFS     = "wfs"
)

// Config defines laeq service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"LAEQ_HTTP_PORT"`
	} `yaml:"http"`
	Timezone string `yaml:"timezone" env:"LAEQ_TIMEZONE"`

	Source struct {
		Kind string `yaml:"kind" env:"LAEQ_SOURCE"`
	} `yaml:"source"`
	Database struct {
		DSN string `yaml:"dsn" env:"LAEQ_POSTGRES_DSN"`
	} `yaml:"database"`
	GeoServer struct {
		URL      string `yaml:"url" env:"GEOSERVER_URL"`
		User     string `yaml:"user" env:"GEOSERVER_USER"`
		Password string `yaml:"password" env:"GEOSERVER_PASSWORD"`
		TypeName string `yaml:"typeName" env:"GEOSERVER_TYPE_NAME"`
		HexLayer string `yaml:"hexLayer" env:"GEOSERVER_HEX_LAYER"`
	} `yaml:"geoserver"`

	Redis struct {
		Addr     string        `yaml:"addr" env:"LAEQ_REDIS_ADDR"`
		Password string        `yaml:"password" env:"LAEQ_REDIS_PASSWORD"`
		DB       int           `yaml:"db" env:"LAEQ_REDIS_DB"`
		TTL      time.Duration `yaml:"ttl" env:"LAEQ_REDIS_TTL"`
	} `yaml:"redis"`

	AI struct {
		WebhookURL string        `yaml:"webhookUrl" env:"AI_API_URL"`
		Timeout    time.Duration `yaml:"timeout" env:"AI_TIMEOUT"`
	} `yaml:"ai"`

	Auth struct {
		JWTSecret  string `yaml:"jwtSecret" env:"LAEQ_JWT_SECRET"`
		APIKeyHash string `yaml:"apiKeyHash" env:"LAEQ_API_KEY_HASH"`
	} `yaml:"auth"`

	Kafka struct {
		Brokers []string `yaml:"brokers" env:"LAEQ_KAFKA_BROKERS"`
		Topic   string   `yaml:"topic" env:"LAEQ_KAFKA_TOPIC"`
	} `yaml:"kafka"`

	MQTT struct {
		Broker   string `yaml:"broker" env:"LAEQ_MQTT_BROKER"`
		Topic    string `yaml:"topic" env:"LAEQ_MQTT_TOPIC"`
		ClientID string `yaml:"clientId" env:"LAEQ_MQTT_CLIENT_ID"`
	} `yaml:"mqtt"`

	Chart struct {
		MaxPoints int `yaml:"maxPoints" env:"LAEQ_CHART_MAX_POINTS"`
	} `yaml:"chart"`

	Live struct {
		Interval time.Duration `yaml:"interval" env:"LAEQ_LIVE_INTERVAL"`
		Buffer   time.Duration `yaml:"buffer" env:"LAEQ_LIVE_BUFFER"`
	} `yaml:"live"`

	location *time.Location
}

// Load reads configuration, applies defaults and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8090"
	cfg.Timezone = "Asia/Bangkok"
	cfg.Source.Kind = SourcePostGIS
	cfg.GeoServer.URL = "http://localhost:8080/geoserver/wfs"
	cfg.GeoServer.TypeName = "it.geosolutions:noise_spatial_table"
	cfg.GeoServer.HexLayer = "it.geosolutions:hex_005_e2f8"
	cfg.Redis.TTL = 5 * time.Minute
	cfg.AI.Timeout = 30 * time.Second
	cfg.Chart.MaxPoints = 100
	cfg.Live.Interval = 15 * time.Second
	cfg.Live.Buffer = 2 * time.Hour

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	loc, err := time.LoadLocation(strings.TrimSpace(c.Timezone))
	if err != nil {
		return fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	c.location = loc

	switch strings.ToLower(strings.TrimSpace(c.Source.Kind)) {
	case SourcePostGIS:
		if strings.TrimSpace(c.Database.DSN) == "" {
			return errors.New("config: database dsn required for postgis source")
		}
	case SourceWFS:
		if strings.TrimSpace(c.GeoServer.URL) == "" {
			return errors.New("config: geoserver url required for wfs source")
		}
	default:
		return fmt.Errorf("config: unknown source kind %q", c.Source.Kind)
	}
	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))

	if c.Redis.TTL <= 0 {
		return errors.New("config: redis ttl must be positive")
	}
	if c.Chart.MaxPoints <= 0 {
		return errors.New("config: chart maxPoints must be positive")
	}
	if c.Live.Interval <= 0 || c.Live.Buffer < time.Hour {
		return errors.New("config: live interval must be positive and buffer at least 1h")
	}
	if len(c.Kafka.Brokers) > 0 && strings.TrimSpace(c.Kafka.Topic) == "" {
		return errors.New("config: kafka topic required when brokers are set")
	}
	if c.MQTT.Broker != "" && strings.TrimSpace(c.MQTT.Topic) == "" {
		return errors.New("config: mqtt topic required when broker is set")
	}
	return nil
}

// Location returns the reporting time zone.
func (c *Config) Location() *time.Location {
	return c.location
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8090"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}
