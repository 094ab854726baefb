package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	da "github.com/lintang-b-s/navguide/pkg/datastructure"
	"github.com/lintang-b-s/navguide/pkg/navigator"
	"github.com/spf13/viper"
)

type Engine struct {
	URL       string        `mapstructure:"url" validate:"omitempty,url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit" validate:"gte=0"`
	Burst     int           `mapstructure:"burst" validate:"gte=0"`
}

type Location struct {
	Lat float64 `mapstructure:"lat" validate:"min=-90,max=90"`
	Lon float64 `mapstructure:"lon" validate:"min=-180,max=180"`
}

func (l Location) Coordinate() da.Coordinate {
	return da.NewCoordinate(l.Lat, l.Lon)
}

type Navigation struct {
	TermsAccepted       bool          `mapstructure:"terms_accepted"`
	SpeedMultiplier     float64       `mapstructure:"speed_multiplier" validate:"gt=0"`
	ArrivalRadiusKm     float64       `mapstructure:"arrival_radius_km" validate:"gt=0"`
	TickInterval        time.Duration `mapstructure:"tick_interval"`
	TaskRemovedBehavior string        `mapstructure:"task_removed_behavior" validate:"oneof=continue_service quit_service"`
	StartLocation       *Location     `mapstructure:"start_location"`
	DeviceLocation      *Location     `mapstructure:"device_location"`
}

type Permissions struct {
	Granted       []string `mapstructure:"granted"`
	PlatformLevel int      `mapstructure:"platform_level" validate:"gte=0"`
}

type Kafka struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

func (k Kafka) Enabled() bool {
	return len(k.Brokers) > 0 && k.Topic != ""
}

type Postgres struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns" validate:"gte=0"`
}

type Config struct {
	Engine      Engine      `mapstructure:"engine"`
	Navigation  Navigation  `mapstructure:"navigation"`
	Permissions Permissions `mapstructure:"permissions"`
	OSMFile     string      `mapstructure:"osm_file"`
	Kafka       Kafka       `mapstructure:"kafka"`
	Postgres    Postgres    `mapstructure:"postgres"`
}

// TaskRemoved parses the configured task removed behavior.
func (c Config) TaskRemoved() navigator.TaskRemovedBehavior {
	if c.Navigation.TaskRemovedBehavior == navigator.QUIT_SERVICE.String() {
		return navigator.QUIT_SERVICE
	}
	return navigator.CONTINUE_SERVICE
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.url", "http://localhost:5000")
	v.SetDefault("engine.timeout", "10s")
	v.SetDefault("engine.rate_limit", 10)
	v.SetDefault("engine.burst", 20)
	v.SetDefault("navigation.terms_accepted", true)
	v.SetDefault("navigation.speed_multiplier", 5.0)
	v.SetDefault("navigation.arrival_radius_km", 0.03)
	v.SetDefault("navigation.tick_interval", "1s")
	v.SetDefault("navigation.task_removed_behavior", "continue_service")
	v.SetDefault("permissions.granted", []string{"ACCESS_FINE_LOCATION", "POST_NOTIFICATIONS"})
	v.SetDefault("permissions.platform_level", 34)
	v.SetDefault("postgres.max_conns", 4)
}

// Load reads the navguide settings from v and validates them.
func Load(v *viper.Viper) (Config, error) {
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.Navigation.TaskRemovedBehavior = strings.ToLower(cfg.Navigation.TaskRemovedBehavior)

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
