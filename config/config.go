package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/roomly/booking-service/internal/notify"
	"github.com/roomly/booking-service/internal/storage"
	"github.com/roomly/booking-service/pkg/auth"
	"github.com/roomly/booking-service/pkg/kafka"
	"github.com/roomly/booking-service/pkg/logger"
	"github.com/roomly/booking-service/pkg/postgres"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"BOOKING_HTTP_HOST"`
	Port         string        `yaml:"port" envconfig:"BOOKING_HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"30s"`
	WriteTimeout time.Duration
}

type Cache struct {
	Enabled bool          `yaml:"enabled" envconfig:"CACHE_ENABLED"`
	Addr    string        `yaml:"addr" envconfig:"CACHE_ADDR" default:"localhost:6379"`
	TTL     time.Duration `yaml:"ttl" envconfig:"CACHE_TTL" default:"1m"`
}

type Sweep struct {
	Interval time.Duration `yaml:"interval" envconfig:"SWEEP_INTERVAL" default:"5m"`
}

type Config struct {
	Server   HTTPServer     `yaml:"server"`
	Database postgres.DB    `yaml:"db"`
	Kafka    kafka.Config   `yaml:"kafka"`
	Auth     auth.Config    `yaml:"auth"`
	SMTP     notify.SMTP    `yaml:"smtp"`
	Storage  storage.Config `yaml:"storage"`
	Cache    Cache          `yaml:"cache"`
	Sweep    Sweep          `yaml:"sweep"`
	Log      logger.Log     `yaml:"log"`
}

var (
	once sync.Once
	cfg  *Config
)

// NewConfig reads config from environment.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		err := envconfig.Process("", &config)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = &config
		// printConfig(cfg) // holds credentials, keep out of stdout
	})

	return cfg
}

func printConfig(cfg *Config) { //nolint:unused
	jscfg, _ := json.MarshalIndent(cfg, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
