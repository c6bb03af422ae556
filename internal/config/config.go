package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Server       ServerConfig
	Replicate    ReplicateConfig
	Image        ImageConfig
	RedisConfig  RedisConfig
	CacheEnable  bool   `env:"CACHE_ENABLE"`
	RegistryPath string `env:"MODEL_REGISTRY_PATH"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR" envDefault:"redis:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	TTL      time.Duration `env:"REDIS_TTL" envDefault:"10m"`
}

type ServerConfig struct {
	Port            string        `env:"SERVER_PORT"`
	Timeout         time.Duration `env:"SERVER_TIMEOUT" envDefault:"2m"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	ThrottleLimit   int           `env:"SERVER_THROTTLE_LIMIT" envDefault:"50"`
}

type ReplicateConfig struct {
	APIToken       string        `env:"REPLICATE_API_TOKEN"`
	BaseURL        string        `env:"REPLICATE_BASE_URL" envDefault:"https://api.replicate.com/v1"`
	MaxRetries     uint64        `env:"REPLICATE_MAX_RETRIES" envDefault:"3"`
	InitialBackoff time.Duration `env:"REPLICATE_INITIAL_BACKOFF" envDefault:"500ms"`
	MaxBackoff     time.Duration `env:"REPLICATE_MAX_BACKOFF" envDefault:"8s"`
	RequestTimeout time.Duration `env:"REPLICATE_REQUEST_TIMEOUT" envDefault:"2m"`
}

type ImageConfig struct {
	Workers  int64         `env:"IMAGE_WORKERS" envDefault:"4"`
	Timeout  time.Duration `env:"IMAGE_TIMEOUT" envDefault:"10s"`
	MaxBytes int64         `env:"IMAGE_MAX_BYTES" envDefault:"20971520"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	// PORT is what most PaaS runtimes inject.
	if cfg.Server.Port == "" {
		cfg.Server.Port = os.Getenv("PORT")
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "5000"
	}
	return cfg, nil
}
