package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/annel0/noisefield/internal/logging"
	"github.com/annel0/noisefield/internal/noise"
)

// Config корневая структура конфигурации сервиса.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Noise     NoiseConfig     `yaml:"noise"`
	Sampler   SamplerConfig   `yaml:"sampler"`
	Storage   StorageConfig   `yaml:"storage"`
	Cache     CacheConfig     `yaml:"cache"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

// NoiseConfig — параметры шума по умолчанию для запросов без явных настроек.
type NoiseConfig struct {
	Kind       string         `yaml:"kind"`
	Dimensions int            `yaml:"dimensions"`
	Tiling     bool           `yaml:"tiling"`
	Settings   noise.Settings `yaml:"settings"`
	Domain     DomainConfig   `yaml:"domain"`
}

// DomainConfig — SpaceTRS в виде массивов для YAML.
type DomainConfig struct {
	Translation [3]float32 `yaml:"translation"`
	Rotation    [3]float32 `yaml:"rotation"`
	Scale       [3]float32 `yaml:"scale"`
}

type SamplerConfig struct {
	// Горутин на одно поле, 0 — runtime.GOMAXPROCS(0)
	Workers       int `yaml:"workers"`
	MaxResolution int `yaml:"max_resolution"`
	MaxPoints     int `yaml:"max_points"`
}

type StorageConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

type CacheConfig struct {
	Backend     string        `yaml:"backend"` // memory | redis | none
	RedisAddr   string        `yaml:"redis_addr"`
	RedisDB     int           `yaml:"redis_db"`
	TTL         time.Duration `yaml:"ttl"`
	WriteBehind time.Duration `yaml:"write_behind"`
	// NATSURL включает рассылку инвалидаций между экземплярами, пусто — выключена
	NATSURL     string `yaml:"nats_url"`
	NATSSubject string `yaml:"nats_subject"`
}

type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type LoggingConfig struct {
	Dir          string `yaml:"dir"`
	ConsoleLevel string `yaml:"console_level"`
	FileLevel    string `yaml:"file_level"`
	// Components переопределяет пороги компонента: "DEBUG" или "DEBUG/TRACE"
	Components map[string]string `yaml:"components"`
}

// Default возвращает конфигурацию, с которой сервис стартует без файла.
func Default() *Config {
	return &Config{
		Noise: NoiseConfig{
			Kind:       noise.KindPerlin.String(),
			Dimensions: 3,
			Settings:   noise.DefaultSettings(),
			Domain:     DomainConfig{Scale: [3]float32{8, 8, 8}},
		},
		Sampler: SamplerConfig{
			Workers:       0,
			MaxResolution: 512,
			MaxPoints:     1 << 16,
		},
		Storage: StorageConfig{Path: "data/fields"},
		Cache: CacheConfig{
			Backend:     "memory",
			RedisAddr:   "localhost:6379",
			TTL:         10 * time.Minute,
			WriteBehind: 5 * time.Second,
		},
		Telemetry: TelemetryConfig{
			Endpoint:    "localhost:4318",
			ServiceName: "noisefield",
			SampleRatio: 1,
		},
		Logging: LoggingConfig{
			Dir:          "logs",
			ConsoleLevel: "INFO",
			FileLevel:    "DEBUG",
		},
	}
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "NOISE_REST_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "NOISE_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}

// ParsedKind разбирает имя типа шума.
func (n NoiseConfig) ParsedKind() (noise.Kind, error) {
	return noise.ParseKind(n.Kind)
}

// SpaceTRS возвращает преобразование области шума.
func (n NoiseConfig) SpaceTRS() noise.SpaceTRS {
	return n.Domain.SpaceTRS()
}

// SpaceTRS переводит массивы в noise.SpaceTRS. Нулевой масштаб по
// любой оси трактуется как единичный.
func (d DomainConfig) SpaceTRS() noise.SpaceTRS {
	trs := noise.SpaceTRS{
		Translation: d.Translation,
		Rotation:    d.Rotation,
		Scale:       d.Scale,
	}
	for i, v := range trs.Scale {
		if v == 0 {
			trs.Scale[i] = 1
		}
	}
	return trs
}

// Validate проверяет согласованность конфигурации.
func (c *Config) Validate() error {
	if _, err := c.Noise.ParsedKind(); err != nil {
		return fmt.Errorf("noise.kind: %w", err)
	}
	if c.Noise.Dimensions < 1 || c.Noise.Dimensions > 3 {
		return fmt.Errorf("noise.dimensions: %w", noise.ErrInvalidDimensions)
	}
	if err := c.Noise.Settings.Validate(); err != nil {
		return fmt.Errorf("noise.settings: %w", err)
	}
	if c.Sampler.Workers < 0 {
		return fmt.Errorf("sampler.workers must be >= 0, got %d", c.Sampler.Workers)
	}
	if c.Sampler.MaxResolution < 1 || c.Sampler.MaxPoints < 1 {
		return fmt.Errorf("sampler limits must be positive")
	}
	switch c.Cache.Backend {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("cache.backend: unknown backend %q", c.Cache.Backend)
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry.sample_ratio must be in [0, 1], got %v", c.Telemetry.SampleRatio)
	}
	for component, value := range c.Logging.Components {
		if _, err := logging.ParseLevels(value, logging.Levels{}); err != nil {
			return fmt.Errorf("logging.components.%s: %w", component, err)
		}
	}
	if !c.Storage.InMemory && c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required unless storage.in_memory is set")
	}
	return nil
}

// Load читает YAML файл конфигурации поверх Default.
// Если path == "", пытается прочитать из ENV NOISE_CONFIG или возвращает Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("NOISE_CONFIG")
		if path == "" {
			return cfg, nil // конфиг не задан — использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
