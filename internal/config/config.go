// Package config loads settings for the catalog service and the storefront.
// Values come from the environment (with defaults) and may be overlaid by a
// YAML file named by BAZAR_CONFIG or an explicit path.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const EnvConfigFile = "BAZAR_CONFIG"

type Catalog struct {
	HTTPPort        string        `yaml:"http_port"`
	MongoURI        string        `yaml:"mongo_uri"`
	MongoDB         string        `yaml:"mongo_db"`
	RedisAddr       string        `yaml:"redis_addr"`
	RedisPassword   string        `yaml:"redis_password"`
	KafkaBrokers    []string      `yaml:"kafka_brokers"`
	KafkaTopic      string        `yaml:"kafka_topic"`
	KafkaGroupID    string        `yaml:"kafka_group_id"`
	ImageHostURL    string        `yaml:"image_host_url"`
	ImageHostPreset string        `yaml:"image_host_preset"`
	ImageHostFolder string        `yaml:"image_host_folder"`
	ImageTimeout    time.Duration `yaml:"image_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodySize     int64         `yaml:"max_body_size"`
	LogLevel        string        `yaml:"log_level"`
	Env             string        `yaml:"env"`
}

type Storefront struct {
	APIURL        string        `yaml:"api_url"`
	HTTPTimeout   time.Duration `yaml:"http_timeout"`
	DataDir       string        `yaml:"data_dir"`
	RedisAddr     string        `yaml:"redis_addr"`
	Profile       string        `yaml:"profile"`
	WhatsAppPhone string        `yaml:"whatsapp_phone"`
	RedirectDelay time.Duration `yaml:"redirect_delay"`
	LogLevel      string        `yaml:"log_level"`
	Env           string        `yaml:"env"`
}

func LoadCatalog(path string) (*Catalog, error) {
	cfg := &Catalog{
		HTTPPort:        getEnv("HTTP_PORT", "5000"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:         getEnv("MONGO_DB_NAME", "bazar"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:    splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "catalog.products.created"),
		KafkaGroupID:    getEnv("KAFKA_GROUP_ID", "catalog-cache-warmer"),
		ImageHostURL:    getEnv("IMAGE_HOST_URL", ""),
		ImageHostPreset: getEnv("IMAGE_HOST_PRESET", ""),
		ImageHostFolder: getEnv("IMAGE_HOST_FOLDER", "bazar"),
		ImageTimeout:    getEnvDuration("IMAGE_HOST_TIMEOUT", 30*time.Second),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxBodySize:     int64(getEnvInt("MAX_BODY_SIZE", 26<<20)), // 5 images of 5MB plus form fields
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Env:             getEnv("APP_ENV", "development"),
	}
	if err := overlay(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadStorefront(path string) (*Storefront, error) {
	cfg := &Storefront{
		APIURL:        getEnv("BAZAR_API_URL", "http://localhost:5000/api"),
		HTTPTimeout:   getEnvDuration("BAZAR_HTTP_TIMEOUT", 0),
		DataDir:       getEnv("BAZAR_DATA_DIR", defaultDataDir()),
		RedisAddr:     getEnv("BAZAR_REDIS_ADDR", ""),
		Profile:       getEnv("BAZAR_PROFILE", "default"),
		WhatsAppPhone: getEnv("BAZAR_WHATSAPP_PHONE", "573004158815"),
		RedirectDelay: getEnvDuration("BAZAR_REDIRECT_DELAY", 2*time.Second),
		LogLevel:      getEnv("LOG_LEVEL", "warn"),
		Env:           getEnv("APP_ENV", "development"),
	}
	if err := overlay(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overlay decodes the YAML file at path (or $BAZAR_CONFIG) over cfg. Keys
// absent from the file keep their current values.
func overlay(path string, cfg interface{}) error {
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "bazar")
	}
	return ".bazar"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
