package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (FULFIL_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (FULFIL_DATABASE_URL or DATABASE_URL)" flag:"database-url"`

	// RedisAddr enables the reference-data cache when set. Empty means
	// cacheless operation, every lookup hits PostgreSQL.
	RedisAddr string `default:"" usage:"Redis address for the reference-data cache" flag:"redis-addr"`

	// CardKeyHex is the hex-encoded 32-byte key for card number encryption.
	CardKeyHex string `usage:"Hex-encoded 32-byte card encryption key (FULFIL_CARD_KEY_HEX)" flag:"card-key-hex"`

	Kafka     KafkaConfig
	Media     MediaConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// KafkaConfig controls the order event stream. No brokers means events are
// dropped.
type KafkaConfig struct {
	Brokers []string `default:"" usage:"Kafka broker addresses for order events"`
	Topic   string   `default:"order-events" usage:"Kafka topic for order events"`
}

// MediaConfig controls storage of post-sale images.
type MediaConfig struct {
	Dir     string `default:"./media" usage:"Directory for uploaded images" flag:"media-dir"`
	BaseURL string `default:"/media" usage:"Public base URL for uploaded images" flag:"media-base-url"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string `default:"*" usage:"Allowed CORS origins"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "FULFIL",
		Files:     []string{"config.yaml", "/etc/fulfillment/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set FULFIL_DATABASE_URL or DATABASE_URL")
	}
	if cfg.CardKeyHex == "" {
		return nil, errors.New("card encryption key is required: set FULFIL_CARD_KEY_HEX")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that use
// standard names like DATABASE_URL and PORT onto the FULFIL_-prefixed
// configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
