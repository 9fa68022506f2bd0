package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DevJWTSecret is the fallback signing secret. Load refuses it outside dev mode.
const DevJWTSecret = "dev-secret-change-me"

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Env    string
	Server struct {
		Addr           string
		RequestTimeout time.Duration `mapstructure:"request_timeout"`
	}
	Database struct {
		Path string
	}
	Auth struct {
		JWTSecret  string        `mapstructure:"jwt_secret"`
		TokenTTL   time.Duration `mapstructure:"token_ttl"`
		BcryptCost int           `mapstructure:"bcrypt_cost"`
		Seed       []SeedAccount
	}
	Attachments struct {
		Dir      string
		MaxBytes int64 `mapstructure:"max_bytes"`
	}
	Storage struct {
		Driver    string
		Bucket    string
		KeyPrefix string `mapstructure:"key_prefix"`
		Region    string
		Endpoint  string
	}
	AWS struct {
		Profile string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	RateLimit RateLimit `mapstructure:"ratelimit"`
	CORS      struct {
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	}
	Log struct {
		Level  string
		Format string
	}
}

// SeedAccount is an account created at startup when absent.
type SeedAccount struct {
	Username string
	Password string
	Role     string
	FullName string `mapstructure:"full_name"`
}

// RateLimit configures the login token bucket.
type RateLimit struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int           `mapstructure:"refill_tokens"`
	RefillInterval time.Duration `mapstructure:"refill_interval"`
	TTL            time.Duration
	Prefix         string
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	_ = godotenv.Load() // optional .env, never overrides real env vars

	v := viper.New()
	v.SetEnvPrefix("EQUIPMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("server.addr", "0.0.0.0:3000")
	v.SetDefault("server.request_timeout", 5*time.Second)
	v.SetDefault("database.path", "data/equipment_monitoring.db")
	v.SetDefault("auth.jwt_secret", DevJWTSecret)
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("attachments.dir", "data/uploads")
	v.SetDefault("attachments.max_bytes", int64(10<<20))
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.key_prefix", "equipment-reports")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("aws.profile", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.capacity", 10)
	v.SetDefault("ratelimit.refill_tokens", 1)
	v.SetDefault("ratelimit.refill_interval", 6*time.Second)
	v.SetDefault("ratelimit.ttl", 10*time.Minute)
	v.SetDefault("ratelimit.prefix", "equipmon:login")
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate checks values that cannot be defaulted sensibly.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("auth jwt secret is required")
	}
	if c.Env != "dev" && c.Auth.JWTSecret == DevJWTSecret {
		return errors.New("auth jwt secret must be set outside dev")
	}
	switch c.Storage.Driver {
	case "local":
		if c.Attachments.Dir == "" {
			return errors.New("attachments dir is required for local storage")
		}
	case "s3":
		if c.Storage.Bucket == "" {
			return errors.New("storage bucket is required for s3 storage")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Attachments.MaxBytes <= 0 {
		return errors.New("attachments max bytes must be positive")
	}
	return nil
}
