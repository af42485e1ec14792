package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// MaxMultipartMemory bounds the form parser; the image limit itself is enforced later.
	MaxMultipartMemory int64
}

type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

type IdentityConfig struct {
	AuthURL   string
	JWTSecret string
	Timeout   time.Duration
}

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type StorageConfig struct {
	// Endpoint empty selects the in-process store.
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Prefix        string
	UseSSL        bool
	Region        string
	PublicBaseURL string
	PresignTTL    time.Duration
}

type SessionConfig struct {
	CookieName   string
	CookieSecure bool
	// CookieSecret signs the session cookie. Empty falls back to identity.jwtsecret.
	CookieSecret string
	IdleTTL      time.Duration
	SweepSpec    string
	TokenTTL     time.Duration
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Backend          BackendConfig
	Identity         IdentityConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Session          SessionConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	return load(v)
}

func load(v *viper.Viper) (*AppConfig, error) {
	v.SetEnvPrefix("FINDAVOTE")
	v.SetEnvKeyReplacer(envReplacer)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Session.CookieSecret == "" {
		cfg.Session.CookieSecret = cfg.Identity.JWTSecret
	}
	return &cfg, nil
}

func (c *AppConfig) validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("config: backend.baseurl is required")
	}
	if c.Identity.AuthURL == "" {
		return fmt.Errorf("config: identity.authurl is required")
	}
	if c.Identity.JWTSecret == "" {
		return fmt.Errorf("config: identity.jwtsecret is required")
	}
	if c.Storage.Endpoint != "" && c.Storage.Bucket == "" {
		return fmt.Errorf("config: storage.bucket is required with storage.endpoint")
	}
	return nil
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")
	v.SetDefault("http.maxmultipartmemory", 1<<20)

	v.SetDefault("backend.baseurl", "")
	v.SetDefault("backend.timeout", "10s")

	v.SetDefault("identity.authurl", "")
	v.SetDefault("identity.jwtsecret", "")
	v.SetDefault("identity.timeout", "10s")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.poolsize", 10)
	v.SetDefault("redis.dialtimeout", "3s")
	v.SetDefault("redis.readtimeout", "2s")
	v.SetDefault("redis.writetimeout", "2s")

	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.bucket", "findavote-posts")
	v.SetDefault("storage.prefix", "posts")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.publicbaseurl", "")
	v.SetDefault("storage.presignttl", "15m")

	v.SetDefault("session.cookiename", "fav_session")
	v.SetDefault("session.cookiesecure", false)
	v.SetDefault("session.cookiesecret", "")
	v.SetDefault("session.idlettl", "30m")
	v.SetDefault("session.sweepspec", "0 */5 * * * *") // every five minutes
	v.SetDefault("session.tokenttl", "720h")

	v.SetDefault("allowcorsorigins", []string{})
}
