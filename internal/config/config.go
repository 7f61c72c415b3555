package config

import (
	"fmt"
	"strings"
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
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type CredStoreConfig struct {
	Prefix  string
	IdleTTL time.Duration
}

// BackendConfig points at the model-management REST API.
type BackendConfig struct {
	BaseURL      string
	Timeout      time.Duration
	LoginPath    string
	RegisterPath string
	RefreshPath  string
	LogoutPath   string
	MePath       string
	ModelsPath   string
	NavbarPath   string
}

type SessionConfig struct {
	DefaultTTL      time.Duration
	ExpiryThreshold time.Duration
	CheckInterval   time.Duration
	CheckTimeout    time.Duration
	CookieSecret    string
	CookieSecure    bool
}

type NavbarConfig struct {
	CacheTTL time.Duration
}

type I18nConfig struct {
	DefaultLanguage string
}

type LogConfig struct {
	Level string
}

type AppConfig struct {
	Environment  string
	HTTP         HTTPConfig
	Redis        RedisConfig
	CredStore    CredStoreConfig
	Backend      BackendConfig
	Session      SessionConfig
	Navbar       NavbarConfig
	I18n         I18nConfig
	Log          LogConfig
	AllowOrigins []string
}

// placeholderSecret is the development secret shipped in config/web.yaml.
const placeholderSecret = "change-me"

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("web")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("CODEHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*AppConfig, error) {
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
	return &cfg, nil
}

func (c *AppConfig) validate() error {
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return fmt.Errorf("backend.baseurl is required")
	}
	if c.Environment == "production" {
		switch strings.TrimSpace(c.Session.CookieSecret) {
		case "":
			return fmt.Errorf("session.cookiesecret is required in production")
		case placeholderSecret:
			return fmt.Errorf("session.cookiesecret must be changed from %q in production", placeholderSecret)
		}
	}
	if c.Session.ExpiryThreshold <= 0 {
		return fmt.Errorf("session.expirythreshold must be positive")
	}
	if c.Session.CheckInterval < time.Second {
		return fmt.Errorf("session.checkinterval must be at least 1s")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8000)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "60s") // uploads are proxied through
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")

	v.SetDefault("credstore.prefix", "credstore")
	v.SetDefault("credstore.idlettl", "720h")

	v.SetDefault("backend.baseurl", "http://127.0.0.1:8080")
	v.SetDefault("backend.timeout", "15s")
	v.SetDefault("backend.loginpath", "/api/auth/login")
	v.SetDefault("backend.registerpath", "/api/auth/register")
	v.SetDefault("backend.refreshpath", "/api/auth/refresh")
	v.SetDefault("backend.logoutpath", "/api/auth/logout")
	v.SetDefault("backend.mepath", "/api/auth/me")
	v.SetDefault("backend.modelspath", "/api/models")
	v.SetDefault("backend.navbarpath", "/components/navbar.html")

	v.SetDefault("session.defaultttl", "15m")
	v.SetDefault("session.expirythreshold", "5m")
	v.SetDefault("session.checkinterval", "60s")
	v.SetDefault("session.checktimeout", "10s")
	v.SetDefault("session.cookiesecret", "")
	v.SetDefault("session.cookiesecure", false)

	v.SetDefault("navbar.cachettl", "5m")

	v.SetDefault("i18n.defaultlanguage", "en")

	v.SetDefault("log.level", "")

	v.SetDefault("alloworigins", []string{})
}
