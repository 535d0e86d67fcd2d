package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const devSessionSecret = "dev-secret-change-in-production-use-openssl-rand-hex-32"

type Config struct {
	Env               string
	Host              string
	Port              string
	BaseURL           string
	OAuthCallbackBase string

	SessionSecret string
	SessionStore  string // memory | sqlite | redis | mongo
	UserStore     string // memory | sqlite | mongo

	DatabasePath  string
	MongoURI      string
	MongoDatabase string
	RedisAddr     string
	RedisPassword string

	Google   OAuthClient
	Facebook OAuthClient
	Apple    AppleClient

	DeletionMaxAge time.Duration
}

type OAuthClient struct {
	ClientID     string
	ClientSecret string
}

func (c OAuthClient) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type AppleClient struct {
	ClientID   string
	TeamID     string
	KeyID      string
	PrivateKey string
}

func (c AppleClient) Enabled() bool {
	return c.ClientID != "" && c.TeamID != "" && c.KeyID != "" && c.PrivateKey != ""
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("ENV", "development")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", "8080")
	v.SetDefault("SESSION_STORE", "sqlite")
	v.SetDefault("USER_STORE", "sqlite")
	v.SetDefault("DATABASE_PATH", "funnyjoke.db")
	v.SetDefault("MONGO_DATABASE", "funnyjoke")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("DELETION_MAX_AGE", "24h")
	v.AutomaticEnv()
	return v
}

func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env:               strings.ToLower(v.GetString("ENV")),
		Host:              v.GetString("HOST"),
		Port:              v.GetString("PORT"),
		BaseURL:           normalizeOrigin(v.GetString("BASE_URL")),
		OAuthCallbackBase: normalizeOrigin(v.GetString("OAUTH_CALLBACK_BASE")),
		SessionSecret:     v.GetString("SESSION_SECRET"),
		SessionStore:      strings.ToLower(v.GetString("SESSION_STORE")),
		UserStore:         strings.ToLower(v.GetString("USER_STORE")),
		DatabasePath:      v.GetString("DATABASE_PATH"),
		MongoURI:          v.GetString("MONGO_URI"),
		MongoDatabase:     v.GetString("MONGO_DATABASE"),
		RedisAddr:         v.GetString("REDIS_ADDR"),
		RedisPassword:     v.GetString("REDIS_PASSWORD"),
		Google: OAuthClient{
			ClientID:     v.GetString("GOOGLE_CLIENT_ID"),
			ClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		},
		Facebook: OAuthClient{
			ClientID:     v.GetString("FACEBOOK_CLIENT_ID"),
			ClientSecret: v.GetString("FACEBOOK_CLIENT_SECRET"),
		},
		Apple: AppleClient{
			ClientID: v.GetString("APPLE_CLIENT_ID"),
			TeamID:   v.GetString("APPLE_TEAM_ID"),
			KeyID:    v.GetString("APPLE_KEY_ID"),
			// .env files keep the PEM on one line with literal \n escapes
			PrivateKey: strings.ReplaceAll(v.GetString("APPLE_PRIVATE_KEY"), `\n`, "\n"),
		},
		DeletionMaxAge: v.GetDuration("DELETION_MAX_AGE"),
	}

	if cfg.SessionSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("SESSION_SECRET is required in production")
		}
		cfg.SessionSecret = devSessionSecret
		slog.Warn("using default SESSION_SECRET; generate one with: openssl rand -hex 32")
	}

	switch cfg.SessionStore {
	case "memory", "sqlite", "redis", "mongo":
	default:
		return nil, fmt.Errorf("unknown SESSION_STORE %q", cfg.SessionStore)
	}
	switch cfg.UserStore {
	case "memory", "sqlite", "mongo":
	default:
		return nil, fmt.Errorf("unknown USER_STORE %q", cfg.UserStore)
	}
	if (cfg.SessionStore == "mongo" || cfg.UserStore == "mongo") && cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI is required for the mongo store")
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// PublicURL is the origin used in absolute links.
func (c *Config) PublicURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return "http://localhost:" + c.Port
}

// CallbackURL builds an absolute OAuth callback URL for path.
func (c *Config) CallbackURL(path string) string {
	origin := c.OAuthCallbackBase
	if origin == "" {
		origin = c.PublicURL()
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return origin + path
}

func normalizeOrigin(v string) string {
	return strings.TrimRight(strings.TrimSpace(v), "/")
}
