package main

import (
	"fmt"
	"time"

	"curate/internal/ratelimiter"

	"github.com/kelseyhightower/envconfig"
)

type config struct {
	Addr        string             `envconfig:"ADDR" default:":8080"`
	APIURL      string             `envconfig:"EXTERNAL_URL" default:"localhost:8080"`
	Env         string             `envconfig:"ENV" default:"development"`
	LogLevel    string             `envconfig:"LOG_LEVEL" default:"info"`
	CORSOrigins []string           `envconfig:"CORS_ORIGINS" default:"http://localhost:5173"`
	DB          dbConfig           `envconfig:"DB"`
	Auth        authConfig         `envconfig:"AUTH"`
	Cloudinary  cldConfig          `envconfig:"CLOUDINARY"`
	RateLimiter ratelimiter.Config `envconfig:"RATE_LIMITER"`
	SMTP        smtpConfig         `envconfig:"SMTP"`
	Seed        seedConfig         `envconfig:"SEED_ADMIN"`
	Timeout     time.Duration      `envconfig:"REQUEST_TIMEOUT" default:"60s"`
}

type dbConfig struct {
	Addr        string `envconfig:"ADDR" required:"true"`
	MaxConns    int32  `envconfig:"MAX_CONNS" default:"10"`
	MaxIdleTime string `envconfig:"MAX_IDLE_TIME" default:"15m"`
}

type authConfig struct {
	Basic basicConfig `envconfig:"BASIC"`
	Token tokenConfig `envconfig:"TOKEN"`
}

type tokenConfig struct {
	Secret string        `envconfig:"SECRET" required:"true"`
	Exp    time.Duration `envconfig:"EXP" default:"168h"`
	Iss    string        `envconfig:"ISS" default:"curate"`
}

type basicConfig struct {
	User string `envconfig:"USER"`
	Pass string `envconfig:"PASS"`
}

type cldConfig struct {
	URL    string `envconfig:"URL" required:"true"`
	Folder string `envconfig:"FOLDER" default:"curate"`
}

type smtpConfig struct {
	Host     string `envconfig:"HOST"`
	Port     int    `envconfig:"PORT" default:"587"`
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
	From     string `envconfig:"FROM"`
	NotifyTo string `envconfig:"NOTIFY_TO"`
}

// seedConfig guards the first-boot admin account.
type seedConfig struct {
	Enabled  bool   `envconfig:"ENABLED" default:"false"`
	Email    string `envconfig:"EMAIL"`
	Password string `envconfig:"PASSWORD"`
}

func loadConfig() (config, error) {
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to process configuration: %w", err)
	}
	return cfg, nil
}
