package ratelimiter

import "time"

type Limiter interface {
	Allow(ip string) (bool, time.Duration)
}

type Config struct {
	RequestsPerTimeFrame int           `envconfig:"REQUESTS" default:"1000"`
	TimeFrame            time.Duration `envconfig:"WINDOW" default:"15m"`
	Enabled              bool          `envconfig:"ENABLED" default:"true"`
}
