package config

import "time"

type Fetcher struct {
	Timeout    time.Duration `env:"TIMEOUT,expand" envDefault:"1m"`
	MaxSize    ByteSize      `env:"MAX_SIZE,expand" envDefault:"100MB"`
	RateLimit  time.Duration `env:"RATE_LIMIT,expand" envDefault:"0s"`
	Burst      int           `env:"BURST,expand" envDefault:"1"`
	MaxRetries int           `env:"MAX_RETRIES,expand" envDefault:"3"`
}
