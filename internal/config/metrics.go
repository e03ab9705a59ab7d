package config

type Metrics struct {
	// Empty disables the metrics endpoint
	Address string `env:"ADDRESS,expand"`
}
