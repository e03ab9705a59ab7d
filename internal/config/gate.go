package config

type Gate struct {
	Retention int `env:"RETENTION,expand" envDefault:"7"`
}
