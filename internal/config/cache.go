package config

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

type Cache struct {
	MaxSize ByteSize `env:"MAX_SIZE,expand" envDefault:"1GB"`
	Memory  Memory   `envPrefix:"MEMORY_"`
}

type Memory struct {
	Entries int           `env:"ENTRIES,expand" envDefault:"32"`
	TTL     time.Duration `env:"TTL,expand" envDefault:"10m"`
}

// ByteSize is a size in bytes parsed from a human readable value, ie. "500MB".
type ByteSize int64

func (s *ByteSize) UnmarshalText(text []byte) error {
	size, err := humanize.ParseBytes(string(text))
	if err != nil {
		return errors.WithStack(err)
	}

	*s = ByteSize(size)

	return nil
}

func (s ByteSize) String() string {
	return humanize.Bytes(uint64(s))
}
