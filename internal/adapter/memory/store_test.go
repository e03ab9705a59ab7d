package memory

import (
	"testing"

	"github.com/bornholm/casecache/internal/core/port"
	"github.com/bornholm/casecache/internal/core/port/testsuite"
)

func TestBinaryStore(t *testing.T) {
	testsuite.TestBinaryStore(t, func(t *testing.T) (port.BinaryStore, error) {
		return NewBinaryStore(), nil
	})
}

func TestAccountStore(t *testing.T) {
	testsuite.TestAccountStore(t, func(t *testing.T) (testsuite.AccountStore, error) {
		return NewAccountStore(), nil
	})
}

func TestGrantStore(t *testing.T) {
	testsuite.TestGrantStore(t, func(t *testing.T) (port.GrantStore, error) {
		return NewGrantStore(), nil
	})
}
