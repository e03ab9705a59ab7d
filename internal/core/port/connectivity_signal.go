package port

import (
	"context"

	"github.com/bornholm/casecache/internal/core/model"
)

// ConnectivitySignal is the raw online/offline signal of the host.
type ConnectivitySignal interface {
	// Watch emits connectivity states until the context is done, then closes
	// the returned channel. Consecutive identical states may be emitted.
	Watch(ctx context.Context) (<-chan model.ConnectivityState, error)
}
