package probe

import (
	"context"

	"github.com/bornholm/casecache/internal/core/model"
	"github.com/bornholm/casecache/internal/core/port"
)

// StaticSignal emits a single fixed state, ie. to force the offline mode.
type StaticSignal struct {
	state model.ConnectivityState
}

// Watch implements port.ConnectivitySignal.
func (s *StaticSignal) Watch(ctx context.Context) (<-chan model.ConnectivityState, error) {
	states := make(chan model.ConnectivityState, 1)
	states <- s.state

	go func() {
		<-ctx.Done()
		close(states)
	}()

	return states, nil
}

func NewStaticSignal(state model.ConnectivityState) *StaticSignal {
	return &StaticSignal{state: state}
}

var _ port.ConnectivitySignal = &StaticSignal{}
