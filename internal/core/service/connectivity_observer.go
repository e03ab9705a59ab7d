package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bornholm/casecache/internal/core/model"
	"github.com/bornholm/casecache/internal/core/port"
	"github.com/pkg/errors"
)

type ConnectivityTransition struct {
	From model.ConnectivityState
	To   model.ConnectivityState
	At   time.Time
}

// ConnectivityListener is called synchronously for each transition and must
// not block. Long running work has to be deferred by the listener itself.
// Listeners run while the observer delivery lock is held: calling Notify from
// a listener, or waiting on work that calls it, deadlocks.
type ConnectivityListener func(ctx context.Context, transition ConnectivityTransition)

type listenerEntry struct {
	id       uint64
	listener ConnectivityListener
}

// ConnectivityObserver tracks the online/offline state of the host. Without
// any signal it assumes the host is online.
type ConnectivityObserver struct {
	state      model.ConnectivityState
	confident  bool
	stateMutex sync.RWMutex
	signaled   chan struct{}

	listeners      []listenerEntry
	nextListenerID uint64
	listenersMutex sync.Mutex

	// Serializes transitions so that listeners see them in order
	deliveryMutex sync.Mutex
}

func (o *ConnectivityObserver) State() model.ConnectivityState {
	o.stateMutex.RLock()
	defer o.stateMutex.RUnlock()

	return o.state
}

// Confident returns false while no platform signal has been received.
func (o *ConnectivityObserver) Confident() bool {
	o.stateMutex.RLock()
	defer o.stateMutex.RUnlock()

	return o.confident
}

// Signaled returns a channel closed once the first platform signal has been
// received.
func (o *ConnectivityObserver) Signaled() <-chan struct{} {
	return o.signaled
}

// OnChange registers a listener and returns the function unregistering it.
func (o *ConnectivityObserver) OnChange(listener ConnectivityListener) func() {
	o.listenersMutex.Lock()
	defer o.listenersMutex.Unlock()

	id := o.nextListenerID
	o.nextListenerID++

	o.listeners = append(o.listeners, listenerEntry{id: id, listener: listener})

	return func() {
		o.listenersMutex.Lock()
		defer o.listenersMutex.Unlock()

		for i, e := range o.listeners {
			if e.id == id {
				o.listeners = append(o.listeners[:i:i], o.listeners[i+1:]...)
				return
			}
		}
	}
}

// Notify applies a raw platform signal and returns true if it caused a transition.
func (o *ConnectivityObserver) Notify(ctx context.Context, state model.ConnectivityState) bool {
	o.deliveryMutex.Lock()
	defer o.deliveryMutex.Unlock()

	o.stateMutex.Lock()
	if !o.confident {
		o.confident = true
		close(o.signaled)
	}
	previous := o.state
	o.state = state
	o.stateMutex.Unlock()

	if previous == state {
		return false
	}

	transition := ConnectivityTransition{
		From: previous,
		To:   state,
		At:   time.Now(),
	}

	slog.DebugContext(ctx, "connectivity changed", slog.String("from", string(previous)), slog.String("to", string(state)))

	o.listenersMutex.Lock()
	listeners := make([]listenerEntry, len(o.listeners))
	copy(listeners, o.listeners)
	o.listenersMutex.Unlock()

	for _, e := range listeners {
		e.listener(ctx, transition)
	}

	return true
}

// Watch consumes the given signal until the context is done or the signal
// ends.
func (o *ConnectivityObserver) Watch(ctx context.Context, signal port.ConnectivitySignal) error {
	if signal == nil {
		slog.WarnContext(ctx, "no connectivity signal available, assuming host is online")
		return nil
	}

	states, err := signal.Watch(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case state, ok := <-states:
			if !ok {
				return nil
			}

			o.Notify(ctx, state)
		}
	}
}

func NewConnectivityObserver() *ConnectivityObserver {
	return &ConnectivityObserver{
		state:     model.Online,
		signaled:  make(chan struct{}),
		listeners: make([]listenerEntry, 0),
	}
}
