package service

import (
	"context"
	"testing"
	"time"

	"github.com/bornholm/casecache/internal/core/model"
	"github.com/pkg/errors"
)

func TestConnectivityObserverTransitions(t *testing.T) {
	ctx := context.Background()
	observer := NewConnectivityObserver()

	if e, g := model.Online, observer.State(); e != g {
		t.Errorf("observer.State(): expected '%v', got '%v'", e, g)
	}

	if observer.Confident() {
		t.Errorf("expected observer not to be confident without signal")
	}

	transitions := make([]ConnectivityTransition, 0)
	unsubscribe := observer.OnChange(func(ctx context.Context, transition ConnectivityTransition) {
		transitions = append(transitions, transition)
	})

	select {
	case <-observer.Signaled():
		t.Errorf("expected observer not to be signaled yet")
	default:
	}

	// Identical state is not a transition
	if observer.Notify(ctx, model.Online) {
		t.Errorf("expected no transition")
	}

	if !observer.Confident() {
		t.Errorf("expected observer to be confident after a signal")
	}

	<-observer.Signaled()

	observer.Notify(ctx, model.Offline)
	observer.Notify(ctx, model.Offline)
	observer.Notify(ctx, model.Online)

	if e, g := 2, len(transitions); e != g {
		t.Fatalf("len(transitions): expected '%v', got '%v'", e, g)
	}

	if e, g := model.Offline, transitions[0].To; e != g {
		t.Errorf("transitions[0].To: expected '%v', got '%v'", e, g)
	}

	if e, g := model.Offline, transitions[1].From; e != g {
		t.Errorf("transitions[1].From: expected '%v', got '%v'", e, g)
	}

	unsubscribe()

	observer.Notify(ctx, model.Offline)

	if e, g := 2, len(transitions); e != g {
		t.Errorf("len(transitions) after unsubscribe: expected '%v', got '%v'", e, g)
	}
}

type channelSignal chan model.ConnectivityState

func (s channelSignal) Watch(ctx context.Context) (<-chan model.ConnectivityState, error) {
	return s, nil
}

func TestConnectivityObserverWatch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	observer := NewConnectivityObserver()

	changed := make(chan ConnectivityTransition, 2)
	observer.OnChange(func(ctx context.Context, transition ConnectivityTransition) {
		changed <- transition
	})

	signal := make(channelSignal)

	done := make(chan error)
	go func() {
		done <- observer.Watch(ctx, signal)
	}()

	signal <- model.Offline
	signal <- model.Online
	close(signal)

	if err := <-done; err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	for _, expected := range []model.ConnectivityState{model.Offline, model.Online} {
		transition := <-changed
		if e, g := expected, transition.To; e != g {
			t.Errorf("transition.To: expected '%v', got '%v'", e, g)
		}
	}

	if err := observer.Watch(ctx, nil); err != nil {
		t.Errorf("%+v", errors.WithStack(err))
	}
}

func TestConnectivityObserverDeferredNotifyFromListener(t *testing.T) {
	ctx := context.Background()
	observer := NewConnectivityObserver()

	renotified := make(chan bool, 1)
	observer.OnChange(func(ctx context.Context, transition ConnectivityTransition) {
		if transition.To != model.Offline {
			return
		}

		// Notify must not be called while the transition is being delivered
		go func() {
			renotified <- observer.Notify(ctx, model.Online)
		}()
	})

	observer.Notify(ctx, model.Offline)

	select {
	case changed := <-renotified:
		if !changed {
			t.Errorf("expected deferred notification to be a transition")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("deferred notification was not delivered")
	}

	if e, g := model.Online, observer.State(); e != g {
		t.Errorf("observer.State(): expected '%v', got '%v'", e, g)
	}
}
