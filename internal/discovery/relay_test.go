package discovery

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestRelay_PreservesOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan string)
	r := newRelay(out)
	go r.run(ctx)

	// pushes never block even with nobody reading yet
	for i := 0; i < 100; i++ {
		r.push(fmt.Sprint(i))
	}

	for i := 0; i < 100; i++ {
		select {
		case got := <-out:
			if got != fmt.Sprint(i) {
				t.Fatalf("got %s at position %d", got, i)
			}
		case <-time.After(time.Second):
			t.Fatalf("relay stalled at %d", i)
		}
	}
}

func TestRelay_ClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan string)
	r := newRelay(out)
	go r.run(ctx)

	r.push("late")
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-out:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("relay did not close its output")
		}
	}
}
