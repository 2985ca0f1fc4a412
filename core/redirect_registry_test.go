package core

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRedirectRegistry_DeliverResolvesWait(t *testing.T) {
	registry := NewRedirectRegistry()
	wait, err := registry.Register("abc")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if wait.Outcome() != WaitOutcomePending {
		t.Fatalf("expected pending wait, got %q", wait.Outcome())
	}

	if !registry.Deliver("abc", "wholesale-test-app://landing/?state=abc") {
		t.Fatalf("expected delivery to match")
	}
	got, err := wait.Await(context.Background())
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if got != "wholesale-test-app://landing/?state=abc" {
		t.Fatalf("unexpected url %q", got)
	}

	if registry.Deliver("abc", "wholesale-test-app://landing/?state=abc&second=1") {
		t.Fatalf("expected second delivery to be unmatched")
	}
	again, err := wait.Await(context.Background())
	if err != nil || again != got {
		t.Fatalf("expected repeated await to return %q, got %q err=%v", got, again, err)
	}
	if registry.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", registry.Len())
	}
}

func TestRedirectRegistry_DeliverWithoutRegisterIsUnmatched(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	logger := newCaptureLogger()
	registry := NewRedirectRegistry(
		WithRedirectRegistryMetrics(metrics),
		WithRedirectRegistryLogger(logger),
	)
	if registry.Deliver("nobody", "wholesale-test-app://landing/?state=nobody") {
		t.Fatalf("expected unmatched delivery")
	}
	if metrics.counterTotal(MetricRedirectUnmatched) != 1 {
		t.Fatalf("expected unmatched counter")
	}
	if !logger.hasLog("warn", "redirect delivered with no pending wait") {
		t.Fatalf("expected unmatched warn log")
	}
}

func TestRedirectRegistry_DuplicateTokenFails(t *testing.T) {
	registry := NewRedirectRegistry()
	first, err := registry.Register("dup")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err = registry.Register("dup")
	if !IsDuplicateToken(err) {
		t.Fatalf("expected duplicate token error, got %v", err)
	}
	if registry.Len() != 1 {
		t.Fatalf("expected one pending wait, got %d", registry.Len())
	}

	registry.Deliver("dup", "u1")
	if _, err := first.Await(context.Background()); err != nil {
		t.Fatalf("await first: %v", err)
	}
	if _, err := registry.Register("dup"); err != nil {
		t.Fatalf("expected token reuse after resolution, got %v", err)
	}
}

func TestRedirectRegistry_ConcurrentDuplicateRegisterKeepsOne(t *testing.T) {
	registry := NewRedirectRegistry()
	var (
		wg         sync.WaitGroup
		succeeded  atomic.Int32
		duplicates atomic.Int32
	)
	start := make(chan struct{})
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := registry.Register("shared")
			switch {
			case err == nil:
				succeeded.Add(1)
			case IsDuplicateToken(err):
				duplicates.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if succeeded.Load() != 1 || duplicates.Load() != 1 {
		t.Fatalf("expected one success and one duplicate, got %d/%d", succeeded.Load(), duplicates.Load())
	}
	if registry.Len() != 1 {
		t.Fatalf("expected exactly one pending wait, got %d", registry.Len())
	}
}

func TestRedirectRegistry_CancelThenDeliverIsUnmatched(t *testing.T) {
	registry := NewRedirectRegistry()
	wait, err := registry.Register("c1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !registry.Cancel(wait) {
		t.Fatalf("expected cancel to remove wait")
	}
	if registry.Cancel(wait) {
		t.Fatalf("expected second cancel to be a no-op")
	}
	if registry.Deliver("c1", "u") {
		t.Fatalf("expected delivery after cancel to be unmatched")
	}
	_, err = wait.Await(context.Background())
	if !IsRedirectCancelled(err) {
		t.Fatalf("expected cancelled result, got %v", err)
	}
	if wait.Outcome() != WaitOutcomeCancelled {
		t.Fatalf("expected cancelled outcome, got %q", wait.Outcome())
	}
}

func TestRedirectRegistry_StaleCancelDoesNotRemoveNewWait(t *testing.T) {
	registry := NewRedirectRegistry()
	first, _ := registry.Register("t")
	registry.Deliver("t", "u1")
	second, err := registry.Register("t")
	if err != nil {
		t.Fatalf("register second: %v", err)
	}
	if registry.Cancel(first) {
		t.Fatalf("expected stale handle cancel to be ignored")
	}
	if second.Outcome() != WaitOutcomePending || registry.Len() != 1 {
		t.Fatalf("expected second wait to remain pending")
	}
}

func TestRedirectWait_AwaitContextCancelRemovesEntry(t *testing.T) {
	registry := NewRedirectRegistry()
	wait, err := registry.Register("timeout")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = wait.Await(ctx)
	if !IsRedirectCancelled(err) {
		t.Fatalf("expected cancelled error, got %v", err)
	}
	if registry.Len() != 0 {
		t.Fatalf("expected registry entry removed before await returned")
	}
	if registry.Deliver("timeout", "late") {
		t.Fatalf("expected late delivery to be unmatched")
	}
}

func TestRedirectWait_AwaitUnblocksOnDelivery(t *testing.T) {
	registry := NewRedirectRegistry()
	wait, _ := registry.Register("xyz")

	result := make(chan string, 1)
	go func() {
		got, err := wait.Await(context.Background())
		if err != nil {
			result <- "error: " + err.Error()
			return
		}
		result <- got
	}()

	time.Sleep(5 * time.Millisecond)
	registry.Deliver("xyz", "wholesale-test-app://landing/?state=xyz")

	select {
	case got := <-result:
		if got != "wholesale-test-app://landing/?state=xyz" {
			t.Fatalf("unexpected await result %q", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("await did not unblock")
	}
}

func TestRedirectRegistry_StressLeavesNoEntries(t *testing.T) {
	registry := NewRedirectRegistry()
	const total = 500
	rng := rand.New(rand.NewSource(7))
	deliverFirst := make([]bool, total)
	for i := range deliverFirst {
		deliverFirst[i] = rng.Intn(2) == 0
	}

	var wg sync.WaitGroup
	var resolved atomic.Int32
	for i := range total {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token := tokenN(i)
			wait, err := registry.Register(token)
			if err != nil {
				t.Errorf("register %s: %v", token, err)
				return
			}
			var inner sync.WaitGroup
			inner.Add(2)
			go func() {
				defer inner.Done()
				if deliverFirst[i] {
					registry.Deliver(token, "u-"+token)
				} else {
					registry.Cancel(wait)
				}
			}()
			go func() {
				defer inner.Done()
				if deliverFirst[i] {
					registry.Cancel(wait)
				} else {
					registry.Deliver(token, "u-"+token)
				}
			}()
			inner.Wait()
			got, err := wait.Await(context.Background())
			switch {
			case err == nil && got == "u-"+token:
				resolved.Add(1)
			case IsRedirectCancelled(err):
				resolved.Add(1)
			default:
				t.Errorf("unexpected terminal state for %s: %q %v", token, got, err)
			}
		}(i)
	}
	wg.Wait()

	if int(resolved.Load()) != total {
		t.Fatalf("expected %d terminal waits, got %d", total, resolved.Load())
	}
	if registry.Len() != 0 {
		t.Fatalf("expected no leaked entries, got %d", registry.Len())
	}
}

func TestRedirectRegistry_CancelAll(t *testing.T) {
	registry := NewRedirectRegistry()
	a, _ := registry.Register("a")
	b, _ := registry.Register("b")
	if got := registry.Tokens(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected tokens %#v", got)
	}
	if n := registry.CancelAll(); n != 2 {
		t.Fatalf("expected two cancelled waits, got %d", n)
	}
	for _, wait := range []*RedirectWait{a, b} {
		if _, err := wait.Await(context.Background()); !IsRedirectCancelled(err) {
			t.Fatalf("expected cancelled wait, got %v", err)
		}
	}
}
