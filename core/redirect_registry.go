package core

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type RedirectRegistryOption func(*RedirectRegistry)

func WithRedirectRegistryLogger(logger Logger) RedirectRegistryOption {
	return func(r *RedirectRegistry) {
		r.telemetry.logger = logger
	}
}

func WithRedirectRegistryMetrics(recorder MetricsRecorder) RedirectRegistryOption {
	return func(r *RedirectRegistry) {
		if recorder != nil {
			r.telemetry.metrics = recorder
		}
	}
}

func WithRedirectRegistryClock(clock Clock) RedirectRegistryOption {
	return func(r *RedirectRegistry) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// RedirectRegistry correlates pending redirect waits with app-link
// deliveries by state token. Each token maps to at most one unresolved wait,
// and each wait leaves the map exactly once, by delivery or cancellation.
type RedirectRegistry struct {
	telemetry telemetry
	clock     Clock

	mu    sync.Mutex
	waits map[string]*RedirectWait
}

func NewRedirectRegistry(opts ...RedirectRegistryOption) *RedirectRegistry {
	r := &RedirectRegistry{
		telemetry: newTelemetry(nil, nil),
		clock:     systemClock,
		waits:     map[string]*RedirectWait{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.telemetry = newTelemetry(r.telemetry.logger, r.telemetry.metrics)
	return r
}

// Register must be called before the operation that triggers the redirect is
// started, otherwise a fast redirect is reported as unmatched.
func (r *RedirectRegistry) Register(token string) (*RedirectWait, error) {
	if r == nil {
		return nil, serviceClosedError()
	}
	wait := &RedirectWait{
		id:           uuid.New(),
		token:        token,
		registeredAt: r.clock(),
		done:         make(chan struct{}),
		registry:     r,
	}

	r.mu.Lock()
	if _, exists := r.waits[token]; exists {
		r.mu.Unlock()
		r.telemetry.count(context.Background(), MetricRedirectDuplicateToken, nil)
		return nil, duplicateTokenError(token)
	}
	r.waits[token] = wait
	r.mu.Unlock()

	r.telemetry.count(context.Background(), MetricRedirectRegistered, nil)
	r.telemetry.debug(context.Background(), "redirect wait registered", map[string]any{
		"wait_id": wait.id.String(),
		"token":   redactToken(token),
	})
	return wait, nil
}

// Deliver resolves the wait registered for token with redirectURL. It reports
// false, and drops the URL, when no wait is pending for token.
func (r *RedirectRegistry) Deliver(token, redirectURL string) bool {
	if r == nil {
		return false
	}
	r.mu.Lock()
	wait, ok := r.waits[token]
	if ok {
		delete(r.waits, token)
		wait.resolve(WaitOutcomeDelivered, redirectURL)
	}
	r.mu.Unlock()

	ctx := context.Background()
	if !ok {
		r.telemetry.count(ctx, MetricRedirectUnmatched, nil)
		r.telemetry.warn(ctx, "redirect delivered with no pending wait", map[string]any{
			"token": redactToken(token),
			"url":   RedactURL(redirectURL),
		})
		return false
	}
	r.telemetry.count(ctx, MetricRedirectDelivered, nil)
	r.telemetry.observe(ctx, MetricRedirectWaitMS, float64(r.clock().Sub(wait.registeredAt).Milliseconds()), nil)
	return true
}

// Cancel removes wait if it is still the registered entry for its token and
// resolves it as cancelled. A later Deliver for the same token is unmatched.
func (r *RedirectRegistry) Cancel(wait *RedirectWait) bool {
	if r == nil || wait == nil {
		return false
	}
	r.mu.Lock()
	current, ok := r.waits[wait.token]
	matched := ok && current == wait
	if matched {
		delete(r.waits, wait.token)
		wait.resolve(WaitOutcomeCancelled, "")
	}
	r.mu.Unlock()

	if matched {
		r.telemetry.count(context.Background(), MetricRedirectCancelled, nil)
		r.telemetry.debug(context.Background(), "redirect wait cancelled", map[string]any{
			"wait_id": wait.id.String(),
			"token":   redactToken(wait.token),
		})
	}
	return matched
}

func (r *RedirectRegistry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waits)
}

// Tokens lists pending tokens in lexical order.
func (r *RedirectRegistry) Tokens() []string {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	tokens := make([]string, 0, len(r.waits))
	for token := range r.waits {
		tokens = append(tokens, token)
	}
	r.mu.Unlock()
	sort.Strings(tokens)
	return tokens
}

// RedirectWait is the handle returned by Register. Its outcome is written
// once, under the registry lock, before done is closed.
type RedirectWait struct {
	id           uuid.UUID
	token        string
	registeredAt time.Time
	registry     *RedirectRegistry

	done    chan struct{}
	outcome WaitOutcome
	url     string
}

func (w *RedirectWait) ID() uuid.UUID {
	if w == nil {
		return uuid.Nil
	}
	return w.id
}

func (w *RedirectWait) Token() string {
	if w == nil {
		return ""
	}
	return w.token
}

func (w *RedirectWait) RegisteredAt() time.Time {
	if w == nil {
		return time.Time{}
	}
	return w.registeredAt
}

// Done is closed once the wait is delivered or cancelled.
func (w *RedirectWait) Done() <-chan struct{} {
	if w == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return w.done
}

// Await blocks until the redirect arrives or the wait is cancelled. When ctx
// ends first the wait is cancelled and removed from the registry before Await
// returns, unless a delivery won the race, in which case its URL is returned.
func (w *RedirectWait) Await(ctx context.Context) (string, error) {
	if w == nil {
		return "", redirectCancelledError("", nil)
	}
	ctx = contextOrBackground(ctx)
	select {
	case <-w.done:
		return w.result(nil)
	case <-ctx.Done():
		w.registry.Cancel(w)
		<-w.done
		return w.result(ctx.Err())
	}
}

// Outcome reports the current state without blocking.
func (w *RedirectWait) Outcome() WaitOutcome {
	if w == nil {
		return WaitOutcomeCancelled
	}
	select {
	case <-w.done:
		return w.outcome
	default:
		return WaitOutcomePending
	}
}

func (w *RedirectWait) result(cause error) (string, error) {
	if w.outcome == WaitOutcomeDelivered {
		return w.url, nil
	}
	return "", redirectCancelledError(w.token, cause)
}

// resolve must be called with the registry lock held and only for a wait that
// was just removed from the map.
func (w *RedirectWait) resolve(outcome WaitOutcome, redirectURL string) {
	w.outcome = outcome
	w.url = redirectURL
	close(w.done)
}

// CancelAll resolves every pending wait as cancelled and empties the
// registry. It returns the number of waits cancelled.
func (r *RedirectRegistry) CancelAll() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	cancelled := len(r.waits)
	for token, wait := range r.waits {
		delete(r.waits, token)
		wait.resolve(WaitOutcomeCancelled, "")
	}
	r.mu.Unlock()
	if cancelled > 0 {
		r.telemetry.count(context.Background(), MetricRedirectCancelled, map[string]string{"reason": "shutdown"})
	}
	return cancelled
}
