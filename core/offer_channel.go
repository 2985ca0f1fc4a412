package core

import (
	"context"
	"sync"
)

type OfferChannelOption func(*OfferChannel)

func WithOfferChannelLogger(logger Logger) OfferChannelOption {
	return func(c *OfferChannel) {
		c.telemetry.logger = logger
	}
}

func WithOfferChannelMetrics(recorder MetricsRecorder) OfferChannelOption {
	return func(c *OfferChannel) {
		if recorder != nil {
			c.telemetry.metrics = recorder
		}
	}
}

// OfferChannel queues credential offer URLs for a single consumer in
// submission order. Submit never blocks. A delivery goroutine owned by the
// channel hands queued URLs to Receive callers one at a time. Concurrent
// receivers race for each URL.
type OfferChannel struct {
	capacity  int
	telemetry telemetry

	mu     sync.Mutex
	queue  []string
	held   int
	closed bool

	notify    chan struct{}
	out       chan string
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewOfferChannel starts the delivery goroutine. A capacity of zero leaves the
// queue unbounded.
func NewOfferChannel(capacity int, opts ...OfferChannelOption) *OfferChannel {
	if capacity < 0 {
		capacity = 0
	}
	c := &OfferChannel{
		capacity:  capacity,
		telemetry: newTelemetry(nil, nil),
		notify:    make(chan struct{}, 1),
		out:       make(chan string),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.telemetry = newTelemetry(c.telemetry.logger, c.telemetry.metrics)

	c.wg.Add(1)
	go c.deliver()
	return c
}

func (c *OfferChannel) Submit(offerURL string) error {
	if c == nil {
		return offerChannelClosedError()
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.telemetry.count(context.Background(), MetricOfferRejected, map[string]string{"reason": "closed"})
		return offerChannelClosedError()
	}
	if c.capacity > 0 && len(c.queue)+c.held >= c.capacity {
		c.mu.Unlock()
		c.telemetry.count(context.Background(), MetricOfferRejected, map[string]string{"reason": "full"})
		return offerQueueFullError(c.capacity)
	}
	c.queue = append(c.queue, offerURL)
	c.mu.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
	}
	c.telemetry.count(context.Background(), MetricOfferSubmitted, nil)
	return nil
}

// Receive returns the oldest queued URL, waiting until one is available, ctx
// ends or the channel is closed.
func (c *OfferChannel) Receive(ctx context.Context) (string, error) {
	if c == nil {
		return "", offerChannelClosedError()
	}
	ctx = contextOrBackground(ctx)
	select {
	case offerURL := <-c.out:
		c.telemetry.count(ctx, MetricOfferDelivered, nil)
		return offerURL, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-c.done:
		return "", offerChannelClosedError()
	}
}

// Len counts queued URLs plus the one held by the delivery goroutine.
func (c *OfferChannel) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue) + c.held
}

func (c *OfferChannel) Capacity() int {
	if c == nil {
		return 0
	}
	return c.capacity
}

// Close stops delivery. Queued URLs are discarded and pending receivers
// return DEEPLINK_OFFER_CHANNEL_CLOSED.
func (c *OfferChannel) Close() {
	if c == nil {
		return
	}
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		dropped := len(c.queue) + c.held
		c.queue = nil
		c.held = 0
		c.mu.Unlock()
		close(c.done)
		c.wg.Wait()
		if dropped > 0 {
			c.telemetry.warn(context.Background(), "offer channel closed with undelivered offers", map[string]any{
				"dropped": dropped,
			})
		}
	})
}

func (c *OfferChannel) deliver() {
	defer c.wg.Done()
	for {
		offerURL, ok := c.next()
		if !ok {
			select {
			case <-c.notify:
				continue
			case <-c.done:
				return
			}
		}
		select {
		case c.out <- offerURL:
			c.mu.Lock()
			c.held = 0
			c.mu.Unlock()
		case <-c.done:
			return
		}
	}
}

func (c *OfferChannel) next() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return "", false
	}
	offerURL := c.queue[0]
	c.queue[0] = ""
	c.queue = c.queue[1:]
	c.held = 1
	return offerURL, true
}
