// Package prometheus exports core metrics through client_golang.
package prometheus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-deeplink/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// Labels is the fixed label set every exported series carries. Tags outside
// the set are dropped; missing tags export as the empty string.
var Labels = []string{"kind", "outcome", "reason"}

// DefaultDurationBuckets are in milliseconds.
var DefaultDurationBuckets = []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 30000, 120000}

var _ core.MetricsRecorder = (*Recorder)(nil)

type Option func(*Recorder)

func WithNamespace(namespace string) Option {
	return func(r *Recorder) {
		r.namespace = sanitize(namespace)
	}
}

func WithBuckets(buckets []float64) Option {
	return func(r *Recorder) {
		if len(buckets) > 0 {
			r.buckets = append([]float64(nil), buckets...)
		}
	}
}

// Recorder implements core.MetricsRecorder. Collectors are created and
// registered on first use of a metric name.
type Recorder struct {
	registerer prom.Registerer
	namespace  string
	buckets    []float64

	mu         sync.Mutex
	counters   map[string]*prom.CounterVec
	histograms map[string]*prom.HistogramVec
}

func NewRecorder(registerer prom.Registerer, opts ...Option) *Recorder {
	if registerer == nil {
		registerer = prom.DefaultRegisterer
	}
	r := &Recorder{
		registerer: registerer,
		buckets:    DefaultDurationBuckets,
		counters:   map[string]*prom.CounterVec{},
		histograms: map[string]*prom.HistogramVec{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Recorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	if r == nil || value <= 0 {
		return
	}
	vec, err := r.counter(name)
	if err != nil {
		return
	}
	vec.WithLabelValues(labelValues(tags)...).Add(float64(value))
}

func (r *Recorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	if r == nil {
		return
	}
	vec, err := r.histogram(name)
	if err != nil {
		return
	}
	vec.WithLabelValues(labelValues(tags)...).Observe(value)
}

func (r *Recorder) counter(name string) (*prom.CounterVec, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if vec, ok := r.counters[name]; ok {
		return vec, nil
	}
	metricName := sanitize(name)
	if !strings.HasSuffix(metricName, "_total") {
		metricName += "_total"
	}
	vec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: r.namespace,
		Name:      metricName,
		Help:      fmt.Sprintf("Count of %s events.", name),
	}, Labels)
	registered, err := register(r.registerer, vec)
	if err != nil {
		return nil, err
	}
	vec, ok := registered.(*prom.CounterVec)
	if !ok {
		return nil, fmt.Errorf("prometheus: collector %q is not a counter", metricName)
	}
	r.counters[name] = vec
	return vec, nil
}

func (r *Recorder) histogram(name string) (*prom.HistogramVec, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if vec, ok := r.histograms[name]; ok {
		return vec, nil
	}
	metricName := sanitize(name)
	vec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: r.namespace,
		Name:      metricName,
		Help:      fmt.Sprintf("Distribution of %s.", name),
		Buckets:   r.buckets,
	}, Labels)
	registered, err := register(r.registerer, vec)
	if err != nil {
		return nil, err
	}
	vec, ok := registered.(*prom.HistogramVec)
	if !ok {
		return nil, fmt.Errorf("prometheus: collector %q is not a histogram", metricName)
	}
	r.histograms[name] = vec
	return vec, nil
}

// register returns the collector already registered under the same
// descriptor when there is one, so two recorders can share a registry.
func register(registerer prom.Registerer, collector prom.Collector) (prom.Collector, error) {
	if err := registerer.Register(collector); err != nil {
		var already prom.AlreadyRegisteredError
		if errors.As(err, &already) {
			return already.ExistingCollector, nil
		}
		return nil, err
	}
	return collector, nil
}

func labelValues(tags map[string]string) []string {
	values := make([]string, len(Labels))
	for index, label := range Labels {
		values[index] = tags[label]
	}
	return values
}

func sanitize(name string) string {
	name = strings.TrimSpace(name)
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == ':':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
