// Licensed to Elasticsearch B.V. under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. Elasticsearch B.V. licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Package metrics implements an in-process registry of named, labeled
// time series (counters, gauges and cumulative histograms) together
// with a text exposition handler suitable for pull-based scraping.
//
// The registry is the single owner of all series state. Writers mutate
// series through the registry by metric name; readers obtain a
// point-in-time view through Snapshot. All operations are safe for
// arbitrary concurrent use.
package metrics

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// Kind identifies the type of a metric family. A metric name is bound
// to exactly one kind for the lifetime of the process.
type Kind int

const (
	KindCounter Kind = iota
	KindGauge
	KindHistogram
)

// String returns the exposition-format name of the kind.
func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindGauge:
		return "gauge"
	case KindHistogram:
		return "histogram"
	}
	return "unknown"
}

// DefBuckets are the default histogram buckets, covering the typical
// latency range of an HTTP request in seconds.
var DefBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

var (
	// ErrNotRegistered is returned when a series is mutated under a
	// name that was never registered.
	ErrNotRegistered = errors.New("metric is not registered")
	// ErrLabelArity is returned when the number of label values does
	// not match the registered label names.
	ErrLabelArity = errors.New("wrong number of label values")
	// ErrNegativeDelta is returned when a counter is incremented by a
	// negative delta. Counters are monotonically non-decreasing.
	ErrNegativeDelta = errors.New("counter delta must be non-negative")
)

// ConflictingKindError is returned when a metric name is re-registered
// under a different kind than its first registration. Registration is
// otherwise idempotent.
type ConflictingKindError struct {
	Name       string
	Registered Kind
	Requested  Kind
}

func (e *ConflictingKindError) Error() string {
	return fmt.Sprintf("metric %s already registered as a %s, cannot re-register as a %s",
		e.Name, e.Registered, e.Requested)
}

// Registry holds all metric families of the process.
type Registry struct {
	mu       sync.RWMutex
	families map[string]*family
}

type family struct {
	name       string
	kind       Kind
	help       string
	labelNames []string
	buckets    []float64 // histograms only, strictly increasing

	mu     sync.RWMutex
	series map[string]*series
}

// labelValueSep joins label values into a series key. It cannot occur
// in valid UTF-8 label values.
const labelValueSep = "\xff"

type series struct {
	labelValues []string

	// value holds the current counter or gauge value.
	value atomicFloat

	// histogram state. count is incremented before the buckets and
	// read after them during a snapshot so that the rendered +Inf
	// bucket never undercounts; see family.snapshot.
	count        atomic.Uint64
	sum          atomicFloat
	bucketCounts []atomic.Uint64
}

// atomicFloat is a float64 cell mutated through its IEEE 754 bits.
type atomicFloat struct {
	bits atomic.Uint64
}

func (f *atomicFloat) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

func (f *atomicFloat) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}

func (f *atomicFloat) Add(delta float64) {
	for {
		old := f.bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if f.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{families: make(map[string]*family)}
}

// Register declares a metric family. Registering the same name twice
// with an identical kind and label names is a no-op; a different kind
// yields a *ConflictingKindError. Histograms registered through this
// method use DefBuckets.
func (r *Registry) Register(name string, kind Kind, help string, labelNames ...string) error {
	var buckets []float64
	if kind == KindHistogram {
		buckets = DefBuckets
	}
	return r.register(name, kind, help, buckets, labelNames)
}

// RegisterHistogram declares a histogram family with explicit bucket
// upper bounds. Bounds must be strictly increasing. A nil or empty
// bucket slice selects DefBuckets.
func (r *Registry) RegisterHistogram(name, help string, buckets []float64, labelNames ...string) error {
	if len(buckets) == 0 {
		buckets = DefBuckets
	}
	return r.register(name, KindHistogram, help, buckets, labelNames)
}

// MustRegister is like Register but panics on error. Intended for
// process startup where a conflicting registration is fatal.
func (r *Registry) MustRegister(name string, kind Kind, help string, labelNames ...string) {
	if err := r.Register(name, kind, help, labelNames...); err != nil {
		panic(err)
	}
}

func (r *Registry) register(name string, kind Kind, help string, buckets []float64, labelNames []string) error {
	if name == "" {
		return errors.New("metric name cannot be empty")
	}
	if kind == KindHistogram {
		for i := 1; i < len(buckets); i++ {
			if buckets[i] <= buckets[i-1] {
				return fmt.Errorf("histogram %s buckets must be strictly increasing", name)
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.families[name]; ok {
		if f.kind != kind {
			return &ConflictingKindError{Name: name, Registered: f.kind, Requested: kind}
		}
		if !equalStrings(f.labelNames, labelNames) {
			return fmt.Errorf("metric %s already registered with labels %v", name, f.labelNames)
		}
		return nil
	}

	f := &family{
		name:       name,
		kind:       kind,
		help:       help,
		labelNames: append([]string(nil), labelNames...),
		series:     make(map[string]*series),
	}
	if kind == KindHistogram {
		f.buckets = append([]float64(nil), buckets...)
	}
	r.families[name] = f
	return nil
}

// Add increments a counter or gauge series by delta, creating the
// series on first use. Counter deltas must be non-negative.
func (r *Registry) Add(name string, delta float64, labelValues ...string) error {
	f, err := r.lookup(name)
	if err != nil {
		return err
	}
	switch f.kind {
	case KindCounter:
		if delta < 0 {
			return fmt.Errorf("%w: metric %s", ErrNegativeDelta, name)
		}
	case KindGauge:
	default:
		return fmt.Errorf("metric %s is a %s, cannot add", name, f.kind)
	}
	s, err := f.get(labelValues)
	if err != nil {
		return err
	}
	s.value.Add(delta)
	return nil
}

// Inc increments a counter or gauge series by one.
func (r *Registry) Inc(name string, labelValues ...string) error {
	return r.Add(name, 1, labelValues...)
}

// Dec decrements a gauge series by one.
func (r *Registry) Dec(name string, labelValues ...string) error {
	f, err := r.lookup(name)
	if err != nil {
		return err
	}
	if f.kind != KindGauge {
		return fmt.Errorf("metric %s is a %s, cannot decrement", name, f.kind)
	}
	s, err := f.get(labelValues)
	if err != nil {
		return err
	}
	s.value.Add(-1)
	return nil
}

// Set stores an absolute value in a gauge series.
func (r *Registry) Set(name string, value float64, labelValues ...string) error {
	f, err := r.lookup(name)
	if err != nil {
		return err
	}
	if f.kind != KindGauge {
		return fmt.Errorf("metric %s is a %s, cannot set", name, f.kind)
	}
	s, err := f.get(labelValues)
	if err != nil {
		return err
	}
	s.value.Store(value)
	return nil
}

// Observe records a sample in a histogram series: every bucket whose
// upper bound is >= value is incremented (cumulative semantics), along
// with the running count and sum.
func (r *Registry) Observe(name string, value float64, labelValues ...string) error {
	f, err := r.lookup(name)
	if err != nil {
		return err
	}
	if f.kind != KindHistogram {
		return fmt.Errorf("metric %s is a %s, cannot observe", name, f.kind)
	}
	s, err := f.get(labelValues)
	if err != nil {
		return err
	}
	// Count first, buckets in descending bound order. A snapshot reads
	// buckets ascending and count last, so the view it assembles is
	// always internally cumulative even with concurrent observers.
	s.count.Add(1)
	s.sum.Add(value)
	for i := len(f.buckets) - 1; i >= 0; i-- {
		if value > f.buckets[i] {
			break
		}
		s.bucketCounts[i].Add(1)
	}
	return nil
}

func (r *Registry) lookup(name string) (*family, error) {
	r.mu.RLock()
	f := r.families[name]
	r.mu.RUnlock()
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	return f, nil
}

func (f *family) get(labelValues []string) (*series, error) {
	if len(labelValues) != len(f.labelNames) {
		return nil, fmt.Errorf("%w: metric %s expects %d label values, got %d",
			ErrLabelArity, f.name, len(f.labelNames), len(labelValues))
	}
	key := strings.Join(labelValues, labelValueSep)

	f.mu.RLock()
	s := f.series[key]
	f.mu.RUnlock()
	if s != nil {
		return s, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if s = f.series[key]; s != nil {
		return s, nil
	}
	s = &series{labelValues: append([]string(nil), labelValues...)}
	if f.kind == KindHistogram {
		s.bucketCounts = make([]atomic.Uint64, len(f.buckets))
	}
	f.series[key] = s
	return s, nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// FamilySnapshot is the exported view of one metric family.
type FamilySnapshot struct {
	Name       string
	Kind       Kind
	Help       string
	LabelNames []string
	Buckets    []float64 // histograms only
	Series     []SeriesSnapshot
}

// SeriesSnapshot is the exported view of one series. Value is set for
// counters and gauges; Count, Sum and BucketCounts for histograms.
type SeriesSnapshot struct {
	LabelValues  []string
	Value        float64
	Count        uint64
	Sum          float64
	BucketCounts []uint64
}

// Snapshot returns a consistent view of all families, sorted by family
// name and series label values. It holds only short read locks and
// never blocks mutators across I/O. Counter values never decrease
// between successive snapshots of the same registry.
func (r *Registry) Snapshot() []FamilySnapshot {
	r.mu.RLock()
	families := make([]*family, 0, len(r.families))
	for _, f := range r.families {
		families = append(families, f)
	}
	r.mu.RUnlock()

	sort.Slice(families, func(i, j int) bool { return families[i].name < families[j].name })

	out := make([]FamilySnapshot, 0, len(families))
	for _, f := range families {
		out = append(out, f.snapshot())
	}
	return out
}

func (f *family) snapshot() FamilySnapshot {
	fs := FamilySnapshot{
		Name:       f.name,
		Kind:       f.kind,
		Help:       f.help,
		LabelNames: f.labelNames,
		Buckets:    f.buckets,
	}

	f.mu.RLock()
	keys := make([]string, 0, len(f.series))
	for k := range f.series {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	all := make([]*series, 0, len(keys))
	for _, k := range keys {
		all = append(all, f.series[k])
	}
	f.mu.RUnlock()

	for _, s := range all {
		ss := SeriesSnapshot{LabelValues: s.labelValues}
		switch f.kind {
		case KindHistogram:
			// Ascending bucket reads, sum, then count; paired with the
			// write ordering in Observe this keeps the cumulative
			// invariant under concurrent mutation.
			ss.BucketCounts = make([]uint64, len(s.bucketCounts))
			for i := range s.bucketCounts {
				ss.BucketCounts[i] = s.bucketCounts[i].Load()
			}
			ss.Sum = s.sum.Load()
			ss.Count = s.count.Load()
		default:
			ss.Value = s.value.Load()
		}
		fs.Series = append(fs.Series, ss)
	}
	return fs
}
