package observability

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// The types below render the Prometheus text format directly. Series are
// written in label order so scrapes and tests see stable output.

type family struct {
	name   string
	help   string
	kind   string
	labels []string
}

func (f family) header(w *bufio.Writer) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", f.name, f.help, f.name, f.kind)
}

func (f family) key(values []string) string {
	if len(f.labels) == 0 {
		return ""
	}
	parts := make([]string, len(f.labels))
	for i, name := range f.labels {
		v := "unknown"
		if i < len(values) {
			v = values[i]
		}
		parts[i] = name + `="` + escapeLabel(v) + `"`
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// valueVec backs counters and gauges, with or without labels.
type valueVec struct {
	family
	mu     sync.Mutex
	series map[string]float64
}

func newValueVec(kind, name, help string, labels []string) *valueVec {
	return &valueVec{family: family{name: name, help: help, kind: kind, labels: labels}, series: map[string]float64{}}
}

func (v *valueVec) apply(values []string, fn func(cur float64) float64) {
	if v == nil {
		return
	}
	k := v.key(values)
	v.mu.Lock()
	v.series[k] = fn(v.series[k])
	v.mu.Unlock()
}

func (v *valueVec) get(values []string) float64 {
	if v == nil {
		return 0
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.series[v.key(values)]
}

func (v *valueVec) WritePrometheus(out io.Writer) error {
	if v == nil {
		return nil
	}
	w := bufio.NewWriter(out)
	v.header(w)
	v.mu.Lock()
	keys := sortedKeys(v.series)
	for _, k := range keys {
		fmt.Fprintf(w, "%s%s %s\n", v.name, k, formatValue(v.series[k]))
	}
	v.mu.Unlock()
	return w.Flush()
}

type CounterVec struct{ vec *valueVec }

func NewCounterVec(name, help string, labels []string) *CounterVec {
	return &CounterVec{vec: newValueVec("counter", name, help, labels)}
}

func (c *CounterVec) Inc(values ...string) { c.Add(1, values...) }

func (c *CounterVec) Add(d float64, values ...string) {
	if c == nil || d < 0 {
		return
	}
	c.vec.apply(values, func(cur float64) float64 { return cur + d })
}

func (c *CounterVec) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	return c.vec.WritePrometheus(w)
}

type Counter struct{ vec *valueVec }

func NewCounter(name, help string) *Counter {
	return &Counter{vec: newValueVec("counter", name, help, nil)}
}

func (c *Counter) Inc() { c.Add(1) }

func (c *Counter) Add(d float64) {
	if c == nil || d < 0 {
		return
	}
	c.vec.apply(nil, func(cur float64) float64 { return cur + d })
}

func (c *Counter) Value() float64 {
	if c == nil {
		return 0
	}
	return c.vec.get(nil)
}

func (c *Counter) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	return c.vec.WritePrometheus(w)
}

type Gauge struct{ vec *valueVec }

func NewGauge(name, help string) *Gauge {
	return &Gauge{vec: newValueVec("gauge", name, help, nil)}
}

func (g *Gauge) Set(v float64) {
	if g == nil {
		return
	}
	g.vec.apply(nil, func(float64) float64 { return v })
}

func (g *Gauge) Inc() {
	if g == nil {
		return
	}
	g.vec.apply(nil, func(cur float64) float64 { return cur + 1 })
}

func (g *Gauge) Dec() {
	if g == nil {
		return
	}
	g.vec.apply(nil, func(cur float64) float64 { return cur - 1 })
}

func (g *Gauge) WritePrometheus(w io.Writer) error {
	if g == nil {
		return nil
	}
	return g.vec.WritePrometheus(w)
}

type GaugeVec struct{ vec *valueVec }

func NewGaugeVec(name, help string, labels []string) *GaugeVec {
	return &GaugeVec{vec: newValueVec("gauge", name, help, labels)}
}

func (g *GaugeVec) Set(v float64, values ...string) {
	if g == nil {
		return
	}
	g.vec.apply(values, func(float64) float64 { return v })
}

func (g *GaugeVec) WritePrometheus(w io.Writer) error {
	if g == nil {
		return nil
	}
	return g.vec.WritePrometheus(w)
}

var defaultBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}

type HistogramVec struct {
	family
	bounds []float64
	mu     sync.Mutex
	series map[string]*histogram
}

// histogram keeps per-bucket counts; they are made cumulative on write.
type histogram struct {
	counts []uint64
	sum    float64
	n      uint64
}

func NewHistogramVec(name, help string, labels []string, buckets []float64) *HistogramVec {
	if len(buckets) == 0 {
		buckets = defaultBuckets
	}
	bounds := append([]float64(nil), buckets...)
	sort.Float64s(bounds)
	return &HistogramVec{
		family: family{name: name, help: help, kind: "histogram", labels: labels},
		bounds: bounds,
		series: map[string]*histogram{},
	}
}

func (h *HistogramVec) Observe(v float64, values ...string) {
	if h == nil {
		return
	}
	k := h.key(values)
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.series[k]
	if !ok {
		s = &histogram{counts: make([]uint64, len(h.bounds))}
		h.series[k] = s
	}
	if i := sort.SearchFloat64s(h.bounds, v); i < len(h.bounds) {
		s.counts[i]++
	}
	s.sum += v
	s.n++
}

func (h *HistogramVec) WritePrometheus(out io.Writer) error {
	if h == nil {
		return nil
	}
	w := bufio.NewWriter(out)
	h.header(w)
	h.mu.Lock()
	for _, k := range sortedKeys(h.series) {
		s := h.series[k]
		var cum uint64
		for i, b := range h.bounds {
			cum += s.counts[i]
			fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, formatValue(b)), cum)
		}
		fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, "+Inf"), s.n)
		fmt.Fprintf(w, "%s_sum%s %s\n", h.name, k, formatValue(s.sum))
		fmt.Fprintf(w, "%s_count%s %d\n", h.name, k, s.n)
	}
	h.mu.Unlock()
	return w.Flush()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func escapeLabel(v string) string { return labelEscaper.Replace(v) }

func withLe(labels, le string) string {
	pair := `le="` + escapeLabel(le) + `"`
	if labels == "" {
		return "{" + pair + "}"
	}
	return strings.TrimSuffix(labels, "}") + "," + pair + "}"
}
