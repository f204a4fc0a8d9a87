// Package dogstatsd implements the representative payload variant from
// spec.md §4.1/§6: metric, event and service-check datagrams drawn by
// weighted choice, referencing a precomputed pool of contexts. It is
// grounded on original_source/lading_payload/src/dogstatsd/{common,event}.rs
// and original_source/lading/src/payload/dogstatsd.rs for exact defaults,
// wire framing and ordering.
package dogstatsd

// KindWeights is the relative probability of each DogStatsD member kind.
// Field order is fixed (Metric, Event, ServiceCheck) and must match the
// order sampling uses — spec.md §4.1's tie-break rule.
type KindWeights struct {
	Metric       int
	Event        int
	ServiceCheck int
}

// DefaultKindWeights matches spec.md §4.1's stated defaults (80/10/10).
func DefaultKindWeights() KindWeights {
	return KindWeights{Metric: 80, Event: 10, ServiceCheck: 10}
}

// MetricWeights is the relative probability of each metric kind. Field
// order (Count, Gauge, Timer, Distribution, Set, Histogram) is fixed.
type MetricWeights struct {
	Count        int
	Gauge        int
	Timer        int
	Distribution int
	Set          int
	Histogram    int
}

// DefaultMetricWeights matches spec.md §4.1's stated defaults.
func DefaultMetricWeights() MetricWeights {
	return MetricWeights{Count: 34, Gauge: 34, Timer: 5, Distribution: 1, Set: 1, Histogram: 25}
}

// Config configures context-pool size, per-message tag count, multivalue
// packing and the two weight tables above.
type Config struct {
	ContextsMinimum int
	ContextsMaximum int

	TagsPerMsgMinimum int
	TagsPerMsgMaximum int

	MultivaluePackProbability float64
	MultivalueCntMinimum      int
	MultivalueCntMaximum      int

	KindWeights   KindWeights
	MetricWeights MetricWeights
}

// DefaultConfig follows spec.md §4.1's stated defaults. TagsPerMsg{Min,Max}
// deliberately do NOT mirror original_source's default accessors, which
// return the same 5000/10000 pair as the context-pool bounds — an apparent
// copy/paste artifact (reusing contexts_minimum/contexts_maximum as the
// defaults for an unrelated field) that would make every message tens of
// kilobytes of tags alone. See DESIGN.md's Open Question decisions for the
// reasoning; a small, message-shaped tag count is used instead.
func DefaultConfig() Config {
	return Config{
		ContextsMinimum:           5000,
		ContextsMaximum:           10000,
		TagsPerMsgMinimum:         2,
		TagsPerMsgMaximum:         10,
		MultivaluePackProbability: 0.08,
		MultivalueCntMinimum:      2,
		MultivalueCntMaximum:     32,
		KindWeights:               DefaultKindWeights(),
		MetricWeights:             DefaultMetricWeights(),
	}
}
