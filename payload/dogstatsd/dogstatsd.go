package dogstatsd

import (
	"fmt"
	"io"
	"math/rand"
	"strings"

	"github.com/lading-rig/lading/payload"
)

// metricType is the DogStatsD wire-format type tag (spec.md §6): one of
// c, g, ms, d, s, h.
type metricType string

const (
	typeCount        metricType = "c"
	typeGauge        metricType = "g"
	typeTimer        metricType = "ms"
	typeDistribution metricType = "d"
	typeSet          metricType = "s"
	typeHistogram    metricType = "h"
)

// member kind indices; order is fixed and must match kindWeights below
// (spec.md §4.1 tie-break rule).
const (
	kindMetric = iota
	kindEvent
	kindServiceCheck
)

const (
	metricCount = iota
	metricGauge
	metricTimer
	metricDistribution
	metricSet
	metricHistogram
)

// DogStatsD is the representative payload variant (spec.md §4.1/§6).
type DogStatsD struct {
	rng      *rand.Rand
	cfg      Config
	contexts []context
}

var _ payload.Variant = (*DogStatsD)(nil)

// New constructs a DogStatsD variant from a 32-byte seed. The context pool
// is built once here, deterministically, from the seed's RNG stream.
func New(seed payload.Seed, cfg Config) (*DogStatsD, error) {
	if cfg.ContextsMinimum <= 0 {
		return nil, fmt.Errorf("dogstatsd: contexts_minimum must be positive")
	}

	rng := payload.NewRand(seed)
	return &DogStatsD{
		rng:      rng,
		cfg:      cfg,
		contexts: buildContextPool(rng, cfg),
	}, nil
}

// MinRecordSize is the shortest record DogStatsD can emit: a one-tag,
// single-character metric name/value service check line.
func (d *DogStatsD) MinRecordSize() int {
	return 8
}

// Serialize writes newline-terminated DogStatsD records until the next
// record would exceed maxBytes, per spec.md §4.1.
func (d *DogStatsD) Serialize(w io.Writer, maxBytes int) (int, error) {
	bw := payload.NewBoundedWriter(w, maxBytes)

	for {
		rec := d.nextRecord()
		ok, err := bw.TryWrite([]byte(rec))
		if err != nil {
			return bw.Written, err
		}
		if !ok {
			return bw.Written, nil
		}
	}
}

func (d *DogStatsD) nextRecord() string {
	kindWeights := []int{d.cfg.KindWeights.Metric, d.cfg.KindWeights.Event, d.cfg.KindWeights.ServiceCheck}
	switch payload.WeightedChoice(d.rng, kindWeights) {
	case kindEvent:
		return d.renderEvent() + "\n"
	case kindServiceCheck:
		return d.renderServiceCheck() + "\n"
	default:
		return d.renderMetric() + "\n"
	}
}

func (d *DogStatsD) pickContext() context {
	return d.contexts[d.rng.Intn(len(d.contexts))]
}

func (d *DogStatsD) renderMetric() string {
	ctx := d.pickContext()
	weights := []int{
		d.cfg.MetricWeights.Count,
		d.cfg.MetricWeights.Gauge,
		d.cfg.MetricWeights.Timer,
		d.cfg.MetricWeights.Distribution,
		d.cfg.MetricWeights.Set,
		d.cfg.MetricWeights.Histogram,
	}

	var mtype metricType
	switch payload.WeightedChoice(d.rng, weights) {
	case metricGauge:
		mtype = typeGauge
	case metricTimer:
		mtype = typeTimer
	case metricDistribution:
		mtype = typeDistribution
	case metricSet:
		mtype = typeSet
	case metricHistogram:
		mtype = typeHistogram
	default:
		mtype = typeCount
	}

	values := []string{d.nextValue(mtype)}
	if d.rng.Float64() < d.cfg.MultivaluePackProbability {
		n := d.cfg.MultivalueCntMinimum
		if d.cfg.MultivalueCntMaximum > d.cfg.MultivalueCntMinimum {
			n += d.rng.Intn(d.cfg.MultivalueCntMaximum - d.cfg.MultivalueCntMinimum + 1)
		}
		for i := 1; i < n; i++ {
			values = append(values, d.nextValue(mtype))
		}
	}

	var sb strings.Builder
	sb.WriteString(ctx.name)
	sb.WriteString(":")
	sb.WriteString(strings.Join(values, ":"))
	sb.WriteString("|")
	sb.WriteString(string(mtype))

	if d.rng.Float64() < 0.3 {
		fmt.Fprintf(&sb, "|@%.2f", 0.1+d.rng.Float64()*0.9)
	}

	tags := sampleTags(d.rng, ctx, d.cfg.TagsPerMsgMinimum, d.cfg.TagsPerMsgMaximum)
	if len(tags) > 0 {
		sb.WriteString("|#")
		sb.WriteString(strings.Join(tags, ","))
	}

	return sb.String()
}

func (d *DogStatsD) nextValue(mtype metricType) string {
	if mtype == typeSet {
		return randomASCII(d.rng, 1, 8)
	}
	if d.rng.Float64() < 0.5 {
		return fmt.Sprintf("%d", d.rng.Intn(1_000_000))
	}
	return fmt.Sprintf("%.4f", d.rng.Float64()*1_000)
}

var alertTypes = []string{"error", "warning", "info", "success"}
var priorities = []string{"normal", "low"}

// renderEvent follows the field order of
// original_source/lading_payload/src/dogstatsd/event.rs's Display impl:
// d, h, p, t, k, s, then tags.
func (d *DogStatsD) renderEvent() string {
	ctx := d.pickContext()
	title := randomASCII(d.rng, 4, 32)
	text := randomASCII(d.rng, 8, 128)

	var sb strings.Builder
	fmt.Fprintf(&sb, "_e{%d,%d}:%s|%s", len(title), len(text), title, text)

	if d.rng.Intn(2) == 0 {
		fmt.Fprintf(&sb, "|d:%d", d.rng.Int63n(2_000_000_000))
	}
	if d.rng.Intn(2) == 0 {
		fmt.Fprintf(&sb, "|h:%s", randomASCII(d.rng, 4, 20))
	}
	if d.rng.Intn(2) == 0 {
		sb.WriteString("|p:" + priorities[d.rng.Intn(len(priorities))])
	}
	if d.rng.Intn(2) == 0 {
		sb.WriteString("|t:" + alertTypes[d.rng.Intn(len(alertTypes))])
	}
	if d.rng.Intn(2) == 0 {
		fmt.Fprintf(&sb, "|k:%s", randomASCII(d.rng, 4, 20))
	}
	if d.rng.Intn(2) == 0 {
		fmt.Fprintf(&sb, "|s:%s", randomASCII(d.rng, 3, 10))
	}

	tags := sampleTags(d.rng, ctx, d.cfg.TagsPerMsgMinimum, d.cfg.TagsPerMsgMaximum)
	if len(tags) > 0 {
		sb.WriteString("|#")
		sb.WriteString(strings.Join(tags, ","))
	}

	return sb.String()
}

// renderServiceCheck follows spec.md §6's
// `_sc|<name>|<status 0-3>[|d:<ts>][|h:<host>][|#tags][|m:<msg>]`.
func (d *DogStatsD) renderServiceCheck() string {
	ctx := d.pickContext()
	status := d.rng.Intn(4)

	var sb strings.Builder
	fmt.Fprintf(&sb, "_sc|%s|%d", ctx.name, status)

	if d.rng.Intn(2) == 0 {
		fmt.Fprintf(&sb, "|d:%d", d.rng.Int63n(2_000_000_000))
	}
	if d.rng.Intn(2) == 0 {
		fmt.Fprintf(&sb, "|h:%s", randomASCII(d.rng, 4, 20))
	}

	tags := sampleTags(d.rng, ctx, d.cfg.TagsPerMsgMinimum, d.cfg.TagsPerMsgMaximum)
	if len(tags) > 0 {
		sb.WriteString("|#")
		sb.WriteString(strings.Join(tags, ","))
	}

	if status != 0 && d.rng.Intn(2) == 0 {
		fmt.Fprintf(&sb, "|m:%s", randomASCII(d.rng, 4, 40))
	}

	return sb.String()
}

