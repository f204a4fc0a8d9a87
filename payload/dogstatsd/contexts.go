package dogstatsd

import (
	"fmt"
	"math/rand"
)

const asciiAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_."

// randomASCII builds a deterministic ASCII string of a length chosen
// uniformly in [minLen,maxLen], matching the Rust payload's
// AsciiString::with_maximum_length helper closely enough for our purposes:
// bounded, printable, reproducible from the same RNG stream.
func randomASCII(rng *rand.Rand, minLen, maxLen int) string {
	if maxLen < minLen {
		maxLen = minLen
	}
	n := minLen
	if maxLen > minLen {
		n += rng.Intn(maxLen - minLen + 1)
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = asciiAlphabet[rng.Intn(len(asciiAlphabet))]
	}
	return string(b)
}

// context is a metric-name + tag-set pair reused across many records to
// simulate realistic cardinality (spec.md glossary "Context").
type context struct {
	name string
	tags []string
}

// buildContextPool precomputes between cfg.ContextsMinimum and
// cfg.ContextsMaximum contexts, each with its own tag set, at construction
// time — spec.md §4.1 "drawn from a precomputed pool of 5 000-10 000
// contexts".
func buildContextPool(rng *rand.Rand, cfg Config) []context {
	count := cfg.ContextsMinimum
	if cfg.ContextsMaximum > cfg.ContextsMinimum {
		count += rng.Intn(cfg.ContextsMaximum - cfg.ContextsMinimum + 1)
	}

	pool := make([]context, count)
	for i := range pool {
		numTags := 3 + rng.Intn(6)
		tags := make([]string, numTags)
		for t := range tags {
			tags[t] = fmt.Sprintf("%s:%s", randomASCII(rng, 3, 12), randomASCII(rng, 1, 16))
		}
		pool[i] = context{
			name: fmt.Sprintf("%s.%s", randomASCII(rng, 4, 10), randomASCII(rng, 4, 10)),
			tags: tags,
		}
	}
	return pool
}

// sampleTags picks between min and max tags from a context's tag set,
// per spec.md "each message carries between tags_per_msg_minimum and
// tags_per_msg_maximum tags".
func sampleTags(rng *rand.Rand, ctx context, min, max int) []string {
	n := min
	if max > min {
		n += rng.Intn(max - min + 1)
	}
	if n > len(ctx.tags) {
		n = len(ctx.tags)
	}
	if n <= 0 {
		return nil
	}
	return ctx.tags[:n]
}
