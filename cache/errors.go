package cache

import "errors"

// Sentinel errors returned by Construct; all are instances of
// liberr.CodeBlockCreation at the call sites that wrap them (generator
// construction, spec.md §7's BlockCreation row).
var (
	// ErrEmptyBlockSizes: block_sizes was empty.
	ErrEmptyBlockSizes = errors.New("cache: block_sizes must not be empty")
	// ErrBudgetTooSmall: total_byte_budget smaller than the smallest block size.
	ErrBudgetTooSmall = errors.New("cache: total_byte_budget smaller than the smallest configured block size")
	// ErrVariantTooSmall: the variant cannot produce a block fitting the
	// smallest configured block size.
	ErrVariantTooSmall = errors.New("cache: variant's minimum record size exceeds the smallest configured block size")
	// ErrClosed is returned by a Receiver once its producer has stopped; the
	// generator treats this as fatal per spec.md §4.2.
	ErrClosed = errors.New("cache: block producer closed")
)
