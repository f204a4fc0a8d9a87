// Package size parses and formats byte counts, the way
// github.com/nabbar/golib/size does for the rest of the teacher's
// configuration surface (its test suite is the only part of that package
// retained in the example pack; this is a from-scratch implementation
// matching the contract those tests assert: Parse("1K") ~= SizeKilo, and so
// on through G/T).
package size

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is a byte count.
type Size int64

const (
	SizeUnit Size = 1
	SizeKilo Size = SizeUnit * 1024
	SizeMega Size = SizeKilo * 1024
	SizeGiga Size = SizeMega * 1024
	SizeTera Size = SizeGiga * 1024
)

var suffixes = []struct {
	suffix string
	mult   Size
}{
	{"TiB", SizeTera}, {"TB", SizeTera}, {"T", SizeTera},
	{"GiB", SizeGiga}, {"GB", SizeGiga}, {"G", SizeGiga},
	{"MiB", SizeMega}, {"MB", SizeMega}, {"M", SizeMega},
	{"KiB", SizeKilo}, {"KB", SizeKilo}, {"K", SizeKilo},
	{"B", SizeUnit},
}

// Parse converts a human string like "4 MiB", "1K" or "512" into a Size.
// Whitespace between the number and the unit is tolerated; a bare number is
// interpreted as a byte count.
func Parse(s string) (Size, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("size: empty value")
	}

	for _, u := range suffixes {
		if strings.HasSuffix(s, u.suffix) {
			num := strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			if num == "" {
				return 0, fmt.Errorf("size: missing numeric value in %q", s)
			}
			f, err := strconv.ParseFloat(num, 64)
			if err != nil {
				return 0, fmt.Errorf("size: invalid numeric value in %q: %w", s, err)
			}
			return Size(f * float64(u.mult)), nil
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("size: %q is not a recognised size", s)
	}
	return Size(n), nil
}

func (s Size) String() string {
	switch {
	case s >= SizeTera && s%SizeTera == 0:
		return fmt.Sprintf("%dTiB", s/SizeTera)
	case s >= SizeGiga && s%SizeGiga == 0:
		return fmt.Sprintf("%dGiB", s/SizeGiga)
	case s >= SizeMega && s%SizeMega == 0:
		return fmt.Sprintf("%dMiB", s/SizeMega)
	case s >= SizeKilo && s%SizeKilo == 0:
		return fmt.Sprintf("%dKiB", s/SizeKilo)
	default:
		return fmt.Sprintf("%dB", int64(s))
	}
}

// Bytes returns the size as a plain byte count.
func (s Size) Bytes() int64 {
	return int64(s)
}
