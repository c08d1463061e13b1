package stats

import (
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/kbukum/linepipe/errors"
)

// Mode selects how distinct values are remembered.
type Mode string

const (
	// Exact keeps every distinct value.
	Exact Mode = "exact"
	// Hashed keeps a 128-bit xxh3 digest per distinct value. Memory per
	// value is constant; collisions are possible but negligible.
	Hashed Mode = "hashed"
)

// Measure selects which side of the transformation is counted.
type Measure string

const (
	// Output counts transformed values.
	Output Measure = "output"
	// Input counts raw lines before transformation.
	Input Measure = "input"
)

// ParseMode resolves a distinct mode name. Empty means Exact.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", Exact:
		return Exact, nil
	case Hashed:
		return Hashed, nil
	}
	return "", errors.InvalidConfig("stats.distinct", fmt.Sprintf("unknown distinct mode %q", s))
}

// ParseMeasure resolves a measure name. Empty means Output.
func ParseMeasure(s string) (Measure, error) {
	switch Measure(strings.ToLower(strings.TrimSpace(s))) {
	case "", Output:
		return Output, nil
	case Input:
		return Input, nil
	}
	return "", errors.InvalidConfig("stats.measure", fmt.Sprintf("unknown measure %q", s))
}

// Statistics counts observed values and remembers which were distinct.
// It is not safe for concurrent use.
type Statistics struct {
	mode   Mode
	total  int64
	exact  map[string]struct{}
	hashed map[xxh3.Uint128]struct{}
}

// New creates empty statistics. An unknown mode falls back to Exact.
func New(mode Mode) *Statistics {
	s := &Statistics{mode: mode}
	if mode == Hashed {
		s.hashed = make(map[xxh3.Uint128]struct{})
	} else {
		s.mode = Exact
		s.exact = make(map[string]struct{})
	}
	return s
}

// Observe counts v and records it in the distinct set.
func (s *Statistics) Observe(v string) {
	s.total++
	if s.hashed != nil {
		s.hashed[xxh3.HashString128(v)] = struct{}{}
		return
	}
	s.exact[v] = struct{}{}
}

// Total returns the number of observed values, duplicates included.
func (s *Statistics) Total() int64 { return s.total }

// Distinct returns the number of different values observed.
func (s *Statistics) Distinct() int {
	if s.hashed != nil {
		return len(s.hashed)
	}
	return len(s.exact)
}

// Mode returns the distinct mode in use.
func (s *Statistics) Mode() Mode { return s.mode }

// Summary snapshots the counters.
func (s *Statistics) Summary() Summary {
	return Summary{Total: s.Total(), Distinct: s.Distinct()}
}

// Summary is the end-of-run report.
type Summary struct {
	Total    int64 `json:"total" yaml:"total"`
	Distinct int   `json:"distinct" yaml:"distinct"`
}

func (s Summary) String() string {
	return fmt.Sprintf("Processed %d lines (%d of which were unique)", s.Total, s.Distinct)
}
