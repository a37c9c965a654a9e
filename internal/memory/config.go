package memory

import (
	"math"
	"runtime/debug"
	"strconv"

	"object-detection/internal/logging"
)

// DefaultRatio is the share of the container limit given to the Go heap.
// The remainder is left for OpenCV and ffmpeg.
const DefaultRatio = 0.6

// Source says where the heap limit came from.
type Source string

const (
	SourceNone        Source = "none"
	SourceGoMemLimit  Source = "GOMEMLIMIT"
	SourceMemoryLimit Source = "MEMORY_LIMIT"
)

// Limit is the outcome of Configure.
type Limit struct {
	Source         Source
	ContainerBytes int64
	HeapBytes      int64
	Ratio          float64
}

// Configured reports whether a heap limit is in effect.
func (l Limit) Configured() bool {
	return l.Source != SourceNone
}

// setLimit is replaced in tests.
var setLimit = debug.SetMemoryLimit

// Configure applies the heap limit described by getenv. Call it early in
// main before large allocations.
func Configure(getenv func(string) string) Limit {
	if v := getenv("GOMEMLIMIT"); v != "" {
		l := Limit{Source: SourceGoMemLimit}
		if cur := setLimit(-1); cur > 0 && cur < math.MaxInt64 {
			l.HeapBytes = cur
		}
		logging.Info("GOMEMLIMIT set via environment: %s", v)
		return l
	}

	raw := getenv("MEMORY_LIMIT")
	if raw == "" {
		logging.Debug("MEMORY_LIMIT not set, heap limit not configured")
		return Limit{Source: SourceNone}
	}
	container, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || container <= 0 {
		logging.Warn("Ignoring MEMORY_LIMIT %q: not a positive byte count", raw)
		return Limit{Source: SourceNone}
	}

	ratio := parseRatio(getenv("MEMORY_RATIO"))
	heap := int64(float64(container) * ratio)
	setLimit(heap)

	logging.Info("Configured GOMEMLIMIT: %s (%.0f%% of %s container limit)",
		FormatBytes(heap), ratio*100, FormatBytes(container))
	return Limit{
		Source:         SourceMemoryLimit,
		ContainerBytes: container,
		HeapBytes:      heap,
		Ratio:          ratio,
	}
}

func parseRatio(s string) float64 {
	if s == "" {
		return DefaultRatio
	}
	r, err := strconv.ParseFloat(s, 64)
	if err != nil || r <= 0 || r > 1 {
		logging.Warn("MEMORY_RATIO %q must be within (0, 1], using %.2f", s, DefaultRatio)
		return DefaultRatio
	}
	return r
}

// FormatBytes renders b with binary units, e.g. "1.5 GiB".
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
