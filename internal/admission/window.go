package admission

import (
	"strconv"
	"strings"
	"time"
)

// Clock supplies the current time. Injected everywhere the engine does window
// math so tests can drive time deterministically.
type Clock func() time.Time

// bucketIndex returns the index of the aligned fixed window containing t.
// Windows are aligned to the Unix epoch, so all callers observing the same
// instant agree on the bucket.
func bucketIndex(t time.Time, window time.Duration) int64 {
	if window <= 0 {
		return 0
	}
	return t.UnixNano() / int64(window)
}

// compositeKey joins key parts with a separator that cannot appear in rule
// class names and is unlikely in caller identifiers.
func compositeKey(parts ...string) string {
	return strings.Join(parts, "|")
}

// bucketKey builds a counter key scoped to the aligned window containing t.
func bucketKey(prefix, identifier string, t time.Time, window time.Duration) string {
	return compositeKey(prefix, identifier, strconv.FormatInt(bucketIndex(t, window), 10))
}
