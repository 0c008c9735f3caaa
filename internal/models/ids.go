package models

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// IDFactory derives item ids from the item kind, its key identifiers and the creation time.
// The sequence keeps ids distinct when two items are created within the same clock tick.
type IDFactory struct {
	now func() time.Time
	seq atomic.Uint64
}

func NewIDFactory(now func() time.Time) *IDFactory {
	if now == nil {
		now = time.Now
	}
	return &IDFactory{now: now}
}

func (f *IDFactory) Now() time.Time {
	return f.now()
}

// New returns "<kind>-<key>-...-<unixnano>-<seq>".
func (f *IDFactory) New(kind Kind, keys ...string) string {
	n := f.seq.Add(1)
	parts := append([]string{string(kind)}, keys...)
	return fmt.Sprintf("%s-%d-%d", strings.Join(parts, "-"), f.now().UnixNano(), n)
}

// Stable returns an id without a time component, so re-creating the same item replaces it.
func (f *IDFactory) Stable(kind Kind, keys ...string) string {
	return strings.Join(append([]string{string(kind)}, keys...), "-")
}
