package models

import (
	"sync/atomic"
	"time"
)

var lastID atomic.Int64

// NewID mints a millisecond-timestamp identifier. IDs are strictly
// increasing within a process, so records created in the same
// millisecond still get distinct, creation-ordered IDs.
func NewID(now time.Time) int64 {
	ms := now.UnixMilli()
	for {
		last := lastID.Load()
		next := ms
		if next <= last {
			next = last + 1
		}
		if lastID.CompareAndSwap(last, next) {
			return next
		}
	}
}
