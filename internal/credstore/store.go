// Package credstore holds short-lived credentials (OTP codes, pending
// registrations, password-reset tokens) keyed by string with a per-entry TTL.
//
// Expiry is evaluated inside Get against an injected Clock, so callers receive
// a tagged Lookup instead of checking timestamps themselves. A Get that finds
// an expired entry evicts it.
package credstore

import (
	"context"
	"time"
)

// Lookup is the outcome of Store.Get.
type Lookup int

const (
	Absent Lookup = iota
	Present
	Expired
)

func (l Lookup) String() string {
	switch l {
	case Present:
		return "present"
	case Expired:
		return "expired"
	default:
		return "absent"
	}
}

// Store is the contract shared by every backend.
type Store[T any] interface {
	// Put inserts or overwrites the entry for key.
	Put(ctx context.Context, key string, v T, ttl time.Duration) error
	// Get returns the value and Present, the zero value and Expired (the entry
	// is removed), or the zero value and Absent.
	Get(ctx context.Context, key string) (T, Lookup, error)
	// Take atomically removes key and returns what Get would have returned.
	// Of two concurrent Takes on one key, at most one sees Present.
	Take(ctx context.Context, key string) (T, Lookup, error)
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
	// SweepExpired removes every entry whose expiry is before now and returns the count.
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock in UTC.
var SystemClock Clock = ClockFunc(func() time.Time { return time.Now().UTC() })

func expired(now, expiresAt time.Time) bool {
	return now.After(expiresAt)
}
