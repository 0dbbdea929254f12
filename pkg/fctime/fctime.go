// Package fctime converts between wall-clock time and Farcaster time:
// unsigned seconds since a fixed project epoch (2021-01-01T00:00:00Z),
// the unit spec.md's Message.Timestamp field is carried in.
package fctime

import "time"

// Epoch is the Farcaster time origin, as a Unix timestamp.
const Epoch int64 = 1609459200 // 2021-01-01T00:00:00Z

// Now returns the current time as Farcaster time.
func Now() uint32 {
	return FromTime(time.Now())
}

// FromTime converts a wall-clock time to Farcaster time. Times before
// Epoch saturate at 0 rather than wrapping.
func FromTime(t time.Time) uint32 {
	secs := t.UTC().Unix() - Epoch
	if secs < 0 {
		return 0
	}
	return uint32(secs)
}

// ToTime converts a Farcaster timestamp back to wall-clock time.
func ToTime(ts uint32) time.Time {
	return time.Unix(Epoch+int64(ts), 0).UTC()
}

// SinceIsStale reports whether the age of a message timestamped ts,
// measured against now, exceeds maxAge — all three in Farcaster-time
// seconds, the unit PruneTimeLimit is configured in. Per spec.md §9, a
// clock that runs backward (now < ts) must never be treated as stale.
func SinceIsStale(now, ts, maxAge uint32) bool {
	diff := int64(now) - int64(ts)
	if diff < 0 {
		return false
	}
	return diff > int64(maxAge)
}
