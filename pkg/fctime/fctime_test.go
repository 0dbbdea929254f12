package fctime

import (
	"testing"
	"time"
)

func TestFromTimeToTimeRoundTrip(t *testing.T) {
	want := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	ts := FromTime(want)
	got := ToTime(ts)
	if !got.Equal(want) {
		t.Fatalf("round trip = %v, want %v", got, want)
	}
}

func TestFromTimeBeforeEpochSaturatesAtZero(t *testing.T) {
	before := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := FromTime(before); got != 0 {
		t.Fatalf("FromTime(before epoch) = %d, want 0", got)
	}
}

func TestSinceIsStale(t *testing.T) {
	now := uint32(10_000)
	if !SinceIsStale(now, 0, 3599) {
		t.Fatalf("expected message older than maxAge to be stale")
	}
	if SinceIsStale(now, now-100, 3599) {
		t.Fatalf("expected recent message to not be stale")
	}
}

func TestSinceIsStaleNegativeAgeIsNotStale(t *testing.T) {
	now := uint32(100)
	future := uint32(200)
	if SinceIsStale(now, future, 1) {
		t.Fatalf("a timestamp in the future of now must never be treated as stale")
	}
}
