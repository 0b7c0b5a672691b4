package clock

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := &RealClock{}

	before := time.Now()
	actual := clock.Now()
	after := time.Now()

	if actual.Before(before) || actual.After(after) {
		t.Errorf("RealClock.Now() = %v, expected between %v and %v", actual, before, after)
	}
}

func TestFakeClock(t *testing.T) {
	fixed := time.Date(2024, 1, 15, 10, 30, 0, 0, time.Local)
	clock := NewFakeClock(fixed)

	if !clock.Now().Equal(fixed) {
		t.Errorf("Now() = %v, want %v", clock.Now(), fixed)
	}

	clock.Advance(48 * time.Hour)
	if want := fixed.Add(48 * time.Hour); !clock.Now().Equal(want) {
		t.Errorf("after Advance, Now() = %v, want %v", clock.Now(), want)
	}

	clock.Set(fixed)
	if !clock.Now().Equal(fixed) {
		t.Errorf("after Set, Now() = %v, want %v", clock.Now(), fixed)
	}
}

func TestDate(t *testing.T) {
	clock := NewFakeClock(time.Date(2024, 3, 9, 23, 59, 0, 0, time.Local))

	if got := Date(clock); got != "2024-03-09" {
		t.Errorf("Date() = %q, want 2024-03-09", got)
	}

	clock.Advance(2 * time.Minute)
	if got := Date(clock); got != "2024-03-10" {
		t.Errorf("Date() after midnight = %q, want 2024-03-10", got)
	}
}
