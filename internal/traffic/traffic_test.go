package traffic

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker() (*Tracker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	return NewTracker(clock.now), clock
}

func TestTracker_Empty(t *testing.T) {
	tr, _ := newTestTracker()
	if n := tr.Count(FetchSuccess, time.Minute); n != 0 {
		t.Errorf("Count() = %d, want 0", n)
	}
	if e, total := tr.ErrorRate(time.Minute); e != 0 || total != 0 {
		t.Errorf("ErrorRate() = (%d, %d), want (0, 0)", e, total)
	}
}

func TestTracker_ErrorRateExcludesDenials(t *testing.T) {
	tr, _ := newTestTracker()
	tr.Record(FetchSuccess)
	tr.Record(FetchSuccess)
	tr.Record(FetchError)
	tr.Record(Denied)

	if e, total := tr.ErrorRate(time.Minute); e != 1 || total != 3 {
		t.Errorf("ErrorRate() = (%d, %d), want (1, 3)", e, total)
	}
	if n := tr.Count(Denied, time.Minute); n != 1 {
		t.Errorf("Count(Denied) = %d, want 1", n)
	}
}

func TestTracker_WindowAndPrune(t *testing.T) {
	tr, clock := newTestTracker()
	tr.Record(FetchError)
	clock.advance(2 * time.Minute)
	tr.Record(FetchError)

	if n := tr.Count(FetchError, time.Minute); n != 1 {
		t.Errorf("Count(1m) = %d, want 1", n)
	}
	if n := tr.Count(FetchError, 5*time.Minute); n != 2 {
		t.Errorf("Count(5m) = %d, want 2", n)
	}

	clock.advance(retention + time.Minute)
	tr.Record(FetchSuccess)
	if got := len(tr.times[FetchError]); got != 0 {
		t.Errorf("pruned error timestamps = %d, want 0", got)
	}
}

func TestTracker_IgnoresUnknownOutcome(t *testing.T) {
	tr, _ := newTestTracker()
	tr.Record(Outcome(99))
	if n := tr.Count(Outcome(99), time.Minute); n != 0 {
		t.Errorf("Count(unknown) = %d, want 0", n)
	}
}

func TestPackageLevelHelpers(t *testing.T) {
	Reset()
	defer Reset()
	RecordFetchSuccess()
	RecordFetchError()
	RecordDenied()
	if e, total := ErrorRate(time.Minute); e != 1 || total != 2 {
		t.Errorf("ErrorRate() = (%d, %d), want (1, 2)", e, total)
	}
	if n := DenialCount(time.Minute); n != 1 {
		t.Errorf("DenialCount() = %d, want 1", n)
	}
}
