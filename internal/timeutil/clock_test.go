package timeutil

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 3, 14, 7, 30, 0, 0, time.UTC)

func TestRealClock(t *testing.T) {
	var c Clock = RealClock{}
	before := time.Now()
	now := c.Now()
	if now.Before(before) {
		t.Fatalf("Now() = %v, before %v", now, before)
	}
	if c.Since(before) < 0 {
		t.Fatal("Since returned negative duration")
	}

	tk := c.NewTicker(time.Millisecond)
	defer tk.Stop()
	select {
	case <-tk.C():
	case <-time.After(time.Second):
		t.Fatal("real ticker did not fire")
	}

	tm := c.NewTimer(time.Hour)
	if !tm.Stop() {
		t.Fatal("Stop on pending timer should report it was active")
	}
}

func TestMockClockAdvance(t *testing.T) {
	c := NewMockClock(epoch)
	c.Advance(90 * time.Second)
	if got := c.Since(epoch); got != 90*time.Second {
		t.Fatalf("Since = %v, want 90s", got)
	}
	c.Set(epoch)
	if !c.Now().Equal(epoch) {
		t.Fatalf("Set did not move the clock")
	}
}

func TestMockTimer(t *testing.T) {
	c := NewMockClock(epoch)
	tm := c.NewTimer(10 * time.Second)

	c.Advance(9 * time.Second)
	select {
	case <-tm.C():
		t.Fatal("timer fired early")
	default:
	}

	c.Advance(time.Second)
	select {
	case at := <-tm.C():
		if !at.Equal(epoch.Add(10 * time.Second)) {
			t.Fatalf("fired at %v", at)
		}
	default:
		t.Fatal("timer did not fire at deadline")
	}
	if c.Timers() != 0 {
		t.Fatalf("fired timer still counted active")
	}

	// Reset measures from the current time.
	tm.Reset(5 * time.Second)
	c.Advance(4 * time.Second)
	select {
	case <-tm.C():
		t.Fatal("reset timer fired early")
	default:
	}
	c.Advance(time.Second)
	select {
	case <-tm.C():
	default:
		t.Fatal("reset timer did not fire")
	}
}

func TestMockTimerStop(t *testing.T) {
	c := NewMockClock(epoch)
	tm := c.NewTimer(time.Second)
	if !tm.Stop() {
		t.Fatal("Stop should report active")
	}
	if tm.Stop() {
		t.Fatal("second Stop should report inactive")
	}
	c.Advance(time.Minute)
	select {
	case <-tm.C():
		t.Fatal("stopped timer fired")
	default:
	}
}

func TestMockTicker(t *testing.T) {
	c := NewMockClock(epoch)
	tk := c.NewTicker(time.Second)
	if c.Tickers() != 1 {
		t.Fatalf("Tickers = %d", c.Tickers())
	}

	for i := 1; i <= 3; i++ {
		c.Advance(time.Second)
		select {
		case at := <-tk.C():
			if want := epoch.Add(time.Duration(i) * time.Second); !at.Equal(want) {
				t.Fatalf("tick %d at %v, want %v", i, at, want)
			}
		default:
			t.Fatalf("tick %d missing", i)
		}
	}

	// A long jump yields one tick, not a burst.
	c.Advance(10 * time.Second)
	<-tk.C()
	select {
	case <-tk.C():
		t.Fatal("ticker delivered a burst")
	default:
	}

	tk.Stop()
	if c.Tickers() != 0 {
		t.Fatalf("stopped ticker still running")
	}
	c.Advance(time.Second)
	select {
	case <-tk.C():
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestMockTickerRejectsZeroInterval(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	NewMockClock(epoch).NewTicker(0)
}
