package alert

import (
	"testing"
	"time"

	"findash/internal/debounce"
)

var epoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestNotifierAutoDismiss(t *testing.T) {
	clock := debounce.NewManualClock(epoch)
	n := New(clock, 6*time.Second, nil)

	var seen []State
	n.Subscribe(func(s State) { seen = append(seen, s) })

	n.Show("Failed to fetch transactions", Error)
	if st := n.State(); !st.Open || st.Severity != Error {
		t.Fatalf("state = %+v", st)
	}

	clock.Advance(5 * time.Second)
	if !n.State().Open {
		t.Fatal("alert closed early")
	}
	clock.Advance(time.Second)
	if n.State().Open {
		t.Fatal("alert still open after its duration")
	}
	if n.State().Message != "Failed to fetch transactions" {
		t.Errorf("message lost on dismiss: %+v", n.State())
	}
	if len(seen) != 2 {
		t.Errorf("notifications = %d, want 2", len(seen))
	}
}

func TestNotifierShowRestartsTimer(t *testing.T) {
	clock := debounce.NewManualClock(epoch)
	n := New(clock, 6*time.Second, nil)

	n.Show("first", Info)
	clock.Advance(4 * time.Second)
	n.Show("Export completed successfully!", Success)
	clock.Advance(4 * time.Second)

	st := n.State()
	if !st.Open || st.Message != "Export completed successfully!" || st.Severity != Success {
		t.Fatalf("state = %+v", st)
	}
	clock.Advance(2 * time.Second)
	if n.State().Open {
		t.Fatal("second alert did not close")
	}
}

func TestNotifierHide(t *testing.T) {
	clock := debounce.NewManualClock(epoch)
	n := New(clock, 6*time.Second, nil)

	n.Show("x", "")
	if n.State().Severity != Info {
		t.Errorf("default severity = %q", n.State().Severity)
	}
	n.Show("x", Severity("fatal"))
	if n.State().Severity != Info {
		t.Errorf("unknown severity kept as %q", n.State().Severity)
	}
	n.Show("x", Severity("Warning"))
	if n.State().Severity != Warning {
		t.Errorf("severity = %q, want warning", n.State().Severity)
	}
	n.Hide()
	if n.State().Open {
		t.Fatal("Hide left the alert open")
	}
	if clock.Pending() != 0 {
		t.Errorf("dismiss timer still pending")
	}
}

func TestParseSeverity(t *testing.T) {
	tests := map[string]Severity{
		"success": Success,
		"error":   Error,
		"warning": Warning,
		"info":    Info,
		"loud":    Info,
		"":        Info,
	}
	for in, want := range tests {
		if got := ParseSeverity(in); got != want {
			t.Errorf("ParseSeverity(%q) = %q, want %q", in, got, want)
		}
	}
}
