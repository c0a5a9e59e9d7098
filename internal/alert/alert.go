// Package alert is the page notification area: one message at a time,
// dismissed by the user or after a fixed duration.
package alert

import (
	"strings"
	"sync"
	"time"

	"findash/internal/debounce"
	"findash/internal/log"
)

type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Warning Severity = "warning"
	Info    Severity = "info"
)

// ParseSeverity is case-insensitive and maps unknown values to Info.
func ParseSeverity(s string) Severity {
	s = strings.ToLower(strings.TrimSpace(s))
	switch Severity(s) {
	case Success, Error, Warning, Info:
		return Severity(s)
	}
	return Info
}

// State is what the notification area shows.
type State struct {
	Open     bool
	Message  string
	Severity Severity
}

// Notifier holds the current alert. A new Show replaces the current alert
// and restarts the dismiss timer.
type Notifier struct {
	mu          sync.Mutex
	state       State
	dismiss     *debounce.Debouncer
	subscribers []func(State)
	logger      *log.Logger
}

// New creates a notifier whose alerts close after duration on clock. A
// duration of 0 keeps alerts open until Hide.
func New(clock debounce.Clock, duration time.Duration, logger *log.Logger) *Notifier {
	if logger == nil {
		logger = log.Discard()
	}
	n := &Notifier{
		state:  State{Severity: Info},
		logger: logger.WithComponent(log.ComponentAlert),
	}
	if duration > 0 {
		n.dismiss = debounce.New(clock, duration)
	}
	return n
}

// Subscribe registers fn to receive every state change.
func (n *Notifier) Subscribe(fn func(State)) {
	n.mu.Lock()
	n.subscribers = append(n.subscribers, fn)
	n.mu.Unlock()
}

// Show opens the alert with msg. An empty or unknown severity means Info.
func (n *Notifier) Show(msg string, severity Severity) {
	severity = ParseSeverity(string(severity))
	n.set(State{Open: true, Message: msg, Severity: severity})
	n.logger.Debug("Alert shown", "severity", string(severity), "message", msg)
	if n.dismiss != nil {
		n.dismiss.Trigger(n.Hide)
	}
}

// Hide closes the alert, keeping its last message and severity.
func (n *Notifier) Hide() {
	if n.dismiss != nil {
		n.dismiss.Stop()
	}
	n.mu.Lock()
	if !n.state.Open {
		n.mu.Unlock()
		return
	}
	next := n.state
	next.Open = false
	n.mu.Unlock()
	n.set(next)
}

func (n *Notifier) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

func (n *Notifier) set(s State) {
	n.mu.Lock()
	n.state = s
	subs := append([]func(State){}, n.subscribers...)
	n.mu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}
