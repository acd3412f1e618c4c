// Package agentlog carries the teacher's own human-facing progress logging
// texture forward: plain fmt.Printf with a checkmark/warning convention,
// rather than adopting a structured logging library the teacher itself
// never reached for.
package agentlog

import (
	"fmt"
	"os"
	"time"
)

// Sink is the injected-capability shape from the core's design notes:
// on_status/on_alert are set once at construction and never mutated.
type Sink struct {
	OnStatus func(text string)
	OnAlert  func(text string)
}

// Default returns a Sink that prints to stdout/stderr in the teacher's
// checkmark/warning style. Swapping in a real transport (file, syslog,
// remote collector) means constructing a different Sink, never reaching
// into this one's fields.
func Default() *Sink {
	return &Sink{
		OnStatus: func(text string) {
			fmt.Printf("✅ [%s] %s\n", time.Now().Format(time.RFC3339), text)
		},
		OnAlert: func(text string) {
			fmt.Fprintf(os.Stderr, "⚠️  [%s] %s\n", time.Now().Format(time.RFC3339), text)
		},
	}
}

// Status invokes OnStatus, swallowing any panic the sink raises — per the
// core's contract, status/alert sinks must never fail fatally.
func (s *Sink) Status(format string, args ...any) {
	s.safeCall(s.OnStatus, fmt.Sprintf(format, args...))
}

// Alert invokes OnAlert, swallowing any panic the sink raises.
func (s *Sink) Alert(format string, args ...any) {
	s.safeCall(s.OnAlert, fmt.Sprintf(format, args...))
}

func (s *Sink) safeCall(fn func(string), text string) {
	if fn == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	fn(text)
}
