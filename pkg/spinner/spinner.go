// Package spinner shows progress on a terminal while the review command waits on GitHub and
// the producers.
package spinner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type Spinner struct {
	chars   []string
	delay   time.Duration
	out     io.Writer
	message string
	started time.Time
	active  bool
	width   int
	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
}

// New returns a spinner writing to stderr, so stdout stays clean for the review output.
func New(message string) *Spinner {
	return NewWithWriter(os.Stderr, message)
}

func NewWithWriter(out io.Writer, message string) *Spinner {
	return &Spinner{
		chars:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		delay:   100 * time.Millisecond,
		out:     out,
		message: message,
	}
}

func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return
	}
	s.active = true
	s.started = time.Now()
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.spin(s.stop, s.done)
}

func (s *Spinner) spin(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.delay)
	defer ticker.Stop()

	for i := 0; ; i++ {
		s.mu.Lock()
		line := fmt.Sprintf("%s %s (%ds)", s.chars[i%len(s.chars)], s.message, int(time.Since(s.started).Seconds()))
		if len(line) > s.width {
			s.width = len(line)
		}
		fmt.Fprint(s.out, "\r"+line)
		s.mu.Unlock()

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// Stop clears the spinner line. It is safe to call on a stopped spinner.
func (s *Spinner) Stop() {
	s.StopWithMessage("")
}

// StopWithMessage replaces the spinner line with message, when one is given.
func (s *Spinner) StopWithMessage(message string) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	<-done

	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprint(s.out, "\r"+strings.Repeat(" ", s.width)+"\r")
	if message != "" {
		fmt.Fprintln(s.out, message)
	}
}

func (s *Spinner) Update(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

func (s *Spinner) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}
