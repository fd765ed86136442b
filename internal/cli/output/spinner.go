package output

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner displays an activity animation on one terminal line.
type Spinner struct {
	w        io.Writer
	message  string
	interval time.Duration

	mu      sync.Mutex
	started bool
	once    sync.Once
	done    chan struct{}
	exited  chan struct{}
}

// NewSpinner creates a new spinner.
func NewSpinner(w io.Writer, message string) *Spinner {
	return &Spinner{
		w:        w,
		message:  message,
		interval: 100 * time.Millisecond,
		done:     make(chan struct{}),
		exited:   make(chan struct{}),
	}
}

// Start starts the animation. It is a no-op after the spinner stopped.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	go func() {
		defer close(s.exited)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for i := 0; ; i++ {
			s.mu.Lock()
			fmt.Fprintf(s.w, "\r%s %s", spinnerFrames[i%len(spinnerFrames)], s.message)
			s.mu.Unlock()
			select {
			case <-s.done:
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop stops the spinner and clears the line.
func (s *Spinner) Stop() { s.finish("\r\033[K") }

// Success stops the spinner with a success message.
func (s *Spinner) Success(message string) { s.finish("\r✓ " + message + "\n") }

// Fail stops the spinner with a failure message.
func (s *Spinner) Fail(message string) { s.finish("\r✗ " + message + "\n") }

func (s *Spinner) finish(last string) {
	s.once.Do(func() {
		close(s.done)
		s.mu.Lock()
		started := s.started
		s.started = true
		s.mu.Unlock()
		if started {
			<-s.exited
		}
		fmt.Fprint(s.w, last)
	})
}
