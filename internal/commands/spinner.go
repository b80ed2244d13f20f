package commands

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/supportchat/internal/theme"
)

// spinner handles the animated loading indicator for one-shot queries
type spinner struct {
	out     io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool
}

// newSpinner creates a new animated spinner writing to out
func newSpinner(out io.Writer, message string) *spinner {
	return &spinner{
		out:     out,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// start begins the animation
func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(300 * time.Millisecond)
		defer ticker.Stop()

		// Hide cursor
		fmt.Fprint(s.out, "\033[?25l")

		for {
			select {
			case <-s.stop:
				// Clear line and show cursor
				fmt.Fprint(s.out, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				fmt.Fprintf(s.out, "\r\033[K%s", s.render())
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// render draws the current frame: the message followed by three dots that
// light up in turn
func (s *spinner) render() string {
	t := theme.Current()
	var dots strings.Builder
	lit := s.frame % 3
	for i := 0; i < 3; i++ {
		style := lipgloss.NewStyle().Foreground(t.TextMute)
		if i == lit {
			style = lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
		}
		dots.WriteString(style.Render("●"))
	}
	msg := lipgloss.NewStyle().Foreground(t.Text).Render(s.message)
	return msg + " " + dots.String()
}

// stopOnce safely closes the stop channel only once
func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

// stopWithSuccess stops the spinner and shows success message
func (s *spinner) stopWithSuccess(message string) {
	s.stopOnce()
	<-s.done

	t := theme.Current()
	checkmark := lipgloss.NewStyle().Foreground(t.Secondary).Bold(true).Render("✓")
	fmt.Fprintf(s.out, "%s %s\n", checkmark, message)
}

// stopWithError stops the spinner
func (s *spinner) stopWithError() {
	s.stopOnce()
	<-s.done
}
