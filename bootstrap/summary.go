package bootstrap

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/boundq/component"
)

// SummaryEntry is one labelled line of the summary.
type SummaryEntry struct {
	Label string
	Value string
}

// Summary collects what a task reports and renders it when the task ends.
type Summary struct {
	mu          sync.Mutex
	serviceName string
	version     string
	duration    time.Duration
	status      string
	entries     []SummaryEntry
}

// NewSummary creates an empty summary.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{
		serviceName: serviceName,
		version:     version,
		entries:     make([]SummaryEntry, 0),
	}
}

// Add appends a line. Values are formatted with %v.
func (s *Summary) Add(label string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, SummaryEntry{Label: label, Value: fmt.Sprintf("%v", value)})
}

// Entries returns a copy of the recorded lines.
func (s *Summary) Entries() []SummaryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SummaryEntry(nil), s.entries...)
}

// SetDuration records how long the task took.
func (s *Summary) SetDuration(d time.Duration) {
	s.mu.Lock()
	s.duration = d
	s.mu.Unlock()
}

// SetStatus records the task outcome.
func (s *Summary) SetStatus(status string) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// Status returns the recorded outcome.
func (s *Summary) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Render writes the summary and the given component health to w.
func (s *Summary) Render(w io.Writer, health []component.Health) {
	s.mu.Lock()
	defer s.mu.Unlock()

	version := s.version
	if version == "" {
		version = "dev"
	}
	fmt.Fprintf(w, "\n%s %s finished in %.3fs\n\n", s.serviceName, version, s.duration.Seconds())

	width := 0
	for _, e := range s.entries {
		width = max(width, len(e.Label))
	}
	for i, e := range s.entries {
		fmt.Fprintf(w, "   %s %-*s %s\n", treePrefix(i, len(s.entries)), width+1, e.Label+":", e.Value)
	}

	if len(health) > 0 {
		fmt.Fprintf(w, "\nComponents\n")
		for i, h := range health {
			msg := ""
			if h.Message != "" {
				msg = " (" + h.Message + ")"
			}
			fmt.Fprintf(w, "   %s %s %s: %s%s\n", treePrefix(i, len(health)),
				healthStatusIcon(h.Status), h.Name, strings.ToLower(string(h.Status)), msg)
		}
	}

	fmt.Fprintf(w, "\n%s Status: %s\n", statusIcon(s.status), s.status)
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func statusIcon(status string) string {
	if status == "ok" {
		return "✅"
	}
	return "❌"
}

func healthStatusIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	case component.StatusDisabled:
		return "⏸️"
	default:
		return "❓"
	}
}
