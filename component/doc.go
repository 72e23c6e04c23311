// Package component defines the lifecycle interface for long-lived pieces of
// a boundq process (telemetry exporters today) and a Registry that starts
// them in order and stops them in reverse.
package component
