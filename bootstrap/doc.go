// Package bootstrap runs a finite task inside a managed process lifecycle.
//
// NewApp validates the configuration and initialises logging. RunTask
// starts registered components, runs the task with a context cancelled on
// SIGINT or SIGTERM, writes a summary of what the task reported, and stops
// the components in reverse order.
package bootstrap
