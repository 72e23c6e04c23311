// Package logger provides structured logging for boundq using zerolog.
//
// It supports JSON and console output, log level configuration, and
// component-scoped loggers with structured fields. Logs go to stderr by
// default so command output on stdout stays clean.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("pipeline.producer")
//	log.Info("source exhausted", logger.Fields(logger.FieldItems, 5))
package logger
