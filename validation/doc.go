// Package validation provides configuration validation for boundq.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Every failure is reported as
// a CONFIGURATION_ERROR so invalid parameters fail fast at construction.
//
// # Struct Tag Validation
//
//	type Config struct {
//	    Capacity int `json:"capacity" validate:"gt=0"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Min("capacity", capacity, 1)
//	if appErr := v.Validate(); appErr != nil { ... }
package validation
