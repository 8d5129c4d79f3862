// Unified error handling for the step-timing engine.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package errors

import (
	"fmt"
	"runtime"
)

// ErrorCode represents the category of error
type ErrorCode string

const (
	// Configuration errors
	ErrConfigSection    ErrorCode = "CONFIG_SECTION"
	ErrConfigOption     ErrorCode = "CONFIG_OPTION"
	ErrConfigValidation ErrorCode = "CONFIG_VALIDATION"
	ErrConfigType       ErrorCode = "CONFIG_TYPE"

	// Move preparation errors
	ErrPrepare         ErrorCode = "PREPARE"
	ErrPrepareGeometry ErrorCode = "PREPARE_GEOMETRY"
	ErrPrepareSegments ErrorCode = "PREPARE_SEGMENTS"

	// Step generation errors
	ErrStepLate     ErrorCode = "STEP_LATE"
	ErrStepRadicand ErrorCode = "STEP_RADICAND"
	ErrStepSegments ErrorCode = "STEP_SEGMENTS"

	// Runtime errors
	ErrRuntime     ErrorCode = "RUNTIME"
	ErrRuntimeInit ErrorCode = "RUNTIME_INIT"
	ErrRuntimePool ErrorCode = "RUNTIME_POOL"
)

// MotionError is the unified error type for the host system
type MotionError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Drive is the drive index the error relates to, or -1
	Drive int

	// Section is the config section or context
	Section string

	// Option is the config option name (if applicable)
	Option string

	// Err wraps the underlying error
	Err error

	// Context provides additional context
	Context map[string]interface{}
}

// Error implements the error interface
func (e *MotionError) Error() string {
	if e.Drive >= 0 {
		return fmt.Sprintf("[%s] drive %d: %s", e.Code, e.Drive, e.Message)
	}
	if e.Section != "" {
		return fmt.Sprintf("[%s:%s] %s", e.Code, e.Section, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *MotionError) Unwrap() error {
	return e.Err
}

// SetDrive sets the drive index
func (e *MotionError) SetDrive(drive int) *MotionError {
	e.Drive = drive
	return e
}

// SetSection sets the context section
func (e *MotionError) SetSection(section string) *MotionError {
	e.Section = section
	return e
}

// SetOption sets the config option
func (e *MotionError) SetOption(option string) *MotionError {
	e.Option = option
	return e
}

// SetContext adds additional context
func (e *MotionError) SetContext(key string, value interface{}) *MotionError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Wrap wraps an existing error with additional context
func Wrap(err error, code ErrorCode, message string) *MotionError {
	return &MotionError{
		Code:    code,
		Message: message,
		Drive:   -1,
		Err:     err,
	}
}

// New creates a new MotionError
func New(code ErrorCode, message string) *MotionError {
	return &MotionError{
		Code:    code,
		Message: message,
		Drive:   -1,
	}
}

// Config errors

// ConfigSectionError creates an error for missing config section
func ConfigSectionError(section string) *MotionError {
	return New(ErrConfigSection, fmt.Sprintf("section '%s' not found", section)).
		SetSection(section)
}

// ConfigOptionError creates an error for missing or invalid config option
func ConfigOptionError(section, option string) *MotionError {
	return New(ErrConfigOption, fmt.Sprintf("option '%s' not found in section '%s'", option, section)).
		SetSection(section).
		SetOption(option)
}

// ConfigValidationError creates an error for config validation failure
func ConfigValidationError(section, option string, reason string) *MotionError {
	msg := reason
	switch {
	case option != "":
		msg = fmt.Sprintf("option '%s' in section '%s': %s", option, section, reason)
	case section != "":
		msg = fmt.Sprintf("section '%s': %s", section, reason)
	}
	return New(ErrConfigValidation, msg).
		SetSection(section).
		SetOption(option)
}

// ConfigTypeError creates an error for config type conversion failure
func ConfigTypeError(section, option, value string, targetType string, err error) *MotionError {
	return Wrap(err, ErrConfigType, fmt.Sprintf("option '%s' in section '%s': failed to parse '%s' as %s", option, section, value, targetType)).
		SetSection(section).
		SetOption(option)
}

// Preparation errors

// PrepareError creates a general move-preparation error
func PrepareError(drive int, message string) *MotionError {
	return New(ErrPrepare, message).SetDrive(drive)
}

// PrepareGeometryError creates an error for a geometry precondition
// violated by the planner, such as a rod shorter than the tower offset
func PrepareGeometryError(drive int, message string) *MotionError {
	return New(ErrPrepareGeometry, message).SetDrive(drive)
}

// PrepareSegmentsError creates an error for a missing or malformed
// segment list
func PrepareSegmentsError(drive int, message string) *MotionError {
	return New(ErrPrepareSegments, message).SetDrive(drive)
}

// Runtime errors

// RuntimeError creates a general runtime error
func RuntimeError(message string) *MotionError {
	return New(ErrRuntime, message)
}

// RuntimeErrorInit creates an error for initialization failure
func RuntimeErrorInit(component string, reason string) *MotionError {
	return New(ErrRuntimeInit, fmt.Sprintf("failed to initialize %s: %s", component, reason))
}

// RuntimeErrorPool creates an error for an object pool misuse
func RuntimeErrorPool(operation string, reason string) *MotionError {
	return New(ErrRuntimePool, fmt.Sprintf("pool %s failed: %s", operation, reason))
}

// RecoverPanic safely recovers from panic and converts to error
func RecoverPanic() *MotionError {
	if r := recover(); r != nil {
		var err error
		switch x := r.(type) {
		case string:
			err = RuntimeError(fmt.Sprintf("panic: %s", x))
		case error:
			err = RuntimeError(x.Error())
		case runtime.Error:
			err = RuntimeError(x.Error())
		default:
			err = RuntimeError(fmt.Sprintf("panic: %v", x))
		}
		return err.(*MotionError)
	}
	return nil
}

// Is checks if error matches given error code
func Is(err error, code ErrorCode) bool {
	if motionErr, ok := err.(*MotionError); ok {
		return motionErr.Code == code
	}
	return false
}

// IsConfig checks if error is a config error
func IsConfig(err error) bool {
	return Is(err, ErrConfigSection) ||
		Is(err, ErrConfigOption) ||
		Is(err, ErrConfigValidation) ||
		Is(err, ErrConfigType)
}

// IsPrepare checks if error is a move-preparation error
func IsPrepare(err error) bool {
	return Is(err, ErrPrepare) ||
		Is(err, ErrPrepareGeometry) ||
		Is(err, ErrPrepareSegments)
}

// IsRuntime checks if error is a runtime error
func IsRuntime(err error) bool {
	return Is(err, ErrRuntime) ||
		Is(err, ErrRuntimeInit) ||
		Is(err, ErrRuntimePool)
}
