// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package config

import (
	"strconv"
	"strings"
	"sync"

	"drivestep/pkg/errors"
)

// Section provides typed access to one config section's options. Option
// names are case-insensitive. Every read marks the option as accessed
// so Config.CheckUnused can flag leftovers.
type Section struct {
	name    string
	options map[string]string

	mu       sync.Mutex
	accessed map[string]struct{}
}

func newSection(name string, options map[string]string) *Section {
	opts := make(map[string]string, len(options))
	for k, v := range options {
		opts[strings.ToLower(k)] = v
	}
	return &Section{
		name:     name,
		options:  opts,
		accessed: make(map[string]struct{}),
	}
}

// Name returns the section name, including any suffix after the
// section type in names like "tower 0".
func (s *Section) Name() string {
	return s.name
}

func (s *Section) markAccessed(option string) {
	s.mu.Lock()
	s.accessed[strings.ToLower(option)] = struct{}{}
	s.mu.Unlock()
}

// UnusedOptions returns options that were parsed but never read.
func (s *Section) UnusedOptions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []string
	for opt := range s.options {
		if _, ok := s.accessed[opt]; !ok {
			result = append(result, opt)
		}
	}
	return result
}

// HasOption reports whether the option is present.
func (s *Section) HasOption(option string) bool {
	_, ok := s.options[strings.ToLower(option)]
	return ok
}

func (s *Section) lookup(option string) (string, bool) {
	v, ok := s.options[strings.ToLower(option)]
	if ok {
		s.markAccessed(option)
	}
	return v, ok
}

// Get returns a required string option.
func (s *Section) Get(option string) (string, error) {
	if v, ok := s.lookup(option); ok {
		return v, nil
	}
	return "", errors.ConfigOptionError(s.name, option)
}

// GetDefault returns a string option, or def when missing.
func (s *Section) GetDefault(option, def string) string {
	if v, ok := s.lookup(option); ok {
		return v
	}
	s.markAccessed(option)
	return def
}

// GetInt returns a required integer option.
func (s *Section) GetInt(option string) (int, error) {
	v, ok := s.lookup(option)
	if !ok {
		return 0, errors.ConfigOptionError(s.name, option)
	}
	return s.parseInt(option, v)
}

// GetIntDefault returns an integer option, or def when missing. A
// present but unparseable value is still an error.
func (s *Section) GetIntDefault(option string, def int) (int, error) {
	v, ok := s.lookup(option)
	if !ok {
		s.markAccessed(option)
		return def, nil
	}
	return s.parseInt(option, v)
}

func (s *Section) parseInt(option, v string) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, errors.ConfigTypeError(s.name, option, v, "integer", err)
	}
	return i, nil
}

// GetFloat returns a required float option.
func (s *Section) GetFloat(option string) (float64, error) {
	v, ok := s.lookup(option)
	if !ok {
		return 0, errors.ConfigOptionError(s.name, option)
	}
	return s.parseFloat(option, v)
}

// GetFloatDefault returns a float option, or def when missing.
func (s *Section) GetFloatDefault(option string, def float64) (float64, error) {
	v, ok := s.lookup(option)
	if !ok {
		s.markAccessed(option)
		return def, nil
	}
	return s.parseFloat(option, v)
}

func (s *Section) parseFloat(option, v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, errors.ConfigTypeError(s.name, option, v, "float", err)
	}
	return f, nil
}

// GetFloatAbove returns a required float option that must be strictly
// greater than floor.
func (s *Section) GetFloatAbove(option string, floor float64) (float64, error) {
	f, err := s.GetFloat(option)
	if err != nil {
		return 0, err
	}
	if f <= floor {
		return 0, errors.ConfigValidationError(s.name, option,
			"must be above "+strconv.FormatFloat(floor, 'f', -1, 64))
	}
	return f, nil
}

// GetBoolDefault returns a boolean option, or def when missing.
// Accepts 1/true/yes/on and 0/false/no/off.
func (s *Section) GetBoolDefault(option string, def bool) (bool, error) {
	v, ok := s.lookup(option)
	if !ok {
		s.markAccessed(option)
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, errors.ConfigTypeError(s.name, option, v, "boolean", nil)
}

// GetFloatList returns a required comma-separated list of floats.
func (s *Section) GetFloatList(option string) ([]float64, error) {
	v, ok := s.lookup(option)
	if !ok {
		return nil, errors.ConfigOptionError(s.name, option)
	}
	var result []float64
	for _, p := range strings.Split(v, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, errors.ConfigTypeError(s.name, option, p, "float", err)
		}
		result = append(result, f)
	}
	return result, nil
}

// RawOptions returns a copy of the raw option map.
func (s *Section) RawOptions() map[string]string {
	result := make(map[string]string, len(s.options))
	for k, v := range s.options {
		result[k] = v
	}
	return result
}
