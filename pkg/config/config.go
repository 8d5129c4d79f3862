// Package config parses the INI-style configuration file that describes
// the machine: tower geometry, drive steps-per-mm, solver tuning and
// diagnostic endpoints. Option access is tracked so that typos in the
// file can be reported as unused options after startup.
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"drivestep/pkg/errors"
)

// Config provides access to a parsed configuration file.
type Config struct {
	mu       sync.RWMutex
	sections map[string]*Section
	order    []string

	accessed map[string]struct{}
}

// New creates an empty Config.
func New() *Config {
	return &Config{
		sections: make(map[string]*Section),
		accessed: make(map[string]struct{}),
	}
}

// Load reads a configuration file. [include path] directives pull in
// other files relative to the including file; globs are allowed.
func Load(path string) (*Config, error) {
	c := New()
	visited := make(map[string]bool)
	if err := c.parseFile(path, visited); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadString parses a configuration held in a string.
func LoadString(data string) (*Config, error) {
	c := New()
	if err := c.parseLines(strings.Split(data, "\n"), "", nil); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) parseFile(path string, visited map[string]bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.ConfigValidationError("", "", fmt.Sprintf("invalid path %s: %v", path, err))
	}
	if visited[abs] {
		return errors.ConfigValidationError("", "", "recursive include: "+path)
	}
	visited[abs] = true
	defer func() { visited[abs] = false }()

	f, err := os.Open(abs)
	if err != nil {
		return errors.Wrap(err, errors.ErrConfigValidation, "unable to open "+path)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, errors.ErrConfigValidation, "error reading "+path)
	}
	return c.parseLines(lines, filepath.Dir(abs), visited)
}

// parseLines is the shared parser body. dir and visited are set only
// when parsing a file, enabling [include] directives.
func (c *Config) parseLines(lines []string, dir string, visited map[string]bool) error {
	var currentSection string
	var currentOptions map[string]string

	for lineNum, rawLine := range lines {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}
		if idx := strings.IndexAny(line, "#;"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
			if line == "" {
				continue
			}
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			if currentSection != "" {
				c.addSection(currentSection, currentOptions)
			}
			header := strings.TrimSpace(line[1 : len(line)-1])
			if header == "" {
				return errors.ConfigValidationError("", "", fmt.Sprintf("empty section header at line %d", lineNum+1))
			}
			if strings.HasPrefix(header, "include ") {
				if visited == nil {
					return errors.ConfigValidationError(header, "", "includes are only allowed when loading from a file")
				}
				spec := strings.TrimSpace(header[len("include "):])
				if spec == "" {
					return errors.ConfigValidationError("", "", fmt.Sprintf("empty include at line %d", lineNum+1))
				}
				glob := filepath.Join(dir, spec)
				matches, err := filepath.Glob(glob)
				if err != nil {
					return errors.ConfigValidationError("", "", "invalid include pattern "+spec)
				}
				sort.Strings(matches)
				if len(matches) == 0 && !strings.ContainsAny(glob, "*?[") {
					return errors.ConfigValidationError("", "", "include file does not exist: "+glob)
				}
				for _, m := range matches {
					if err := c.parseFile(m, visited); err != nil {
						return err
					}
				}
				currentSection = ""
				currentOptions = nil
				continue
			}
			currentSection = header
			currentOptions = make(map[string]string)
			continue
		}

		if currentSection == "" {
			continue
		}

		kv := strings.SplitN(line, ":", 2)
		if len(kv) != 2 {
			kv = strings.SplitN(line, "=", 2)
		}
		if len(kv) != 2 {
			return errors.ConfigValidationError(currentSection, "",
				fmt.Sprintf("malformed option at line %d: %q", lineNum+1, line))
		}
		key := strings.TrimSpace(kv[0])
		if key == "" {
			continue
		}
		currentOptions[key] = strings.TrimSpace(kv[1])
	}

	if currentSection != "" {
		c.addSection(currentSection, currentOptions)
	}
	return nil
}

// addSection registers a section, merging options when the name repeats.
func (c *Config) addSection(name string, options map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.sections[name]; ok {
		for k, v := range options {
			existing.options[strings.ToLower(k)] = v
		}
		return
	}
	c.sections[name] = newSection(name, options)
	c.order = append(c.order, name)
}

// Section returns the named section, or nil if the file does not have
// it. Callers with hard requirements use GetSection instead.
func (c *Config) Section(name string) *Section {
	c.mu.Lock()
	defer c.mu.Unlock()
	sec, ok := c.sections[name]
	if ok {
		c.accessed[name] = struct{}{}
	}
	return sec
}

// GetSection returns the named section or an error when missing.
func (c *Config) GetSection(name string) (*Section, error) {
	if sec := c.Section(name); sec != nil {
		return sec, nil
	}
	return nil, errors.ConfigSectionError(name)
}

// HasSection reports whether the named section exists.
func (c *Config) HasSection(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.sections[name]
	return ok
}

// SectionNames returns all section names in file order.
func (c *Config) SectionNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]string, len(c.order))
	copy(result, c.order)
	return result
}

// PrefixSections returns all sections whose name starts with prefix,
// in file order. Used for numbered sections like [tower 0].
func (c *Config) PrefixSections(prefix string) []*Section {
	c.mu.Lock()
	defer c.mu.Unlock()
	var result []*Section
	for _, name := range c.order {
		if strings.HasPrefix(name, prefix) {
			c.accessed[name] = struct{}{}
			result = append(result, c.sections[name])
		}
	}
	return result
}

// UnusedSections returns sections never handed out, sorted by name.
func (c *Config) UnusedSections() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var result []string
	for name := range c.sections {
		if _, ok := c.accessed[name]; !ok {
			result = append(result, name)
		}
	}
	sort.Strings(result)
	return result
}

// CheckUnused returns an error naming any section or option that was
// parsed but never read. Called once after all components have pulled
// their configuration.
func (c *Config) CheckUnused() error {
	if unused := c.UnusedSections(); len(unused) > 0 {
		return errors.ConfigValidationError("", "", fmt.Sprintf("unused sections: %v", unused))
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	var bad []string
	for _, name := range c.order {
		if unused := c.sections[name].UnusedOptions(); len(unused) > 0 {
			bad = append(bad, fmt.Sprintf("[%s]: unused options %v", name, unused))
		}
	}
	if len(bad) > 0 {
		return errors.ConfigValidationError("", "", strings.Join(bad, "; "))
	}
	return nil
}
