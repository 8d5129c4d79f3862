// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package errors

import (
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := PrepareError(2, "axis has no movement fraction")
	want := "[PREPARE] drive 2: axis has no movement fraction"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}

	err = ConfigSectionError("delta")
	want = "[CONFIG_SECTION:delta] section 'delta' not found"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}

	err = RuntimeErrorInit("memory locking", "permission denied")
	want = "[RUNTIME_INIT] failed to initialize memory locking: permission denied"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestConfigValidationErrorMessage(t *testing.T) {
	cases := []struct {
		section, option, reason string
		want                    string
	}{
		{"delta", "radius", "must be positive",
			"option 'radius' in section 'delta': must be positive"},
		{"delta", "", "need 1 or 3 values",
			"section 'delta': need 1 or 3 values"},
		{"", "", "bad line",
			"bad line"},
	}
	for _, c := range cases {
		err := ConfigValidationError(c.section, c.option, c.reason)
		if err.Message != c.want {
			t.Errorf("ConfigValidationError(%q, %q, %q): message %q, want %q",
				c.section, c.option, c.reason, err.Message, c.want)
		}
	}
}

func TestCodePredicates(t *testing.T) {
	if !IsConfig(ConfigOptionError("delta", "radius")) {
		t.Error("ConfigOptionError not classified as config")
	}
	if !IsPrepare(PrepareGeometryError(0, "rod too short")) {
		t.Error("PrepareGeometryError not classified as prepare")
	}
	if !IsRuntime(RuntimeErrorPool("release", "double free")) {
		t.Error("RuntimeErrorPool not classified as runtime")
	}
	if IsConfig(PrepareError(0, "x")) || IsPrepare(RuntimeError("x")) {
		t.Error("predicate matched the wrong category")
	}
	if Is(fmt.Errorf("plain"), ErrRuntime) {
		t.Error("plain error matched a motion error code")
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	inner := fmt.Errorf("read failed")
	err := Wrap(inner, ErrConfigType, "cannot parse value")
	if err.Unwrap() != inner {
		t.Error("wrapped error lost")
	}
	if !Is(err, ErrConfigType) {
		t.Error("wrapped error lost its code")
	}
}
