// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package realtime

import (
	"testing"

	"drivestep/pkg/config"
)

func TestOptionsFromConfig(t *testing.T) {
	cfg, err := config.LoadString(`
[realtime]
lock_memory: true
priority: -10
`)
	if err != nil {
		t.Fatal(err)
	}
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !opts.LockMemory {
		t.Error("lock_memory not read")
	}
	if opts.Priority != -10 {
		t.Errorf("priority %d, want -10", opts.Priority)
	}
}

func TestOptionsFromConfigAbsentSection(t *testing.T) {
	cfg, err := config.LoadString("[steptuning]\n")
	if err != nil {
		t.Fatal(err)
	}
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if opts.LockMemory || opts.Priority != 0 {
		t.Errorf("absent section should disable tuning, got %+v", opts)
	}
}

func TestApplyDisabledIsNoop(t *testing.T) {
	if err := Apply(Options{}); err != nil {
		t.Errorf("disabled tuning returned %v", err)
	}
}
