// Process tuning for low-jitter step generation.
//
// Page faults and scheduler preemption both show up directly as step
// timing jitter, so the host can pin its pages into RAM and raise its
// scheduling priority before generating steps. Both knobs come from
// the [realtime] config section and both need privileges, so failures
// are reported to the caller rather than treated as fatal here.
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package realtime

import (
	"drivestep/pkg/config"
	"drivestep/pkg/log"
)

// Options selects which process tuning to apply.
type Options struct {
	// LockMemory pins all current and future pages into RAM.
	LockMemory bool

	// Priority is the scheduling niceness to request. Negative values
	// raise priority and normally require CAP_SYS_NICE. Zero leaves
	// the priority alone.
	Priority int
}

// OptionsFromConfig reads the [realtime] section. A missing section
// leaves everything disabled.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	var opts Options
	sec := cfg.Section("realtime")
	if sec == nil {
		return opts, nil
	}
	lock, err := sec.GetBoolDefault("lock_memory", false)
	if err != nil {
		return opts, err
	}
	opts.LockMemory = lock
	prio, err := sec.GetIntDefault("priority", 0)
	if err != nil {
		return opts, err
	}
	opts.Priority = prio
	return opts, nil
}

// Apply applies the requested process tuning, logging each knob it
// sets. It returns the first failure; tuning already applied stays in
// effect.
func Apply(opts Options) error {
	logger := log.GetLogger("realtime")
	if opts.LockMemory {
		if err := lockMemory(); err != nil {
			return err
		}
		logger.Info("locked process memory")
	}
	if opts.Priority != 0 {
		if err := setPriority(opts.Priority); err != nil {
			return err
		}
		logger.Info("set scheduling priority to %d", opts.Priority)
	}
	return nil
}
