// Batching tuning values.
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package stepgen

import "drivestep/pkg/config"

// Default batching thresholds, in clock ticks. These are empirically
// tuned for the target hardware's interrupt latency; they are carried
// as configuration values rather than derived from other timing
// constants.
const (
	DefaultMinCalcIntervalCartesian = 100
	DefaultMinCalcIntervalDelta     = 200
)

// Tuning holds the step-time solver's batching thresholds. When the
// last measured inter-step interval drops below a threshold, the solver
// amortises one full computation over 2, 4, 8 or (delta only) 16 steps.
type Tuning struct {
	// MinCalcIntervalCartesian is the interval below which Cartesian
	// and extruder step times are computed in batches.
	MinCalcIntervalCartesian uint32

	// MinCalcIntervalDelta is the interval below which delta step times
	// are computed in batches. Delta steps are costlier, so the
	// threshold is higher and batches go up to 16 steps.
	MinCalcIntervalDelta uint32
}

// DefaultTuning returns the default batching thresholds.
func DefaultTuning() Tuning {
	return Tuning{
		MinCalcIntervalCartesian: DefaultMinCalcIntervalCartesian,
		MinCalcIntervalDelta:     DefaultMinCalcIntervalDelta,
	}
}

// TuningFromConfig reads the [steptuning] section, falling back to the
// defaults for missing options.
func TuningFromConfig(cfg *config.Config) (Tuning, error) {
	t := DefaultTuning()
	sec := cfg.Section("steptuning")
	if sec == nil {
		return t, nil
	}
	v, err := sec.GetIntDefault("min_calc_interval_cartesian", DefaultMinCalcIntervalCartesian)
	if err != nil {
		return t, err
	}
	t.MinCalcIntervalCartesian = uint32(v)
	v, err = sec.GetIntDefault("min_calc_interval_delta", DefaultMinCalcIntervalDelta)
	if err != nil {
		return t, err
	}
	t.MinCalcIntervalDelta = uint32(v)
	return t, nil
}
