//go:build !linux

// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package realtime

import "drivestep/pkg/errors"

func lockMemory() error {
	return errors.RuntimeErrorInit("memory locking", "not supported on this platform")
}

func setPriority(priority int) error {
	return errors.RuntimeErrorInit("scheduling priority", "not supported on this platform")
}
