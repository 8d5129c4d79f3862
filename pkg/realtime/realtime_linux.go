//go:build linux

// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package realtime

import (
	"golang.org/x/sys/unix"

	"drivestep/pkg/errors"
)

func lockMemory() error {
	if err := unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE); err != nil {
		return errors.RuntimeErrorInit("memory locking", err.Error())
	}
	return nil
}

func setPriority(priority int) error {
	if err := unix.Setpriority(unix.PRIO_PROCESS, 0, priority); err != nil {
		return errors.RuntimeErrorInit("scheduling priority", err.Error())
	}
	return nil
}
