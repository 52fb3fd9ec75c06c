//go:build windows

package utils

import (
	"os"

	"golang.org/x/sys/windows"
)

// Whole-file range for LockFileEx.
const lockRange = 0xFFFFFFFF

func tryLock(file *os.File) error {
	var ol windows.Overlapped
	return windows.LockFileEx(
		windows.Handle(file.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0, lockRange, lockRange, &ol,
	)
}

func unlock(file *os.File) error {
	var ol windows.Overlapped
	return windows.UnlockFileEx(windows.Handle(file.Fd()), 0, lockRange, lockRange, &ol)
}
