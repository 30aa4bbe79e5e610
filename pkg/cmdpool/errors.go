// SPDX-License-Identifier: BSD-3-Clause

package cmdpool

import "errors"

var (
	// ErrSpawn indicates the subprocess could not be started.
	ErrSpawn = errors.New("failed to spawn subprocess")

	// ErrWait indicates waiting on a subprocess failed.
	ErrWait = errors.New("failed to wait on subprocess")

	// ErrNonUTF8Output indicates a piped subprocess produced stdout that
	// is not valid UTF-8 and cannot be typed as keystrokes.
	ErrNonUTF8Output = errors.New("subprocess output is not valid UTF-8")

	// ErrPoolClosed indicates the pool is shutting down and no longer
	// accepts spawns.
	ErrPoolClosed = errors.New("command pool is closed")
)
