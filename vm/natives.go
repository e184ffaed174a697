package vm

import (
	"time"

	"ember/value"
)

// clockNative returns the number of seconds elapsed since the VM was
// created, mirroring the reference implementation's process-clock
// native without depending on cgo or OS-specific CPU-time calls.
func clockNative(start time.Time) value.NativeFn {
	return func(argCount int, args []value.Value) value.Value {
		return value.Number(time.Since(start).Seconds())
	}
}
