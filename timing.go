// FILE: lixenwraith/settings/timing.go
package settings

import "time"

// Timing constants of the settings file watcher.
const (
	SpinWaitInterval     = 5 * time.Millisecond   // CPU-friendly busy-wait quantum
	MinPollInterval      = 100 * time.Millisecond // Hard floor for file stat polling
	ShutdownTimeout      = 100 * time.Millisecond // Graceful watcher termination window
	DefaultDebounce      = 500 * time.Millisecond // File change coalescence period
	DefaultPollInterval  = time.Second            // Standard file monitoring frequency
	DefaultReloadTimeout = 5 * time.Second        // Maximum duration for reload operations
)

// shutdownPollCycles is how many spin-wait cycles make up a shutdown timeout
const shutdownPollCycles = ShutdownTimeout / SpinWaitInterval
