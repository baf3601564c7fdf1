package internal

import (
	"strconv"
	"sync/atomic"
)

// Process-wide output modes.
//
// Seeded from the rawQuiet, rawDebug, and rawVerbose linker flags, then
// overridden by CLI flags after parsing. Any package can consult the final
// values without the flags being threaded through call chains.
var (
	quietMode   atomic.Bool
	debugMode   atomic.Bool
	verboseMode atomic.Bool
)

func init() {
	if v, err := strconv.ParseBool(rawQuiet); err == nil {
		quietMode.Store(v)
	}
	if v, err := strconv.ParseBool(rawDebug); err == nil {
		debugMode.Store(v)
	}
	if v, err := strconv.ParseBool(rawVerbose); err == nil {
		verboseMode.Store(v)
	}
}

// Enables or disables quiet mode.
func SetQuiet(enabled bool) {
	quietMode.Store(enabled)
}

// Returns true if quiet mode is enabled.
func IsQuiet() bool {
	return quietMode.Load()
}

// Enables or disables debug mode.
func SetDebug(enabled bool) {
	debugMode.Store(enabled)
}

// Returns true if debug mode is enabled.
func IsDebug() bool {
	return debugMode.Load()
}

// Enables or disables verbose mode.
func SetVerbose(enabled bool) {
	verboseMode.Store(enabled)
}

// Returns true if verbose mode is enabled.
func IsVerbose() bool {
	return verboseMode.Load()
}
