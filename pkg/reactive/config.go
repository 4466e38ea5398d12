package reactive

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// DebugMode enables debug-level bookkeeping such as named batch logging.
// Set it at startup.
var DebugMode bool

// DebugConfig selects which runtime events are logged at debug level.
type DebugConfig struct {
	// LogEffectRuns logs every effect run with its duration.
	LogEffectRuns bool

	// LogDisposals logs every owner disposal.
	LogDisposals bool
}

// Debug is the global debug configuration.
var Debug DebugConfig

var pkgLogger atomic.Pointer[zap.Logger]

func init() {
	pkgLogger.Store(zap.NewNop())
}

// SetLogger replaces the runtime logger. A nil logger silences output.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	pkgLogger.Store(l.Named("reactive"))
}

// Logger returns the runtime logger.
func Logger() *zap.Logger {
	return pkgLogger.Load()
}

func logger() *zap.Logger {
	return pkgLogger.Load()
}
