package rhi

import "log"

// Logger is the seam every diagnostic in this package goes through:
// format fallback, sampler degradation, attribute-resolution
// warnings, replay errors, leak reports. A Device with no explicit
// logger set uses stdLogger, an adapter over the standard *log.Logger,
// so it still behaves like the rest of this corpus's plain
// log.Printf calls.
type Logger interface {
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// stdLogger adapts the standard library logger to Logger.
type stdLogger struct{ *log.Logger }

func (l stdLogger) Warnf(format string, args ...any)  { l.Printf("[rhi] warn: "+format, args...) }
func (l stdLogger) Errorf(format string, args ...any) { l.Printf("[rhi] error: "+format, args...) }

// defaultLogger is used by a Device that was not given one explicitly.
var defaultLogger Logger = stdLogger{log.Default()}
