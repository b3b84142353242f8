package stream

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

var logger atomic.Pointer[zerolog.Logger]

func init() {
	nop := zerolog.Nop()
	logger.Store(&nop)
}

// SetLogger sets the logger used by stream subscriptions and the publishers
// built on them. The package logs nothing until it is called.
func SetLogger(l zerolog.Logger) {
	logger.Store(&l)
}

// Logger returns the logger set with SetLogger.
func Logger() *zerolog.Logger {
	return logger.Load()
}
