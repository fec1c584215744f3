package log

import (
	"log/slog"
	"sync"

	"github.com/YuminosukeSato/goautoml/pkg/errors"
)

var (
	providerMu sync.RWMutex
	provider   LoggerProvider
)

// SetProvider replaces the process-wide provider and routes library
// warnings (errors.Warn) through it.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	provider = p
	providerMu.Unlock()
	errors.SetZerologWarnFunc(func(w error) {
		p.GetLoggerWithName("warnings").Warn(w.Error(), ErrorTypeKey, warningType(w))
	})
}

// GetProvider returns the process-wide provider, creating an info-level
// zerolog provider on first use.
func GetProvider() LoggerProvider {
	providerMu.RLock()
	p := provider
	providerMu.RUnlock()
	if p != nil {
		return p
	}
	SetProvider(NewZerologProvider(slog.LevelInfo))
	return GetProvider()
}

// GetLogger returns the default logger of the process-wide provider.
func GetLogger() Logger {
	return GetProvider().GetLogger()
}

// GetLoggerWithName returns a named logger of the process-wide provider.
func GetLoggerWithName(name string) Logger {
	return GetProvider().GetLoggerWithName(name)
}

func warningType(w error) string {
	switch w.(type) {
	case *errors.UndefinedMetricWarning:
		return "UndefinedMetricWarning"
	case *errors.ConvergenceWarning:
		return "ConvergenceWarning"
	case *errors.DataConversionWarning:
		return "DataConversionWarning"
	default:
		return "Warning"
	}
}
