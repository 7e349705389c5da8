// Package logging builds the zap logger shared by every component of
// the mirror worker.
package logging

import (
	"go.uber.org/zap"
)

// NewLogger returns a production zap logger that stamps every entry
// with the service name.
func NewLogger(serviceName string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.InitialFields = map[string]any{
		"service": serviceName,
	}
	return config.Build()
}

// WithRequestID derives a child logger carrying the correlation id of
// one command, so everything done on its behalf can be traced.
func WithRequestID(logger *zap.Logger, requestID string) *zap.Logger {
	return logger.With(zap.String("request_id", requestID))
}
