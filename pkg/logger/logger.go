package logger

import (
	"go.uber.org/zap"
)

// New builds the production logger every component shares.
func New() *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return l
}

// WithRequestID attaches the per-request id to a logger.
func WithRequestID(requestID string, l *zap.Logger) *zap.Logger {
	if requestID == "" {
		return l
	}
	return l.With(zap.String("request_id", requestID))
}
