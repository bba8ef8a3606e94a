package service

import (
	"go.uber.org/zap"
)

// Auditor writes one JSON record per admin action to its own sink.
type Auditor struct {
	logger *zap.Logger
}

// NewAuditor opens path for appending and logs audit records to it.
func NewAuditor(path string) (*Auditor, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Sampling = nil
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Auditor{logger: logger.Named("audit")}, nil
}

func NewAuditorFromLogger(logger *zap.Logger) *Auditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auditor{logger: logger}
}

func (a *Auditor) Sync() error {
	return a.logger.Sync()
}

// WithAudit runs fn and records action with its outcome and any extra fields.
// The result and error of fn are returned unchanged. A nil Auditor only runs fn.
// Action names are fixed strings; identifiers travel in fields.
func WithAudit[T any](a *Auditor, action string, fn func() (T, error), fields ...zap.Field) (T, error) {
	return WithAuditResult(a, action, fn, func(T) []zap.Field { return fields })
}

// WithAuditResult is WithAudit for records that depend on what fn returned,
// such as an id assigned by the store. describe also runs when fn fails.
func WithAuditResult[T any](a *Auditor, action string, fn func() (T, error), describe func(T) []zap.Field) (T, error) {
	v, err := fn()
	if a == nil {
		return v, err
	}
	fields := []zap.Field{zap.String("action", action), zap.Bool("ok", err == nil)}
	if describe != nil {
		fields = append(fields, describe(v)...)
	}
	if err != nil {
		a.logger.Warn("admin action", append(fields, zap.Error(err))...)
	} else {
		a.logger.Info("admin action", fields...)
	}
	return v, err
}
