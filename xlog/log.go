// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package xlog is the engine's logging facade, adapted from the teacher's
// log package (log/noop.go, log/nolog.go): every component that touches
// the block store takes a Logger, defaulting to a no-op implementation so
// tests stay quiet, with a zap-backed implementation for production use.
package xlog

import "go.uber.org/zap"

// Logger is the narrow structured-logging surface the engine needs:
// leveled calls with key/value pairs, in the teacher's
// log.Debugw("msg", "key", value) style.
type Logger interface {
	Debugw(msg string, kv ...interface{})
	Infow(msg string, kv ...interface{})
	Warnw(msg string, kv ...interface{})
	Errorw(msg string, kv ...interface{})
	With(kv ...interface{}) Logger
}

// noopLogger discards everything, mirroring the teacher's NoLog type.
type noopLogger struct{}

// NewNoOp returns a Logger that does nothing. This is the default for
// every component so that unit tests of forest/hamt/private do not need
// to wire a logger to exercise their logic.
func NewNoOp() Logger { return noopLogger{} }

func (noopLogger) Debugw(string, ...interface{}) {}
func (noopLogger) Infow(string, ...interface{})  {}
func (noopLogger) Warnw(string, ...interface{})  {}
func (noopLogger) Errorw(string, ...interface{}) {}
func (noopLogger) With(...interface{}) Logger    { return noopLogger{} }

// zapLogger backs production logging with go.uber.org/zap's SugaredLogger,
// the library the teacher's own NoLog.WithFields(...zap.Field) signature
// is built against.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

// New wraps a *zap.Logger as a Logger. Pass zap.NewProduction() or
// zap.NewDevelopment() per the caller's environment.
func New(base *zap.Logger) Logger {
	return &zapLogger{sugar: base.Sugar()}
}

func (l *zapLogger) Debugw(msg string, kv ...interface{}) { l.sugar.Debugw(msg, kv...) }
func (l *zapLogger) Infow(msg string, kv ...interface{})  { l.sugar.Infow(msg, kv...) }
func (l *zapLogger) Warnw(msg string, kv ...interface{})  { l.sugar.Warnw(msg, kv...) }
func (l *zapLogger) Errorw(msg string, kv ...interface{}) { l.sugar.Errorw(msg, kv...) }
func (l *zapLogger) With(kv ...interface{}) Logger {
	return &zapLogger{sugar: l.sugar.With(kv...)}
}
