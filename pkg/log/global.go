// Copyright 2019 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxLogKeyType struct{}

// CtxLogKey 是上下文中保存 *MLogger 的键。
var CtxLogKey = ctxLogKeyType{}

func Debug(msg string, fields ...zap.Field) { L().Debug(msg, fields...) }

func Info(msg string, fields ...zap.Field) { L().Info(msg, fields...) }

func Warn(msg string, fields ...zap.Field) { L().Warn(msg, fields...) }

func Error(msg string, fields ...zap.Field) { L().Error(msg, fields...) }

// Fatal 输出日志后退出进程。
func Fatal(msg string, fields ...zap.Field) { L().Fatal(msg, fields...) }

// RatedWarn 使用全局限流器输出 Warn 日志，返回是否输出。
func RatedWarn(cost float64, msg string, fields ...zap.Field) bool {
	if !R().CheckCredit(cost) {
		return false
	}
	L().Warn(msg, fields...)
	return true
}

// With 基于全局 Logger 派生一个携带 fields 的 MLogger，字段在首次输出时才编码。
func With(fields ...zap.Field) *MLogger {
	return newMLogger(L().WithOptions(lazyFields(fields), zap.AddCallerSkip(-1)))
}

func SetLevel(l zapcore.Level) { Level().SetLevel(l) }

func GetLevel() zapcore.Level { return Level().Level() }

// Ctx 返回 ctx 上绑定的 Logger，没有时返回与全局级别一致的 Logger。
func Ctx(ctx context.Context) *MLogger {
	if l, ok := fromContext(ctx); ok {
		return l
	}
	return newMLogger(ctxL())
}

// WithModule 在 ctx 的 Logger 上追加模块名。
func WithModule(ctx context.Context, module string) context.Context {
	return WithFields(ctx, FieldModule(module))
}

// WithFields 返回一个 Logger 追加了 fields 的新上下文。
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	base := ctxL()
	if l, ok := fromContext(ctx); ok {
		base = l.Logger
	}
	return context.WithValue(ctx, CtxLogKey, newMLogger(base.With(fields...)))
}

// WithLevel 返回一个只输出 level 及以上级别日志的新上下文，ctx 上原有的 Logger 被替换。
func WithLevel(ctx context.Context, level zapcore.Level) context.Context {
	return context.WithValue(ctx, CtxLogKey, newMLogger(leveledL(level)))
}

func fromContext(ctx context.Context) (*MLogger, bool) {
	if ctx == nil {
		return nil, false
	}
	l, ok := ctx.Value(CtxLogKey).(*MLogger)
	return l, ok
}
