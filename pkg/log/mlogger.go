// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// MLogger 是带限流分组的 zap.Logger。
type MLogger struct {
	*zap.Logger
	limiter atomic.Pointer[rateGroup]
}

func newMLogger(l *zap.Logger) *MLogger {
	return &MLogger{Logger: l}
}

// With 派生一个追加了 fields 的 MLogger。派生出的 Logger 不继承限流分组。
func (l *MLogger) With(fields ...zap.Field) *MLogger {
	return newMLogger(l.Logger.WithOptions(lazyFields(fields)))
}

// WithRateGroup 让 l 使用名为 name 的限流分组并返回 l 本身。
// 同名分组在进程内共享额度，最近一次传入的参数生效。
func (l *MLogger) WithRateGroup(name string, creditPerSecond, maxBalance float64) *MLogger {
	l.limiter.Store(rateGroupFor(name, creditPerSecond, maxBalance))
	return l
}

func (l *MLogger) r() RateLimiter {
	if g := l.limiter.Load(); g != nil {
		return g
	}
	return R()
}

func (l *MLogger) rated(level zapcore.Level, cost float64, msg string, fields []zap.Field) bool {
	if !l.r().CheckCredit(cost) {
		return false
	}
	if ce := l.WithOptions(zap.AddCallerSkip(2)).Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
	return true
}

// RatedDebug 在额度足够时输出 Debug 日志，返回是否输出。
func (l *MLogger) RatedDebug(cost float64, msg string, fields ...zap.Field) bool {
	return l.rated(zapcore.DebugLevel, cost, msg, fields)
}

// RatedInfo 在额度足够时输出 Info 日志，返回是否输出。
func (l *MLogger) RatedInfo(cost float64, msg string, fields ...zap.Field) bool {
	return l.rated(zapcore.InfoLevel, cost, msg, fields)
}

// RatedWarn 在额度足够时输出 Warn 日志，返回是否输出。
func (l *MLogger) RatedWarn(cost float64, msg string, fields ...zap.Field) bool {
	return l.rated(zapcore.WarnLevel, cost, msg, fields)
}

// WithLogger 由持有自身 Logger 的组件实现。
type WithLogger interface {
	Logger() *MLogger
}

// Binder 嵌入到组件中，提供可替换的 Logger；未设置时使用全局 Logger。
type Binder struct {
	logger atomic.Pointer[MLogger]
}

var _ WithLogger = (*Binder)(nil)

func (b *Binder) SetLogger(logger *MLogger) {
	b.logger.Store(logger)
}

func (b *Binder) Logger() *MLogger {
	if l := b.logger.Load(); l != nil {
		return l
	}
	return With()
}
