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
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	_globalL, _globalS, _globalP, _globalR atomic.Value

	// 按级别缓存的 Logger，供 Ctx 与 WithLevel 使用。
	_levelLoggers sync.Map
)

var _allLevels = []zapcore.Level{
	zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel,
	zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel,
}

func init() {
	lg, props, _ := InitLogger(&Config{Level: "info", Stdout: true}, zap.OnFatal(zapcore.WriteThenPanic))
	ReplaceGlobals(lg, props)
	_globalR.Store(rateLimiterFromEnv())
}

// InitLogger 按 cfg 构建 Logger。文件与标准输出同时开启时共用一个 core，
// 两者都关闭时日志被丢弃。
func InitLogger(cfg *Config, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	output, err := openOutputs(cfg)
	if err != nil {
		return nil, nil, err
	}
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	// 底层 core 以 debug 构建，实际级别由 AtomicLevel 控制，
	// 这样按级别派生的 Logger 才能覆盖所有级别。
	debugCfg := *cfg
	debugCfg.Level = zapcore.DebugLevel.String()
	lg, props, err := InitLoggerWithWriteSyncer(&debugCfg, output, opts...)
	if err != nil {
		return nil, nil, err
	}
	replaceLeveledLoggers(lg)
	props.Level.SetLevel(level)
	return lg.WithOptions(zap.AddCallerSkip(1)), props, nil
}

// InitTestLogger 构建写入 t.Log 的 Logger，zap 内部错误会让测试失败。
func InitTestLogger(t zaptest.TestingT, cfg *Config, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	writer := zaptest.NewTestingWriter(t)
	opts = append([]zap.Option{zap.ErrorOutput(writer.WithMarkFailed(true))}, opts...)
	return InitLoggerWithWriteSyncer(cfg, writer, opts...)
}

// InitLoggerWithWriteSyncer 使用指定的 output 构建 Logger。
func InitLoggerWithWriteSyncer(cfg *Config, output zapcore.WriteSyncer, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	props := &ZapProperties{
		Syncer: output,
		Level:  zap.NewAtomicLevelAt(level),
	}
	props.Core = zapcore.NewCore(cfg.newEncoder(), output, props.Level)
	lg := zap.New(props.Core, append(cfg.buildOptions(output), opts...)...)
	return lg, props, nil
}

// parseLevel 额外接受 "trace" 与空串，二者都视为 debug。
func parseLevel(text string) (zapcore.Level, error) {
	if text == "" || strings.EqualFold(text, "trace") {
		return zapcore.DebugLevel, nil
	}
	level, err := zapcore.ParseLevel(text)
	if err != nil {
		return level, errors.Wrapf(err, "invalid log level %q", text)
	}
	return level, nil
}

func openOutputs(cfg *Config) (zapcore.WriteSyncer, error) {
	var outputs []zapcore.WriteSyncer
	if cfg.File.Filename != "" {
		lg, err := initFileLog(&cfg.File)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, zapcore.AddSync(lg))
	}
	if cfg.Stdout {
		stdout, _, err := zap.Open("stdout")
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, stdout)
	}
	if len(outputs) == 0 {
		return zapcore.AddSync(discard{}), nil
	}
	return zap.CombineWriteSyncers(outputs...), nil
}

// initFileLog 创建按大小滚动的日志文件。
func initFileLog(cfg *FileLogConfig) (*lumberjack.Logger, error) {
	path := filepath.Join(cfg.RootPath, cfg.Filename)
	if st, err := os.Stat(path); err == nil && st.IsDir() {
		return nil, errors.Newf("log file %s is a directory", path)
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = defaultLogMaxSize
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxDays,
		LocalTime:  true,
	}, nil
}

// L 返回全局 Logger，并发安全。
func L() *zap.Logger {
	return _globalL.Load().(*zap.Logger)
}

// S 返回全局 SugaredLogger，并发安全。
func S() *zap.SugaredLogger {
	return _globalS.Load().(*zap.SugaredLogger)
}

// R 返回全局限流器。
func R() RateLimiter {
	return _globalR.Load().(RateLimiter)
}

// Level 返回全局 Logger 的级别开关。
func Level() zap.AtomicLevel {
	return _globalP.Load().(*ZapProperties).Level
}

// ReplaceGlobals 替换全局 Logger，并发安全。
func ReplaceGlobals(logger *zap.Logger, props *ZapProperties) {
	_globalL.Store(logger)
	_globalS.Store(logger.Sugar())
	_globalP.Store(props)
}

func replaceLeveledLoggers(base *zap.Logger) {
	for _, level := range _allLevels {
		_levelLoggers.Store(level, base.WithOptions(zap.IncreaseLevel(level)))
	}
}

// leveledL 返回不低于 level 的 Logger，未初始化时返回全局 Logger。
func leveledL(level zapcore.Level) *zap.Logger {
	if l, ok := _levelLoggers.Load(level); ok {
		return l.(*zap.Logger)
	}
	return L()
}

func ctxL() *zap.Logger {
	return leveledL(Level().Level())
}

// Sync 刷新全局以及按级别缓存的 Logger，返回遇到的第一个错误。
func Sync() error {
	loggers := []interface{ Sync() error }{L(), S()}
	_levelLoggers.Range(func(_, l any) bool {
		loggers = append(loggers, l.(*zap.Logger))
		return true
	})
	for _, l := range loggers {
		if err := l.Sync(); err != nil {
			return err
		}
	}
	return nil
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
