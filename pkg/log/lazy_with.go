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
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// lazyCore 在第一次 Check/With/Sync 时才把字段编码进底层 core。
// 参考 https://github.com/uber-go/zap/issues/1426。
type lazyCore struct {
	base  zapcore.Core
	bound func() zapcore.Core
}

var _ zapcore.Core = (*lazyCore)(nil)

func newLazyCore(base zapcore.Core, fields []zapcore.Field) zapcore.Core {
	return &lazyCore{
		base:  base,
		bound: sync.OnceValue(func() zapcore.Core { return base.With(fields) }),
	}
}

// lazyFields 返回一个为 Logger 追加 fields 的 zap.Option。
func lazyFields(fields []zap.Field) zap.Option {
	return zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return newLazyCore(core, fields)
	})
}

func (c *lazyCore) Enabled(level zapcore.Level) bool {
	return c.base.Enabled(level)
}

func (c *lazyCore) With(fields []zapcore.Field) zapcore.Core {
	return c.bound().With(fields)
}

func (c *lazyCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	return c.bound().Check(e, ce)
}

// Write 只会经由 Check 返回的 CheckedEntry 调用，此时 bound 已经完成。
func (c *lazyCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	return c.bound().Write(entry, fields)
}

func (c *lazyCore) Sync() error {
	return c.bound().Sync()
}
