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

package conc

import (
	"time"

	ants "github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/lk2023060901/serdekit/pkg/log"
)

type poolOption struct {
	preAlloc     bool
	nonBlocking  bool
	disablePurge bool
	// expiry 为空闲 worker 的回收间隔，0 表示使用 ants 的默认值。
	expiry time.Duration

	// concealPanic 为 true 时任务 panic 只记录日志，不再向上抛出。
	concealPanic bool
	panicHandler func(any)
	preHandler   func()
	logger       *log.MLogger
}

// PoolOption 配置 NewPool 创建的协程池。
type PoolOption func(opt *poolOption)

func (opt *poolOption) antsOptions() []ants.Option {
	result := []ants.Option{
		ants.WithPreAlloc(opt.preAlloc),
		ants.WithNonblocking(opt.nonBlocking),
		ants.WithDisablePurge(opt.disablePurge),
		ants.WithPanicHandler(opt.onPanic),
	}
	if opt.expiry > 0 {
		result = append(result, ants.WithExpiryDuration(opt.expiry))
	}
	return result
}

// onPanic 是交给 ants 的唯一 panic 处理函数，ants 只保留最后一次设置的处理函数。
func (opt *poolOption) onPanic(v any) {
	if opt.panicHandler != nil {
		opt.panicHandler(v)
		return
	}
	lg := opt.logger
	if lg == nil {
		lg = log.With()
	}
	lg.Error("conc pool task panicked", zap.Any("panic", v), zap.Bool("concealed", opt.concealPanic))
	if !opt.concealPanic {
		panic(v)
	}
}

// WithPreAlloc 预先分配全部 worker，预分配的池不能调整容量。
func WithPreAlloc(v bool) PoolOption {
	return func(opt *poolOption) { opt.preAlloc = v }
}

// WithNonBlocking 为 true 时池满后 Submit 立即失败而不是等待。
func WithNonBlocking(v bool) PoolOption {
	return func(opt *poolOption) { opt.nonBlocking = v }
}

func WithDisablePurge(v bool) PoolOption {
	return func(opt *poolOption) { opt.disablePurge = v }
}

func WithExpiryDuration(d time.Duration) PoolOption {
	return func(opt *poolOption) { opt.expiry = d }
}

func WithConcealPanic(v bool) PoolOption {
	return func(opt *poolOption) { opt.concealPanic = v }
}

// WithPanicHandler 替换默认的 panic 处理，设置后 WithConcealPanic 与 WithLogger 不再生效。
func WithPanicHandler(fn func(any)) PoolOption {
	return func(opt *poolOption) { opt.panicHandler = fn }
}

// WithPreHandler 设置每个任务执行前调用的函数。
func WithPreHandler(fn func()) PoolOption {
	return func(opt *poolOption) { opt.preHandler = fn }
}

// WithLogger 设置记录任务 panic 的 Logger，默认使用全局 Logger。
func WithLogger(logger *log.MLogger) PoolOption {
	return func(opt *poolOption) { opt.logger = logger }
}
