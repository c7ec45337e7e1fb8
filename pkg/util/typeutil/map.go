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

package typeutil

import (
	"sync"

	"go.uber.org/atomic"
)

// ConcurrentMap 是 sync.Map 的泛型封装。
//
// 读操作无锁；不同 key 上的写操作互不阻塞。单个 key 的 Insert 对并发的 Get
// 是原子的：读方要么看到旧值，要么看到新值。
type ConcurrentMap[K comparable, V any] struct {
	inner sync.Map
	len   atomic.Int64
}

func NewConcurrentMap[K comparable, V any]() *ConcurrentMap[K, V] {
	return &ConcurrentMap[K, V]{}
}

// Len 返回当前元素个数。与并发写入同时调用时只是近似值。
func (m *ConcurrentMap[K, V]) Len() int {
	return int(m.len.Load())
}

// Insert 插入或覆盖 key 对应的值。
func (m *ConcurrentMap[K, V]) Insert(key K, value V) {
	_, loaded := m.inner.Swap(key, value)
	if !loaded {
		m.len.Inc()
	}
}

// Swap 插入或覆盖 key 对应的值，并返回旧值。
func (m *ConcurrentMap[K, V]) Swap(key K, value V) (V, bool) {
	prev, loaded := m.inner.Swap(key, value)
	if !loaded {
		m.len.Inc()
		var zero V
		return zero, false
	}
	return prev.(V), true
}

func (m *ConcurrentMap[K, V]) Get(key K) (V, bool) {
	var zeroValue V
	value, ok := m.inner.Load(key)
	if !ok {
		return zeroValue, false
	}
	return value.(V), true
}

// GetOrInsert 返回已存在的值；若不存在则插入 value 并返回它。
// 第二个返回值表示 key 是否已存在。
func (m *ConcurrentMap[K, V]) GetOrInsert(key K, value V) (V, bool) {
	loaded, exist := m.inner.LoadOrStore(key, value)
	if !exist {
		m.len.Inc()
	}
	return loaded.(V), exist
}

// GetAndRemove 移除 key 并返回被移除的值。
func (m *ConcurrentMap[K, V]) GetAndRemove(key K) (V, bool) {
	var zeroValue V
	value, loaded := m.inner.LoadAndDelete(key)
	if !loaded {
		return zeroValue, false
	}
	m.len.Dec()
	return value.(V), true
}

// Range 遍历所有元素，回调返回 false 时提前结束。
func (m *ConcurrentMap[K, V]) Range(processor func(key K, value V) bool) {
	m.inner.Range(func(key, value any) bool {
		return processor(key.(K), value.(V))
	})
}

func (m *ConcurrentMap[K, V]) Keys() []K {
	ret := make([]K, 0, m.Len())
	m.inner.Range(func(key, value any) bool {
		ret = append(ret, key.(K))
		return true
	})
	return ret
}
