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

// ConcurrentSet 是并发安全的集合。Insert 与 TryRemove 的返回值可用于
// "只做一次" 的判断：同一元素并发插入时只有一个调用方得到 true。
type ConcurrentSet[T comparable] struct {
	inner sync.Map
	len   atomic.Int64
}

func NewConcurrentSet[T comparable](elements ...T) *ConcurrentSet[T] {
	set := &ConcurrentSet[T]{}
	for _, e := range elements {
		set.Insert(e)
	}
	return set
}

// Insert 插入元素，元素此前不存在时返回 true。
func (set *ConcurrentSet[T]) Insert(element T) bool {
	_, exist := set.inner.LoadOrStore(element, struct{}{})
	if !exist {
		set.len.Inc()
	}
	return !exist
}

// Contain 判断 elements 是否全部在集合中。
func (set *ConcurrentSet[T]) Contain(elements ...T) bool {
	for _, e := range elements {
		if _, ok := set.inner.Load(e); !ok {
			return false
		}
	}
	return true
}

// TryRemove 移除元素，元素不存在时返回 false。
func (set *ConcurrentSet[T]) TryRemove(element T) bool {
	_, exist := set.inner.LoadAndDelete(element)
	if exist {
		set.len.Dec()
	}
	return exist
}

// Len 与并发写入同时调用时只是近似值。
func (set *ConcurrentSet[T]) Len() int {
	return int(set.len.Load())
}

// Collect 返回全部元素，顺序不保证。
func (set *ConcurrentSet[T]) Collect() []T {
	elements := make([]T, 0, set.Len())
	set.inner.Range(func(key, _ any) bool {
		elements = append(elements, key.(T))
		return true
	})
	return elements
}
