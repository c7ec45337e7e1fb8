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

type future interface {
	wait()
	OK() bool
	Err() error
}

// Future 表示一个异步任务的结果，任务结束后 ch 被关闭。
type Future[T any] struct {
	ch    chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{ch: make(chan struct{})}
}

func (future *Future[T]) wait() {
	<-future.ch
}

// Await 阻塞直到任务结束，返回其结果与错误。
func (future *Future[T]) Await() (T, error) {
	future.wait()
	return future.value, future.err
}

// Value 阻塞直到任务结束并返回结果。
func (future *Future[T]) Value() T {
	future.wait()
	return future.value
}

// OK 阻塞直到任务结束，任务没有返回错误时为 true。
func (future *Future[T]) OK() bool {
	future.wait()
	return future.err == nil
}

func (future *Future[T]) Err() error {
	future.wait()
	return future.err
}

// Inner 返回任务结束时被关闭的 channel，便于与 select 配合使用。
func (future *Future[T]) Inner() <-chan struct{} {
	return future.ch
}

// Go 在新的 goroutine 中执行 fn。
func Go[T any](fn func() (T, error)) *Future[T] {
	future := newFuture[T]()
	go func() {
		future.value, future.err = fn()
		close(future.ch)
	}()
	return future
}

// AwaitAll 等待所有 future 结束，返回按顺序第一个非 nil 的错误。
func AwaitAll[T future](futures ...T) error {
	var first error
	for i := range futures {
		futures[i].wait()
		if first == nil && !futures[i].OK() {
			first = futures[i].Err()
		}
	}
	return first
}
