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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/goleak"

	"github.com/lk2023060901/serdekit/pkg/log"
	"github.com/lk2023060901/serdekit/pkg/util/merr"
)

func TestMain(m *testing.M) {
	// ants 在包初始化时创建的默认池不属于被测对象。
	goleak.VerifyTestMain(m, goleak.IgnoreCurrent())
}

func TestPool(t *testing.T) {
	pool := NewPool[int](4)
	defer func() { require.NoError(t, pool.ReleaseTimeout(time.Second)) }()

	futures := make([]*Future[int], 0, 16)
	for i := 0; i < 16; i++ {
		i := i
		futures = append(futures, pool.Submit(func() (int, error) {
			return i * i, nil
		}))
	}
	require.NoError(t, AwaitAll(futures...))
	for i, f := range futures {
		assert.Equal(t, i*i, f.Value())
		assert.True(t, f.OK())
	}
	assert.Equal(t, 4, pool.Cap())
}

func TestPoolFirstError(t *testing.T) {
	pool := NewPool[struct{}](2)
	defer func() { require.NoError(t, pool.ReleaseTimeout(time.Second)) }()

	errFirst := errors.New("first")
	f1 := pool.Submit(func() (struct{}, error) { return struct{}{}, nil })
	f2 := pool.Submit(func() (struct{}, error) { return struct{}{}, errFirst })
	f3 := pool.Submit(func() (struct{}, error) { return struct{}{}, errors.New("second") })

	assert.ErrorIs(t, AwaitAll(f1, f2, f3), errFirst)
}

func TestPoolPreHandler(t *testing.T) {
	var calls atomic.Int32
	pool := NewPool[int](1, WithPreHandler(func() { calls.Inc() }))
	defer func() { require.NoError(t, pool.ReleaseTimeout(time.Second)) }()

	_, err := pool.Submit(func() (int, error) { return 1, nil }).Await()
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestPoolConcealPanic(t *testing.T) {
	pool := NewPool[int](1, WithConcealPanic(true))
	defer func() { require.NoError(t, pool.ReleaseTimeout(time.Second)) }()

	_, err := pool.Submit(func() (int, error) { panic("boom") }).Await()
	assert.ErrorIs(t, err, merr.ErrServiceInternal)
}

func TestPoolPanicHandler(t *testing.T) {
	got := make(chan any, 1)
	pool := NewPool[int](1, WithPanicHandler(func(v any) { got <- v }), WithLogger(log.With(log.FieldComponent("test"))))
	defer func() { require.NoError(t, pool.ReleaseTimeout(time.Second)) }()

	_, err := pool.Submit(func() (int, error) { panic("handled") }).Await()
	assert.ErrorIs(t, err, merr.ErrServiceInternal)
	select {
	case v := <-got:
		assert.Equal(t, "handled", v)
	case <-time.After(time.Second):
		t.Fatal("panic handler not called")
	}
}

func TestPoolResize(t *testing.T) {
	pool := NewPool[int](2)
	defer func() { require.NoError(t, pool.ReleaseTimeout(time.Second)) }()

	require.NoError(t, pool.Resize(8))
	assert.Equal(t, 8, pool.Cap())
	assert.ErrorIs(t, pool.Resize(0), merr.ErrParameterInvalid)

	pre := NewPool[int](2, WithPreAlloc(true))
	defer func() { require.NoError(t, pre.ReleaseTimeout(time.Second)) }()
	assert.ErrorIs(t, pre.Resize(4), merr.ErrOperationNotSupported)
}

func TestPoolRunningAndRelease(t *testing.T) {
	pool := NewPool[int](2)
	assert.Equal(t, 2, pool.Free())

	block := make(chan struct{})
	futures := []*Future[int]{
		pool.Submit(func() (int, error) { <-block; return 1, nil }),
		pool.Submit(func() (int, error) { <-block; return 2, nil }),
	}
	assert.Eventually(t, func() bool { return pool.Running() == 2 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, pool.Free())

	close(block)
	require.NoError(t, AwaitAll(futures...))
	pool.Release()

	_, err := pool.Submit(func() (int, error) { return 3, nil }).Await()
	assert.Error(t, err)
}

func TestGo(t *testing.T) {
	f := Go(func() (string, error) { return "done", nil })
	<-f.Inner()
	v, err := f.Await()
	assert.NoError(t, err)
	assert.Equal(t, "done", v)
}
