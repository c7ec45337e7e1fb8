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
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/atomic"
)

type MapUtilSuite struct {
	suite.Suite
}

func (suite *MapUtilSuite) TestConcurrentMap() {
	currMap := NewConcurrentMap[int64, string]()

	v, loaded := currMap.GetOrInsert(100, "v-100")
	suite.Equal("v-100", v)
	suite.False(loaded)
	v, loaded = currMap.GetOrInsert(100, "v-100")
	suite.Equal("v-100", v)
	suite.True(loaded)
	v, loaded = currMap.GetOrInsert(100, "v-100-new")
	suite.Equal("v-100", v)
	suite.True(loaded)

	prev, loaded := currMap.Swap(100, "v-100-swapped")
	suite.True(loaded)
	suite.Equal("v-100", prev)
	_, loaded = currMap.Swap(200, "v-200")
	suite.False(loaded)
	suite.Equal(2, currMap.Len())

	currMap.Insert(100, "v-100-inserted")
	suite.Equal(2, currMap.Len())
	v, ok := currMap.Get(100)
	suite.True(ok)
	suite.Equal("v-100-inserted", v)

	v, loaded = currMap.GetAndRemove(100)
	suite.True(loaded)
	suite.Equal("v-100-inserted", v)
	_, loaded = currMap.GetAndRemove(100)
	suite.False(loaded)
	suite.Equal(1, currMap.Len())

	keys := currMap.Keys()
	suite.Equal([]int64{200}, keys)
}

func (suite *MapUtilSuite) TestConcurrentMapParallelInsert() {
	currMap := NewConcurrentMap[int, int]()
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			currMap.Insert(i%16, i)
		}(i)
	}
	wg.Wait()
	suite.Equal(16, currMap.Len())

	keys := currMap.Keys()
	sort.Ints(keys)
	suite.Len(keys, 16)
	suite.Equal(0, keys[0])
	suite.Equal(15, keys[15])
}

func (suite *MapUtilSuite) TestConcurrentMapRangeStops() {
	currMap := NewConcurrentMap[int, int]()
	for i := 0; i < 10; i++ {
		currMap.Insert(i, i)
	}
	visited := 0
	currMap.Range(func(key, value int) bool {
		visited++
		return visited < 3
	})
	suite.Equal(3, visited)
}

func TestMapUtil(t *testing.T) {
	suite.Run(t, new(MapUtilSuite))
}

func TestConcurrentSet(t *testing.T) {
	set := NewConcurrentSet(1, 2, 3)
	assert.True(t, set.Contain(1, 2))
	assert.False(t, set.Contain(1, 4))
	assert.Equal(t, 3, set.Len())

	assert.True(t, set.TryRemove(1))
	assert.False(t, set.TryRemove(1))
	assert.Equal(t, 2, set.Len())
	assert.ElementsMatch(t, []int{2, 3}, set.Collect())

	var wg sync.WaitGroup
	var winners atomic.Int32
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if set.Insert(9) {
				winners.Inc()
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, winners.Load())
	assert.Equal(t, 3, set.Len())
}
