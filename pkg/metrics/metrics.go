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

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// serdeNamespace 是本项目所有 Prometheus 指标的命名空间。
	serdeNamespace = "serde"

	mediumLabelName    = "medium"
	directionLabelName = "direction"
	routeLabelName     = "route"
	statusLabelName    = "status"
)

// 标签取值。
const (
	MediumText   = "text"
	MediumBinary = "binary"
	MediumFile   = "file"

	DirectionEncode = "encode"
	DirectionDecode = "decode"

	RouteRegistry   = "registry"
	RouteTextCodec  = "text_marshaler"
	RouteStructural = "structural"
	RouteBinary     = "binary"
	RouteNil        = "nil"

	StatusSuccess = "success"
	StatusFail    = "fail"
)

var (
	// sizeBuckets 为载荷大小的桶划分，单位为字节：
	// [16 64 256 1024 4096 16384 65536 262144 1.048576e+06 4.194304e+06 1.6777216e+07]
	sizeBuckets = prometheus.ExponentialBuckets(16, 4, 11)

	OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: serdeNamespace,
			Name:      "operations_total",
			Help:      "number of serialization operations by medium, direction, dispatch route and status",
		}, []string{mediumLabelName, directionLabelName, routeLabelName, statusLabelName})

	PayloadBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: serdeNamespace,
			Name:      "payload_bytes",
			Help:      "size of produced or consumed serialized payloads",
			Buckets:   sizeBuckets,
		}, []string{mediumLabelName})

	RegisteredHandlers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: serdeNamespace,
			Name:      "registered_handlers",
			Help:      "number of type handlers in the default registry",
		})

	registerOnce     sync.Once
	metricRegisterer prometheus.Registerer
)

// GetRegisterer 返回全局 Registerer，未调用 Register 时为 prometheus.DefaultRegisterer。
func GetRegisterer() prometheus.Registerer {
	if metricRegisterer == nil {
		return prometheus.DefaultRegisterer
	}
	return metricRegisterer
}

// Register 将全部指标注册到 r，只有第一次调用生效。
func Register(r prometheus.Registerer) {
	registerOnce.Do(func() {
		r.MustRegister(OperationsTotal)
		r.MustRegister(PayloadBytes)
		r.MustRegister(RegisteredHandlers)
		metricRegisterer = r
	})
}

// Observe 记录一次操作。size 小于 0 表示没有可统计的载荷。
func Observe(medium, direction, route string, err error, size int) {
	status := StatusSuccess
	if err != nil {
		status = StatusFail
	}
	OperationsTotal.WithLabelValues(medium, direction, route, status).Inc()
	if err == nil && size >= 0 {
		PayloadBytes.WithLabelValues(medium).Observe(float64(size))
	}
}
