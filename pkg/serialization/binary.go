package serialization

import (
	"github.com/lk2023060901/serdekit/pkg/metrics"
	"github.com/lk2023060901/serdekit/pkg/util/merr"
)

// SerializeToBinary 将 v 编码为不透明的二进制快照，不经过注册表。
func (m *Manager) SerializeToBinary(v any) ([]byte, error) {
	if isNil(v) {
		err := merr.WrapErrParameterInvalidMsg("serialize to binary: nil value")
		metrics.Observe(metrics.MediumBinary, metrics.DirectionEncode, metrics.RouteBinary, err, -1)
		return nil, err
	}
	data, err := m.binary.Marshal(v)
	metrics.Observe(metrics.MediumBinary, metrics.DirectionEncode, metrics.RouteBinary, err, len(data))
	return data, err
}

// DeserializeFromBinary 还原 SerializeToBinary 产生的值。
func (m *Manager) DeserializeFromBinary(data []byte) (any, error) {
	if len(data) == 0 {
		err := merr.WrapErrParameterInvalidMsg("deserialize from binary: empty data")
		metrics.Observe(metrics.MediumBinary, metrics.DirectionDecode, metrics.RouteBinary, err, -1)
		return nil, err
	}
	v, err := m.binary.Unmarshal(data)
	metrics.Observe(metrics.MediumBinary, metrics.DirectionDecode, metrics.RouteBinary, err, len(data))
	return v, err
}
