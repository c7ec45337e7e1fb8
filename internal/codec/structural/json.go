package structural

import (
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/lk2023060901/serdekit/internal/json"
)

// JSON 使用 internal/json（基于 bytedance/sonic）。
type JSON struct{}

var _ Codec = JSON{}

func (JSON) Name() string { return NameJSON }

func (JSON) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSON) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (JSON) Encode(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

func (JSON) Decode(r io.Reader, v any) error {
	return json.NewDecoder(r).Decode(v)
}

// JSONIter 使用 json-iterator 的标准库兼容配置，输出与 JSON 一致。
// 适用于 sonic 无法启用 JIT 的平台。
type JSONIter struct{}

var (
	_ Codec = JSONIter{}

	jsoniterAPI = jsoniter.ConfigCompatibleWithStandardLibrary
)

func (JSONIter) Name() string { return NameJSONIter }

func (JSONIter) Marshal(v any) ([]byte, error) {
	return jsoniterAPI.Marshal(v)
}

func (JSONIter) Unmarshal(data []byte, v any) error {
	return jsoniterAPI.Unmarshal(data, v)
}

func (JSONIter) Encode(w io.Writer, v any) error {
	return jsoniterAPI.NewEncoder(w).Encode(v)
}

func (JSONIter) Decode(r io.Reader, v any) error {
	return jsoniterAPI.NewDecoder(r).Decode(v)
}
