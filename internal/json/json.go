// Package json 是项目内统一使用的 JSON 入口，底层为 bytedance/sonic。
//
// 输出与 encoding/json 兼容，map 的 key 按字典序排列，保证相同的值得到相同的文本。
package json

import (
	"io"

	"github.com/bytedance/sonic"
)

var api = sonic.ConfigStd

type (
	Encoder = sonic.Encoder
	Decoder = sonic.Decoder
)

func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return api.MarshalIndent(v, prefix, indent)
}

func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}

// NewEncoder 返回写入 w 的流式编码器，每个值之后追加换行。
func NewEncoder(w io.Writer) Encoder {
	return api.NewEncoder(w)
}

func NewDecoder(r io.Reader) Decoder {
	return api.NewDecoder(r)
}

func Valid(data []byte) bool {
	return api.Valid(data)
}
