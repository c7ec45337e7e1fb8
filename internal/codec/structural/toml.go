package structural

import (
	"io"

	"github.com/pelletier/go-toml"
)

// TOML 使用 github.com/pelletier/go-toml。
//
// TOML 文档的顶层必须是表，因此只能编码 struct 与 map，标量会返回错误。
type TOML struct{}

var _ Codec = TOML{}

func (TOML) Name() string { return NameTOML }

func (TOML) Marshal(v any) ([]byte, error) {
	return toml.Marshal(v)
}

func (TOML) Unmarshal(data []byte, v any) error {
	return toml.Unmarshal(data, v)
}

func (TOML) Encode(w io.Writer, v any) error {
	return toml.NewEncoder(w).Encode(v)
}

func (TOML) Decode(r io.Reader, v any) error {
	return toml.NewDecoder(r).Decode(v)
}
