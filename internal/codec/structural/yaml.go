package structural

import (
	"bytes"
	"errors"
	"io"

	"gopkg.in/yaml.v3"
)

// YAML 使用 gopkg.in/yaml.v3，字段名默认取小写的 Go 字段名。
type YAML struct{}

var _ Codec = YAML{}

func (YAML) Name() string { return NameYAML }

func (YAML) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := (YAML{}).Encode(&buf, v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func (YAML) Unmarshal(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}

func (YAML) Encode(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

// Decode 读取第一个文档；空输入视为空文档，v 保持不变。
func (YAML) Decode(r io.Reader, v any) error {
	err := yaml.NewDecoder(r).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
