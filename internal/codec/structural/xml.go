package structural

import (
	"encoding/xml"
	"io"
)

// XML 使用 encoding/xml。根元素名取自 XMLName 字段或类型名，
// map 与未命名类型无法作为根元素。
type XML struct{}

var _ Codec = XML{}

func (XML) Name() string { return NameXML }

func (XML) Marshal(v any) ([]byte, error) {
	return xml.Marshal(v)
}

func (XML) Unmarshal(data []byte, v any) error {
	return xml.Unmarshal(data, v)
}

func (XML) Encode(w io.Writer, v any) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func (XML) Decode(r io.Reader, v any) error {
	return xml.NewDecoder(r).Decode(v)
}
