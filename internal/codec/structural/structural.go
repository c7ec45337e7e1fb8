// Package structural 提供文本形式的结构化编解码器。
//
// 注册表中没有对应处理器的类型会落到这里：值按其字段结构整体编码为一段文本。
// 所有实现都是无状态的，可以在多个 goroutine 之间共享。
package structural

import (
	"io"
	"sort"
	"strings"

	"github.com/lk2023060901/serdekit/pkg/util/merr"
)

const (
	NameJSON     = "json"
	NameJSONIter = "jsoniter"
	NameYAML     = "yaml"
	NameTOML     = "toml"
	NameXML      = "xml"
)

// Codec 是结构化文本编解码器的统一抽象。
type Codec interface {
	Name() string

	// Marshal 将 v 编码为文本，不追加结尾换行。
	Marshal(v any) ([]byte, error)

	// Unmarshal 将 data 解码到 v，v 必须是非 nil 指针。
	Unmarshal(data []byte, v any) error

	// Encode 将 v 编码后写入 w，用于文件等流式目标。
	Encode(w io.Writer, v any) error

	// Decode 从 r 读取一个完整文档并解码到 v。
	Decode(r io.Reader, v any) error
}

var codecs = map[string]Codec{
	NameJSON:     JSON{},
	NameJSONIter: JSONIter{},
	NameYAML:     YAML{},
	NameTOML:     TOML{},
	NameXML:      XML{},
}

// Default 返回默认的 JSON 编解码器。
func Default() Codec {
	return JSON{}
}

// ByName 按名称查找编解码器，名称大小写不敏感，空串返回默认实现。
func ByName(name string) (Codec, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Default(), nil
	}
	c, ok := codecs[name]
	if !ok {
		return nil, merr.WrapErrCodecNotFound(name)
	}
	return c, nil
}

// Names 返回所有可用编解码器的名称，按字典序排列。
func Names() []string {
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
