package serialization

import (
	"io"
)

// StructuralCodec 是注册表未命中时使用的结构化文本编解码器。
type StructuralCodec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Encode(w io.Writer, v any) error
	Decode(r io.Reader, v any) error
}

// BinaryCodec 负责不透明的二进制快照，编码结果自带类型信息。
type BinaryCodec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte) (any, error)
}

// Options 为构造 Manager 的依赖注入参数，零值字段使用默认实现。
type Options struct {
	// Registry 为 nil 时使用 DefaultRegistry()。
	Registry *Registry
	// Structural 为 nil 时使用 JSON。
	Structural StructuralCodec
	// Binary 为 nil 时使用不压缩的 CBOR 编解码器。
	Binary BinaryCodec
	// BatchConcurrency 为 SerializeBatch 的并发度，<= 0 时使用 GOMAXPROCS。
	BatchConcurrency int
}
