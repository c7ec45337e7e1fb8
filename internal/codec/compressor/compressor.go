package compressor

import (
	"strings"

	"github.com/lk2023060901/serdekit/pkg/util/merr"
)

const (
	NameNone = "none"
	NameZstd = "zstd"
	NameLZ4  = "lz4"
)

// Compressor 提供对一整块内存的压缩与解压。
//
// 实现需要支持并发调用；调用方按需创建实例，不存在全局单例。
type Compressor interface {
	// Name 返回写入二进制信封中的算法名。
	Name() string

	// Compress 将 src 压缩后追加到 dst[:0]，返回完整的压缩数据。
	// dst 可以为 nil，也可以是调用方复用的缓冲区。
	Compress(dst, src []byte) ([]byte, error)

	// Decompress 与 Compress 对称，src 必须是同一算法的输出。
	Decompress(dst, src []byte) ([]byte, error)
}

// NopCompressor 不做任何处理，原样返回输入。
type NopCompressor struct{}

var _ Compressor = NopCompressor{}

func (NopCompressor) Name() string { return NameNone }

func (NopCompressor) Compress(_ []byte, src []byte) ([]byte, error) {
	return src, nil
}

func (NopCompressor) Decompress(_ []byte, src []byte) ([]byte, error) {
	return src, nil
}

// ByName 按名称创建压缩器，名称大小写不敏感，空串等价于 none。
func ByName(name string) (Compressor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameNone:
		return NopCompressor{}, nil
	case NameZstd:
		return NewZstdCompressor()
	case NameLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, merr.WrapErrCompressorNotFound(name)
	}
}
