package compressor

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4/v4"
)

// LZ4Compressor 使用 lz4 frame 格式，帧内自带校验与长度信息。
type LZ4Compressor struct {
	level lz4.CompressionLevel
}

var _ Compressor = (*LZ4Compressor)(nil)

func NewLZ4Compressor() *LZ4Compressor {
	return &LZ4Compressor{level: lz4.Fast}
}

// WithLevel 返回使用指定压缩级别的副本。
func (c *LZ4Compressor) WithLevel(level lz4.CompressionLevel) *LZ4Compressor {
	return &LZ4Compressor{level: level}
}

func (c *LZ4Compressor) Name() string { return NameLZ4 }

func (c *LZ4Compressor) Compress(dst, src []byte) ([]byte, error) {
	buf := bytes.NewBuffer(dst[:0])
	w := lz4.NewWriter(buf)
	if err := w.Apply(lz4.CompressionLevelOption(c.level)); err != nil {
		return nil, err
	}
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *LZ4Compressor) Decompress(dst, src []byte) ([]byte, error) {
	buf := bytes.NewBuffer(dst[:0])
	if _, err := io.Copy(buf, lz4.NewReader(bytes.NewReader(src))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
