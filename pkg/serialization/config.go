package serialization

import (
	"github.com/lk2023060901/serdekit/internal/codec/binary"
	"github.com/lk2023060901/serdekit/internal/codec/compressor"
	"github.com/lk2023060901/serdekit/internal/codec/structural"
	"github.com/lk2023060901/serdekit/pkg/util/merr"
)

// Config 对应配置文件中的 serialization 段。
type Config struct {
	// Structural 为结构化编解码器名：json、jsoniter、yaml、toml 或 xml。
	Structural string       `json:"structural" yaml:"structural" mapstructure:"structural"`
	Binary     BinaryConfig `json:"binary" yaml:"binary" mapstructure:"binary"`
	Batch      BatchConfig  `json:"batch" yaml:"batch" mapstructure:"batch"`
}

type BinaryConfig struct {
	// Compression 为 none、zstd 或 lz4。
	Compression string `json:"compression" yaml:"compression" mapstructure:"compression"`
	// MinCompressSize 小于该字节数的 payload 不压缩。
	MinCompressSize int `json:"min-compress-size" yaml:"min-compress-size" mapstructure:"min-compress-size"`
}

type BatchConfig struct {
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`
}

// DefaultConfig 返回默认配置：JSON 文本，二进制不压缩。
func DefaultConfig() Config {
	return Config{
		Structural: structural.NameJSON,
		Binary: BinaryConfig{
			Compression:     compressor.NameNone,
			MinCompressSize: 1024,
		},
	}
}

// NewFromConfig 按配置构造 Manager，registry 为 nil 时使用默认注册表。
func NewFromConfig(cfg Config, registry *Registry) (*Manager, error) {
	sc, err := structural.ByName(cfg.Structural)
	if err != nil {
		return nil, err
	}
	if cfg.Binary.MinCompressSize < 0 {
		return nil, merr.WrapErrConfigInvalid("binary.min-compress-size", cfg.Binary.MinCompressSize)
	}
	if cfg.Batch.Concurrency < 0 {
		return nil, merr.WrapErrConfigInvalid("batch.concurrency", cfg.Batch.Concurrency)
	}
	comp, err := compressor.ByName(cfg.Binary.Compression)
	if err != nil {
		return nil, err
	}
	bc, err := binary.New(binary.Options{
		Compressor:      comp,
		MinCompressSize: cfg.Binary.MinCompressSize,
	})
	if err != nil {
		return nil, err
	}
	return New(Options{
		Registry:         registry,
		Structural:       sc,
		Binary:           bc,
		BatchConcurrency: cfg.Batch.Concurrency,
	})
}
