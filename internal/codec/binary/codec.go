// Package binary 实现不透明的二进制快照格式。
//
// 编码流水线：
//
//	value --> [proto | cbor] --> [compress?] --> envelope{type, format, flags, payload} --> cbor
//
// 解码流水线与之相反。信封携带类型名，因此解码时不需要调用方提供目标类型。
package binary

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"google.golang.org/protobuf/proto"

	"github.com/lk2023060901/serdekit/internal/codec/compressor"
	"github.com/lk2023060901/serdekit/pkg/util/merr"
	"github.com/lk2023060901/serdekit/pkg/util/typeutil"
)

// Format 表示信封中 payload 的编码方式。
type Format uint8

const (
	FormatCBOR  Format = 1
	FormatProto Format = 2
)

func (f Format) String() string {
	switch f {
	case FormatCBOR:
		return "cbor"
	case FormatProto:
		return "proto"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// 信封 flags 的低位记录 payload 使用的压缩算法，至多设置一位。
const (
	flagZstd uint8 = 1 << iota
	flagLZ4

	flagCompressionMask = flagZstd | flagLZ4
)

var compressionFlags = map[string]uint8{
	compressor.NameZstd: flagZstd,
	compressor.NameLZ4:  flagLZ4,
}

type envelope struct {
	_       struct{} `cbor:",toarray"`
	Type    string
	Format  Format
	Flags   uint8
	Payload []byte
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode

	protoMarshal = proto.MarshalOptions{Deterministic: true}
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("binary: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("binary: CBOR decoder initialization failed: " + err.Error())
	}
}

// Options 为构造 Codec 的依赖注入参数。
type Options struct {
	// Compressor 为 nil 时不压缩。
	Compressor compressor.Compressor
	// MinCompressSize 小于该长度的 payload 不压缩。
	MinCompressSize int
	// Types 为 nil 时使用新的 TypeTable。
	Types *TypeTable
}

// Codec 是线程安全的二进制编解码器。
type Codec struct {
	compressor      compressor.Compressor
	minCompressSize int
	types           *TypeTable

	// 解码时按需创建的其它算法的解压器。
	decompressors *typeutil.ConcurrentMap[string, compressor.Compressor]
}

func New(opts Options) (*Codec, error) {
	if opts.MinCompressSize < 0 {
		return nil, merr.WrapErrParameterInvalidMsg("binary: negative min compress size %d", opts.MinCompressSize)
	}
	c := &Codec{
		compressor:      opts.Compressor,
		minCompressSize: opts.MinCompressSize,
		types:           opts.Types,
		decompressors:   typeutil.NewConcurrentMap[string, compressor.Compressor](),
	}
	if c.compressor == nil {
		c.compressor = compressor.NopCompressor{}
	}
	if c.types == nil {
		c.types = NewTypeTable()
	}
	if _, ok := compressionFlags[c.compressor.Name()]; !ok && c.compressor.Name() != compressor.NameNone {
		return nil, merr.WrapErrCompressorNotFound(c.compressor.Name(), "binary: no envelope flag for compressor")
	}
	return c, nil
}

// Types 返回编解码器使用的类型表。
func (c *Codec) Types() *TypeTable {
	return c.types
}

// Marshal 将 v 编码为自描述的二进制快照。
func (c *Codec) Marshal(v any) ([]byte, error) {
	if v == nil {
		return nil, merr.WrapErrParameterInvalidMsg("binary: value is nil")
	}
	env := envelope{Type: c.types.Register(reflect.TypeOf(v))}

	var err error
	if msg, ok := v.(proto.Message); ok {
		env.Format = FormatProto
		env.Payload, err = protoMarshal.Marshal(msg)
	} else {
		if err := checkAcyclic(reflect.ValueOf(v)); err != nil {
			return nil, err
		}
		env.Format = FormatCBOR
		env.Payload, err = encMode.Marshal(v)
	}
	if err != nil {
		return nil, merr.WrapErrSerializationEncode(env.Type, err, "binary: marshal payload")
	}

	if flag, ok := compressionFlags[c.compressor.Name()]; ok && len(env.Payload) >= c.minCompressSize {
		packed, err := c.compressor.Compress(nil, env.Payload)
		if err != nil {
			return nil, merr.WrapErrSerializationEncode(env.Type, err, "binary: compress payload")
		}
		// 压缩后反而更大时保留原始数据。
		if len(packed) < len(env.Payload) {
			env.Payload = packed
			env.Flags |= flag
		}
	}

	data, err := encMode.Marshal(env)
	if err != nil {
		return nil, merr.WrapErrSerializationEncode(env.Type, err, "binary: marshal envelope")
	}
	return data, nil
}

// Unmarshal 还原 Marshal 产生的值，返回值的动态类型与编码时一致。
func (c *Codec) Unmarshal(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, merr.WrapErrParameterInvalidMsg("binary: data is empty")
	}

	var env envelope
	if err := decMode.Unmarshal(data, &env); err != nil {
		return nil, merr.WrapErrBinaryEnvelope(err.Error())
	}
	typ, ok := c.types.Resolve(env.Type)
	if !ok {
		return nil, merr.WrapErrBinaryTypeUnknown(env.Type)
	}

	payload, err := c.decompress(env.Flags, env.Payload)
	if err != nil {
		return nil, err
	}

	switch env.Format {
	case FormatProto:
		if typ.Kind() != reflect.Pointer {
			return nil, merr.WrapErrBinaryEnvelope(fmt.Sprintf("proto payload for non-pointer type %s", env.Type))
		}
		msg, ok := reflect.New(typ.Elem()).Interface().(proto.Message)
		if !ok {
			return nil, merr.WrapErrBinaryEnvelope(fmt.Sprintf("type %s is not a proto message", env.Type))
		}
		if err := proto.Unmarshal(payload, msg); err != nil {
			return nil, merr.WrapErrSerializationFormat(env.Type, "", err, "binary: unmarshal proto payload")
		}
		return msg, nil
	case FormatCBOR:
		ptr := reflect.New(typ)
		if err := decMode.Unmarshal(payload, ptr.Interface()); err != nil {
			return nil, merr.WrapErrSerializationFormat(env.Type, "", err, "binary: unmarshal cbor payload")
		}
		return ptr.Elem().Interface(), nil
	default:
		return nil, merr.WrapErrBinaryEnvelope(fmt.Sprintf("unknown payload %s", env.Format))
	}
}

func (c *Codec) decompress(flags uint8, payload []byte) ([]byte, error) {
	flag := flags & flagCompressionMask
	if flag == 0 {
		return payload, nil
	}
	var name string
	for n, f := range compressionFlags {
		if f == flag {
			name = n
		}
	}
	if name == "" {
		return nil, merr.WrapErrBinaryEnvelope(fmt.Sprintf("invalid compression flags %#x", flags))
	}

	d, err := c.decompressor(name)
	if err != nil {
		return nil, err
	}
	plain, err := d.Decompress(nil, payload)
	if err != nil {
		return nil, merr.WrapErrBinaryDecompress(name, err)
	}
	return plain, nil
}

// decompressor 优先复用自身的压缩器，其它算法的解压器按需创建并缓存。
func (c *Codec) decompressor(name string) (compressor.Compressor, error) {
	if c.compressor.Name() == name {
		return c.compressor, nil
	}
	if d, ok := c.decompressors.Get(name); ok {
		return d, nil
	}
	d, err := compressor.ByName(name)
	if err != nil {
		return nil, err
	}
	actual, loaded := c.decompressors.GetOrInsert(name, d)
	if loaded {
		if z, ok := d.(*compressor.ZstdCompressor); ok {
			z.Close()
		}
	}
	return actual, nil
}
