// Package serialization 在值与文本、二进制、文件之间相互转换。
//
// 文本编码按以下顺序分派：
//  1. 注册表中该类型的处理器；
//  2. 值实现的 encoding.TextMarshaler / encoding.TextUnmarshaler；
//  3. 结构化编解码器（默认 JSON）。
//
// 二进制路径不经过注册表，总是交给二进制编解码器。
package serialization

import (
	"encoding"
	"reflect"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/lk2023060901/serdekit/internal/codec/binary"
	"github.com/lk2023060901/serdekit/internal/codec/structural"
	"github.com/lk2023060901/serdekit/pkg/log"
	"github.com/lk2023060901/serdekit/pkg/metrics"
	"github.com/lk2023060901/serdekit/pkg/util/conc"
	"github.com/lk2023060901/serdekit/pkg/util/merr"
	"github.com/lk2023060901/serdekit/pkg/util/typeutil"
)

const closeTimeout = 3 * time.Second

var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

// Manager 是序列化的统一入口，可并发使用。
type Manager struct {
	log.Binder

	registry   *Registry
	structural StructuralCodec
	binary     BinaryCodec

	batchConcurrency int
	batchPoolOnce    sync.Once
	batchPool        *conc.Pool[string]
	closed           atomic.Bool

	// 已经记录过回落日志的类型，每个类型只记录一次。
	fallbacks *typeutil.ConcurrentSet[reflect.Type]
}

var (
	defaultManager     *Manager
	defaultManagerOnce sync.Once
)

// New 按 opts 构造 Manager。
func New(opts Options) (*Manager, error) {
	m := &Manager{
		registry:         opts.Registry,
		structural:       opts.Structural,
		binary:           opts.Binary,
		batchConcurrency: opts.BatchConcurrency,
		fallbacks:        typeutil.NewConcurrentSet[reflect.Type](),
	}
	if m.registry == nil {
		m.registry = DefaultRegistry()
	}
	if m.structural == nil {
		m.structural = structural.Default()
	}
	if m.binary == nil {
		bc, err := binary.New(binary.Options{})
		if err != nil {
			return nil, err
		}
		m.binary = bc
	}
	m.SetLogger(log.With(log.FieldModule("serialization"), zap.String("structural", m.structural.Name())))
	return m, nil
}

// Default 返回基于默认注册表、JSON 与 CBOR 的进程级 Manager。
func Default() *Manager {
	defaultManagerOnce.Do(func() {
		m, err := New(Options{})
		if err != nil {
			panic("serialization: default manager initialization failed: " + err.Error())
		}
		defaultManager = m
	})
	return defaultManager
}

// Registry 返回 Manager 使用的注册表。
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Close 释放 SerializeBatch 使用的协程池并等待 worker 退出，可重复调用。
// Close 之后 SerializeBatch 返回 ErrOperationNotSupported，单值编解码不受影响。
func (m *Manager) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	m.batchPoolOnce.Do(func() {})
	if m.batchPool != nil {
		return m.batchPool.ReleaseTimeout(closeTimeout)
	}
	return nil
}

// SerializeToText 将 v 编码为规范文本。v 为 nil 或 nil 指针等空值时返回空串。
func (m *Manager) SerializeToText(v any) (string, error) {
	text, route, err := m.serializeToText(v)
	metrics.Observe(metrics.MediumText, metrics.DirectionEncode, route, err, len(text))
	return text, err
}

func (m *Manager) serializeToText(v any) (string, string, error) {
	if isNil(v) {
		return "", metrics.RouteNil, nil
	}
	typ := reflect.TypeOf(v)

	if h, ok := m.registry.Lookup(typ); ok {
		text, err := h.Encode(v)
		if err != nil {
			return "", metrics.RouteRegistry, encodeError(typ, err)
		}
		return text, metrics.RouteRegistry, nil
	}

	if tm, ok := v.(encoding.TextMarshaler); ok {
		data, err := tm.MarshalText()
		if err != nil {
			return "", metrics.RouteTextCodec, encodeError(typ, err)
		}
		return string(data), metrics.RouteTextCodec, nil
	}

	m.logFallback(typ)
	data, err := m.structural.Marshal(v)
	if err != nil {
		return "", metrics.RouteStructural, encodeError(typ, err)
	}
	return string(data), metrics.RouteStructural, nil
}

// DeserializeFromText 将 text 解码为 typ 类型的值。text 为 nil 时返回 (nil, nil)。
// 文本不合法时返回 ErrSerializationFormat。
func (m *Manager) DeserializeFromText(typ reflect.Type, text *string) (any, error) {
	if text == nil {
		metrics.Observe(metrics.MediumText, metrics.DirectionDecode, metrics.RouteNil, nil, -1)
		return nil, nil
	}
	v, route, err := m.deserializeFromText(typ, *text)
	metrics.Observe(metrics.MediumText, metrics.DirectionDecode, route, err, len(*text))
	return v, err
}

func (m *Manager) deserializeFromText(typ reflect.Type, text string) (any, string, error) {
	if typ == nil {
		return nil, metrics.RouteNil, merr.WrapErrParameterInvalidMsg("deserialize: nil type")
	}

	if h, ok := m.registry.Lookup(typ); ok {
		v, err := h.Decode(text)
		if err != nil {
			return nil, metrics.RouteRegistry, decodeError(typ, text, err)
		}
		if v != nil && !reflect.TypeOf(v).AssignableTo(typ) {
			return nil, metrics.RouteRegistry, merr.WrapErrSerializationFormat(typ.String(), text, nil,
				"handler returned "+reflect.TypeOf(v).String())
		}
		return v, metrics.RouteRegistry, nil
	}

	if u, ok := newTextUnmarshaler(typ); ok {
		if err := u.target.(encoding.TextUnmarshaler).UnmarshalText([]byte(text)); err != nil {
			return nil, metrics.RouteTextCodec, decodeError(typ, text, err)
		}
		return u.result(), metrics.RouteTextCodec, nil
	}

	m.logFallback(typ)
	ptr := reflect.New(typ)
	if err := m.structural.Unmarshal([]byte(text), ptr.Interface()); err != nil {
		return nil, metrics.RouteStructural, decodeError(typ, text, err)
	}
	return ptr.Elem().Interface(), metrics.RouteStructural, nil
}

// DeserializeTextInto 将 text 解码到 dst 指向的已有对象中，dst 必须是非 nil 指针。
// text 为空时 dst 保持不变。
func (m *Manager) DeserializeTextInto(text string, dst any) error {
	rv := reflect.ValueOf(dst)
	if dst == nil || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return merr.WrapErrParameterInvalidMsg("deserialize into %T: destination must be a non-nil pointer", dst)
	}
	if text == "" {
		return nil
	}
	typ := rv.Type().Elem()

	if _, ok := m.registry.Lookup(typ); ok {
		v, _, err := m.deserializeFromText(typ, text)
		if err != nil {
			return err
		}
		if v == nil {
			rv.Elem().SetZero()
		} else {
			rv.Elem().Set(reflect.ValueOf(v))
		}
		return nil
	}
	if u, ok := dst.(encoding.TextUnmarshaler); ok {
		if err := u.UnmarshalText([]byte(text)); err != nil {
			return decodeError(typ, text, err)
		}
		return nil
	}
	m.logFallback(typ)
	if err := m.structural.Unmarshal([]byte(text), dst); err != nil {
		return decodeError(typ, text, err)
	}
	return nil
}

// textUnmarshalTarget 记录 UnmarshalText 的接收者以及如何从中取回 typ 类型的结果。
type textUnmarshalTarget struct {
	target any
	result func() any
}

// newTextUnmarshaler 在 *typ 或 typ（指针类型）实现 encoding.TextUnmarshaler 时返回新的接收者。
func newTextUnmarshaler(typ reflect.Type) (textUnmarshalTarget, bool) {
	if reflect.PointerTo(typ).Implements(textUnmarshalerType) {
		ptr := reflect.New(typ)
		return textUnmarshalTarget{target: ptr.Interface(), result: func() any { return ptr.Elem().Interface() }}, true
	}
	if typ.Kind() == reflect.Pointer && typ.Implements(textUnmarshalerType) {
		ptr := reflect.New(typ.Elem())
		return textUnmarshalTarget{target: ptr.Interface(), result: func() any { return ptr.Interface() }}, true
	}
	return textUnmarshalTarget{}, false
}

func (m *Manager) logFallback(typ reflect.Type) {
	if m.fallbacks.Insert(typ) {
		m.Logger().Debug("no handler registered, using structural codec", log.FieldType(typ))
	}
}

// isNil 判断 v 是否为 nil 或值为 nil 的指针、map、slice、接口、函数或 channel。
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

func encodeError(typ reflect.Type, err error) error {
	if errors.IsAny(err, merr.ErrSerializationEncode, merr.ErrParameterInvalid) {
		return err
	}
	return merr.WrapErrSerializationEncode(typ.String(), err)
}

// decodeError 保证解码失败都以 ErrSerializationFormat 的形式返回。
func decodeError(typ reflect.Type, text string, err error) error {
	if merr.IsFormatError(err) {
		return err
	}
	return merr.WrapErrSerializationFormat(typ.String(), text, err)
}
