package serialization

import (
	"reflect"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lk2023060901/serdekit/pkg/metrics"
	"github.com/lk2023060901/serdekit/pkg/util/merr"
	"github.com/lk2023060901/serdekit/pkg/util/typeutil"
)

// EncodeFunc 将值转换为规范文本。
type EncodeFunc func(v any) (string, error)

// DecodeFunc 将规范文本还原为值，返回值的动态类型应与注册的类型一致。
type DecodeFunc func(text string) (any, error)

// Handler 是某个类型的一对编解码函数，满足 Decode(Encode(v)) == v。
type Handler struct {
	Encode EncodeFunc
	Decode DecodeFunc
}

// Registry 是以 reflect.Type 为键的处理器表，可并发读写。
//
// 每个条目以不可变的 *Handler 整体替换：Lookup 无锁，
// 与 Register 并发时只会看到完整的旧处理器或完整的新处理器。
type Registry struct {
	handlers *typeutil.ConcurrentMap[reflect.Type, *Handler]
	// size 为 nil 表示不上报指标，只有默认注册表会上报。
	// 发布前用 Set 初始化，之后只按 Swap 与 GetAndRemove 的结果增减，与 Len 保持一致。
	size prometheus.Gauge
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// NewRegistry 返回一个空的注册表。
func NewRegistry() *Registry {
	return &Registry{handlers: typeutil.NewConcurrentMap[reflect.Type, *Handler]()}
}

// NewBuiltinRegistry 返回一个预置全部内置处理器的新注册表，与默认注册表相互独立。
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	for typ, h := range builtinHandlers {
		h := h
		r.handlers.Insert(typ, &h)
	}
	return r
}

// DefaultRegistry 返回进程级默认注册表，首次调用时填充内置处理器，并发首调也只填充一次。
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		r := NewBuiltinRegistry()
		r.size = metrics.RegisteredHandlers
		r.size.Set(float64(r.Len()))
		defaultRegistry = r
	})
	return defaultRegistry
}

// Register 在默认注册表上注册处理器。
func Register(key reflect.Type, encode EncodeFunc, decode DecodeFunc) error {
	return DefaultRegistry().Register(key, encode, decode)
}

// Register 插入或替换 key 对应的处理器，返回后新的处理器立即对所有调用方生效。
func (r *Registry) Register(key reflect.Type, encode EncodeFunc, decode DecodeFunc) error {
	if key == nil {
		return merr.WrapErrParameterInvalidMsg("register: nil type")
	}
	if encode == nil || decode == nil {
		return merr.WrapErrParameterInvalidMsg("register %s: nil encode or decode function", key)
	}
	if _, loaded := r.handlers.Swap(key, &Handler{Encode: encode, Decode: decode}); !loaded && r.size != nil {
		r.size.Inc()
	}
	return nil
}

// Lookup 返回 key 对应的处理器。返回的是副本，修改它不会影响注册表。
func (r *Registry) Lookup(key reflect.Type) (Handler, bool) {
	if key == nil {
		return Handler{}, false
	}
	h, ok := r.handlers.Get(key)
	if !ok {
		return Handler{}, false
	}
	return *h, true
}

// Unregister 移除 key 对应的处理器，key 不存在时返回 false。
func (r *Registry) Unregister(key reflect.Type) bool {
	if key == nil {
		return false
	}
	_, ok := r.handlers.GetAndRemove(key)
	if ok && r.size != nil {
		r.size.Dec()
	}
	return ok
}

func (r *Registry) Len() int {
	return r.handlers.Len()
}

// Keys 返回所有已注册的类型，顺序不保证。
func (r *Registry) Keys() []reflect.Type {
	return r.handlers.Keys()
}

// RegisterType 以强类型函数注册 T 的处理器。
func RegisterType[T any](r *Registry, encode func(T) (string, error), decode func(string) (T, error)) error {
	if encode == nil || decode == nil {
		return merr.WrapErrParameterInvalidMsg("register %s: nil encode or decode function", reflect.TypeFor[T]())
	}
	h := newHandler(encode, decode)
	return r.Register(reflect.TypeFor[T](), h.Encode, h.Decode)
}
