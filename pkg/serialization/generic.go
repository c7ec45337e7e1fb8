package serialization

import (
	"reflect"

	"github.com/lk2023060901/serdekit/pkg/util/merr"
)

// ToText 是 SerializeToText 的强类型版本。
func ToText[T any](m *Manager, v T) (string, error) {
	return m.SerializeToText(v)
}

// FromText 将 text 解码为 T。
func FromText[T any](m *Manager, text string) (T, error) {
	var zero T
	v, err := m.DeserializeFromText(reflect.TypeFor[T](), &text)
	if err != nil || v == nil {
		return zero, err
	}
	return cast[T](v)
}

// FromFile 读取 path 并解码为 T，文件不存在时第二个返回值为 false。
func FromFile[T any](m *Manager, path string) (T, bool, error) {
	var zero T
	v, err := m.DeserializeFromFile(path, reflect.TypeFor[T]())
	if err != nil || v == nil {
		return zero, false, err
	}
	t, err := cast[T](v)
	return t, err == nil, err
}

func cast[T any](v any) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, merr.WrapErrParameterInvalidMsg("expected %s, got %T", reflect.TypeFor[T](), v)
	}
	return t, nil
}
