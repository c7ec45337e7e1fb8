package log

import (
	"reflect"

	"go.uber.org/zap"
)

const (
	FieldNameModule    = "module"
	FieldNameComponent = "component"
	FieldNameType      = "type"
	FieldNameMedium    = "medium"
	FieldNamePath      = "path"
)

// FieldModule 返回一个包含模块名的 zap 字段。
func FieldModule(module string) zap.Field {
	return zap.String(FieldNameModule, module)
}

// FieldComponent 返回一个包含组件名的 zap 字段。
func FieldComponent(component string) zap.Field {
	return zap.String(FieldNameComponent, component)
}

// FieldType 记录参与序列化的 Go 类型。nil 类型输出为 "<nil>"。
func FieldType(typ reflect.Type) zap.Field {
	if typ == nil {
		return zap.String(FieldNameType, "<nil>")
	}
	return zap.Stringer(FieldNameType, typ)
}

// FieldMedium 记录序列化介质，例如 text 或 file。
func FieldMedium(medium string) zap.Field {
	return zap.String(FieldNameMedium, medium)
}

func FieldPath(path string) zap.Field {
	return zap.String(FieldNamePath, path)
}
