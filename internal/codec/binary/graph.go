package binary

import (
	"reflect"

	"github.com/lk2023060901/serdekit/pkg/util/merr"
)

type visit struct {
	ptr uintptr
	typ reflect.Type
}

// checkAcyclic 沿导出字段遍历值，发现指针环时返回 ErrBinaryCyclicGraph。
// 只记录当前路径上的节点，共享但无环的子图是允许的。
func checkAcyclic(v reflect.Value) error {
	return walk(v, make(map[visit]struct{}))
}

func walk(v reflect.Value, path map[visit]struct{}) error {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice:
		if v.IsNil() || (v.Kind() == reflect.Slice && v.Len() == 0) {
			return nil
		}
		if v.Kind() == reflect.Slice && isLeaf(v.Type().Elem()) {
			return nil
		}
		key := visit{ptr: v.Pointer(), typ: v.Type()}
		if _, ok := path[key]; ok {
			return merr.WrapErrBinaryCyclicGraph(TypeName(v.Type()))
		}
		path[key] = struct{}{}
		defer delete(path, key)

		switch v.Kind() {
		case reflect.Pointer:
			return walk(v.Elem(), path)
		case reflect.Map:
			iter := v.MapRange()
			for iter.Next() {
				if err := walk(iter.Value(), path); err != nil {
					return err
				}
			}
			return nil
		default:
			return walkElems(v, path)
		}
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return walk(v.Elem(), path)
	case reflect.Array:
		if isLeaf(v.Type().Elem()) {
			return nil
		}
		return walkElems(v, path)
	case reflect.Struct:
		typ := v.Type()
		for i := 0; i < v.NumField(); i++ {
			if !typ.Field(i).IsExported() {
				continue
			}
			if err := walk(v.Field(i), path); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

func walkElems(v reflect.Value, path map[visit]struct{}) error {
	for i := 0; i < v.Len(); i++ {
		if err := walk(v.Index(i), path); err != nil {
			return err
		}
	}
	return nil
}

// isLeaf 表示该类型的值不可能再引用其它节点。
func isLeaf(typ reflect.Type) bool {
	switch typ.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	default:
		return false
	}
}
