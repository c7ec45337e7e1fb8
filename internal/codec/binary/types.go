package binary

import (
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lk2023060901/serdekit/pkg/util/typeutil"
)

// TypeTable 维护信封中的类型名到 reflect.Type 的映射。
//
// 编码时自动登记值的类型，解码时只能还原登记过的类型；
// 因此跨进程解码前，接收方需要先 Register 对应类型。
//
// 不同类型可能得到相同的 TypeName（同一包内同名的函数局部类型，或包名相同的
// 两个包构成的未命名复合类型），后登记者的名字会追加 "#2"、"#3" 等后缀。
// 后缀取决于登记顺序，跨进程时需要双方按相同顺序 Register。
type TypeTable struct {
	byName *typeutil.ConcurrentMap[string, reflect.Type]
	byType *typeutil.ConcurrentMap[reflect.Type, string]
}

var builtinTypes = []reflect.Type{
	reflect.TypeFor[bool](),
	reflect.TypeFor[string](),
	reflect.TypeFor[int](),
	reflect.TypeFor[int8](),
	reflect.TypeFor[int16](),
	reflect.TypeFor[int32](),
	reflect.TypeFor[int64](),
	reflect.TypeFor[uint](),
	reflect.TypeFor[uint8](),
	reflect.TypeFor[uint16](),
	reflect.TypeFor[uint32](),
	reflect.TypeFor[uint64](),
	reflect.TypeFor[float32](),
	reflect.TypeFor[float64](),
	reflect.TypeFor[[]byte](),
	reflect.TypeFor[time.Time](),
	reflect.TypeFor[time.Duration](),
	reflect.TypeFor[uuid.UUID](),
	reflect.TypeFor[decimal.Decimal](),
	reflect.TypeFor[map[string]any](),
	reflect.TypeFor[[]any](),
}

// NewTypeTable 返回一个预先登记了基础类型的 TypeTable。
func NewTypeTable() *TypeTable {
	t := &TypeTable{
		byName: typeutil.NewConcurrentMap[string, reflect.Type](),
		byType: typeutil.NewConcurrentMap[reflect.Type, string](),
	}
	for _, typ := range builtinTypes {
		t.Register(typ)
	}
	return t
}

// Register 登记 typ 并返回其在信封中使用的名字。重复登记是幂等的，
// 同一类型总是得到同一个名字，不同类型的名字互不相同。
func (t *TypeTable) Register(typ reflect.Type) string {
	if name, ok := t.byType.Get(typ); ok {
		return name
	}
	base := TypeName(typ)
	for i := 1; ; i++ {
		name := base
		if i > 1 {
			name = base + "#" + strconv.Itoa(i)
		}
		if owner, _ := t.byName.GetOrInsert(name, typ); owner == typ {
			actual, _ := t.byType.GetOrInsert(typ, name)
			return actual
		}
	}
}

func (t *TypeTable) Resolve(name string) (reflect.Type, bool) {
	return t.byName.Get(name)
}

func (t *TypeTable) Len() int {
	return t.byName.Len()
}

// TypeName 返回类型的稳定名字：具名类型使用完整包路径，
// 未命名类型使用 reflect 的字符串形式，指针在前面加 "*"。
func TypeName(typ reflect.Type) string {
	if typ.Name() == "" && typ.Kind() == reflect.Pointer {
		return "*" + TypeName(typ.Elem())
	}
	if typ.Name() != "" && typ.PkgPath() != "" {
		return typ.PkgPath() + "." + typ.Name()
	}
	return typ.String()
}
