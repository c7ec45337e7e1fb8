package serialization

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lk2023060901/serdekit/pkg/util/merr"
)

// Char 表示单个 Unicode 码点。
//
// rune 是 int32 的别名，二者在 reflect 中是同一个类型；
// 需要“字符”语义时使用 Char，int32 始终按整数处理。
type Char rune

// 内置处理器的规范文本格式：
//   - 整数：十进制；超出目标位宽的文本解码失败。
//   - 浮点数：能按目标位宽精确还原的最短表示，含 NaN、+Inf、-Inf。
//   - []byte：带填充的标准 base64。
//   - uuid.UUID：36 字符小写形式。
//   - time.Time：time.RFC3339Nano。
//   - time.Duration：Duration.String()。
var builtinHandlers = map[reflect.Type]Handler{
	reflect.TypeFor[string]():          newHandler(encodeString, decodeString),
	reflect.TypeFor[bool]():            newHandler(encodeBool, decodeBool),
	reflect.TypeFor[int]():             newHandler(encodeInt[int], decodeInt[int](strconv.IntSize)),
	reflect.TypeFor[int8]():            newHandler(encodeInt[int8], decodeInt[int8](8)),
	reflect.TypeFor[int16]():           newHandler(encodeInt[int16], decodeInt[int16](16)),
	reflect.TypeFor[int32]():           newHandler(encodeInt[int32], decodeInt[int32](32)),
	reflect.TypeFor[int64]():           newHandler(encodeInt[int64], decodeInt[int64](64)),
	reflect.TypeFor[uint]():            newHandler(encodeUint[uint], decodeUint[uint](strconv.IntSize)),
	reflect.TypeFor[uint8]():           newHandler(encodeUint[uint8], decodeUint[uint8](8)),
	reflect.TypeFor[uint16]():          newHandler(encodeUint[uint16], decodeUint[uint16](16)),
	reflect.TypeFor[uint32]():          newHandler(encodeUint[uint32], decodeUint[uint32](32)),
	reflect.TypeFor[uint64]():          newHandler(encodeUint[uint64], decodeUint[uint64](64)),
	reflect.TypeFor[float32]():         newHandler(encodeFloat[float32](32), decodeFloat[float32](32)),
	reflect.TypeFor[float64]():         newHandler(encodeFloat[float64](64), decodeFloat[float64](64)),
	reflect.TypeFor[decimal.Decimal](): newHandler(encodeDecimal, decodeDecimal),
	reflect.TypeFor[Char]():            newHandler(encodeChar, decodeChar),
	reflect.TypeFor[[]byte]():          newHandler(encodeBytes, decodeBytes),
	reflect.TypeFor[uuid.UUID]():       newHandler(encodeUUID, decodeUUID),
	reflect.TypeFor[time.Time]():       newHandler(encodeTime, decodeTime),
	reflect.TypeFor[time.Duration]():   newHandler(encodeDuration, decodeDuration),
}

// BuiltinTypes 返回所有内置处理器对应的类型，顺序不保证。
func BuiltinTypes() []reflect.Type {
	types := make([]reflect.Type, 0, len(builtinHandlers))
	for typ := range builtinHandlers {
		types = append(types, typ)
	}
	return types
}

// IsBuiltin 判断 typ 是否有内置处理器。
func IsBuiltin(typ reflect.Type) bool {
	_, ok := builtinHandlers[typ]
	return ok
}

// newHandler 将强类型的编解码函数包装为 Handler。
// Encode 收到其它类型的值时返回 ErrParameterInvalid。
func newHandler[T any](enc func(T) (string, error), dec func(string) (T, error)) Handler {
	typ := reflect.TypeFor[T]()
	return Handler{
		Encode: func(v any) (string, error) {
			t, ok := v.(T)
			if !ok {
				return "", merr.WrapErrParameterInvalid(typ.String(), fmt.Sprintf("%T", v), "handler value type mismatch")
			}
			return enc(t)
		},
		Decode: func(text string) (any, error) {
			t, err := dec(text)
			if err != nil {
				return nil, err
			}
			return t, nil
		},
	}
}

func formatError[T any](text string, cause error) error {
	return merr.WrapErrSerializationFormat(reflect.TypeFor[T]().String(), text, cause)
}

func encodeString(v string) (string, error) { return v, nil }

func decodeString(text string) (string, error) { return text, nil }

func encodeBool(v bool) (string, error) { return strconv.FormatBool(v), nil }

func decodeBool(text string) (bool, error) {
	v, err := strconv.ParseBool(text)
	if err != nil {
		return false, formatError[bool](text, err)
	}
	return v, nil
}

type signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

type unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

func encodeInt[T signed](v T) (string, error) {
	return strconv.FormatInt(int64(v), 10), nil
}

func decodeInt[T signed](bits int) func(string) (T, error) {
	return func(text string) (T, error) {
		v, err := strconv.ParseInt(text, 10, bits)
		if err != nil {
			return 0, formatError[T](text, err)
		}
		return T(v), nil
	}
}

func encodeUint[T unsigned](v T) (string, error) {
	return strconv.FormatUint(uint64(v), 10), nil
}

func decodeUint[T unsigned](bits int) func(string) (T, error) {
	return func(text string) (T, error) {
		v, err := strconv.ParseUint(text, 10, bits)
		if err != nil {
			return 0, formatError[T](text, err)
		}
		return T(v), nil
	}
}

func encodeFloat[T ~float32 | ~float64](bits int) func(T) (string, error) {
	return func(v T) (string, error) {
		return strconv.FormatFloat(float64(v), 'g', -1, bits), nil
	}
}

func decodeFloat[T ~float32 | ~float64](bits int) func(string) (T, error) {
	return func(text string) (T, error) {
		v, err := strconv.ParseFloat(text, bits)
		if err != nil {
			return 0, formatError[T](text, err)
		}
		return T(v), nil
	}
}

func encodeDecimal(v decimal.Decimal) (string, error) { return v.String(), nil }

func decodeDecimal(text string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, formatError[decimal.Decimal](text, err)
	}
	return v, nil
}

func encodeChar(v Char) (string, error) {
	if !utf8.ValidRune(rune(v)) {
		return "", merr.WrapErrSerializationEncode("serialization.Char", nil, fmt.Sprintf("invalid code point %U", rune(v)))
	}
	return string(rune(v)), nil
}

func decodeChar(text string) (Char, error) {
	r, size := utf8.DecodeRuneInString(text)
	if size == 0 || size != len(text) || (r == utf8.RuneError && size == 1) {
		return 0, formatError[Char](text, errors.New("expected exactly one code point"))
	}
	return Char(r), nil
}

func encodeBytes(v []byte) (string, error) {
	return base64.StdEncoding.EncodeToString(v), nil
}

func decodeBytes(text string) ([]byte, error) {
	v, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, formatError[[]byte](text, err)
	}
	return v, nil
}

func encodeUUID(v uuid.UUID) (string, error) { return v.String(), nil }

func decodeUUID(text string) (uuid.UUID, error) {
	v, err := uuid.Parse(text)
	if err != nil {
		return uuid.Nil, formatError[uuid.UUID](text, err)
	}
	return v, nil
}

// encodeTime 输出 RFC 3339 纳秒格式，年份不在 [0, 9999] 或时区偏移非法时拒绝编码。
func encodeTime(v time.Time) (string, error) {
	text, err := v.MarshalText()
	if err != nil {
		return "", merr.WrapErrSerializationEncode("time.Time", err)
	}
	return string(text), nil
}

func decodeTime(text string) (time.Time, error) {
	v, err := time.Parse(time.RFC3339Nano, text)
	if err != nil {
		return time.Time{}, formatError[time.Time](text, err)
	}
	return v, nil
}

func encodeDuration(v time.Duration) (string, error) { return v.String(), nil }

func decodeDuration(text string) (time.Duration, error) {
	v, err := time.ParseDuration(text)
	if err != nil {
		return 0, formatError[time.Duration](text, err)
	}
	return v, nil
}
