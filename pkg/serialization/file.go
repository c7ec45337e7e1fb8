package serialization

import (
	"bufio"
	"io/fs"
	"os"
	"reflect"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/serdekit/pkg/log"
	"github.com/lk2023060901/serdekit/pkg/metrics"
	"github.com/lk2023060901/serdekit/pkg/util/merr"
)

const (
	fileMode = 0o644

	// Try* 包装的失败日志共用一个限流分组，每秒最多约一条，允许突发 30 条。
	fileWarnRateGroup = "serialization.file"
	fileWarnCredit    = 1.0
	fileWarnBurst     = 30.0
)

// SerializeToFile 用结构化编解码器将 v 写入 path，文件已存在时会被截断。
//
// 打开、写入或关闭失败返回 ErrIoFailed，编码失败返回 ErrSerializationEncode。
func (m *Manager) SerializeToFile(v any, path string) (err error) {
	var written int
	defer func() {
		metrics.Observe(metrics.MediumFile, metrics.DirectionEncode, metrics.RouteStructural, err, written)
	}()

	if isNil(v) {
		return merr.WrapErrParameterInvalidMsg("serialize to file %s: nil value", path)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fileMode)
	if err != nil {
		return merr.WrapErrIoFailed(path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = merr.WrapErrIoFailed(path, cerr)
		}
	}()

	w := &countingWriter{w: bufio.NewWriter(f)}
	if err := m.structural.Encode(w, v); err != nil {
		if isIoError(err) {
			return merr.WrapErrIoFailed(path, err)
		}
		return encodeError(reflect.TypeOf(v), err)
	}
	if err := w.w.Flush(); err != nil {
		return merr.WrapErrIoFailed(path, err)
	}
	written = w.n
	return nil
}

// DeserializeFromFile 读取 path 并解码为 typ 类型的值。
// 文件不存在时返回 (nil, nil)；读取失败返回 ErrIoFailed；内容不合法返回 ErrSerializationFormat。
func (m *Manager) DeserializeFromFile(path string, typ reflect.Type) (any, error) {
	if typ == nil {
		return nil, merr.WrapErrParameterInvalidMsg("deserialize file %s: nil type", path)
	}
	ptr := reflect.New(typ)
	found, err := m.decodeFile(path, typ, ptr.Interface())
	if err != nil || !found {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}

// DeserializeFileInto 将 path 的内容解码到 dst 指向的已有对象中，文件不存在时返回 false。
func (m *Manager) DeserializeFileInto(path string, dst any) (bool, error) {
	rv := reflect.ValueOf(dst)
	if dst == nil || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return false, merr.WrapErrParameterInvalidMsg("deserialize file %s into %T: destination must be a non-nil pointer", path, dst)
	}
	return m.decodeFile(path, rv.Type().Elem(), dst)
}

func (m *Manager) decodeFile(path string, typ reflect.Type, dst any) (found bool, err error) {
	var read int
	defer func() {
		metrics.Observe(metrics.MediumFile, metrics.DirectionDecode, metrics.RouteStructural, err, read)
	}()

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, merr.WrapErrIoFailed(path, err)
	}
	defer f.Close()

	r := &countingReader{r: bufio.NewReader(f)}
	if err := m.structural.Decode(r, dst); err != nil {
		if isIoError(err) {
			return false, merr.WrapErrIoFailed(path, err)
		}
		return false, merr.WrapErrSerializationFormat(typ.String(), "", err, "file "+path)
	}
	read = r.n
	return true, nil
}

// TrySerializeToFile 与 SerializeToFile 相同，但只以 false 报告失败，错误仅记录日志。
func (m *Manager) TrySerializeToFile(v any, path string) bool {
	if err := m.SerializeToFile(v, path); err != nil {
		m.fileLogger().RatedWarn(1, "serialize to file failed", log.FieldPath(path), log.FieldType(reflect.TypeOf(v)), zap.Error(err))
		return false
	}
	return true
}

// TryDeserializeFromFile 与 DeserializeFromFile 相同，但任何失败都返回 nil，错误仅记录日志。
func (m *Manager) TryDeserializeFromFile(path string, typ reflect.Type) any {
	v, err := m.DeserializeFromFile(path, typ)
	if err != nil {
		m.fileLogger().RatedWarn(1, "deserialize from file failed", log.FieldPath(path), log.FieldType(typ), zap.Error(err))
		return nil
	}
	return v
}

func (m *Manager) fileLogger() *log.MLogger {
	return m.Logger().With(log.FieldMedium(metrics.MediumFile)).WithRateGroup(fileWarnRateGroup, fileWarnCredit, fileWarnBurst)
}

// isIoError 区分底层文件读写错误与编解码错误。
func isIoError(err error) bool {
	var pathErr *fs.PathError
	return errors.As(err, &pathErr)
}

type countingWriter struct {
	w *bufio.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}

type countingReader struct {
	r *bufio.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}
