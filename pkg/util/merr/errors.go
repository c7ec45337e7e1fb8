// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package merr

import (
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

const (
	CanceledCode int32 = 10000
	TimeoutCode  int32 = 10001
)

type ErrorType int32

const (
	SystemError ErrorType = 0
	InputError  ErrorType = 1
)

var ErrorTypeName = map[ErrorType]string{
	SystemError: "system_error",
	InputError:  "input_error",
}

func (err ErrorType) String() string {
	return ErrorTypeName[err]
}

// 叶子错误统一定义在这里。
// WARN: 新增错误前，先确认下面已有的错误是否已经够用。
// 命名规则：Err + 相关前缀 + 错误名
var (
	// Serialization 相关
	ErrSerializationFormat    = newSerdeError("malformed serialized text", 100, false, WithErrorType(InputError))
	ErrSerializationEncode    = newSerdeError("failed to encode value", 101, false)
	ErrSerializationNoHandler = newSerdeError("no handler registered for type", 102, false)

	// Binary snapshot 相关
	ErrBinaryTypeUnknown  = newSerdeError("unknown type in binary envelope", 200, false, WithErrorType(InputError))
	ErrBinaryEnvelope     = newSerdeError("corrupted binary envelope", 201, false, WithErrorType(InputError))
	ErrBinaryCyclicGraph  = newSerdeError("cyclic object graph is not supported", 202, false, WithErrorType(InputError))
	ErrBinaryDecompress   = newSerdeError("failed to decompress binary payload", 203, false)
	ErrCompressorNotFound = newSerdeError("compressor not found", 204, false)

	// Codec 相关
	ErrCodecNotFound = newSerdeError("codec not found", 300, false)

	// IO 相关
	ErrIoKeyNotFound = newSerdeError("key not found", 1000, false)
	ErrIoFailed      = newSerdeError("IO failed", 1001, false)
	ErrIoUnexpectEOF = newSerdeError("unexpected EOF", 1002, true)

	// Parameter 相关
	ErrParameterInvalid  = newSerdeError("invalid parameter", 1100, false, WithErrorType(InputError))
	ErrParameterMissing  = newSerdeError("missing parameter", 1101, false, WithErrorType(InputError))
	ErrParameterTooLarge = newSerdeError("parameter too large", 1102, false, WithErrorType(InputError))

	// Config 相关
	ErrConfigInvalid = newSerdeError("invalid config", 1200, false)

	// General
	ErrOperationNotSupported = newSerdeError("unsupported operation", 3000, false)
	ErrServiceInternal       = newSerdeError("service internal error", 3001, false)

	// 不要导出，仅用于将未知错误转换为 serdeError
	errUnexpected = newSerdeError("unexpected error", (1<<16)-1, false)
)

type errorOption func(*serdeError)

func WithDetail(detail string) errorOption {
	return func(err *serdeError) {
		err.detail = detail
	}
}

func WithErrorType(etype ErrorType) errorOption {
	return func(err *serdeError) {
		err.errType = etype
	}
}

type serdeError struct {
	msg       string
	detail    string
	retriable bool
	errCode   int32
	errType   ErrorType
}

func newSerdeError(msg string, code int32, retriable bool, options ...errorOption) serdeError {
	err := serdeError{
		msg:       msg,
		detail:    msg,
		retriable: retriable,
		errCode:   code,
	}

	for _, option := range options {
		option(&err)
	}
	return err
}

func (e serdeError) code() int32 {
	return e.errCode
}

func (e serdeError) Error() string {
	return e.msg
}

func (e serdeError) Detail() string {
	return e.detail
}

// Is 按错误码比较，携带字段后的错误与原始叶子错误视为同一种错误。
func (e serdeError) Is(err error) bool {
	cause := errors.Cause(err)
	if cause, ok := cause.(serdeError); ok {
		return e.errCode == cause.errCode
	}
	return false
}

type multiErrors struct {
	errs []error
}

func (e multiErrors) Unwrap() error {
	if len(e.errs) <= 1 {
		return nil
	}
	// 多个错误的 cause 定义为最后一个错误，这样 Code 等方法才能正常工作。
	if len(e.errs) == 2 {
		return e.errs[1]
	}

	return multiErrors{
		errs: e.errs[1:],
	}
}

func (e multiErrors) Error() string {
	final := e.errs[0]
	for i := 1; i < len(e.errs); i++ {
		final = errors.Wrap(e.errs[i], final.Error())
	}
	return final.Error()
}

func (e multiErrors) Is(err error) bool {
	for _, item := range e.errs {
		if errors.Is(item, err) {
			return true
		}
	}
	return false
}

// Combine 合并多个错误，nil 会被过滤掉；全部为 nil 时返回 nil。
func Combine(errs ...error) error {
	errs = lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	if len(errs) == 0 {
		return nil
	}
	return multiErrors{
		errs,
	}
}
