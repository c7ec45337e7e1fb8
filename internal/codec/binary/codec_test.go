package binary

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/lk2023060901/serdekit/internal/codec/compressor"
	"github.com/lk2023060901/serdekit/pkg/util/merr"
)

type order struct {
	ID      uuid.UUID
	Amount  decimal.Decimal
	Placed  time.Time
	Lines   []line
	Meta    map[string]string
	Parent  *order
	private int
}

type line struct {
	SKU string
	Qty int32
}

type node struct {
	Name string
	Next *node
}

func newOrder() order {
	return order{
		ID:     uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		Amount: decimal.RequireFromString("12.50"),
		Placed: time.Date(2024, 2, 29, 23, 59, 59, 123456789, time.UTC),
		Lines:  []line{{SKU: "a-1", Qty: 2}, {SKU: "b-2", Qty: 1}},
		Meta:   map[string]string{"channel": "web"},
		Parent: &order{Meta: map[string]string{"depth": "1"}},
	}
}

var orderCmp = cmp.Options{
	cmpopts.IgnoreUnexported(order{}),
	cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) }),
	cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) }),
}

type CodecSuite struct {
	suite.Suite
	compressor string
	codec      *Codec
}

func (s *CodecSuite) SetupTest() {
	c, err := compressor.ByName(s.compressor)
	s.Require().NoError(err)
	s.codec, err = New(Options{Compressor: c})
	s.Require().NoError(err)
}

func (s *CodecSuite) TestPrimitives() {
	values := []any{
		true, "héllo", int8(-128), int16(32767), int32(-7), int64(1 << 62), 42,
		uint8(255), uint16(65535), uint32(1), uint64(1<<64 - 1), uint(7),
		float32(1.5), 3.141592653589793, []byte{0, 1, 2, 255},
		time.Duration(90) * time.Second,
	}
	for _, v := range values {
		data, err := s.codec.Marshal(v)
		s.Require().NoError(err)
		got, err := s.codec.Unmarshal(data)
		s.Require().NoError(err)
		s.Equal(v, got, "%T", v)
	}
}

func (s *CodecSuite) TestStruct() {
	in := newOrder()
	in.private = 9
	data, err := s.codec.Marshal(in)
	s.Require().NoError(err)

	got, err := s.codec.Unmarshal(data)
	s.Require().NoError(err)
	out, ok := got.(order)
	s.Require().True(ok, "got %T", got)
	s.Zero(out.private)
	if diff := cmp.Diff(in, out, orderCmp); diff != "" {
		s.Failf("round trip mismatch", "(-want +got):\n%s", diff)
	}
}

func (s *CodecSuite) TestPointer() {
	in := &node{Name: "head", Next: &node{Name: "tail"}}
	data, err := s.codec.Marshal(in)
	s.Require().NoError(err)
	got, err := s.codec.Unmarshal(data)
	s.Require().NoError(err)
	s.Equal(in, got)
}

func (s *CodecSuite) TestProto() {
	msgs := []proto.Message{
		wrapperspb.String("payload"),
		func() proto.Message {
			st, err := structpb.NewStruct(map[string]any{"k": "v", "n": 1.0, "list": []any{true, "x"}})
			s.Require().NoError(err)
			return st
		}(),
	}
	for _, msg := range msgs {
		data, err := s.codec.Marshal(msg)
		s.Require().NoError(err)
		got, err := s.codec.Unmarshal(data)
		s.Require().NoError(err)
		gotMsg, ok := got.(proto.Message)
		s.Require().True(ok)
		s.True(proto.Equal(msg, gotMsg), "%v != %v", msg, gotMsg)
	}
}

func (s *CodecSuite) TestLargePayloadCompresses() {
	in := map[string]any{"blob": strings.Repeat("abcdefgh", 4096)}
	data, err := s.codec.Marshal(in)
	s.Require().NoError(err)

	var env envelope
	s.Require().NoError(decMode.Unmarshal(data, &env))
	if s.compressor == compressor.NameNone {
		s.Zero(env.Flags)
	} else {
		s.Equal(compressionFlags[s.compressor], env.Flags)
		s.Less(len(data), 4096)
	}

	got, err := s.codec.Unmarshal(data)
	s.Require().NoError(err)
	s.Equal(in, got)
}

func TestCodec(t *testing.T) {
	for _, name := range []string{compressor.NameNone, compressor.NameZstd, compressor.NameLZ4} {
		t.Run(name, func(t *testing.T) {
			suite.Run(t, &CodecSuite{compressor: name})
		})
	}
}

func TestMinCompressSize(t *testing.T) {
	c, err := New(Options{Compressor: compressor.NewLZ4Compressor(), MinCompressSize: 1 << 20})
	require.NoError(t, err)
	data, err := c.Marshal(strings.Repeat("z", 4096))
	require.NoError(t, err)

	var env envelope
	require.NoError(t, decMode.Unmarshal(data, &env))
	assert.Zero(t, env.Flags)

	_, err = New(Options{MinCompressSize: -1})
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
}

func TestDecodeOtherCompressor(t *testing.T) {
	zc, err := compressor.NewZstdCompressor()
	require.NoError(t, err)
	defer zc.Close()
	writer, err := New(Options{Compressor: zc})
	require.NoError(t, err)
	data, err := writer.Marshal(bytes.Repeat([]byte{7}, 8192))
	require.NoError(t, err)

	reader, err := New(Options{Compressor: compressor.NewLZ4Compressor()})
	require.NoError(t, err)
	got, err := reader.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{7}, 8192), got)
}

func TestUnknownType(t *testing.T) {
	writer, err := New(Options{})
	require.NoError(t, err)
	data, err := writer.Marshal(line{SKU: "x", Qty: 1})
	require.NoError(t, err)

	reader, err := New(Options{})
	require.NoError(t, err)
	_, err = reader.Unmarshal(data)
	assert.ErrorIs(t, err, merr.ErrBinaryTypeUnknown)

	reader.Types().Register(reflect.TypeOf(line{}))
	got, err := reader.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, line{SKU: "x", Qty: 1}, got)
}

func TestSharedTypeTable(t *testing.T) {
	types := NewTypeTable()
	a, err := New(Options{Types: types})
	require.NoError(t, err)
	b, err := New(Options{Types: types})
	require.NoError(t, err)

	data, err := a.Marshal(&line{SKU: "p"})
	require.NoError(t, err)
	got, err := b.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, &line{SKU: "p"}, got)
}

func TestCyclicGraph(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)

	loop := &node{Name: "a"}
	loop.Next = &node{Name: "b", Next: loop}
	_, err = c.Marshal(loop)
	assert.ErrorIs(t, err, merr.ErrBinaryCyclicGraph)

	m := map[string]any{}
	m["self"] = m
	_, err = c.Marshal(m)
	assert.ErrorIs(t, err, merr.ErrBinaryCyclicGraph)

	shared := &line{SKU: "shared"}
	dag := []*line{shared, shared}
	_, err = c.Marshal(dag)
	assert.NoError(t, err)
}

func TestInvalidInput(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)

	_, err = c.Marshal(nil)
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)

	_, err = c.Unmarshal(nil)
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)

	_, err = c.Unmarshal([]byte{0xff, 0x00, 0x13})
	assert.ErrorIs(t, err, merr.ErrBinaryEnvelope)

	bad, err := encMode.Marshal(envelope{Type: "string", Format: FormatCBOR, Flags: flagCompressionMask, Payload: []byte{1}})
	require.NoError(t, err)
	_, err = c.Unmarshal(bad)
	assert.ErrorIs(t, err, merr.ErrBinaryEnvelope)

	corrupt, err := encMode.Marshal(envelope{Type: "string", Format: FormatCBOR, Flags: flagZstd, Payload: []byte("nope")})
	require.NoError(t, err)
	_, err = c.Unmarshal(corrupt)
	assert.ErrorIs(t, err, merr.ErrBinaryDecompress)

	mismatch, err := encMode.Marshal(envelope{Type: "int", Format: FormatCBOR, Payload: []byte{0x63, 'a', 'b', 'c'}})
	require.NoError(t, err)
	_, err = c.Unmarshal(mismatch)
	assert.ErrorIs(t, err, merr.ErrSerializationFormat)
}

func TestSameNameDistinctTypes(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)

	makeFirst := func() any {
		type point struct{ X int }
		return point{X: 7}
	}
	makeSecond := func() any {
		type point struct{ Name string }
		return point{Name: "b"}
	}
	first, second := makeFirst(), makeSecond()
	require.Equal(t, TypeName(reflect.TypeOf(first)), TypeName(reflect.TypeOf(second)))

	for _, in := range []any{first, second, first} {
		data, err := c.Marshal(in)
		require.NoError(t, err)
		out, err := c.Unmarshal(data)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}

	firstName := c.Types().Register(reflect.TypeOf(first))
	secondName := c.Types().Register(reflect.TypeOf(second))
	assert.NotEqual(t, firstName, secondName)
	assert.Equal(t, firstName+"#2", secondName)
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "string", TypeName(reflect.TypeOf("")))
	assert.Equal(t, "[]uint8", TypeName(reflect.TypeOf([]byte(nil))))
	assert.Equal(t, "github.com/lk2023060901/serdekit/internal/codec/binary.line", TypeName(reflect.TypeOf(line{})))
	assert.Equal(t, "*github.com/lk2023060901/serdekit/internal/codec/binary.line", TypeName(reflect.TypeOf(&line{})))
	assert.Equal(t, "time.Time", TypeName(reflect.TypeOf(time.Time{})))
}
