package serialization

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/serdekit/internal/codec/structural"
	"github.com/lk2023060901/serdekit/pkg/util/merr"
)

func newFileManager(t *testing.T, codec string) *Manager {
	cfg := DefaultConfig()
	cfg.Structural = codec
	m, err := NewFromConfig(cfg, NewBuiltinRegistry())
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestFileRoundTrip(t *testing.T) {
	in := profile{Name: "grace", Age: 85, Emails: []string{"grace@example.com", "hopper@example.com"}}
	for _, name := range structural.Names() {
		t.Run(name, func(t *testing.T) {
			m := newFileManager(t, name)
			path := filepath.Join(t.TempDir(), "profile."+name)

			require.NoError(t, m.SerializeToFile(in, path))
			v, err := m.DeserializeFromFile(path, reflect.TypeFor[profile]())
			require.NoError(t, err)
			assert.Equal(t, in, v)

			out, found, err := FromFile[profile](m, path)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, in, out)
		})
	}
}

func TestFileTruncate(t *testing.T) {
	m := newFileManager(t, structural.NameJSON)
	path := filepath.Join(t.TempDir(), "profile.json")

	long := profile{Name: "a-rather-long-name-that-takes-space", Emails: []string{"x@example.com", "y@example.com"}}
	require.NoError(t, m.SerializeToFile(long, path))
	short := profile{Name: "z"}
	require.NoError(t, m.SerializeToFile(short, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "rather-long")

	v, err := m.DeserializeFromFile(path, reflect.TypeFor[profile]())
	require.NoError(t, err)
	assert.Equal(t, short, v)
}

func TestFileMissing(t *testing.T) {
	m := newFileManager(t, structural.NameYAML)
	path := filepath.Join(t.TempDir(), "absent.yaml")

	v, err := m.DeserializeFromFile(path, reflect.TypeFor[profile]())
	assert.NoError(t, err)
	assert.Nil(t, v)

	assert.Nil(t, m.TryDeserializeFromFile(path, reflect.TypeFor[profile]()))

	_, found, err := FromFile[profile](m, path)
	assert.NoError(t, err)
	assert.False(t, found)

	var dst profile
	found, err = m.DeserializeFileInto(path, &dst)
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestFileIoFailure(t *testing.T) {
	m := newFileManager(t, structural.NameJSON)
	path := filepath.Join(t.TempDir(), "no-such-dir", "profile.json")

	err := m.SerializeToFile(profile{Name: "x"}, path)
	assert.ErrorIs(t, err, merr.ErrIoFailed)
	assert.True(t, merr.IsIoError(err))
	assert.False(t, m.TrySerializeToFile(profile{Name: "x"}, path))

	err = m.SerializeToFile(nil, filepath.Join(t.TempDir(), "nil.json"))
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
}

func TestFileCorrupt(t *testing.T) {
	m := newFileManager(t, structural.NameJSON)
	path := filepath.Join(t.TempDir(), "corrupt.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name": `), 0o644))

	_, err := m.DeserializeFromFile(path, reflect.TypeFor[profile]())
	assert.ErrorIs(t, err, merr.ErrSerializationFormat)
	assert.True(t, merr.IsFormatError(err))

	assert.Nil(t, m.TryDeserializeFromFile(path, reflect.TypeFor[profile]()))

	_, err = m.DeserializeFromFile(path, nil)
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
}

func TestDeserializeFileInto(t *testing.T) {
	m := newFileManager(t, structural.NameTOML)
	path := filepath.Join(t.TempDir(), "profile.toml")
	require.NoError(t, m.SerializeToFile(&profile{Name: "lin", Age: 7}, path))

	dst := profile{Emails: []string{"keep@example.com"}, Labels: map[string]string{"k": "v"}}
	found, err := m.DeserializeFileInto(path, &dst)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "lin", dst.Name)
	assert.Equal(t, 7, dst.Age)
	assert.Equal(t, map[string]string{"k": "v"}, dst.Labels)

	_, err = m.DeserializeFileInto(path, dst)
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
}
