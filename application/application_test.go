package application

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/serdekit/pkg/serialization"
)

type point struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
}

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun(t *testing.T) {
	path := writeConfig(t, `
logging:
  serialization:
    level: warn
serialization:
  structural: yaml
  binary:
    compression: lz4
`)
	t.Setenv("SERDE_CONFIG_FILE_PATH", path)
	t.Setenv("SERDE_LOG_ENABLE", "false")

	app := New()
	require.NoError(t, app.Run())
	defer app.Close()

	assert.True(t, app.Config().IsSet("serialization.structural"))
	assert.NotNil(t, app.Logger("serialization"))
	assert.NotNil(t, app.Logger("unknown"))

	m := app.Serialization()
	assert.NotSame(t, serialization.Default(), m)

	text, err := m.SerializeToText(point{X: 1, Y: 2})
	require.NoError(t, err)
	assert.Equal(t, "x: 1\ny: 2", text)

	data, err := m.SerializeToBinary(point{X: 3, Y: 4})
	require.NoError(t, err)
	v, err := m.DeserializeFromBinary(data)
	require.NoError(t, err)
	assert.Equal(t, point{X: 3, Y: 4}, v)
}

func TestRunDefaults(t *testing.T) {
	t.Setenv("SERDE_CONFIG_FILE_PATH", writeConfig(t, "other: 1\n"))

	app := New()
	require.NoError(t, app.Run())
	defer app.Close()

	text, err := app.Serialization().SerializeToText(point{X: 1})
	require.NoError(t, err)
	assert.Equal(t, `{"x":1,"y":0}`, text)
}

func TestRunInvalidConfig(t *testing.T) {
	t.Setenv("SERDE_CONFIG_FILE_PATH", writeConfig(t, "serialization:\n  structural: ini\n"))
	assert.Error(t, New().Run())

	t.Setenv("SERDE_CONFIG_FILE_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, New().Run())
}

func TestSerializationBeforeRun(t *testing.T) {
	assert.Same(t, serialization.Default(), New().Serialization())
}
