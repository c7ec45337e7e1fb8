package log

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitLoggerLevel(t *testing.T) {
	lg, props, err := InitLogger(&Config{Level: "warn", Format: FormatJSON})
	require.NoError(t, err)
	require.NotNil(t, lg)
	assert.Equal(t, zapcore.WarnLevel, props.Level.Level())

	_, _, err = InitLogger(&Config{Level: "trace"})
	assert.NoError(t, err)

	_, _, err = InitLogger(&Config{Level: "loud"})
	assert.Error(t, err)
}

func TestInitLoggerFile(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{Level: "info", File: FileLogConfig{RootPath: dir, Filename: "serde.log"}}
	lg, _, err := InitLogger(cfg)
	require.NoError(t, err)
	lg.Info("file logger works", zap.String("k", "v"))
	require.NoError(t, lg.Sync())

	data, err := os.ReadFile(filepath.Join(dir, "serde.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "file logger works")
	assert.Equal(t, defaultLogMaxSize, cfg.File.MaxSize)
}

func TestInitLoggerWithWriteSyncer(t *testing.T) {
	var buf bytes.Buffer
	lg, props, err := InitLoggerWithWriteSyncer(&Config{Level: "info", Format: FormatJSON}, zapcore.AddSync(&buf))
	require.NoError(t, err)
	prevL, prevP := L(), _globalP.Load().(*ZapProperties)
	ReplaceGlobals(lg, props)
	defer ReplaceGlobals(prevL, prevP)

	S().Debugw("dropped", "k", 1)
	S().Infow("sugared entry", "type", "uuid")
	require.NoError(t, S().Sync())

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "sugared entry")
	assert.Contains(t, out, `"type":"uuid"`)
}

func TestInitFileLogRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	_, err := initFileLog(&FileLogConfig{RootPath: dir, Filename: "sub"})
	assert.Error(t, err)
}

func TestCtxFields(t *testing.T) {
	lg, props, err := InitTestLogger(t, &Config{Level: "debug"})
	require.NoError(t, err)
	prevL, prevP := L(), _globalP.Load().(*ZapProperties)
	ReplaceGlobals(lg, props)
	replaceLeveledLoggers(lg)
	defer func() {
		ReplaceGlobals(prevL, prevP)
		replaceLeveledLoggers(prevL)
	}()

	ctx := WithModule(context.Background(), "serialization")
	Ctx(ctx).Info("with module")
	//nolint:staticcheck
	Ctx(nil).Debug("nil ctx")
	Ctx(WithLevel(ctx, zapcore.ErrorLevel)).Info("suppressed")

	assert.Equal(t, zapcore.DebugLevel, GetLevel())
	SetLevel(zapcore.InfoLevel)
	assert.Equal(t, zapcore.InfoLevel, GetLevel())
}

func TestRateGroupShared(t *testing.T) {
	a := With(FieldComponent("a")).WithRateGroup("serde-test", 1, 1)
	b := With(FieldComponent("b")).WithRateGroup("serde-test", 1, 1)
	assert.Same(t, a.r(), b.r())

	assert.True(t, a.RatedInfo(1, "first"))
	assert.False(t, b.RatedWarn(1, "second"))

	c := With(FieldComponent("c"))
	assert.Equal(t, R(), c.r())
	assert.True(t, c.WithRateGroup("serde-test-other", 1, 1).RatedDebug(1, "other group"))
}

func TestBinder(t *testing.T) {
	var b Binder
	assert.NotNil(t, b.Logger())
	l := With(FieldType(nil))
	b.SetLogger(l)
	assert.Same(t, l, b.Logger())
}

func TestGetenv(t *testing.T) {
	t.Setenv("SERDE_LOG_TEST_BOOL", "on")
	t.Setenv("SERDE_LOG_TEST_FLOAT", "2.5")
	assert.True(t, getenvBool("SERDE_LOG_TEST_BOOL", false))
	assert.False(t, getenvBool("SERDE_LOG_TEST_MISSING", false))
	assert.Equal(t, 2.5, getenvFloat("SERDE_LOG_TEST_FLOAT", 1))
	assert.Equal(t, 1.0, getenvFloat("SERDE_LOG_TEST_MISSING", 1))
}
