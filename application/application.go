package application

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	zlog "github.com/lk2023060901/serdekit/pkg/log"
	"github.com/lk2023060901/serdekit/pkg/metrics"
	"github.com/lk2023060901/serdekit/pkg/serialization"
	zviper "github.com/lk2023060901/serdekit/pkg/util/viper"
)

// Application is the runtime container for a process using serdekit.
// It owns configuration, loggers and the serialization manager.
type Application struct {
	cfg     *zviper.Config
	loggers map[string]*zlog.MLogger
	manager *serialization.Manager
}

// New creates a new Application instance.
func New() *Application {
	return &Application{}
}

// Run loads configuration, initializes logging and builds the serialization manager.
// The config file path is resolved with the following priority:
//  1. Default: ./config.yaml
//  2. Env: SERDE_CONFIG_FILE_PATH
//  3. CLI: --config <path> or --config=<path>
func (a *Application) Run() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := a.initLogging(); err != nil {
		return err
	}
	return a.initSerialization()
}

// Close releases resources held by the serialization manager and flushes logs.
func (a *Application) Close() error {
	var err error
	if a.manager != nil {
		err = a.manager.Close()
	}
	_ = zlog.Sync()
	return err
}

// Config returns the loaded configuration, if any.
func (a *Application) Config() *zviper.Config {
	return a.cfg
}

// Serialization returns the manager built from the "serialization" section.
// Before Run it returns the process-wide default manager.
func (a *Application) Serialization() *serialization.Manager {
	if a.manager == nil {
		return serialization.Default()
	}
	return a.manager
}

// Logger returns a named logger created from configuration.
// If the name is unknown, it falls back to the global logger.
func (a *Application) Logger(name string) *zlog.MLogger {
	if a.loggers == nil {
		return &zlog.MLogger{Logger: zlog.L()}
	}
	if lg, ok := a.loggers[name]; ok && lg != nil {
		return lg
	}
	return &zlog.MLogger{Logger: zlog.L()}
}

// loadConfig resolves config file path and loads it via viper wrapper.
func (a *Application) loadConfig() (*zviper.Config, error) {
	configPath := "./config.yaml"

	if envPath := os.Getenv("SERDE_CONFIG_FILE_PATH"); envPath != "" {
		configPath = envPath
	}

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--config" {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value after --config")
			}
			configPath = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--config=") {
			val := strings.TrimPrefix(arg, "--config=")
			if val != "" {
				configPath = val
			}
			continue
		}
	}

	cfg := zviper.New()
	if err := cfg.LoadFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file %q: %w", configPath, err)
	}

	return cfg, nil
}

// initLogging initializes global and module-level loggers.
func (a *Application) initLogging() error {
	if err := a.initGlobalLoggerFromEnv(); err != nil {
		return err
	}
	if err := a.initModuleLoggersFromConfig(); err != nil {
		return err
	}
	return nil
}

// initGlobalLoggerFromEnv configures the process-wide logger based on SERDE_LOG_* env vars.
//
//   - SERDE_LOG_ENABLE: "1"/"true" to enable outputs; others treated as disabled.
//   - SERDE_LOG_LEVEL: log level (default "info").
//   - SERDE_LOG_STDOUT: whether to log to stdout (default false).
//   - SERDE_LOG_FILE_DIR: log directory.
//   - SERDE_LOG_FILE: log file name (empty means no file).
//   - SERDE_LOG_FORMAT: log format ("text" or "json", default "text").
func (a *Application) initGlobalLoggerFromEnv() error {
	enabled := getenvBool("SERDE_LOG_ENABLE", false)

	cfg := &zlog.Config{
		Level:  getenvDefault("SERDE_LOG_LEVEL", "info"),
		Format: getenvDefault("SERDE_LOG_FORMAT", "text"),
		Stdout: getenvBool("SERDE_LOG_STDOUT", false),
		File: zlog.FileLogConfig{
			RootPath: getenvDefault("SERDE_LOG_FILE_DIR", ""),
			Filename: getenvDefault("SERDE_LOG_FILE", ""),
		},
	}

	// When not enabled, direct all outputs to a discarded sink.
	if !enabled {
		cfg.Stdout = false
		cfg.File.Filename = ""
	}

	logger, props, err := zlog.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("init global logger from env: %w", err)
	}
	zlog.ReplaceGlobals(logger, props)
	return nil
}

// initModuleLoggersFromConfig creates named loggers from the "logging" section.
//
// Example:
//
//	logging:
//	  serialization:
//	    level: debug
//	    stdout: true
//	    file:
//	      rootpath: ./logs
//	      filename: serde.log
func (a *Application) initModuleLoggersFromConfig() error {
	if a.cfg == nil {
		return nil
	}

	raw := make(map[string]zlog.Config)
	if err := a.cfg.UnmarshalKey("logging", &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}

	a.loggers = make(map[string]*zlog.MLogger, len(raw))
	for name, lc := range raw {
		cfgCopy := lc
		logger, _, err := zlog.InitLogger(&cfgCopy)
		if err != nil {
			return fmt.Errorf("init module logger %q: %w", name, err)
		}
		a.loggers[name] = &zlog.MLogger{Logger: logger}
	}

	return nil
}

// initSerialization builds the manager from the "serialization" section.
// Missing keys keep the values of serialization.DefaultConfig.
func (a *Application) initSerialization() error {
	cfg := serialization.DefaultConfig()
	if a.cfg != nil && a.cfg.IsSet("serialization") {
		if err := a.cfg.UnmarshalKey("serialization", &cfg); err != nil {
			return fmt.Errorf("decode serialization config: %w", err)
		}
	}
	if a.cfg != nil && a.cfg.IsSet("metrics.enable") {
		var enable bool
		if err := a.cfg.UnmarshalKey("metrics.enable", &enable); err != nil {
			return fmt.Errorf("decode metrics config: %w", err)
		}
		if enable {
			metrics.Register(metrics.GetRegisterer())
		}
	}

	m, err := serialization.NewFromConfig(cfg, nil)
	if err != nil {
		return fmt.Errorf("init serialization manager: %w", err)
	}
	if lg, ok := a.loggers["serialization"]; ok {
		m.SetLogger(lg.With(zlog.FieldModule("serialization"), zap.String("structural", cfg.Structural)))
	}
	a.manager = m
	return nil
}

func getenvDefault(key, def string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	return val
}

func getenvBool(key string, def bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
