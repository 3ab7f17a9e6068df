package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v2"

	"housecast/db"
	qhttp "housecast/http"
	"housecast/monitoring"
	"housecast/serving"
)

type Config struct {
	Http struct {
		Port           int      `yaml:"port"`
		Timeout        string   `yaml:"timeout"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"http"`
	Log struct {
		Level      string `yaml:"level"`
		Path       string `yaml:"path"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
	} `yaml:"log"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	ML struct {
		ModelType  string `yaml:"model_type"`
		ModelPath  string `yaml:"model_path"`
		SchemaPath string `yaml:"schema_path"`
		CacheSize  int    `yaml:"cache_size"`
	} `yaml:"ml"`
}

func main() {
	// 1. Load config
	config, err := loadConfig("config.yaml")
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := newLogger(config)
	defer logger.Sync()

	// 2. Initialize audit database
	if err := db.InitDB(config.Database.Path); err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("database initialized", zap.String("path", config.Database.Path))

	// 3. Load model artifacts. A failed load keeps the process up serving
	// not-ready responses so the condition can be inspected.
	ctx := serving.NewContext(logger)
	if err := ctx.Load(serving.Config{
		ModelType:  config.ML.ModelType,
		ModelPath:  config.ML.ModelPath,
		SchemaPath: config.ML.SchemaPath,
		CacheSize:  config.ML.CacheSize,
	}); err != nil {
		logger.Warn("serving degraded until restart", zap.Error(err))
	}

	// 4. Start monitoring hub and HTTP server
	hub := monitoring.NewHub(logger)
	go hub.Start()

	var timeout time.Duration
	if config.Http.Timeout != "" {
		if timeout, err = time.ParseDuration(config.Http.Timeout); err != nil {
			logger.Fatal("invalid http timeout", zap.String("timeout", config.Http.Timeout))
		}
	}

	api := qhttp.NewAPI(ctx, hub, logger)
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           config.Http.Port,
		Timeout:        timeout,
		AllowedOrigins: config.Http.AllowedOrigins,
	}, api, logger)

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 5. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	hub.Stop()

	logger.Info("exiting")
}

func loadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func newLogger(config *Config) *zap.Logger {
	level := zapcore.InfoLevel
	if config.Log.Level != "" {
		if parsed, err := zapcore.ParseLevel(config.Log.Level); err == nil {
			level = parsed
		}
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	sink := zapcore.AddSync(os.Stdout)
	if config.Log.Path != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   config.Log.Path,
			MaxSize:    config.Log.MaxSizeMB,
			MaxBackups: config.Log.MaxBackups,
		})
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), sink, level)
	return zap.New(core)
}
