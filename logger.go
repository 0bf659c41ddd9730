package main

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFileConfig はファイル出力とローテーションの設定です。
type LogFileConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	Compress   bool   `yaml:"compress"`
}

// DefaultLogFileConfig は標準のローテーション設定を返します。
func DefaultLogFileConfig(path string) LogFileConfig {
	return LogFileConfig{
		Path:       path,
		MaxSizeMB:  20,
		MaxBackups: 3,
		MaxAgeDays: 7,
		Compress:   true,
	}
}

// NewLogger はコンソールと（設定されていれば）ローテーション付きファイルに
// 書き出す SugaredLogger を構築します。
func NewLogger(level string, fileCfg LogFileConfig, consoleOutput bool) *zap.SugaredLogger {
	lvl := parseLogLevel(level)

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		EncodeTime:       zapcore.TimeEncoderOfLayout("15:04:05"),
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		ConsoleSeparator: " ",
	}

	var cores []zapcore.Core
	if consoleOutput {
		consoleEncoderCfg := encoderCfg
		consoleEncoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleEncoderCfg),
			zapcore.AddSync(os.Stdout),
			lvl,
		))
	}

	if fileCfg.Path != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   fileCfg.Path,
			MaxSize:    fileCfg.MaxSizeMB,
			MaxBackups: fileCfg.MaxBackups,
			MaxAge:     fileCfg.MaxAgeDays,
			Compress:   fileCfg.Compress,
			LocalTime:  true,
		}
		fileEncoderCfg := encoderCfg
		fileEncoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(fileEncoderCfg),
			zapcore.AddSync(fileWriter),
			lvl,
		))
	}

	if len(cores) == 0 {
		return zap.NewNop().Sugar()
	}
	return zap.New(zapcore.NewTee(cores...)).Sugar()
}

// NewTestLogger はテスト用の出力を捨てるロガーを返します。
func NewTestLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func parseLogLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
