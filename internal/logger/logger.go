package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"contribflow/internal/config"
)

var (
	appLogger = logrus.New()
	initOnce  sync.Once
)

// Init настраивает общий логгер приложения: уровень, формат, вывод и ротацию файлов
func Init(cfg config.LogConfig) error {
	var initErr error
	initOnce.Do(func() {
		initErr = configure(appLogger, cfg)
	})
	return initErr
}

func configure(l *logrus.Logger, cfg config.LogConfig) error {
	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
	}

	var writers []io.Writer
	if cfg.Output == "file" || cfg.Output == "both" {
		if err := os.MkdirAll(cfg.Path, 0755); err != nil {
			return fmt.Errorf("failed to create logs directory: %w", err)
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Path, "app.log"),
			MaxSize:    cfg.MaxSize, // MB
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   true,
		})
	}
	if cfg.Output == "" || cfg.Output == "stdout" || cfg.Output == "both" {
		writers = append(writers, os.Stdout)
	}
	l.SetOutput(io.MultiWriter(writers...))

	return nil
}

// Get возвращает логгер приложения
func Get() *logrus.Logger {
	return appLogger
}

// WithComponent возвращает запись логгера с именем компонента
func WithComponent(component string) *logrus.Entry {
	return appLogger.WithField("component", component)
}

// WithFields - сокращение для logrus.Fields
func WithFields(fields map[string]interface{}) *logrus.Entry {
	return appLogger.WithFields(logrus.Fields(fields))
}
