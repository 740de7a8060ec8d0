// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/estatehub/backoffice/internal/config"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup applies level, format and output to the standard logrus logger. The
// returned closer flushes the rotating log file, if any.
func Setup(cfg config.LogConfig) (io.Closer, error) {
	level, errLevel := log.ParseLevel(strings.TrimSpace(cfg.Level))
	if errLevel != nil {
		return nil, fmt.Errorf("logging: %w", errLevel)
	}
	log.SetLevel(level)

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("logging: unknown format %q", cfg.Format)
	}

	if strings.TrimSpace(cfg.File) == "" {
		log.SetOutput(os.Stdout)
		return nopCloser{}, nil
	}

	if errMkdir := os.MkdirAll(filepath.Dir(cfg.File), 0o755); errMkdir != nil {
		return nil, fmt.Errorf("logging: create log dir: %w", errMkdir)
	}
	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, file))
	log.Debugf("created rotating log file %q with max size %d MB and max backups %d", file.Filename, file.MaxSize, file.MaxBackups)
	return file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
