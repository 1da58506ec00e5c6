// Package logging configures the process wide logrus logger.
package logging

import (
	"io"
	"io/ioutil"
	"os"

	"github.com/ifeco/ble-telemetry/pkg/config"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup applies cfg to the standard logrus logger. When cfg.File is set the
// output also goes to a rotating file, and the returned closer releases it.
func Setup(cfg config.LogConfig) (io.Closer, error) {
	return setup(log.StandardLogger(), cfg, os.Stderr)
}

func setup(logger *log.Logger, cfg config.LogConfig, console io.Writer) (io.Closer, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, errors.Wrap(err, "log level issue")
	}
	logger.SetLevel(level)
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if cfg.File == "" {
		logger.SetOutput(console)
		return nopCloser{}, nil
	}
	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}
	if console == nil {
		console = ioutil.Discard
	}
	logger.SetOutput(io.MultiWriter(console, file))
	return file, nil
}
