package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes logger runtime configuration.
type Config struct {
	Level       string         `mapstructure:"level"`
	Format      string         `mapstructure:"format"`
	TimeFormat  string         `mapstructure:"time_format"`
	Caller      bool           `mapstructure:"caller"`
	PrettyPrint bool           `mapstructure:"pretty"`
	File        FileConfig     `mapstructure:"file"`
	Postgres    PostgresConfig `mapstructure:"postgres"`
}

// FileConfig describes the rotating file sink.
type FileConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// PostgresConfig describes the durable log sink.
type PostgresConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
	Project string `mapstructure:"project"`
}

// NewLogger constructs a zerolog logger fanned out to every enabled sink.
// The returned closer flushes and releases sink resources.
func NewLogger(cfg Config) (zerolog.Logger, func(), error) {
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	}

	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level)); err == nil {
		level = parsed
	}

	writers := []io.Writer{consoleWriter(cfg)}
	closers := []func(){}

	if cfg.File.Enabled {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
		}
		writers = append(writers, rotator)
		closers = append(closers, func() { _ = rotator.Close() })
	}

	if cfg.Postgres.Enabled {
		pg, err := NewPostgresWriter(cfg.Postgres)
		if err != nil {
			return zerolog.Nop(), nil, err
		}
		writers = append(writers, pg)
		closers = append(closers, pg.Close)
	}

	logger := zerolog.New(Fanout(writers...)).Level(level)
	builder := logger.With().Timestamp()
	if cfg.Caller {
		builder = builder.Caller()
	}

	closer := func() {
		for _, c := range closers {
			c()
		}
	}
	return builder.Logger(), closer, nil
}

func consoleWriter(cfg Config) io.Writer {
	if cfg.PrettyPrint || strings.EqualFold(cfg.Format, "console") {
		return zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: zerolog.TimeFieldFormat,
		}
	}
	return os.Stdout
}

type fanoutWriter struct {
	writers []io.Writer
}

// Fanout returns a writer that copies each record to every destination.
// A failing destination is skipped so the others still receive the record.
func Fanout(writers ...io.Writer) io.Writer {
	return fanoutWriter{writers: writers}
}

func (f fanoutWriter) Write(p []byte) (int, error) {
	for _, w := range f.writers {
		_, _ = w.Write(p)
	}
	return len(p), nil
}
