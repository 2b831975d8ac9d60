// Package logging provides debug logging and log file setup for gbbsmsgtool.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// DebugEnabled controls whether Debug() produces output.
// Set via --debug flag or DEBUG=1 environment variable.
var DebugEnabled bool

// Debug logs a message only when DebugEnabled is true.
func Debug(format string, args ...any) {
	if DebugEnabled {
		log.Printf("DEBUG: "+format, args...)
	}
}

// Rotation holds log file rotation limits.
type Rotation struct {
	MaxSizeMB  int  `json:"max_size_mb" yaml:"max_size_mb"`
	MaxAgeDays int  `json:"max_age_days" yaml:"max_age_days"`
	MaxBackups int  `json:"max_backups" yaml:"max_backups"`
	Compress   bool `json:"compress" yaml:"compress"`
}

// ToFile copies log output to a rotated file in addition to stderr. The
// returned closer releases the file.
func ToFile(path string, r Rotation) io.Closer {
	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    r.MaxSizeMB,
		MaxAge:     r.MaxAgeDays,
		MaxBackups: r.MaxBackups,
		Compress:   r.Compress,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	return rotator
}
