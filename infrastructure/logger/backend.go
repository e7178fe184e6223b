package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync/atomic"

	"github.com/jrick/logrotate/rotator"
	"github.com/pkg/errors"
)

const (
	normalLogSize = 512

	// entriesBuffer is the number of log lines a Backend queues before
	// logging callers start to block.
	entriesBuffer = 256

	logFlagsEnvVar = "LOGFLAGS"
)

// Flags to modify Backend's behavior.
const (
	// LogFlagLongFile adds the full path and line number of the logging
	// callsite to every line, e.g. /a/b/c/tree.go:123.
	LogFlagLongFile uint32 = 1 << iota

	// LogFlagShortFile adds the file name and line number of the logging
	// callsite to every line, e.g. tree.go:123. It takes precedence over
	// LogFlagLongFile.
	LogFlagShortFile
)

// flagsFromEnv reads the comma separated LOGFLAGS environment variable.
func flagsFromEnv() uint32 {
	var flags uint32
	for _, name := range strings.Split(os.Getenv(logFlagsEnvVar), ",") {
		switch strings.TrimSpace(name) {
		case "longfile":
			flags |= LogFlagLongFile
		case "shortfile":
			flags |= LogFlagShortFile
		}
	}
	return flags
}

// RotationConfig controls when a log file is rotated and how many rotated
// files are kept.
type RotationConfig struct {
	ThresholdKB int64
	MaxRolls    int
}

// DefaultRotation rotates log files every 100 MB and keeps the last 8.
var DefaultRotation = RotationConfig{ThresholdKB: 100 * 1000, MaxRolls: 8}

// Validate checks that c describes a usable rotation.
func (c RotationConfig) Validate() error {
	if c.ThresholdKB <= 0 {
		return errors.Errorf("log rotation threshold must be positive, got %d KB", c.ThresholdKB)
	}
	if c.MaxRolls <= 0 {
		return errors.Errorf("the number of kept log files must be positive, got %d", c.MaxRolls)
	}
	return nil
}

// sink is a destination of log lines at or above minLevel.
type sink struct {
	io.WriteCloser
	minLevel Level
}

// Backend serializes the log lines of all its subsystem loggers onto its
// sinks from a single goroutine.
type Backend struct {
	flag    uint32
	running uint32 // atomic
	sinks   []sink
	entries chan logEntry
	done    chan struct{}
}

// NewBackendWithFlags returns a Backend using flags instead of the ones read
// from the LOGFLAGS environment variable.
func NewBackendWithFlags(flags uint32) *Backend {
	return &Backend{
		flag:    flags,
		entries: make(chan logEntry, entriesBuffer),
		done:    make(chan struct{}),
	}
}

// NewBackend returns a Backend configured through the LOGFLAGS environment
// variable.
func NewBackend() *Backend {
	return NewBackendWithFlags(flagsFromEnv())
}

// AddLogWriter makes the backend write lines at or above minLevel to writer.
// Sinks can only be added before Run.
func (b *Backend) AddLogWriter(writer io.WriteCloser, minLevel Level) error {
	if b.IsRunning() {
		return errors.New("can't add a log writer to a running backend")
	}
	b.sinks = append(b.sinks, sink{WriteCloser: writer, minLevel: minLevel})
	return nil
}

// AddLogFile makes the backend write lines at or above minLevel to logFile,
// rotated according to rotation. The file and its directory are created if
// needed.
func (b *Backend) AddLogFile(logFile string, minLevel Level, rotation RotationConfig) error {
	err := rotation.Validate()
	if err != nil {
		return err
	}
	if logDir := filepath.Dir(logFile); logDir != "." {
		err := os.MkdirAll(logDir, 0700)
		if err != nil {
			return errors.Wrapf(err, "failed to create log directory %s", logDir)
		}
	}
	fileRotator, err := rotator.New(logFile, rotation.ThresholdKB, false, rotation.MaxRolls)
	if err != nil {
		return errors.Wrapf(err, "failed to create a rotator for %s", logFile)
	}
	return b.AddLogWriter(fileRotator, minLevel)
}

// Run starts writing queued lines to the sinks. It may only be called once.
func (b *Backend) Run() error {
	if !atomic.CompareAndSwapUint32(&b.running, 0, 1) {
		return errors.New("the logger is already running")
	}
	go func() {
		defer close(b.done)
		defer func() {
			if err := recover(); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "Fatal error in the logging backend: %+v\n%s", err, debug.Stack())
			}
		}()
		for entry := range b.entries {
			for _, s := range b.sinks {
				if entry.level >= s.minLevel {
					_, _ = s.Write(entry.log)
				}
			}
		}
	}()
	return nil
}

// IsRunning returns true once Run was called, until Close.
func (b *Backend) IsRunning() bool {
	return atomic.LoadUint32(&b.running) != 0
}

// Close flushes the queued lines and closes every sink.
func (b *Backend) Close() {
	if !atomic.CompareAndSwapUint32(&b.running, 1, 0) {
		return
	}
	close(b.entries)
	<-b.done
	for _, s := range b.sinks {
		_ = s.Close()
	}
}

// Logger returns the logger of the subsystem tag writing to b. The logger is
// off until SetLevel is called.
func (b *Backend) Logger(tag string) *Logger {
	return &Logger{level: LevelOff, tag: tag, b: b}
}
