// Package logging builds the operational logger: stdout mirrored into one file per calendar day.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// DefaultDir log directory used when none is configured.
	DefaultDir = "logs"
	timeLayout = "15:04:05"
	dayLayout  = "2006-01-02"
)

// EncoderConfig renders lines as "HH:MM:SS: message" followed by structured fields.
func EncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout(timeLayout),
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: ": ",
	}
}

// New returns a logger writing to stdout and to dir/YYYY-MM-DD.txt.
// The returned closer flushes and closes the day file.
func New(dir string, level zapcore.Level) (*zap.Logger, func() error, error) {
	daily, err := NewDailyFile(dir)
	if err != nil {
		return nil, nil, err
	}

	enc := EncoderConfig()
	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stdout), level),
		zapcore.NewCore(zapcore.NewConsoleEncoder(enc), daily, level),
	)

	logger := zap.New(core)
	closer := func() error {
		_ = logger.Sync()
		return daily.Close()
	}

	return logger, closer, nil
}

// DailyFile zapcore.WriteSyncer that switches to a new file when the local date changes.
type DailyFile struct {
	dir string
	now func() time.Time

	mu   sync.Mutex
	day  string
	file *os.File
}

// NewDailyFile creates the sink in dir.
func NewDailyFile(dir string) (*DailyFile, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create log dir")
	}

	return &DailyFile{dir: dir, now: time.Now}, nil
}

// Path file for the given day.
func (d *DailyFile) Path(day time.Time) string {
	return filepath.Join(d.dir, fmt.Sprintf("%s.txt", day.Format(dayLayout)))
}

// Write appends p to the current day file.
func (d *DailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.rotate(); err != nil {
		return 0, err
	}

	return d.file.Write(p)
}

// Sync flushes the current day file.
func (d *DailyFile) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return nil
	}
	return d.file.Sync()
}

// Close closes the current day file.
func (d *DailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	d.day = ""
	return err
}

func (d *DailyFile) rotate() error {
	now := d.now()
	day := now.Format(dayLayout)
	if d.file != nil && d.day == day {
		return nil
	}

	if d.file != nil {
		_ = d.file.Close()
	}

	f, err := os.OpenFile(d.Path(now), os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		d.file = nil
		return errors.Wrap(err, "open log file")
	}

	d.file = f
	d.day = day
	return nil
}
