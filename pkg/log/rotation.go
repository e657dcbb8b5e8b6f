// Size-based log file rotation for the service.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package log

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	// Filename is the path to the log file.
	Filename string

	// MaxSize is the size in megabytes that triggers a rotation.
	// Default is 10 MB.
	MaxSize int

	// MaxBackups is the number of rotated files kept. Default is 5.
	MaxBackups int

	// Compress gzips rotated files.
	Compress bool
}

// RotatingFileWriter is an io.Writer that rolls the file over once it
// would grow past MaxSize. Backups are named file.1, file.2, ... with .1
// the newest.
type RotatingFileWriter struct {
	mu       sync.Mutex
	cfg      RotationConfig
	maxBytes int64
	size     int64
	file     *os.File
}

// NewRotatingFileWriter opens (or appends to) the log file.
func NewRotatingFileWriter(config RotationConfig) (*RotatingFileWriter, error) {
	if config.Filename == "" {
		return nil, fmt.Errorf("filename is required")
	}
	if config.MaxSize <= 0 {
		config.MaxSize = 10
	}
	if config.MaxBackups <= 0 {
		config.MaxBackups = 5
	}

	w := &RotatingFileWriter{
		cfg:      config,
		maxBytes: int64(config.MaxSize) * 1024 * 1024,
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *RotatingFileWriter) open() error {
	if err := os.MkdirAll(filepath.Dir(w.cfg.Filename), 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(w.cfg.Filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	w.file = f
	w.size = info.Size()
	return nil
}

// Write implements io.Writer.
func (w *RotatingFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.size > 0 && w.size+int64(len(p)) > w.maxBytes {
		if err := w.rotate(); err != nil {
			return 0, fmt.Errorf("rotate log file: %w", err)
		}
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

// backupName returns the path of backup number n.
func (w *RotatingFileWriter) backupName(n int) string {
	name := fmt.Sprintf("%s.%d", w.cfg.Filename, n)
	if w.cfg.Compress {
		name += ".gz"
	}
	return name
}

// rotate shifts every backup up by one, dropping the oldest, and moves the
// live file into slot 1.
func (w *RotatingFileWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close current file: %w", err)
	}

	os.Remove(w.backupName(w.cfg.MaxBackups))
	for n := w.cfg.MaxBackups - 1; n >= 1; n-- {
		if _, err := os.Stat(w.backupName(n)); err == nil {
			os.Rename(w.backupName(n), w.backupName(n+1))
		}
	}

	var err error
	if w.cfg.Compress {
		err = gzipFile(w.cfg.Filename, w.backupName(1))
	} else {
		err = os.Rename(w.cfg.Filename, w.backupName(1))
	}
	if err != nil {
		w.open()
		return err
	}
	return w.open()
}

// gzipFile compresses src into dst and removes src.
func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		gz.Close()
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := gz.Close(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	in.Close()
	return os.Remove(src)
}

// Close closes the rotating file writer.
func (w *RotatingFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}

// CurrentSize returns the size of the live file.
func (w *RotatingFileWriter) CurrentSize() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Options configures the default logger for a command.
type Options struct {
	Level   string
	Format  string
	LogFile string
	Quiet   bool // suppress the console copy when LogFile is set
}

// Setup applies opts to the default logger. Environment variables are
// applied first so flags override them. The returned closer releases the
// log file, if any.
func Setup(opts Options) (io.Closer, error) {
	root := Default()
	ConfigureFromEnv(root)
	if opts.Level != "" {
		root.SetLevel(ParseLevel(opts.Level))
	}
	if opts.Format != "" {
		root.SetFormat(ParseFormat(opts.Format))
	}
	if opts.LogFile == "" {
		return nopCloser{}, nil
	}

	fw, err := NewRotatingFileWriter(RotationConfig{Filename: opts.LogFile})
	if err != nil {
		return nil, err
	}
	if opts.Quiet {
		root.SetWriter(fw)
	} else {
		root.SetWriter(io.MultiWriter(os.Stderr, fw))
	}
	return fw, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
