package logger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// rotatingFileWriter 按天轮转的缓冲文件写入器
type rotatingFileWriter struct {
	basePath   string // 基础路径，如 logs/toast.log
	rotateDays int
	maxFiles   int
	bufferSize int

	mu         sync.Mutex
	file       *os.File
	writer     *bufio.Writer
	nextRotate time.Time
	now        func() time.Time
}

func newRotatingFileWriter(basePath string, rotateDays, maxFiles, bufferSize int) (*rotatingFileWriter, error) {
	w := &rotatingFileWriter{
		basePath:   basePath,
		rotateDays: rotateDays,
		maxFiles:   maxFiles,
		bufferSize: bufferSize,
		now:        time.Now,
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

// currentPath 当前日志文件路径，格式: toast-2026-01-08.log
func (w *rotatingFileWriter) currentPath() string {
	if w.rotateDays <= 0 {
		return w.basePath
	}
	dir, base, ext := w.split()
	return filepath.Join(dir, fmt.Sprintf("%s-%s%s", base, w.now().Format("2006-01-02"), ext))
}

func (w *rotatingFileWriter) split() (dir, base, ext string) {
	dir = filepath.Dir(w.basePath)
	ext = filepath.Ext(w.basePath)
	base = strings.TrimSuffix(filepath.Base(w.basePath), ext)
	return dir, base, ext
}

func (w *rotatingFileWriter) open() error {
	path := w.currentPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	w.file = file
	w.writer = bufio.NewWriterSize(file, w.bufferSize)
	w.nextRotate = time.Time{}
	if w.rotateDays > 0 {
		now := w.now()
		w.nextRotate = time.Date(now.Year(), now.Month(), now.Day()+w.rotateDays, 0, 0, 0, 0, now.Location())
	}
	return nil
}

// rotateIfNeeded 调用方需持有锁
func (w *rotatingFileWriter) rotateIfNeeded() error {
	if w.nextRotate.IsZero() || w.now().Before(w.nextRotate) {
		return nil
	}

	if err := w.writer.Flush(); err != nil {
		return err
	}
	if err := w.file.Close(); err != nil {
		return err
	}
	if err := w.open(); err != nil {
		return err
	}

	go w.cleanOldFiles()
	return nil
}

// cleanOldFiles 只保留最近 maxFiles 个日志文件
func (w *rotatingFileWriter) cleanOldFiles() {
	if w.maxFiles <= 0 {
		return
	}

	dir, base, ext := w.split()
	files, err := filepath.Glob(filepath.Join(dir, base+"-*"+ext))
	if err != nil || len(files) <= w.maxFiles {
		return
	}

	// 文件名中的日期可直接按字典序排序
	sort.Strings(files)
	for _, f := range files[:len(files)-w.maxFiles] {
		os.Remove(f)
	}
}

func (w *rotatingFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.rotateIfNeeded(); err != nil {
		return 0, err
	}
	return w.writer.Write(p)
}

func (w *rotatingFileWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writer.Flush()
}

func (w *rotatingFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.writer.Flush(); err != nil {
		return err
	}
	return w.file.Close()
}
