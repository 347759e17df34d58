// Package writer appends finished documents to a newline-delimited JSON log
// and makes reruns idempotent by reading the prior log up front.
package writer

import (
	"bufio"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mwexler/corpusmith/internal/models"
)

// Writer serializes Document records to a JSONL file. Append is the only
// mutation; concurrent callers are serialized by a mutex so interleaved
// partial lines can never corrupt the log.
type Writer struct {
	path     string
	resume   bool
	logger   *zap.Logger
	existing map[string]struct{}

	mu      sync.Mutex
	file    *os.File
	written int
}

// New opens the destination for appending, deriving the timestamped filename
// once when requested, and loads the skip set in resume mode. An unwritable
// destination fails here, before any crawling starts.
func New(path string, resume, timestamped bool, logger *zap.Logger) (*Writer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timestamped {
		path = timestampedPath(path, time.Now())
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory %s: %w", dir, err)
		}
	}

	w := &Writer{
		path:     path,
		resume:   resume,
		logger:   logger,
		existing: make(map[string]struct{}),
	}

	if resume {
		if err := w.loadExistingURLs(); err != nil {
			return nil, err
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", path, err)
	}
	w.file = file
	return w, nil
}

// Path is the destination resolved at startup; it is never re-derived
// mid-run.
func (w *Writer) Path() string {
	return w.path
}

// ShouldSkip reports whether url was already persisted by a prior run.
// Safe to call while other goroutines write.
func (w *Writer) ShouldSkip(url string) bool {
	if !w.resume {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.existing[url]
	return ok
}

// Write appends one document as a single JSON line. Documents whose URL is
// in the skip set are refused, keeping the URL unique across the log.
func (w *Writer) Write(doc *models.Document) error {
	if doc.URL == "" {
		return fmt.Errorf("document has no url")
	}

	line, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", doc.URL, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.resume {
		if _, ok := w.existing[doc.URL]; ok {
			return fmt.Errorf("url %s already present in %s", doc.URL, w.path)
		}
	}
	if _, err := w.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append to %s: %w", w.path, err)
	}
	w.written++
	if w.resume {
		w.existing[doc.URL] = struct{}{}
	}
	return nil
}

// Count is how many documents this run has appended.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// Close flushes and closes the log.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	if err != nil {
		return fmt.Errorf("close %s: %w", w.path, err)
	}
	return nil
}

// loadExistingURLs scans the prior log once, before the run starts. Lines
// that fail to parse are logged and skipped rather than aborting resume.
func (w *Writer) loadExistingURLs() error {
	file, err := os.Open(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read existing output %s: %w", w.path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var doc struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal([]byte(line), &doc); err != nil {
			w.logger.Warn("skipping unparseable line in existing output",
				zap.String("path", w.path), zap.Error(err))
			continue
		}
		if doc.URL != "" {
			w.existing[doc.URL] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan existing output %s: %w", w.path, err)
	}

	w.logger.Info("loaded skip set for resume",
		zap.String("path", w.path), zap.Int("urls", len(w.existing)))
	return nil
}

// timestampedPath derives the destination filename from the base name plus a
// short hash of the start time. Derived once; content-independent.
func timestampedPath(base string, now time.Time) string {
	stamp := now.Format("20060102_150405")
	sum := md5.Sum([]byte(stamp))
	hash := fmt.Sprintf("%x", sum)[:8]

	if strings.HasSuffix(base, string(os.PathSeparator)) || isDir(base) {
		return filepath.Join(base, fmt.Sprintf("output_%s.jsonl", hash))
	}

	ext := filepath.Ext(base)
	if ext == "" {
		ext = ".jsonl"
	}
	stem := strings.TrimSuffix(filepath.Base(base), filepath.Ext(base))
	return filepath.Join(filepath.Dir(base), fmt.Sprintf("%s_%s%s", stem, hash, ext))
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
