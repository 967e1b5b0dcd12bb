package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchedExts are the inbox file extensions treated as resumes.
var watchedExts = map[string]struct{}{
	"pdf":  {},
	"docx": {},
	"doc":  {},
	"txt":  {},
}

// DefaultDebounce coalesces the write bursts editors and copies produce.
const DefaultDebounce = 500 * time.Millisecond

// Watcher submits files dropped into an inbox directory.
type Watcher struct {
	intake   *Intake
	dir      string
	debounce time.Duration
	logger   *zap.Logger
}

// NewWatcher creates an inbox watcher over dir.
func NewWatcher(intake *Intake, dir string, debounce time.Duration, logger *zap.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{intake: intake, dir: dir, debounce: debounce, logger: logger}
}

// Watch blocks submitting inbox files until ctx is cancelled. Rapid event
// bursts for one file are coalesced, so a file is submitted once its writes
// settle.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.logger.Info("watching inbox", zap.String("dir", w.dir))

	var mu sync.Mutex
	pending := make(map[string]*time.Timer)

	defer func() {
		mu.Lock()
		defer mu.Unlock()
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-fw.Events:
			if !ok {
				return fmt.Errorf("watcher event stream closed")
			}
			if !watchable(e.Name) || e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			path := e.Name
			mu.Lock()
			if t, exists := pending[path]; exists {
				t.Stop()
			}
			pending[path] = time.AfterFunc(w.debounce, func() {
				mu.Lock()
				delete(pending, path)
				mu.Unlock()
				w.submit(ctx, path)
			})
			mu.Unlock()
		case err, ok := <-fw.Errors:
			if !ok {
				return fmt.Errorf("watcher error stream closed")
			}
			w.logger.Error("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) submit(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}
	sub, err := w.intake.AcceptFile(ctx, path)
	if err != nil {
		w.logger.Error("submitting inbox file failed", zap.String("path", path), zap.Error(err))
		return
	}
	w.logger.Info("inbox file submitted",
		zap.String("path", path),
		zap.String("submission_id", sub.ID.String()))
}

func watchable(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	_, ok := watchedExts[ext]
	return ok
}
