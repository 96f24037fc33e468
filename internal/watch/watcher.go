// Package watch monitors the session storage directory and extracts
// sessions as their transcript files settle.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/easeaico/session-memory/internal/memory"
)

// Extractor runs one session extraction. Satisfied by pipeline.Pipeline.
type Extractor interface {
	ExtractSession(ctx context.Context, sessionID, project string, force bool) (*memory.SessionExtraction, bool, error)
}

// Watcher tails the projects directory for new or updated session files.
// Events are debounced so a session still being written is extracted
// once, after it settles.
type Watcher struct {
	root      string
	debounce  time.Duration
	extractor Extractor
	logger    *zap.Logger

	watcher    *fsnotify.Watcher
	stopChan   chan struct{}
	pending    map[string]time.Time
	pendingMux sync.Mutex
}

// New creates a Watcher over the given projects directory.
func New(root string, debounce time.Duration, extractor Extractor, logger *zap.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		root:      root,
		debounce:  debounce,
		extractor: extractor,
		logger:    logger,
		stopChan:  make(chan struct{}),
		pending:   make(map[string]time.Time),
	}
}

// Start begins watching. It returns once the watches are registered;
// extraction happens on background goroutines until Stop or ctx
// cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = watcher

	if err := w.watcher.Add(w.root); err != nil {
		w.watcher.Close()
		return err
	}
	entries, err := os.ReadDir(w.root)
	if err != nil {
		w.watcher.Close()
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			w.watcher.Add(filepath.Join(w.root, entry.Name()))
		}
	}

	go w.watch()
	go w.debounceLoop(ctx)

	w.logger.Info("watching sessions", zap.String("root", w.root), zap.Duration("debounce", w.debounce))
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.stopChan)
	if w.watcher != nil {
		w.watcher.Close()
	}
}

func (w *Watcher) watch() {
	for {
		select {
		case <-w.stopChan:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Op&fsnotify.Create != 0 {
				// new project directory: start watching it
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.watcher.Add(event.Name)
					continue
				}
			}

			if !w.isSessionEvent(event) {
				continue
			}

			w.pendingMux.Lock()
			w.pending[event.Name] = time.Now()
			w.pendingMux.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) isSessionEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	return filepath.Ext(event.Name) == ".jsonl"
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMux.Lock()
	var settled []string
	now := time.Now()
	for path, lastSeen := range w.pending {
		if now.Sub(lastSeen) >= w.debounce {
			settled = append(settled, path)
			delete(w.pending, path)
		}
	}
	w.pendingMux.Unlock()

	for _, path := range settled {
		sessionID := strings.TrimSuffix(filepath.Base(path), ".jsonl")

		// force: the session file may have grown since a prior extraction
		_, _, err := w.extractor.ExtractSession(ctx, sessionID, "", true)
		if err != nil {
			w.logger.Warn("extraction failed",
				zap.String("session", sessionID),
				zap.Error(err))
			continue
		}
		w.logger.Info("session extracted", zap.String("session", sessionID))
	}
}
