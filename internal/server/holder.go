package server

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formsync/internal/metrics"
	"github.com/goliatone/go-formsync/pkg/element"
)

// DocumentHolder keeps the parsed form document and reloads it when the file
// changes on disk. Readers receive the current document and must Clone it
// before mutating.
type DocumentHolder struct {
	mu       sync.RWMutex
	doc      *element.Document
	path     string
	logger   zerolog.Logger
	metrics  *metrics.Collector
	watcher  *fsnotify.Watcher
	onChange []func(*element.Document)
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewDocumentHolder loads the document at path.
func NewDocumentHolder(path string, logger zerolog.Logger, m *metrics.Collector) (*DocumentHolder, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	doc, err := loadDocument(absPath)
	if err != nil {
		return nil, err
	}
	return &DocumentHolder{
		doc:     doc,
		path:    absPath,
		logger:  logger,
		metrics: m,
		stopCh:  make(chan struct{}),
	}, nil
}

func loadDocument(path string) (*element.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()
	return element.Parse(f)
}

// Get returns the current document.
func (h *DocumentHolder) Get() *element.Document {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.doc
}

// Path returns the absolute path of the watched document.
func (h *DocumentHolder) Path() string {
	return h.path
}

// Reload re-reads the document. On failure the previous one is kept.
func (h *DocumentHolder) Reload() error {
	doc, err := loadDocument(h.path)
	if err != nil {
		if h.metrics != nil {
			h.metrics.DocumentReloadErrors.Inc()
		}
		h.logger.Error().Err(err).Str("path", h.path).Msg("document reload failed, keeping previous document")
		return fmt.Errorf("reload document: %w", err)
	}

	h.mu.Lock()
	h.doc = doc
	listeners := append([]func(*element.Document){}, h.onChange...)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.DocumentReloads.Inc()
	}
	for _, fn := range listeners {
		fn(doc)
	}
	h.logger.Info().Str("path", h.path).Msg("document reloaded")
	return nil
}

// OnChange registers a callback run after each successful reload.
func (h *DocumentHolder) OnChange(fn func(*element.Document)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// WatchFile starts reloading the document when it is written or replaced.
func (h *DocumentHolder) WatchFile() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// The directory is watched so editors that save by rename are seen.
	if err := watcher.Add(filepath.Dir(h.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	h.watcher = watcher

	go h.watchLoop()
	h.logger.Info().Str("path", h.path).Msg("watching document for changes")
	return nil
}

// Stop ends watching. It is safe to call more than once.
func (h *DocumentHolder) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		if h.watcher != nil {
			h.watcher.Close()
		}
	})
}

func (h *DocumentHolder) watchLoop() {
	filename := filepath.Base(h.path)
	for {
		select {
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				h.logger.Debug().Str("event", event.Op.String()).Str("file", event.Name).Msg("document changed")
				_ = h.Reload()
			}
		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("file watcher error")
		case <-h.stopCh:
			return
		}
	}
}
