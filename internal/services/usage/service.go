// Package usage provides the usage retrieval service with session watching.
package usage

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/m-ruiz/codex-usage-tui/internal/logger"
	"github.com/m-ruiz/codex-usage-tui/internal/models"
	"github.com/m-ruiz/codex-usage-tui/internal/usage"
)

// Event represents a usage service event.
type Event struct {
	Type  EventType
	Error error
}

// EventType defines the type of usage event.
type EventType int

const (
	// EventDataChanged fires after session logs changed on disk (debounced).
	EventDataChanged EventType = iota
	// EventError reports a watcher failure.
	EventError
)

// Service computes usage datasets and watches the sessions roots for
// changes. It is the retrieval collaborator for the chart: the chart core
// decides when to fetch, this service does the fetching.
type Service struct {
	mu            sync.Mutex
	engine        *usage.Engine
	watchRoots    []string
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	debounce      time.Duration
	debounceTimer *time.Timer
}

// New creates a usage service. roots is re-evaluated per computation so
// synced sources picked up later are included; watchRoots are the static
// directories watched for changes. store may be nil to disable the scan
// cache; roots that do not exist yet are skipped.
func New(roots func() []string, watchRoots []string, store usage.Store, debounce time.Duration) (*Service, error) {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	s := &Service{
		engine:     usage.NewDynamicEngine(roots, store),
		watchRoots: watchRoots,
		eventChan:  make(chan Event, 100),
		stopChan:   make(chan struct{}),
		debounce:   debounce,
	}
	if err := s.startWatcher(); err != nil {
		return nil, err
	}
	return s, nil
}

// Fetch computes a dataset for the query. Implements chart.Fetcher.
func (s *Service) Fetch(ctx context.Context, q models.UsageQuery) (*models.Dataset, error) {
	return s.engine.Compute(ctx, q)
}

// Events returns the event channel for subscribing to data changes.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// startWatcher watches every directory under the sessions roots. fsnotify
// is not recursive, so new subdirectories are added as they appear.
func (s *Service) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	for _, root := range s.watchRoots {
		s.watchTree(root)
	}

	go s.watchLoop()
	return nil
}

func (s *Service) watchTree(root string) {
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if d.Name() == "legacy" {
			return filepath.SkipDir
		}
		if err := s.watcher.Add(path); err != nil {
			logger.Warn("failed to watch sessions directory", "path", path, "error", err)
		}
		return nil
	})
}

// watchLoop handles file system events with debouncing.
func (s *Service) watchLoop() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					s.watchTree(event.Name)
				}
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				s.scheduleChange()
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

func (s *Service) scheduleChange() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.debounceTimer = time.AfterFunc(s.debounce, func() {
		s.sendEvent(Event{Type: EventDataChanged})
	})
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
	}
}

// Close stops the watcher and cleans up resources.
func (s *Service) Close() error {
	close(s.stopChan)

	s.mu.Lock()
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.mu.Unlock()

	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
