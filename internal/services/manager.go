// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/m-ruiz/codex-usage-tui/internal/config"
	"github.com/m-ruiz/codex-usage-tui/internal/db"
	"github.com/m-ruiz/codex-usage-tui/internal/models"
	"github.com/m-ruiz/codex-usage-tui/internal/services/sources"
	usagesvc "github.com/m-ruiz/codex-usage-tui/internal/services/usage"
	"github.com/m-ruiz/codex-usage-tui/internal/usage"
)

type (
	// DataChangedEvent is emitted when session logs changed on disk.
	DataChangedEvent struct{}

	// SourcesChangedEvent is emitted when the sources list changes.
	SourcesChangedEvent struct {
		Sources []models.Source
	}

	// SyncCompletedEvent is emitted when a source sync finishes.
	SyncCompletedEvent struct {
		Source *models.Source
		Error  error
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (DataChangedEvent) isServiceEvent()    {}
func (SourcesChangedEvent) isServiceEvent() {}
func (SyncCompletedEvent) isServiceEvent()  {}
func (ErrorEvent) isServiceEvent()          {}

// Manager orchestrates services and event routing.
type Manager struct {
	mu          sync.RWMutex
	cfg         *config.Config
	usage       *usagesvc.Service
	sources     *sources.Service
	database    *db.DB
	eventChan   chan ServiceEvent
	stopChan    chan struct{}
	subscribers []chan<- ServiceEvent
}

// NewManager creates a new service manager.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		cfg:       cfg,
		eventChan: make(chan ServiceEvent, 100),
		stopChan:  make(chan struct{}),
	}

	var err error
	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	m.sources, err = sources.New(cfg.SourcesPath(), cfg.SourcesDir())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sources: %w", err)
	}

	watchRoots := []string{cfg.SourcesDir()}
	if cfg.IncludeLocal {
		watchRoots = append(watchRoots, cfg.SessionsDir)
	}
	var store usage.Store = m.database
	m.usage, err = usagesvc.New(m.sessionRoots, watchRoots, store, cfg.WatchDebounce)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize usage service: %w", err)
	}

	go m.routeEvents()

	return m, nil
}

// sessionRoots lists every directory session logs are read from: the local
// Codex sessions dir plus one synced directory per source.
func (m *Manager) sessionRoots() []string {
	var roots []string
	if m.cfg.IncludeLocal {
		roots = append(roots, m.cfg.SessionsDir)
	}
	return append(roots, m.sources.SessionRoots()...)
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	for {
		select {
		case event := <-m.usage.Events():
			m.handleUsageEvent(event)

		case event := <-m.sources.Events():
			m.handleSourcesEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handleUsageEvent(event usagesvc.Event) {
	switch event.Type {
	case usagesvc.EventDataChanged:
		m.broadcast(DataChangedEvent{})
	case usagesvc.EventError:
		m.broadcast(ErrorEvent{Service: "usage", Error: event.Error})
	}
}

func (m *Manager) handleSourcesEvent(event sources.Event) {
	switch event.Type {
	case sources.EventSourcesLoaded, sources.EventSourceAdded,
		sources.EventSourceUpdated, sources.EventSourceDeleted:
		m.broadcast(SourcesChangedEvent{Sources: m.sources.List()})
		if event.Type == sources.EventSourceDeleted {
			m.broadcast(DataChangedEvent{})
		}

	case sources.EventSyncFinished:
		m.broadcast(SyncCompletedEvent{Source: event.Source, Error: event.Error})
		m.notifySync(event.Source, event.Error)
		if event.Error == nil {
			m.broadcast(DataChangedEvent{})
		}

	case sources.EventError:
		m.broadcast(ErrorEvent{Service: "sources", Error: event.Error})
	}
}

// notifySync raises a desktop notification for a finished sync.
func (m *Manager) notifySync(source *models.Source, err error) {
	label := "source"
	if source != nil {
		label = source.Label
	}
	if err != nil {
		_ = beeep.Notify("Codex sync failed", fmt.Sprintf("%s: %v", label, err), "")
		return
	}
	_ = beeep.Notify("Codex sync complete", fmt.Sprintf("%s synced successfully", label), "")
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	select {
	case m.eventChan <- event:
	default:
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, waitForEvent(ch)
}

// waitForEvent returns a tea.Cmd that waits for the next event.
func waitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return waitForEvent(ch)
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Config returns the configuration the manager was built with.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// Usage returns the usage service; it satisfies the chart's fetcher
// contract.
func (m *Manager) Usage() *usagesvc.Service {
	return m.usage
}

// Sources returns the sources service.
func (m *Manager) Sources() *sources.Service {
	return m.sources
}

// Database returns the scan cache database for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// SyncSource pulls one source's session logs.
func (m *Manager) SyncSource(ctx context.Context, id string) error {
	return m.sources.Sync(ctx, id)
}

// SyncAll syncs every configured source, returning the first failure.
func (m *Manager) SyncAll(ctx context.Context) error {
	var firstErr error
	for _, src := range m.sources.List() {
		if err := m.sources.Sync(ctx, src.ID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	close(m.stopChan)

	m.mu.Lock()
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
	m.mu.Unlock()

	var errs []error

	if err := m.usage.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := m.sources.Close(); err != nil {
		errs = append(errs, err)
	}
	if m.database != nil {
		if err := m.database.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
