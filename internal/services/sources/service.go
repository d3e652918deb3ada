// Package sources manages remote session sources with persistence and syncing.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/m-ruiz/codex-usage-tui/internal/logger"
	"github.com/m-ruiz/codex-usage-tui/internal/models"
)

// SourcesFile represents the JSON file structure for sources storage.
type SourcesFile struct {
	Sources []models.Source `json:"sources"`
	Version int             `json:"version,omitempty"`
}

// Event represents a sources service event.
type Event struct {
	Type   EventType
	Error  error
	Source *models.Source
}

// EventType defines the type of sources event.
type EventType int

const (
	EventSourcesLoaded EventType = iota
	EventSourceAdded
	EventSourceUpdated
	EventSourceDeleted
	EventSyncFinished
	EventError
)

// Service manages remote sources: a JSON store plus rsync-based syncing of
// each source's session logs into a local directory per source.
type Service struct {
	mu        sync.RWMutex
	sources   []models.Source
	filePath  string
	syncDir   string
	eventChan chan Event
}

// New creates a sources service backed by the given JSON file, syncing
// session logs into per-source subdirectories of syncDir.
func New(filePath, syncDir string) (*Service, error) {
	s := &Service{
		filePath:  filePath,
		syncDir:   syncDir,
		eventChan: make(chan Event, 100),
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.MkdirAll(syncDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create sync directory: %w", err)
	}

	if err := s.load(); err != nil {
		if os.IsNotExist(err) {
			if err := s.save(); err != nil {
				return nil, fmt.Errorf("failed to create sources file: %w", err)
			}
		} else {
			return nil, fmt.Errorf("failed to load sources: %w", err)
		}
	}

	s.sendEvent(Event{Type: EventSourcesLoaded})
	return s, nil
}

// Events returns the event channel for subscribing to source changes.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// List returns a sanitized copy of all sources; passwords never leave the
// service.
func (s *Service) List() []models.Source {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Source, len(s.sources))
	for i, src := range s.sources {
		out[i] = src.Sanitized()
	}
	return out
}

// Get returns a sanitized source by ID, or nil.
func (s *Service) Get(id string) *models.Source {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.sources {
		if s.sources[i].ID == id {
			src := s.sources[i].Sanitized()
			return &src
		}
	}
	return nil
}

// Count returns the number of configured sources.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sources)
}

// Add registers a new source, returning the stored (sanitized) entry.
func (s *Service) Add(source models.Source) (models.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if source.Host == "" || source.Path == "" {
		return models.Source{}, fmt.Errorf("source requires a host and a path")
	}
	for _, src := range s.sources {
		if src.ID == source.ID && source.ID != "" {
			return models.Source{}, fmt.Errorf("source %s already exists", source.ID)
		}
	}
	if source.ID == "" {
		source.ID = fmt.Sprintf("src_%d", time.Now().UnixNano())
	}
	if source.Label == "" {
		source.Label = source.Host
	}
	if source.Port == 0 {
		source.Port = 22
	}

	s.sources = append(s.sources, source)
	if err := s.saveLocked(); err != nil {
		s.sources = s.sources[:len(s.sources)-1]
		return models.Source{}, fmt.Errorf("failed to save sources: %w", err)
	}

	sanitized := source.Sanitized()
	s.sendEvent(Event{Type: EventSourceAdded, Source: &sanitized})
	return sanitized, nil
}

// Update replaces an existing source. An empty incoming password keeps the
// stored one.
func (s *Service) Update(source models.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, src := range s.sources {
		if src.ID == source.ID {
			if source.Password == "" {
				source.Password = src.Password
			}
			s.sources[i] = source
			if err := s.saveLocked(); err != nil {
				return fmt.Errorf("failed to save sources: %w", err)
			}
			sanitized := source.Sanitized()
			s.sendEvent(Event{Type: EventSourceUpdated, Source: &sanitized})
			return nil
		}
	}
	return fmt.Errorf("source not found: %s", source.ID)
}

// Delete removes a source and its synced session logs.
func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, src := range s.sources {
		if src.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("source not found: %s", id)
	}

	deleted := s.sources[idx]
	s.sources = append(s.sources[:idx], s.sources[idx+1:]...)
	if err := s.saveLocked(); err != nil {
		return fmt.Errorf("failed to save sources: %w", err)
	}

	if err := os.RemoveAll(s.sourceDir(id)); err != nil {
		logger.Warn("failed to remove synced sessions", "source", id, "error", err)
	}

	sanitized := deleted.Sanitized()
	s.sendEvent(Event{Type: EventSourceDeleted, Source: &sanitized})
	return nil
}

// SessionRoots returns the local directories holding synced session logs,
// one per source.
func (s *Service) SessionRoots() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roots := make([]string, 0, len(s.sources))
	for _, src := range s.sources {
		roots = append(roots, s.sourceDir(src.ID))
	}
	return roots
}

func (s *Service) sourceDir(id string) string {
	return filepath.Join(s.syncDir, id)
}

// Sync pulls a source's session logs with rsync over ssh, recording the
// outcome on the source.
func (s *Service) Sync(ctx context.Context, id string) error {
	s.mu.RLock()
	var src *models.Source
	for i := range s.sources {
		if s.sources[i].ID == id {
			copied := s.sources[i]
			src = &copied
			break
		}
	}
	s.mu.RUnlock()

	if src == nil {
		return fmt.Errorf("source not found: %s", id)
	}

	dest := s.sourceDir(id)
	if err := os.MkdirAll(dest, 0o750); err != nil {
		return fmt.Errorf("failed to create sync destination: %w", err)
	}

	err := s.runRsync(ctx, src, dest)
	s.recordSyncResult(id, err)

	sanitized := s.Get(id)
	s.sendEvent(Event{Type: EventSyncFinished, Error: err, Source: sanitized})
	if err != nil {
		return fmt.Errorf("sync %s failed: %w", src.Label, err)
	}
	return nil
}

func (s *Service) runRsync(ctx context.Context, src *models.Source, dest string) error {
	remote := fmt.Sprintf("%s@%s:%s/", src.User, src.Host, src.Path)
	if src.User == "" {
		remote = fmt.Sprintf("%s:%s/", src.Host, src.Path)
	}

	sshCmd := fmt.Sprintf("ssh -p %d -o BatchMode=yes -o StrictHostKeyChecking=accept-new", src.Port)
	if src.Password != "" {
		// sshpass handles the prompt, so batch mode must stay off.
		sshCmd = fmt.Sprintf("ssh -p %d -o StrictHostKeyChecking=accept-new", src.Port)
	}

	args := []string{
		"-az", "--delete",
		"--include=*/", "--include=*.jsonl", "--exclude=*",
		"-e", sshCmd,
		remote, dest + "/",
	}

	name := "rsync"
	if src.Password != "" {
		args = append([]string{"-p", src.Password, "rsync"}, args...)
		name = "sshpass"
	}

	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(out))
	}
	return nil
}

func (s *Service) recordSyncResult(id string, syncErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sources {
		if s.sources[i].ID != id {
			continue
		}
		if syncErr != nil {
			msg := syncErr.Error()
			s.sources[i].LastError = &msg
		} else {
			now := time.Now()
			s.sources[i].LastSync = &now
			s.sources[i].LastError = nil
		}
		break
	}
	if err := s.saveLocked(); err != nil {
		logger.Error("failed to persist sync result", "source", id, "error", err)
	}
}

// load reads the sources file.
func (s *Service) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var file SourcesFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse sources file: %w", err)
	}

	s.sources = file.Sources
	return nil
}

// save persists the sources (public version).
func (s *Service) save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// saveLocked persists the sources atomically (must hold lock). Passwords
// are stored here and only here; API responses get sanitized copies.
func (s *Service) saveLocked() error {
	file := SourcesFile{
		Sources: s.sources,
		Version: 1,
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sources: %w", err)
	}

	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpFile, s.filePath); err != nil {
		if removeErr := os.Remove(tmpFile); removeErr != nil {
			logger.Error("failed to remove temp file", "error", removeErr)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
	}
}

// Close releases the service. Nothing is held open between calls.
func (s *Service) Close() error {
	return nil
}
