package app

import (
	"time"

	"github.com/m-ruiz/codex-usage-tui/internal/chart"
	"github.com/m-ruiz/codex-usage-tui/internal/models"
	"github.com/m-ruiz/codex-usage-tui/internal/services"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// UsageFetchedMsg carries the outcome of one usage retrieval. Req identifies
// the originating request so stale responses can be dropped.
type UsageFetchedMsg struct {
	Req     chart.FetchRequest
	Dataset *models.Dataset
	Err     error
}

// DataInvalidatedMsg signals that session logs changed on disk, so cached
// windows are out of date.
type DataInvalidatedMsg struct{}

// SourcesUpdatedMsg carries the latest sources snapshot.
type SourcesUpdatedMsg struct {
	Sources []models.Source
}

// SyncStartedMsg signals that a source sync was kicked off.
type SyncStartedMsg struct {
	ID string
}

// SyncFinishedMsg carries the outcome of a source sync.
type SyncFinishedMsg struct {
	Source *models.Source
	Err    error
}

// SourceSavedMsg carries the outcome of adding or updating a source.
type SourceSavedMsg struct {
	Source models.Source
	Err    error
}

// SourceDeletedMsg carries the outcome of deleting a source.
type SourceDeletedMsg struct {
	ID  string
	Err error
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}
