package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/m-ruiz/codex-usage-tui/internal/chart"
	"github.com/m-ruiz/codex-usage-tui/internal/models"
	"github.com/m-ruiz/codex-usage-tui/internal/services"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second

	// fetchTimeout bounds one usage retrieval.
	fetchTimeout = 60 * time.Second
)

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// defaultTickCmd returns a command that sends a TickMsg after the default interval.
func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// FetchUsage runs one usage retrieval and reports the outcome together with
// the originating request.
func FetchUsage(fetcher chart.Fetcher, req chart.FetchRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		ds, err := fetcher.Fetch(ctx, req.Query)
		return UsageFetchedMsg{Req: req, Dataset: ds, Err: err}
	}
}

// SyncSource pulls one source's session logs in the background.
func SyncSource(mgr *services.Manager, id string) tea.Cmd {
	return func() tea.Msg {
		err := mgr.SyncSource(context.Background(), id)
		return SyncFinishedMsg{Source: mgr.Sources().Get(id), Err: err}
	}
}

// SaveSource adds a new source.
func SaveSource(mgr *services.Manager, src models.Source) tea.Cmd {
	return func() tea.Msg {
		added, err := mgr.Sources().Add(src)
		return SourceSavedMsg{Source: added, Err: err}
	}
}

// SyncAllSources pulls every source's session logs. Per-source results
// arrive through service events, so the command itself reports nothing.
func SyncAllSources(mgr *services.Manager) tea.Cmd {
	return func() tea.Msg {
		_ = mgr.SyncAll(context.Background())
		return nil
	}
}

// DeleteSource removes a source and its synced sessions.
func DeleteSource(mgr *services.Manager, id string) tea.Cmd {
	return func() tea.Msg {
		return SourceDeletedMsg{ID: id, Err: mgr.Sources().Delete(id)}
	}
}

// subscribeToServicesCmd returns a command that subscribes to service events.
func subscribeToServicesCmd(mgr *services.Manager) tea.Cmd {
	ch, _ := mgr.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

// NotifySuccess returns a command that adds a success notification.
func NotifySuccess(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationSuccess,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

// NotifyError returns a command that adds an error notification.
func NotifyError(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationError,
			Message:  message,
			Duration: LongNotificationDuration,
		}
	}
}

// NotifyInfo returns a command that adds an info notification.
func NotifyInfo(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationInfo,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}
