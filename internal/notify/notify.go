// Package notify defines the boundary between the reconciler and whatever
// renders it. The reconciler emits notifications; a sink decides how to
// present them. Delivery is always non-blocking so a stalled consumer can
// never hold up frame processing.
package notify

import (
	"github.com/helmwright/helmwright/internal/state"
	"github.com/helmwright/helmwright/logging"
	"github.com/sirupsen/logrus"
)

// Command names carried on notifications, matching what the service's own
// clients use.
const (
	CommandConnectionStatus  = "connectionStatus"
	CommandStateChanged      = "stateChanged"
	CommandFileChangePending = "fileChangePending"
	CommandFileChangeApplied = "fileChangeApplied"
	CommandOpenFile          = "openFile"
	CommandOperationFailed   = "operationFailed"
)

// Outcomes for a fileChangeApplied notification.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
)

// Notification is one message to the UI layer.
type Notification struct {
	Command  string                 `json:"command"`
	Status   string                 `json:"status,omitempty"`
	FilePath string                 `json:"filePath,omitempty"`
	Message  string                 `json:"message,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// Notifier receives notifications from the reconciler.
type Notifier interface {
	Notify(n Notification)
}

// ConnectionStatus builds a connection status notification.
func ConnectionStatus(status state.ConnectionStatus) Notification {
	return Notification{Command: CommandConnectionStatus, Status: string(status)}
}

// StateChanged builds a generic "re-render" notification.
func StateChanged() Notification {
	return Notification{Command: CommandStateChanged}
}

// FileChangePending announces generated content awaiting diff review.
func FileChangePending(filePath string) Notification {
	return Notification{Command: CommandFileChangePending, FilePath: filePath}
}

// OpenFile asks the UI to open a chart file for viewing.
func OpenFile(absPath string) Notification {
	return Notification{Command: CommandOpenFile, FilePath: absPath}
}

// FileChangeApplied builds the accept/reject outcome notification.
func FileChangeApplied(filePath, outcome string) Notification {
	return Notification{Command: CommandFileChangeApplied, FilePath: filePath, Status: outcome}
}

// OperationFailed builds an actionable failure notification.
func OperationFailed(message string) Notification {
	return Notification{Command: CommandOperationFailed, Message: message}
}

// LogNotifier writes every notification to the component log. Used in
// headless mode and as a fallback when no TUI is attached.
type LogNotifier struct {
	log *logrus.Entry
}

// NewLogNotifier creates a notifier backed by the "notify" component logger.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logging.NewLogger("notify")}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(notification Notification) {
	entry := n.log.WithField("command", notification.Command)
	if notification.Status != "" {
		entry = entry.WithField("status", notification.Status)
	}
	if notification.FilePath != "" {
		entry = entry.WithField("filePath", notification.FilePath)
	}
	if notification.Command == CommandOperationFailed {
		entry.Warn(notification.Message)
		return
	}
	entry.Debug("UI notification")
}

// ChannelNotifier delivers notifications on a buffered channel, dropping
// when the buffer is full. The TUI consumes the channel.
type ChannelNotifier struct {
	ch chan Notification
}

// NewChannelNotifier creates a channel-backed notifier with the given buffer.
func NewChannelNotifier(buffer int) *ChannelNotifier {
	return &ChannelNotifier{ch: make(chan Notification, buffer)}
}

// Notify implements Notifier.
func (n *ChannelNotifier) Notify(notification Notification) {
	select {
	case n.ch <- notification:
	default:
	}
}

// C returns the channel notifications are delivered on.
func (n *ChannelNotifier) C() <-chan Notification {
	return n.ch
}

// MultiNotifier fans out to several sinks.
type MultiNotifier []Notifier

// Notify implements Notifier.
func (m MultiNotifier) Notify(notification Notification) {
	for _, n := range m {
		n.Notify(notification)
	}
}
