// Package router classifies inbound push frames and applies each one to
// local state or the filesystem. Frames for a workspace the user has
// since navigated away from are dropped before any handler runs.
package router

import (
	"encoding/json"
	"time"

	"github.com/helmwright/helmwright/internal/artifact"
	"github.com/helmwright/helmwright/internal/notify"
	"github.com/helmwright/helmwright/internal/state"
	"github.com/helmwright/helmwright/logging"
	"github.com/sirupsen/logrus"
)

// DefaultRenderDelay spaces the plan re-render notification far enough
// for a chat message referencing the plan to arrive in either order.
const DefaultRenderDelay = 100 * time.Millisecond

// ChartDirFunc resolves a workspace id to its local chart directory.
type ChartDirFunc func(workspaceID string) (string, error)

// Router dispatches decoded frames to handlers. All dependencies are
// constructor-injected so handlers can be tested against fakes.
type Router struct {
	store       *state.Store
	pending     *artifact.Store
	notifier    notify.Notifier
	chartDir    ChartDirFunc
	renderDelay time.Duration
	logger      *logrus.Entry
}

// New creates a Router over the given collaborators.
func New(store *state.Store, pending *artifact.Store, notifier notify.Notifier, chartDir ChartDirFunc) *Router {
	return &Router{
		store:       store,
		pending:     pending,
		notifier:    notifier,
		chartDir:    chartDir,
		renderDelay: DefaultRenderDelay,
		logger:      logging.NewLogger("router"),
	}
}

// Route decodes one raw frame and dispatches it. The return value says
// whether a handler ran to completion; callers use it for diagnostics
// only. Malformed frames are logged and dropped; frames for an inactive
// workspace are dropped silently, that is expected traffic after a
// switch.
func (r *Router) Route(raw json.RawMessage) bool {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		r.logger.WithError(err).Warn("Dropping undecodable frame")
		return false
	}

	if frame.EventType == "" {
		r.logger.Warn("Dropping frame without eventType")
		return false
	}

	active := r.store.ActiveWorkspace()
	if frame.WorkspaceID != active {
		r.logger.WithFields(logrus.Fields{
			"eventType":   frame.EventType,
			"workspaceId": frame.WorkspaceID,
			"active":      active,
		}).Debug("Dropping frame for inactive workspace")
		return false
	}

	switch frame.EventType {
	case EventChatMessageUpdated:
		return r.handleChatMessage(frame)
	case EventPlanCreated, EventPlanUpdated:
		return r.handlePlan(frame)
	case EventArtifactUpdated:
		return r.handleArtifact(frame)
	default:
		r.logger.WithField("eventType", frame.EventType).Warn("Dropping frame with unknown eventType")
		return false
	}
}

func (r *Router) handleChatMessage(frame Frame) bool {
	if frame.ChatMessage == nil || frame.ChatMessage.ID == "" {
		r.logger.Warn("Dropping chat message frame without chatMessage.id")
		return false
	}

	if err := r.store.MergeMessage(*frame.ChatMessage); err != nil {
		r.logger.WithError(err).Warn("Failed to merge chat message")
		return false
	}
	r.notifier.Notify(notify.StateChanged())
	return true
}

func (r *Router) handlePlan(frame Frame) bool {
	if frame.Plan == nil || frame.Plan.ID == "" {
		r.logger.Warn("Dropping plan frame without plan.id")
		return false
	}

	if err := r.store.MergePlan(*frame.Plan); err != nil {
		r.logger.WithError(err).Warn("Failed to merge plan")
		return false
	}

	// The chat message referencing this plan may arrive just after it.
	// Re-render shortly after the merge so the cross reference resolves
	// in either arrival order.
	time.AfterFunc(r.renderDelay, func() {
		r.notifier.Notify(notify.StateChanged())
	})
	return true
}

func (r *Router) handleArtifact(frame Frame) bool {
	if frame.File == nil || frame.File.FilePath == "" {
		r.logger.Warn("Dropping artifact frame without file.filePath")
		return false
	}

	log := r.logger.WithFields(logrus.Fields{
		"filePath":    frame.File.FilePath,
		"workspaceId": frame.WorkspaceID,
	})

	chartDir, err := r.chartDir(frame.WorkspaceID)
	if err != nil {
		log.WithError(err).Error("No chart directory mapped for workspace")
		r.notifier.Notify(notify.OperationFailed(err.Error()))
		return false
	}

	absPath, err := artifact.ResolvePath(chartDir, frame.File.FilePath)
	if err != nil {
		log.WithError(err).Error("Failed to resolve artifact path")
		r.notifier.Notify(notify.OperationFailed(err.Error()))
		return false
	}

	if frame.File.ContentPending != nil {
		r.pending.Put(artifact.Pending{
			WorkspaceID: frame.WorkspaceID,
			PlanID:      frame.File.PlanID,
			FilePath:    frame.File.FilePath,
			AbsPath:     absPath,
			Content:     *frame.File.ContentPending,
		})
		log.Info("Pending content stored for review")
		r.notifier.Notify(notify.FileChangePending(frame.File.FilePath))
		return true
	}

	if err := artifact.EnsureFile(absPath); err != nil {
		log.WithError(err).WithField("op", "ensure").Error("Failed to create artifact file")
		r.notifier.Notify(notify.OperationFailed(err.Error()))
		return false
	}
	r.notifier.Notify(notify.OpenFile(absPath))
	return true
}
