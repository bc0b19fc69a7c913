// Package engine wires the reconciliation pipeline together: the push
// client feeds frames into a single consumer goroutine, the router
// applies them to the workspace store and the filesystem, and a local
// file watcher guards pending content against concurrent edits.
package engine

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/helmwright/helmwright/config"
	"github.com/helmwright/helmwright/errors"
	"github.com/helmwright/helmwright/internal/api"
	"github.com/helmwright/helmwright/internal/artifact"
	"github.com/helmwright/helmwright/internal/notify"
	"github.com/helmwright/helmwright/internal/push"
	"github.com/helmwright/helmwright/internal/router"
	"github.com/helmwright/helmwright/internal/state"
	"github.com/helmwright/helmwright/internal/watcher"
	"github.com/helmwright/helmwright/logging"
	"github.com/sirupsen/logrus"
)

const frameBuffer = 100

// Engine owns the workspace store, the pending content store, and the
// push connection for one session.
type Engine struct {
	cfg      *config.Config
	apiC     *api.Client
	store    *state.Store
	pending  *artifact.Store
	notifier notify.Notifier
	client   *push.Client
	router   *router.Router
	frames   chan json.RawMessage
	logger   *logrus.Entry

	mu            sync.Mutex
	watcherCancel context.CancelFunc
}

// New builds an engine from configuration. The notifier decides how
// state changes reach the user (TUI, logs, or both).
func New(cfg *config.Config, apiClient *api.Client, notifier notify.Notifier) *Engine {
	cfg.SetDefaults()
	e := &Engine{
		cfg:      cfg,
		apiC:     apiClient,
		store:    state.New(),
		pending:  artifact.NewStore(),
		notifier: notifier,
		frames:   make(chan json.RawMessage, frameBuffer),
		logger:   logging.NewLogger("engine"),
	}

	e.router = router.New(e.store, e.pending, notifier, e.chartDir)
	e.client = push.NewClient(push.Options{
		URL:          cfg.Server.PushURL,
		Tokens:       tokenSource{apiClient},
		Status:       statusSink{e},
		OnFrame:      e.enqueue,
		Policy:       push.PolicyFromConfig(*cfg.Push),
		PingInterval: time.Duration(cfg.Push.PingIntervalMs) * time.Millisecond,
	})
	return e
}

// Store returns the workspace state store.
func (e *Engine) Store() *state.Store { return e.store }

// Pending returns the pending content store.
func (e *Engine) Pending() *artifact.Store { return e.pending }

// Start runs the frame consumer and the push connection until the
// context is cancelled or the push retry budget is exhausted.
func (e *Engine) Start(ctx context.Context) error {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case raw := <-e.frames:
				e.router.Route(raw)
			}
		}
	}()

	err := e.client.Run(ctx)
	wg.Wait()
	e.stopWatcher()
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// SetActiveWorkspace switches the session to a workspace: the store's
// collections are replaced, earlier pending content is discarded, the
// push subscription moves to the new channel, and the local edit watcher
// follows the new chart directory. An empty id tears everything down.
func (e *Engine) SetActiveWorkspace(id string) error {
	if id != "" && e.cfg.ChartDir(id) == "" {
		return errors.WorkspaceNotMapped(id)
	}

	e.store.SetActiveWorkspace(id)
	e.pending.Clear()
	e.stopWatcher()

	channel := ""
	if id != "" {
		channel = push.ChannelName(id, e.cfg.UserID)
	}
	if err := e.client.SetChannel(channel); err != nil {
		return err
	}

	if id != "" && e.watcherEnabled() {
		if err := e.startWatcher(id); err != nil {
			// A broken watcher loses dirty tracking, not the session
			e.logger.WithError(err).Warn("Failed to start chart directory watcher")
		}
	}

	e.logger.WithField("workspaceId", id).Info("Active workspace changed")
	e.notifier.Notify(notify.StateChanged())
	return nil
}

// SubmitPrompt posts a prompt to the assistant and records it locally.
// The response streams back through push events and merges by id.
func (e *Engine) SubmitPrompt(ctx context.Context, prompt string) error {
	workspaceID := e.store.ActiveWorkspace()
	if workspaceID == "" {
		return errors.New(errors.ErrCodeNoActiveWorkspace, "no active workspace, select one first")
	}

	resp, err := e.apiC.SubmitMessage(ctx, workspaceID, &api.SubmitMessageRequest{Prompt: prompt})
	if err != nil {
		return err
	}
	return e.store.MergeMessage(state.ChatMessage{ID: resp.MessageID, Prompt: prompt})
}

// AcceptPending writes reviewed content to disk and tells the assistant
// to proceed with the owning plan.
func (e *Engine) AcceptPending(ctx context.Context, filePath string, force bool) error {
	p, ok := e.pending.Get(filePath)
	if !ok {
		return errors.PendingNotFound(filePath)
	}

	if err := e.pending.Accept(filePath, force); err != nil {
		e.notifier.Notify(notify.OperationFailed(err.Error()))
		return err
	}
	e.notifier.Notify(notify.FileChangeApplied(filePath, notify.OutcomeAccepted))

	if p.PlanID != "" {
		if resp, err := e.apiC.ProceedPlan(ctx, p.PlanID); err != nil {
			e.logger.WithError(err).WithField("planId", p.PlanID).Warn("Failed to report plan acceptance")
		} else {
			_ = e.store.MergePlan(state.Plan{ID: resp.PlanID, Status: resp.Status})
		}
	}
	return nil
}

// RejectPending discards reviewed content without touching the chart.
func (e *Engine) RejectPending(filePath string) error {
	if err := e.pending.Reject(filePath); err != nil {
		e.notifier.Notify(notify.OperationFailed(err.Error()))
		return err
	}
	e.notifier.Notify(notify.FileChangeApplied(filePath, notify.OutcomeRejected))
	return nil
}

// enqueue hands a frame from the push reader to the consumer goroutine.
// Order is preserved; the channel only fills if the consumer stalls on
// filesystem I/O for a long burst.
func (e *Engine) enqueue(raw json.RawMessage) {
	e.frames <- raw
}

func (e *Engine) chartDir(workspaceID string) (string, error) {
	dir := e.cfg.ChartDir(workspaceID)
	if dir == "" {
		return "", errors.WorkspaceNotMapped(workspaceID)
	}
	return dir, nil
}

func (e *Engine) watcherEnabled() bool {
	return e.cfg.Watcher.Enabled == nil || *e.cfg.Watcher.Enabled
}

func (e *Engine) startWatcher(workspaceID string) error {
	dir := e.cfg.ChartDir(workspaceID)
	w, err := watcher.New(dir, e.cfg.Watcher.DebounceMs, e.pending.MarkDirty)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	e.watcherCancel = cancel
	e.mu.Unlock()

	go w.Start(ctx)
	return nil
}

func (e *Engine) stopWatcher() {
	e.mu.Lock()
	cancel := e.watcherCancel
	e.watcherCancel = nil
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// tokenSource adapts the API client to the push client's token interface.
type tokenSource struct {
	api *api.Client
}

func (t tokenSource) PushToken(ctx context.Context) (string, error) {
	resp, err := t.api.PushToken(ctx)
	if err != nil {
		return "", err
	}
	return resp.PushToken, nil
}

// statusSink forwards connection transitions to the store and the UI.
type statusSink struct {
	engine *Engine
}

func (s statusSink) SetConnectionStatus(status state.ConnectionStatus) {
	s.engine.store.SetConnectionStatus(status)
	s.engine.notifier.Notify(notify.ConnectionStatus(status))
}
