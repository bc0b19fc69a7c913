package router

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/helmwright/helmwright/errors"
	"github.com/helmwright/helmwright/internal/artifact"
	"github.com/helmwright/helmwright/internal/notify"
	"github.com/helmwright/helmwright/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notifyRecorder struct {
	mu            sync.Mutex
	notifications []notify.Notification
}

func (r *notifyRecorder) Notify(n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

func (r *notifyRecorder) commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var cmds []string
	for _, n := range r.notifications {
		cmds = append(cmds, n.Command)
	}
	return cmds
}

func (r *notifyRecorder) sawCommand(command string) bool {
	for _, c := range r.commands() {
		if c == command {
			return true
		}
	}
	return false
}

type fixture struct {
	store    *state.Store
	pending  *artifact.Store
	notifier *notifyRecorder
	router   *Router
	chartDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	chartDir := filepath.Join(t.TempDir(), "mychart")
	require.NoError(t, os.MkdirAll(chartDir, 0755))

	f := &fixture{
		store:    state.New(),
		pending:  artifact.NewStore(),
		notifier: &notifyRecorder{},
		chartDir: chartDir,
	}
	f.router = New(f.store, f.pending, f.notifier, func(workspaceID string) (string, error) {
		if workspaceID != "ws_1" {
			return "", errors.WorkspaceNotMapped(workspaceID)
		}
		return chartDir, nil
	})
	f.router.renderDelay = time.Millisecond
	f.store.SetActiveWorkspace("ws_1")
	return f
}

func mustFrame(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestRouteMalformedFrames(t *testing.T) {
	f := newFixture(t)

	assert.False(t, f.router.Route(json.RawMessage(`{not json`)))
	assert.False(t, f.router.Route(mustFrame(t, map[string]string{"workspaceId": "ws_1"})))
	assert.False(t, f.router.Route(mustFrame(t, map[string]string{
		"eventType":   "workspace-exploded",
		"workspaceId": "ws_1",
	})))

	assert.Empty(t, f.store.Messages())
	assert.Empty(t, f.notifier.commands())
}

func TestRouteDropsInactiveWorkspace(t *testing.T) {
	f := newFixture(t)

	handled := f.router.Route(mustFrame(t, Frame{
		EventType:   EventChatMessageUpdated,
		WorkspaceID: "ws_other",
		ChatMessage: &state.ChatMessage{ID: "msg_1", Prompt: "add an ingress"},
	}))

	assert.False(t, handled)
	assert.Empty(t, f.store.Messages())
	assert.Empty(t, f.notifier.commands(), "stale frames are dropped without any notification")
}

func TestChatMessageMerged(t *testing.T) {
	f := newFixture(t)

	handled := f.router.Route(mustFrame(t, Frame{
		EventType:   EventChatMessageUpdated,
		WorkspaceID: "ws_1",
		ChatMessage: &state.ChatMessage{ID: "msg_1", Prompt: "add an ingress"},
	}))

	assert.True(t, handled)
	msgs := f.store.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "add an ingress", msgs[0].Prompt)
	assert.True(t, f.notifier.sawCommand(notify.CommandStateChanged))
}

func TestChatMessageWithoutID(t *testing.T) {
	f := newFixture(t)

	handled := f.router.Route(mustFrame(t, Frame{
		EventType:   EventChatMessageUpdated,
		WorkspaceID: "ws_1",
		ChatMessage: &state.ChatMessage{Prompt: "who am I"},
	}))

	assert.False(t, handled)
	assert.Empty(t, f.store.Messages())
}

func TestPlanMergedWithDelayedRender(t *testing.T) {
	f := newFixture(t)

	handled := f.router.Route(mustFrame(t, Frame{
		EventType:   EventPlanCreated,
		WorkspaceID: "ws_1",
		Plan:        &state.Plan{ID: "plan_1", Status: state.PlanStatusReview},
	}))

	assert.True(t, handled)
	_, ok := f.store.Plan("plan_1")
	assert.True(t, ok)

	// The re-render fires after the delay, not synchronously
	deadline := time.Now().Add(2 * time.Second)
	for !f.notifier.sawCommand(notify.CommandStateChanged) && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.True(t, f.notifier.sawCommand(notify.CommandStateChanged))
}

func TestArtifactPendingContentHeldForReview(t *testing.T) {
	f := newFixture(t)
	content := "replicaCount: 3\n"

	handled := f.router.Route(mustFrame(t, Frame{
		EventType:   EventArtifactUpdated,
		WorkspaceID: "ws_1",
		File: &FileEvent{
			FilePath:       "mychart/values.yaml",
			PlanID:         "plan_1",
			ContentPending: &content,
		},
	}))

	assert.True(t, handled)
	assert.True(t, f.notifier.sawCommand(notify.CommandFileChangePending))

	p, ok := f.pending.Get("mychart/values.yaml")
	require.True(t, ok)
	assert.Equal(t, content, p.Content)
	assert.Equal(t, "plan_1", p.PlanID)
	// The duplicated chart-dir segment is stripped from the disk path
	assert.Equal(t, filepath.Join(f.chartDir, "values.yaml"), p.AbsPath)

	// Nothing written until the user accepts
	_, err := os.Stat(p.AbsPath)
	assert.True(t, os.IsNotExist(err))
}

func TestArtifactWithoutContentEnsuresFile(t *testing.T) {
	f := newFixture(t)

	handled := f.router.Route(mustFrame(t, Frame{
		EventType:   EventArtifactUpdated,
		WorkspaceID: "ws_1",
		File:        &FileEvent{FilePath: "templates/service.yaml"},
	}))

	assert.True(t, handled)
	assert.True(t, f.notifier.sawCommand(notify.CommandOpenFile))

	info, err := os.Stat(filepath.Join(f.chartDir, "templates", "service.yaml"))
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestArtifactPathEscapeReported(t *testing.T) {
	f := newFixture(t)

	handled := f.router.Route(mustFrame(t, Frame{
		EventType:   EventArtifactUpdated,
		WorkspaceID: "ws_1",
		File:        &FileEvent{FilePath: "../outside.yaml"},
	}))

	assert.False(t, handled)
	assert.True(t, f.notifier.sawCommand(notify.CommandOperationFailed))
	assert.Zero(t, f.pending.Len())
}

func TestArtifactUnmappedWorkspace(t *testing.T) {
	f := newFixture(t)
	f.store.SetActiveWorkspace("ws_unmapped")

	handled := f.router.Route(mustFrame(t, Frame{
		EventType:   EventArtifactUpdated,
		WorkspaceID: "ws_unmapped",
		File:        &FileEvent{FilePath: "values.yaml"},
	}))

	assert.False(t, handled)
	assert.True(t, f.notifier.sawCommand(notify.CommandOperationFailed))
}
