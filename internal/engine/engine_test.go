package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/helmwright/helmwright/config"
	"github.com/helmwright/helmwright/errors"
	"github.com/helmwright/helmwright/internal/api"
	"github.com/helmwright/helmwright/internal/notify"
	"github.com/helmwright/helmwright/internal/state"
	"github.com/helmwright/helmwright/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiServer struct {
	server   *httptest.Server
	mu       sync.Mutex
	proceeds []string
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()

	a := &apiServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /push", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"pushToken": "tok"})
	})
	mux.HandleFunc("POST /v1/workspaces/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"messageId": "msg_local"})
	})
	mux.HandleFunc("POST /v1/plans/{id}/proceed", func(w http.ResponseWriter, r *http.Request) {
		planID := r.PathValue("id")
		a.mu.Lock()
		a.proceeds = append(a.proceeds, planID)
		a.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]string{"planId": planID, "status": "applied"})
	})
	a.server = httptest.NewServer(mux)
	t.Cleanup(a.server.Close)
	return a
}

func (a *apiServer) proceedCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.proceeds)
}

func testConfig(brokerURL, apiURL, chartDir string) *config.Config {
	cfg := &config.Config{
		Version: "1.0",
		UserID:  "user_9",
		Server: &config.ServerConfig{
			APIURL:  apiURL,
			PushURL: brokerURL,
		},
		Push: &config.PushConfig{
			BaseDelayMs:    1,
			MaxDelayMs:     10,
			MaxAttempts:    5,
			PingIntervalMs: 50,
		},
		Workspaces: map[string]config.WorkspaceMapping{
			"ws_1": {ChartDir: chartDir},
		},
	}
	return cfg
}

type engineFixture struct {
	engine   *Engine
	broker   *testutil.Broker
	apiSrv   *apiServer
	notifier *notify.ChannelNotifier
	chartDir string
	cancel   context.CancelFunc
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	broker := testutil.NewBroker(t, "tok")
	apiSrv := newAPIServer(t)
	chartDir := testutil.CreateChartDir(t, "mychart")
	cfg := testConfig(broker.URL(), apiSrv.server.URL, chartDir)

	notifier := notify.NewChannelNotifier(100)
	e := New(cfg, api.NewWithToken(apiSrv.server.URL, "cred"), notifier)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go e.Start(ctx)

	return &engineFixture{
		engine:   e,
		broker:   broker,
		apiSrv:   apiSrv,
		notifier: notifier,
		chartDir: chartDir,
		cancel:   cancel,
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestEngineMergesPublishedFrames(t *testing.T) {
	f := newEngineFixture(t)

	require.NoError(t, f.engine.SetActiveWorkspace("ws_1"))
	require.True(t, waitFor(t, 5*time.Second, func() bool {
		return f.broker.Subscribed("ws_1#user_9")
	}))

	f.broker.Publish("ws_1#user_9", map[string]interface{}{
		"eventType":   "chatmessage-updated",
		"workspaceId": "ws_1",
		"chatMessage": map[string]string{"id": "msg_1", "prompt": "add an ingress"},
	})
	f.broker.Publish("ws_1#user_9", map[string]interface{}{
		"eventType":   "chatmessage-updated",
		"workspaceId": "ws_1",
		"chatMessage": map[string]string{"id": "msg_1", "response": "Sure, drafting a plan."},
	})

	require.True(t, waitFor(t, 5*time.Second, func() bool {
		msgs := f.engine.Store().Messages()
		return len(msgs) == 1 && msgs[0].Response != ""
	}))

	msgs := f.engine.Store().Messages()
	assert.Equal(t, "add an ingress", msgs[0].Prompt, "merge preserves fields absent from the update")
	assert.Equal(t, "Sure, drafting a plan.", msgs[0].Response)
}

func TestEngineReconnectsAfterDrop(t *testing.T) {
	f := newEngineFixture(t)

	require.NoError(t, f.engine.SetActiveWorkspace("ws_1"))
	require.True(t, waitFor(t, 5*time.Second, func() bool {
		return f.broker.Subscribed("ws_1#user_9")
	}))

	for _, id := range []string{"msg_1", "msg_2", "msg_3"} {
		f.broker.Publish("ws_1#user_9", map[string]interface{}{
			"eventType":   "chatmessage-updated",
			"workspaceId": "ws_1",
			"chatMessage": map[string]string{"id": id, "prompt": "prompt " + id},
		})
	}
	require.True(t, waitFor(t, 5*time.Second, func() bool {
		return len(f.engine.Store().Messages()) == 3
	}))

	f.broker.DropConnections()

	// The client reconnects, resubscribes, and keeps receiving
	require.True(t, waitFor(t, 5*time.Second, func() bool {
		return f.broker.Connects() >= 2 && f.broker.Subscribed("ws_1#user_9")
	}))
	require.True(t, waitFor(t, 5*time.Second, func() bool {
		return f.engine.Store().ConnectionStatus() == state.StatusConnected
	}))

	f.broker.Publish("ws_1#user_9", map[string]interface{}{
		"eventType":   "chatmessage-updated",
		"workspaceId": "ws_1",
		"chatMessage": map[string]string{"id": "msg_4", "prompt": "after reconnect"},
	})
	require.True(t, waitFor(t, 5*time.Second, func() bool {
		return len(f.engine.Store().Messages()) == 4
	}))
}

func TestEngineDropsStaleWorkspaceFrames(t *testing.T) {
	f := newEngineFixture(t)

	require.NoError(t, f.engine.SetActiveWorkspace("ws_1"))
	require.True(t, waitFor(t, 5*time.Second, func() bool {
		return f.broker.Subscribed("ws_1#user_9")
	}))

	// A frame tagged with a different workspace never reaches the store
	f.broker.Publish("ws_1#user_9", map[string]interface{}{
		"eventType":   "chatmessage-updated",
		"workspaceId": "ws_other",
		"chatMessage": map[string]string{"id": "msg_x", "prompt": "stale"},
	})
	f.broker.Publish("ws_1#user_9", map[string]interface{}{
		"eventType":   "chatmessage-updated",
		"workspaceId": "ws_1",
		"chatMessage": map[string]string{"id": "msg_1", "prompt": "current"},
	})

	require.True(t, waitFor(t, 5*time.Second, func() bool {
		return len(f.engine.Store().Messages()) == 1
	}))
	assert.Equal(t, "msg_1", f.engine.Store().Messages()[0].ID)
}

func TestSetActiveWorkspaceUnmapped(t *testing.T) {
	f := newEngineFixture(t)

	err := f.engine.SetActiveWorkspace("ws_unknown")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeWorkspaceNotMapped, errors.GetCode(err))
}

func TestSubmitPromptRequiresActiveWorkspace(t *testing.T) {
	f := newEngineFixture(t)

	err := f.engine.SubmitPrompt(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNoActiveWorkspace, errors.GetCode(err))
}

func TestSubmitPromptAppendsLocalMessage(t *testing.T) {
	f := newEngineFixture(t)
	require.NoError(t, f.engine.SetActiveWorkspace("ws_1"))

	require.NoError(t, f.engine.SubmitPrompt(context.Background(), "add a hpa"))

	msgs := f.engine.Store().Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "msg_local", msgs[0].ID)
	assert.Equal(t, "add a hpa", msgs[0].Prompt)
}

func TestAcceptPendingWritesAndProceedsPlan(t *testing.T) {
	f := newEngineFixture(t)

	require.NoError(t, f.engine.SetActiveWorkspace("ws_1"))
	require.True(t, waitFor(t, 5*time.Second, func() bool {
		return f.broker.Subscribed("ws_1#user_9")
	}))

	f.broker.Publish("ws_1#user_9", map[string]interface{}{
		"eventType":   "artifact-updated",
		"workspaceId": "ws_1",
		"file": map[string]string{
			"filePath":        "mychart/templates/hpa.yaml",
			"planId":          "plan_1",
			"content_pending": "kind: HorizontalPodAutoscaler\n",
		},
	})

	require.True(t, waitFor(t, 5*time.Second, func() bool {
		return f.engine.Pending().Len() == 1
	}))

	require.NoError(t, f.engine.AcceptPending(context.Background(), "mychart/templates/hpa.yaml", false))

	data, err := os.ReadFile(filepath.Join(f.chartDir, "templates", "hpa.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "kind: HorizontalPodAutoscaler\n", string(data))

	require.True(t, waitFor(t, 5*time.Second, func() bool {
		return f.apiSrv.proceedCount() == 1
	}))
	plan, ok := f.engine.Store().Plan("plan_1")
	require.True(t, ok)
	assert.Equal(t, "applied", plan.Status)
}

func TestRejectPendingDiscards(t *testing.T) {
	f := newEngineFixture(t)

	require.NoError(t, f.engine.SetActiveWorkspace("ws_1"))
	require.True(t, waitFor(t, 5*time.Second, func() bool {
		return f.broker.Subscribed("ws_1#user_9")
	}))

	f.broker.Publish("ws_1#user_9", map[string]interface{}{
		"eventType":   "artifact-updated",
		"workspaceId": "ws_1",
		"file": map[string]string{
			"filePath":        "values.yaml",
			"content_pending": "replicaCount: 9\n",
		},
	})
	require.True(t, waitFor(t, 5*time.Second, func() bool {
		return f.engine.Pending().Len() == 1
	}))

	require.NoError(t, f.engine.RejectPending("values.yaml"))
	assert.Zero(t, f.engine.Pending().Len())

	// The original file is untouched
	data, err := os.ReadFile(filepath.Join(f.chartDir, "values.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "replicaCount: 1")
}
