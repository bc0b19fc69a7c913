package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeMessageAppendsUnknownID(t *testing.T) {
	s := New()
	s.SetActiveWorkspace("ws_a")

	err := s.MergeMessage(ChatMessage{ID: "msg_1", Prompt: "add an ingress"})
	require.NoError(t, err)

	messages := s.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "msg_1", messages[0].ID)
	assert.Equal(t, "add an ingress", messages[0].Prompt)
}

func TestMergeMessageUpdateWinsUnsetPreserved(t *testing.T) {
	s := New()
	s.SetActiveWorkspace("ws_a")

	require.NoError(t, s.MergeMessage(ChatMessage{ID: "msg_1", Prompt: "add an ingress"}))

	// A mid-stream delta carries only the response
	require.NoError(t, s.MergeMessage(ChatMessage{ID: "msg_1", Response: "Sure, adding"}))

	messages := s.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "add an ingress", messages[0].Prompt, "unset field must be preserved")
	assert.Equal(t, "Sure, adding", messages[0].Response)

	// A later delta overrides the response and completes the message
	done := true
	require.NoError(t, s.MergeMessage(ChatMessage{ID: "msg_1", Response: "Sure, adding an ingress template.", IsComplete: &done}))

	messages = s.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "Sure, adding an ingress template.", messages[0].Response)
	require.NotNil(t, messages[0].IsComplete)
	assert.True(t, *messages[0].IsComplete)
}

func TestMergeMessageIdempotent(t *testing.T) {
	s := New()
	s.SetActiveWorkspace("ws_a")

	update := ChatMessage{ID: "msg_1", Prompt: "add an ingress", Response: "done"}
	require.NoError(t, s.MergeMessage(update))
	once := s.Messages()

	require.NoError(t, s.MergeMessage(update))
	twice := s.Messages()

	assert.Equal(t, once, twice, "applying the same update twice must equal applying it once")
}

func TestMergeMessageMissingID(t *testing.T) {
	s := New()
	s.SetActiveWorkspace("ws_a")

	err := s.MergeMessage(ChatMessage{Prompt: "orphan"})
	assert.Error(t, err)
	assert.Empty(t, s.Messages(), "store must be unchanged for updates without id")
}

func TestMergePlanFieldsCompose(t *testing.T) {
	s := New()
	s.SetActiveWorkspace("ws_a")

	// Two plan events for the same id arrive with disjoint fields
	require.NoError(t, s.MergePlan(Plan{ID: "plan_1", Status: PlanStatusReview}))
	require.NoError(t, s.MergePlan(Plan{ID: "plan_1", Description: "new text"}))

	plan, ok := s.Plan("plan_1")
	require.True(t, ok)
	assert.Equal(t, PlanStatusReview, plan.Status)
	assert.Equal(t, "new text", plan.Description)
}

func TestSetActiveWorkspaceClearsCollections(t *testing.T) {
	s := New()
	s.SetActiveWorkspace("ws_a")
	require.NoError(t, s.MergeMessage(ChatMessage{ID: "msg_1", Prompt: "hello"}))
	require.NoError(t, s.MergePlan(Plan{ID: "plan_1", Status: PlanStatusReview}))
	s.AppendRenderIfAbsent(Render{ID: "render_1"})

	s.SetActiveWorkspace("ws_b")

	assert.Empty(t, s.Messages(), "messages from the old workspace must be cleared")
	assert.Empty(t, s.Plans(), "plans from the old workspace must be cleared")
	assert.Empty(t, s.Renders(), "renders from the old workspace must be cleared")
	assert.Equal(t, "ws_b", s.ActiveWorkspace())

	// Clearing with an empty id tears everything down
	require.NoError(t, s.MergeMessage(ChatMessage{ID: "msg_2", Prompt: "hi"}))
	s.SetActiveWorkspace("")
	assert.Empty(t, s.Messages())
	assert.Empty(t, s.ActiveWorkspace())
}

func TestAppendRenderIfAbsent(t *testing.T) {
	s := New()
	s.SetActiveWorkspace("ws_a")

	s.AppendRenderIfAbsent(Render{ID: "render_1", Status: "done"})
	s.AppendRenderIfAbsent(Render{ID: "render_1", Status: "done"})
	s.AppendRenderIfAbsent(Render{ID: "render_2"})

	renders := s.Renders()
	require.Len(t, renders, 2)
	assert.Equal(t, "render_1", renders[0].ID)
	assert.Equal(t, "render_2", renders[1].ID)
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	s := New()
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	s.SetActiveWorkspace("ws_a")

	select {
	case u := <-ch:
		assert.Equal(t, UpdateWorkspace, u.Type)
		assert.Equal(t, "ws_a", u.WorkspaceID)
	default:
		t.Fatal("Expected a workspace update on the subscription channel")
	}

	require.NoError(t, s.MergeMessage(ChatMessage{ID: "msg_1"}))
	select {
	case u := <-ch:
		assert.Equal(t, UpdateMessages, u.Type)
	default:
		t.Fatal("Expected a messages update on the subscription channel")
	}
}

func TestSetConnectionStatus(t *testing.T) {
	s := New()
	assert.Equal(t, StatusDisconnected, s.ConnectionStatus())

	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	s.SetConnectionStatus(StatusConnecting)
	assert.Equal(t, StatusConnecting, s.ConnectionStatus())

	// Setting the same status again must not re-broadcast
	s.SetConnectionStatus(StatusConnecting)

	count := 0
	for {
		select {
		case <-ch:
			count++
			continue
		default:
		}
		break
	}
	assert.Equal(t, 1, count, "unchanged status must not be re-broadcast")
}
