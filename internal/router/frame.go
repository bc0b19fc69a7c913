package router

import "github.com/helmwright/helmwright/internal/state"

// Event types carried on push frames.
const (
	EventChatMessageUpdated = "chatmessage-updated"
	EventPlanCreated        = "plan-created"
	EventPlanUpdated        = "plan-updated"
	EventArtifactUpdated    = "artifact-updated"
)

// Frame is one inbound push event, a tagged union keyed on eventType.
// Exactly one of the payload fields is expected per event type.
type Frame struct {
	EventType   string             `json:"eventType"`
	WorkspaceID string             `json:"workspaceId"`
	ChatMessage *state.ChatMessage `json:"chatMessage,omitempty"`
	Plan        *state.Plan        `json:"plan,omitempty"`
	File        *FileEvent         `json:"file,omitempty"`
}

// FileEvent describes an artifact update. ContentPending is a pointer so
// "no pending content" and "pending empty file" stay distinguishable.
type FileEvent struct {
	FilePath       string  `json:"filePath"`
	PlanID         string  `json:"planId,omitempty"`
	ContentPending *string `json:"content_pending,omitempty"`
}
