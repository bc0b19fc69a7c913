// Package state provides the in-memory workspace state store for the
// reconciler. It is the single source of truth for the active workspace and
// the chat/plan/render collections scoped to it.
package state

// ConnectionStatus describes the push channel connection, process-wide.
type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
	StatusReconnecting ConnectionStatus = "reconnecting"
)

// ChatMessage is one prompt/response exchange in the workspace transcript.
// Identity is ID; all mutations go through merge-by-id so a late full
// snapshot and a mid-stream delta compose in either arrival order.
type ChatMessage struct {
	ID               string `json:"id"`
	Prompt           string `json:"prompt,omitempty"`
	Response         string `json:"response,omitempty"`
	IsComplete       *bool  `json:"isComplete,omitempty"`
	ResponsePlanID   string `json:"responsePlanId,omitempty"`
	ResponseRenderID string `json:"responseRenderId,omitempty"`
}

// Plan is a proposed, reviewable set of chart file changes.
type Plan struct {
	ID          string   `json:"id"`
	Status      string   `json:"status,omitempty"`
	Description string   `json:"description,omitempty"`
	ActionFiles []string `json:"actionFiles,omitempty"`
}

// Plan statuses the UI reacts to. The server may send others; they are
// carried through untouched.
const (
	PlanStatusReview   = "review"
	PlanStatusApplied  = "applied"
	PlanStatusRejected = "rejected"
)

// Render is one rendered-chart result associated with a message.
type Render struct {
	ID     string `json:"id"`
	Status string `json:"status,omitempty"`
	Output string `json:"output,omitempty"`
}

// UpdateType defines what kind of data changed.
type UpdateType string

const (
	UpdateWorkspace  UpdateType = "workspace"
	UpdateMessages   UpdateType = "messages"
	UpdatePlans      UpdateType = "plans"
	UpdateRenders    UpdateType = "renders"
	UpdateConnection UpdateType = "connection"
)

// Update represents a change to the state, broadcast to subscribers.
type Update struct {
	Type        UpdateType
	WorkspaceID string // Active workspace at the time of the change
	Payload     interface{}
}
