package state

import (
	"sync"

	"github.com/helmwright/helmwright/errors"
	"github.com/helmwright/helmwright/logging"
	"github.com/sirupsen/logrus"
)

// Store is the in-memory state store for the reconciler.
// It is thread-safe and supports pub/sub for real-time updates.
type Store struct {
	mu              sync.RWMutex
	activeWorkspace string
	messages        []ChatMessage
	plans           []Plan
	renders         []Render
	status          ConnectionStatus
	subscribers     map[chan Update]struct{}
	log             *logrus.Entry
}

// New creates a new Store instance.
func New() *Store {
	return &Store{
		status:      StatusDisconnected,
		subscribers: make(map[chan Update]struct{}),
		log:         logging.NewLogger("store"),
	}
}

// ActiveWorkspace returns the currently active workspace id, or empty when
// no workspace is active.
func (s *Store) ActiveWorkspace() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeWorkspace
}

// SetActiveWorkspace switches the active workspace. Switching to a new id
// clears and replaces all message/plan/render collections, since they belong
// to a different workspace and must not be mixed in. An empty id clears
// everything.
func (s *Store) SetActiveWorkspace(id string) {
	s.mu.Lock()
	if id == s.activeWorkspace {
		s.mu.Unlock()
		return
	}

	s.activeWorkspace = id
	s.messages = nil
	s.plans = nil
	s.renders = nil
	s.mu.Unlock()

	s.log.WithField("workspaceId", id).Debug("Active workspace changed")
	s.broadcast(Update{Type: UpdateWorkspace, WorkspaceID: id})
}

// Messages returns a copy of the message list in arrival order.
func (s *Store) Messages() []ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]ChatMessage, len(s.messages))
	copy(result, s.messages)
	return result
}

// Plans returns a copy of the plan list in arrival order.
func (s *Store) Plans() []Plan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]Plan, len(s.plans))
	copy(result, s.plans)
	return result
}

// Renders returns a copy of the render list in arrival order.
func (s *Store) Renders() []Render {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]Render, len(s.renders))
	copy(result, s.renders)
	return result
}

// Plan returns the plan with the given id, if present.
func (s *Store) Plan(id string) (Plan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// MergeMessage applies a chat message update by merge-by-id: if a message
// with the same id exists, fields set in the update override existing fields
// and unset fields are preserved; otherwise the update is appended. Updates
// without an id are logged and discarded, since correct behavior cannot be
// derived without an identity to merge against.
func (s *Store) MergeMessage(update ChatMessage) error {
	if update.ID == "" {
		s.log.Error("Dropping chat message update without id")
		return errors.New(errors.ErrCodeInvalidInput, "chat message update has no id")
	}

	s.mu.Lock()
	merged := false
	for i := range s.messages {
		if s.messages[i].ID == update.ID {
			mergeMessageFields(&s.messages[i], update)
			merged = true
			break
		}
	}
	if !merged {
		s.messages = append(s.messages, update)
	}
	workspaceID := s.activeWorkspace
	s.mu.Unlock()

	s.broadcast(Update{Type: UpdateMessages, WorkspaceID: workspaceID, Payload: update.ID})
	return nil
}

// MergePlan applies a plan update with the same merge-by-id contract as
// MergeMessage, keyed by plan id.
func (s *Store) MergePlan(update Plan) error {
	if update.ID == "" {
		s.log.Error("Dropping plan update without id")
		return errors.New(errors.ErrCodeInvalidInput, "plan update has no id")
	}

	s.mu.Lock()
	merged := false
	for i := range s.plans {
		if s.plans[i].ID == update.ID {
			mergePlanFields(&s.plans[i], update)
			merged = true
			break
		}
	}
	if !merged {
		s.plans = append(s.plans, update)
	}
	workspaceID := s.activeWorkspace
	s.mu.Unlock()

	s.broadcast(Update{Type: UpdatePlans, WorkspaceID: workspaceID, Payload: update.ID})
	return nil
}

// SetRenders replaces the render list.
func (s *Store) SetRenders(renders []Render) {
	s.mu.Lock()
	s.renders = make([]Render, len(renders))
	copy(s.renders, renders)
	workspaceID := s.activeWorkspace
	s.mu.Unlock()

	s.broadcast(Update{Type: UpdateRenders, WorkspaceID: workspaceID})
}

// AppendRenderIfAbsent adds a render unless one with the same id exists.
func (s *Store) AppendRenderIfAbsent(render Render) {
	if render.ID == "" {
		s.log.Error("Dropping render without id")
		return
	}

	s.mu.Lock()
	for _, r := range s.renders {
		if r.ID == render.ID {
			s.mu.Unlock()
			return
		}
	}
	s.renders = append(s.renders, render)
	workspaceID := s.activeWorkspace
	s.mu.Unlock()

	s.broadcast(Update{Type: UpdateRenders, WorkspaceID: workspaceID, Payload: render.ID})
}

// ConnectionStatus returns the current push channel status.
func (s *Store) ConnectionStatus() ConnectionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SetConnectionStatus updates the push channel status and notifies
// subscribers when it changes.
func (s *Store) SetConnectionStatus(status ConnectionStatus) {
	s.mu.Lock()
	if s.status == status {
		s.mu.Unlock()
		return
	}
	s.status = status
	workspaceID := s.activeWorkspace
	s.mu.Unlock()

	s.log.WithField("status", status).Debug("Connection status changed")
	s.broadcast(Update{Type: UpdateConnection, WorkspaceID: workspaceID, Payload: status})
}

// Subscribe creates a new subscription channel for state updates.
func (s *Store) Subscribe() chan Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Update, 100) // Buffered
	s.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (s *Store) Unsubscribe(ch chan Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscribers, ch)
	close(ch)
}

// broadcast delivers an update to all subscribers without blocking, so a
// slow consumer cannot stall the reconciler.
func (s *Store) broadcast(u Update) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for ch := range s.subscribers {
		select {
		case ch <- u:
		default:
		}
	}
}

// mergeMessageFields applies the set fields of update onto dst.
// Update wins on conflicts; unset fields are preserved.
func mergeMessageFields(dst *ChatMessage, update ChatMessage) {
	if update.Prompt != "" {
		dst.Prompt = update.Prompt
	}
	if update.Response != "" {
		dst.Response = update.Response
	}
	if update.IsComplete != nil {
		dst.IsComplete = update.IsComplete
	}
	if update.ResponsePlanID != "" {
		dst.ResponsePlanID = update.ResponsePlanID
	}
	if update.ResponseRenderID != "" {
		dst.ResponseRenderID = update.ResponseRenderID
	}
}

func mergePlanFields(dst *Plan, update Plan) {
	if update.Status != "" {
		dst.Status = update.Status
	}
	if update.Description != "" {
		dst.Description = update.Description
	}
	if update.ActionFiles != nil {
		dst.ActionFiles = update.ActionFiles
	}
}
