// Package artifact manages chart-file artifacts delivered by the assistant:
// resolving their on-disk location, holding generated content for review,
// and applying or discarding it on the user's decision.
package artifact

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/helmwright/helmwright/errors"
	"github.com/helmwright/helmwright/logging"
	"github.com/sirupsen/logrus"
)

// Pending is generated file content not yet written to disk, awaiting an
// explicit accept or reject.
type Pending struct {
	WorkspaceID string
	PlanID      string
	FilePath    string // Event-relative path, the review key
	AbsPath     string // Resolved on-disk location
	Content     string
	ReceivedAt  time.Time
}

// Store holds pending content and local-edit dirty marks for the active
// workspace. It is cleared wholesale on workspace switch.
type Store struct {
	mu      sync.Mutex
	pending map[string]Pending  // keyed by FilePath
	dirty   map[string]struct{} // abs paths edited locally since content arrived
	log     *logrus.Entry
}

// NewStore creates an empty pending content store.
func NewStore() *Store {
	return &Store{
		pending: make(map[string]Pending),
		dirty:   make(map[string]struct{}),
		log:     logging.NewLogger("artifact"),
	}
}

// Put stores pending content for review, replacing any earlier content for
// the same file path.
func (s *Store) Put(p Pending) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ReceivedAt.IsZero() {
		p.ReceivedAt = time.Now()
	}
	s.pending[p.FilePath] = p
	// Fresh content supersedes any local-edit mark from the previous round
	delete(s.dirty, p.AbsPath)
}

// Get returns the pending content for a file path, if any.
func (s *Store) Get(filePath string) (Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[filePath]
	return p, ok
}

// List returns all pending entries ordered by file path.
func (s *Store) List() []Pending {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Pending, 0, len(s.pending))
	for _, p := range s.pending {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FilePath < result[j].FilePath })
	return result
}

// Len returns the number of entries awaiting review.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Clear drops all pending content and dirty marks. Called on workspace
// switch, where earlier content no longer applies.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = make(map[string]Pending)
	s.dirty = make(map[string]struct{})
}

// MarkDirty records that a file was modified outside helmwright while
// content for it was awaiting review.
func (s *Store) MarkDirty(absPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pending {
		if p.AbsPath == absPath {
			s.dirty[absPath] = struct{}{}
			s.log.WithField("path", absPath).Warn("Local edit detected while content is pending review")
			return
		}
	}
}

// IsDirty reports whether the file behind a pending entry was edited
// locally after the content arrived.
func (s *Store) IsDirty(absPath string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.dirty[absPath]
	return ok
}

// Accept writes the pending content to disk and clears the entry. If the
// file was edited locally after the content arrived, Accept refuses unless
// force is set, so a local edit is never silently clobbered.
func (s *Store) Accept(filePath string, force bool) error {
	s.mu.Lock()
	p, ok := s.pending[filePath]
	if !ok {
		s.mu.Unlock()
		return errors.PendingNotFound(filePath)
	}
	if _, dirty := s.dirty[p.AbsPath]; dirty && !force {
		s.mu.Unlock()
		return errors.LocalEditNewer(filePath)
	}
	s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(p.AbsPath), 0755); err != nil {
		return errors.ArtifactWrite(p.AbsPath, err)
	}
	if err := os.WriteFile(p.AbsPath, []byte(p.Content), 0644); err != nil {
		return errors.ArtifactWrite(p.AbsPath, err)
	}

	s.mu.Lock()
	delete(s.pending, filePath)
	delete(s.dirty, p.AbsPath)
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"path":        p.AbsPath,
		"workspaceId": p.WorkspaceID,
		"planId":      p.PlanID,
	}).Info("Pending content accepted")
	return nil
}

// Reject discards the pending content without touching the filesystem.
func (s *Store) Reject(filePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[filePath]
	if !ok {
		return errors.PendingNotFound(filePath)
	}
	delete(s.pending, filePath)
	delete(s.dirty, p.AbsPath)
	s.log.WithField("path", p.AbsPath).Info("Pending content rejected")
	return nil
}

// EnsureFile creates an empty file at absPath when none exists, so an
// artifact event without pending content still has something to open.
func EnsureFile(absPath string) error {
	if _, err := os.Stat(absPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return errors.ArtifactWrite(absPath, err)
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return errors.ArtifactWrite(absPath, err)
	}
	if err := os.WriteFile(absPath, nil, 0644); err != nil {
		return errors.ArtifactWrite(absPath, err)
	}
	return nil
}
