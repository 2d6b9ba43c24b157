package payment

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

var ErrSessionNotFound = errors.New("payment session not found")

// Registry holds the live workflows, keyed by session ID.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Workflow
	deps     Deps
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{sessions: make(map[string]*Workflow), deps: deps}
}

// Start opens a new workflow for the teacher.
func (r *Registry) Start(ctx context.Context, teacherID string) (*Workflow, error) {
	w, err := NewWorkflow(ctx, teacherID, r.deps)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.sessions[w.ID()] = w
	r.mu.Unlock()
	return w, nil
}

func (r *Registry) Get(id string) (*Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if w, ok := r.sessions[id]; ok {
		return w, nil
	}
	return nil, ErrSessionNotFound
}

// Discard forgets a workflow; a commit in flight still completes.
func (r *Registry) Discard(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

// Prune discards the workflows older than maxAge which are not committing, and returns how many.
func (r *Registry) Prune(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	deadline := nowFunc().Add(-maxAge)
	for id, w := range r.sessions {
		if w.createdAt.Before(deadline) && w.State() != StateCommitting {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
