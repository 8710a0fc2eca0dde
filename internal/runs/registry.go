// Package runs tracks the in-memory status of detection runs.
package runs

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/item-dedupe/internal/model"
)

// NewID returns a fresh run id.
func NewID() string {
	return "req_" + uuid.NewString()
}

// Registry holds one RunStatus per run id. All methods are safe for
// concurrent use and hand out copies.
type Registry struct {
	mu   sync.RWMutex
	runs map[string]*model.RunStatus
	now  func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		runs: make(map[string]*model.RunStatus),
		now:  time.Now,
	}
}

// Start registers id in the processing state, replacing any previous entry.
func (r *Registry) Start(id string) model.RunStatus {
	now := r.now().UTC()
	st := &model.RunStatus{
		ID:        id,
		State:     model.RunStateProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	r.runs[id] = st
	r.mu.Unlock()
	return clone(st)
}

// Update applies fn to the entry for id. It reports false when id is unknown.
func (r *Registry) Update(id string, fn func(*model.RunStatus)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.runs[id]
	if !ok {
		return false
	}
	fn(st)
	st.ID = id
	st.UpdatedAt = r.now().UTC()
	return true
}

// Get returns a copy of the entry for id.
func (r *Registry) Get(id string) (model.RunStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.runs[id]
	if !ok {
		return model.RunStatus{}, false
	}
	return clone(st), true
}

// Evict forgets id.
func (r *Registry) Evict(id string) {
	r.mu.Lock()
	delete(r.runs, id)
	r.mu.Unlock()
}

// FindByFilename returns the id of the run that produced filename.
func (r *Registry) FindByFilename(filename string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, st := range r.runs {
		if st.Filename == filename {
			return id, true
		}
	}
	return "", false
}

// Len returns the number of tracked runs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.runs)
}

// Progress returns a callback that records msg as the progress of id.
func (r *Registry) Progress(id string) func(string) {
	return func(msg string) {
		r.Update(id, func(st *model.RunStatus) { st.Progress = msg })
	}
}

// Fail moves id to the error state with msg.
func (r *Registry) Fail(id, msg string) {
	r.Update(id, func(st *model.RunStatus) {
		st.State = model.RunStateError
		st.Error = msg
	})
}

func clone(st *model.RunStatus) model.RunStatus {
	out := *st
	if st.FailedBatches != nil {
		out.FailedBatches = append([]model.BatchFailure(nil), st.FailedBatches...)
	}
	return out
}
