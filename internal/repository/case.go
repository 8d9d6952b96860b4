// Package repository provides data access for application cases.
package repository

import (
	"context"
	"errors"
	"sort"
	"sync"

	"versize/internal/models"
)

// ErrCaseExists is returned when a case id is reused.
var ErrCaseExists = errors.New("case already exists")

// CaseRepository defines the interface for application case storage.
type CaseRepository interface {
	Create(ctx context.Context, c *models.ApplicationCase) error
	GetByID(ctx context.Context, id string) (*models.ApplicationCase, error)
	GetByThread(ctx context.Context, threadID string) (*models.ApplicationCase, error)
	List(ctx context.Context, status models.ApplicationStatus) ([]*models.ApplicationCase, error)
	// Transition runs mutate against the stored case while holding that case's lock.
	// The change is committed only when mutate returns nil.
	Transition(ctx context.Context, id string, mutate func(*models.ApplicationCase) error) (*models.ApplicationCase, error)
}

type caseSlot struct {
	mu   sync.Mutex
	data *models.ApplicationCase
}

// caseRepository keeps cases in process memory. Cases do not survive a restart.
type caseRepository struct {
	mu       sync.RWMutex
	byID     map[string]*caseSlot
	byThread map[string]string
}

// NewCaseRepository creates an in-memory case repository.
func NewCaseRepository() CaseRepository {
	return &caseRepository{
		byID:     make(map[string]*caseSlot),
		byThread: make(map[string]string),
	}
}

func (r *caseRepository) Create(_ context.Context, c *models.ApplicationCase) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[c.ID]; exists {
		return models.NewInternalError(ErrCaseExists)
	}
	r.byID[c.ID] = &caseSlot{data: c.Clone()}
	if c.Thread.ID != "" {
		r.byThread[c.Thread.ID] = c.ID
	}
	return nil
}

func (r *caseRepository) slot(id string) (*caseSlot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	return s, ok
}

func (r *caseRepository) GetByID(_ context.Context, id string) (*models.ApplicationCase, error) {
	s, ok := r.slot(id)
	if !ok {
		return nil, models.NewNotFoundError("Application", id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone(), nil
}

func (r *caseRepository) GetByThread(ctx context.Context, threadID string) (*models.ApplicationCase, error) {
	r.mu.RLock()
	id, ok := r.byThread[threadID]
	r.mu.RUnlock()
	if !ok {
		return nil, models.NewNotFoundError("Application thread", threadID)
	}
	return r.GetByID(ctx, id)
}

// List returns cases with the given status, oldest first. An empty status lists everything.
func (r *caseRepository) List(_ context.Context, status models.ApplicationStatus) ([]*models.ApplicationCase, error) {
	r.mu.RLock()
	slots := make([]*caseSlot, 0, len(r.byID))
	for _, s := range r.byID {
		slots = append(slots, s)
	}
	r.mu.RUnlock()

	out := make([]*models.ApplicationCase, 0, len(slots))
	for _, s := range slots {
		s.mu.Lock()
		if status == "" || s.data.Status == status {
			out = append(out, s.data.Clone())
		}
		s.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *caseRepository) Transition(_ context.Context, id string, mutate func(*models.ApplicationCase) error) (*models.ApplicationCase, error) {
	s, ok := r.slot(id)
	if !ok {
		return nil, models.NewNotFoundError("Application", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.data.Clone()
	if err := mutate(draft); err != nil {
		return nil, err
	}
	draft.ID = s.data.ID
	s.data = draft
	return draft.Clone(), nil
}
