package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spigell/devscout/internal/model"
)

// MemoryRepo stores analyses in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]model.SavedAnalysis
	now    func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		nextID: 1,
		byID:   make(map[int64]model.SavedAnalysis),
		now:    time.Now,
	}
}

func (r *MemoryRepo) Save(ctx context.Context, analysis model.SavedAnalysis) (model.SavedAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return model.SavedAnalysis{}, err
	}
	if err := Validate(analysis); err != nil {
		return model.SavedAnalysis{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	analysis.ID = r.nextID
	analysis.CreatedAt = r.now().UTC()
	r.nextID++
	r.byID[analysis.ID] = analysis
	return analysis, nil
}

func (r *MemoryRepo) List(ctx context.Context) ([]model.SavedAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	out := make([]model.SavedAnalysis, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id int64) (model.SavedAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return model.SavedAnalysis{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	if !ok {
		return model.SavedAnalysis{}, ErrNotFound
	}
	return a, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}
