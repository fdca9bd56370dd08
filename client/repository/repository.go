// Package repository holds the authoritative in-memory copy of the listings.
// The cache only changes after the remote store confirmed a mutation, and
// every change swaps in a new slice so readers never see a partial edit.
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/dcode-github/imovel_listing_system/logging"
	"github.com/dcode-github/imovel_listing_system/models"
)

// Remote is the subset of remote.Client the repository relies on.
type Remote interface {
	List(ctx context.Context) ([]models.Imovel, error)
	Get(ctx context.Context, id string) (models.Imovel, error)
	Create(ctx context.Context, d models.Draft) (models.Imovel, error)
	Update(ctx context.Context, id string, p models.PatchImovel) (models.Imovel, error)
	Delete(ctx context.Context, id string) error
}

type Repository struct {
	remote Remote
	log    *slog.Logger

	mu    sync.RWMutex
	items []models.Imovel
	// seq hands out generations; applied records, per listing, the
	// generation of the last edit or removal reflected in items.
	seq     uint64
	applied map[string]uint64
}

func New(remote Remote, log *slog.Logger) *Repository {
	if log == nil {
		log = logging.Discard()
	}
	return &Repository{
		remote:  remote,
		log:     log,
		applied: make(map[string]uint64),
	}
}

// List returns the current listings in cache order. The slice is a copy.
func (r *Repository) List() []models.Imovel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.items)
}

func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Refresh replaces the whole cache with the remote listing set.
func (r *Repository) Refresh(ctx context.Context) error {
	items, err := r.remote.List(ctx)
	if err != nil {
		return fmt.Errorf("refresh listings: %w", err)
	}

	r.mu.Lock()
	r.items = slices.Clone(items)
	r.mu.Unlock()

	r.log.Debug("Listings refreshed", "count", len(items))
	return nil
}

// Add creates the listing remotely and appends the server's copy. Identical
// concurrent calls are not deduplicated.
func (r *Repository) Add(ctx context.Context, d models.Draft) (models.Imovel, error) {
	created, err := r.remote.Create(ctx, d)
	if err != nil {
		return models.Imovel{}, fmt.Errorf("add listing: %w", err)
	}

	r.mu.Lock()
	next := make([]models.Imovel, len(r.items), len(r.items)+1)
	copy(next, r.items)
	r.items = append(next, created)
	r.mu.Unlock()

	r.log.Debug("Listing added", "id", created.ID)
	return created, nil
}

// Edit updates the listing remotely and replaces the cached entry. The cached
// id and creation timestamp win over whatever the server echoes back. A
// completion older than the last applied edit or removal of the same listing
// is dropped from the cache.
func (r *Repository) Edit(ctx context.Context, id string, d models.Draft) (models.Imovel, error) {
	gen := r.nextGeneration()

	updated, err := r.remote.Update(ctx, id, d.Patch())
	if err != nil {
		return models.Imovel{}, fmt.Errorf("edit listing %s: %w", id, err)
	}
	updated.ID = id

	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.IndexFunc(r.items, func(im models.Imovel) bool { return im.ID == id })
	if i >= 0 {
		updated.CreatedAt = r.items[i].CreatedAt
	}
	if gen < r.applied[id] {
		r.log.Debug("Dropping stale edit", "id", id, "generation", gen, "applied", r.applied[id])
		return updated, nil
	}
	r.applied[id] = gen
	if i < 0 {
		return updated, nil
	}

	next := slices.Clone(r.items)
	next[i] = updated
	r.items = next

	r.log.Debug("Listing edited", "id", id)
	return updated, nil
}

// Remove deletes the listing remotely and then drops it from the cache. On
// failure the cached entry stays.
func (r *Repository) Remove(ctx context.Context, id string) error {
	if err := r.remote.Delete(ctx, id); err != nil {
		return fmt.Errorf("remove listing %s: %w", id, err)
	}

	gen := r.nextGeneration()

	r.mu.Lock()
	r.applied[id] = gen
	r.items = slices.DeleteFunc(slices.Clone(r.items), func(im models.Imovel) bool { return im.ID == id })
	r.mu.Unlock()

	r.log.Debug("Listing removed", "id", id)
	return nil
}

// Get serves from the cache and falls back to the remote store without
// caching the result.
func (r *Repository) Get(ctx context.Context, id string) (models.Imovel, error) {
	r.mu.RLock()
	i := slices.IndexFunc(r.items, func(im models.Imovel) bool { return im.ID == id })
	if i >= 0 {
		im := r.items[i]
		r.mu.RUnlock()
		return im, nil
	}
	r.mu.RUnlock()

	im, err := r.remote.Get(ctx, id)
	if err != nil {
		return models.Imovel{}, fmt.Errorf("get listing %s: %w", id, err)
	}
	return im, nil
}

func (r *Repository) nextGeneration() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return r.seq
}
