package store

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/dcode-github/imovel_listing_system/models"
)

// MemoryStore keeps listings in process memory. It backs the default
// STORAGE_DRIVER and the handler tests.
type MemoryStore struct {
	mu    sync.RWMutex
	seq   int64
	items []models.Imovel
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: func() time.Time { return time.Now().UTC() }}
}

func (s *MemoryStore) List(_ context.Context) ([]models.Imovel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (models.Imovel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(id)
	if i < 0 {
		return models.Imovel{}, ErrNotFound
	}
	return s.items[i], nil
}

func (s *MemoryStore) Create(_ context.Context, d models.Draft) (models.Imovel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	now := s.now()
	im := models.Imovel{
		ID:          strconv.FormatInt(s.seq, 10),
		Title:       d.Title,
		Description: d.Description,
		Address:     d.Address,
		Purpose:     d.Purpose,
		Price:       d.Price,
		Bedrooms:    d.Bedrooms,
		Bathrooms:   d.Bathrooms,
		Garage:      d.Garage,
		Agent:       d.Agent,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.items = append(s.items, im)
	return im, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, p models.PatchImovel) (models.Imovel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return models.Imovel{}, ErrNotFound
	}
	im := s.items[i]
	p.Apply(&im)
	im.UpdatedAt = s.now()
	s.items[i] = im
	return im, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return ErrNotFound
	}
	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

func (s *MemoryStore) index(id string) int {
	return slices.IndexFunc(s.items, func(im models.Imovel) bool { return im.ID == id })
}
