// Package store persists listings. Every backend keeps listings in creation
// order and reports unknown ids with ErrNotFound.
package store

import (
	"context"
	"errors"

	"github.com/dcode-github/imovel_listing_system/models"
)

var ErrNotFound = errors.New("imovel not found")

type Store interface {
	List(ctx context.Context) ([]models.Imovel, error)
	Get(ctx context.Context, id string) (models.Imovel, error)
	// Create assigns the id and both timestamps.
	Create(ctx context.Context, d models.Draft) (models.Imovel, error)
	// Update applies the present fields of p and bumps updated_at.
	Update(ctx context.Context, id string, p models.PatchImovel) (models.Imovel, error)
	Delete(ctx context.Context, id string) error
}
