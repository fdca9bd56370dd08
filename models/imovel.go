package models

import (
	"math"
	"strings"
	"time"
)

type Imovel struct {
	ID          string    `json:"id"`
	Title       string    `json:"titulo"`
	Description string    `json:"descricao"`
	Address     string    `json:"endereco"`
	Purpose     Purpose   `json:"finalidade"`
	Price       float64   `json:"valor"`
	Bedrooms    int       `json:"quartos"`
	Bathrooms   int       `json:"banheiros"`
	Garage      bool      `json:"garagem"`
	Agent       string    `json:"corretor"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Draft carries every client-editable field of an Imovel. The id and the
// timestamps are always assigned by the server.
type Draft struct {
	Title       string  `json:"titulo"`
	Description string  `json:"descricao"`
	Address     string  `json:"endereco"`
	Purpose     Purpose `json:"finalidade"`
	Price       float64 `json:"valor"`
	Bedrooms    int     `json:"quartos"`
	Bathrooms   int     `json:"banheiros"`
	Garage      bool    `json:"garagem"`
	Agent       string  `json:"corretor"`
}

func (im Imovel) Draft() Draft {
	return Draft{
		Title:       im.Title,
		Description: im.Description,
		Address:     im.Address,
		Purpose:     im.Purpose,
		Price:       im.Price,
		Bedrooms:    im.Bedrooms,
		Bathrooms:   im.Bathrooms,
		Garage:      im.Garage,
		Agent:       im.Agent,
	}
}

// Patch turns a full draft into an update payload with every field present.
func (d Draft) Patch() PatchImovel {
	return PatchImovel{
		Title:       &d.Title,
		Description: &d.Description,
		Address:     &d.Address,
		Purpose:     &d.Purpose,
		Price:       &d.Price,
		Bedrooms:    &d.Bedrooms,
		Bathrooms:   &d.Bathrooms,
		Garage:      &d.Garage,
		Agent:       &d.Agent,
	}
}

// Normalize trims text fields and rounds the price to cents, matching the
// decimal(15,2) column the listings are persisted in.
func (d Draft) Normalize() Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.Address = strings.TrimSpace(d.Address)
	d.Agent = strings.TrimSpace(d.Agent)
	d.Price = RoundPrice(d.Price)
	return d
}

// CreateImovel is the POST /imoveis body. Pointers tell a missing field apart
// from a zero value so that "garagem": false and "quartos": 0 are accepted.
type CreateImovel struct {
	Title       *string  `json:"titulo" validate:"required,notblank,max=255"`
	Description *string  `json:"descricao" validate:"required,notblank"`
	Address     *string  `json:"endereco" validate:"required,notblank,max=255"`
	Purpose     *Purpose `json:"finalidade" validate:"required,purpose"`
	Price       *float64 `json:"valor" validate:"required,gte=0,lt=10000000000000"`
	Bedrooms    *int     `json:"quartos" validate:"required,gte=0,lte=255"`
	Bathrooms   *int     `json:"banheiros" validate:"required,gte=0,lte=255"`
	Garage      *bool    `json:"garagem" validate:"required"`
	Agent       *string  `json:"corretor" validate:"required,notblank,max=255"`
}

// Draft must only be called after the payload passed validation.
func (c CreateImovel) Draft() Draft {
	return Draft{
		Title:       *c.Title,
		Description: *c.Description,
		Address:     *c.Address,
		Purpose:     *c.Purpose,
		Price:       *c.Price,
		Bedrooms:    *c.Bedrooms,
		Bathrooms:   *c.Bathrooms,
		Garage:      *c.Garage,
		Agent:       *c.Agent,
	}.Normalize()
}

// PatchImovel is the PUT/PATCH /imoveis/{id} body. Absent fields are left
// untouched; present ones follow the same rules as on create.
type PatchImovel struct {
	Title       *string  `json:"titulo,omitempty" validate:"omitnil,notblank,max=255"`
	Description *string  `json:"descricao,omitempty" validate:"omitnil,notblank"`
	Address     *string  `json:"endereco,omitempty" validate:"omitnil,notblank,max=255"`
	Purpose     *Purpose `json:"finalidade,omitempty" validate:"omitnil,purpose"`
	Price       *float64 `json:"valor,omitempty" validate:"omitnil,gte=0,lt=10000000000000"`
	Bedrooms    *int     `json:"quartos,omitempty" validate:"omitnil,gte=0,lte=255"`
	Bathrooms   *int     `json:"banheiros,omitempty" validate:"omitnil,gte=0,lte=255"`
	Garage      *bool    `json:"garagem,omitempty" validate:"omitnil"`
	Agent       *string  `json:"corretor,omitempty" validate:"omitnil,notblank,max=255"`
}

func (p PatchImovel) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Address == nil && p.Purpose == nil &&
		p.Price == nil && p.Bedrooms == nil && p.Bathrooms == nil && p.Garage == nil && p.Agent == nil
}

// Normalize trims present text fields and rounds a present price to cents.
func (p PatchImovel) Normalize() PatchImovel {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := strings.TrimSpace(*s)
		return &v
	}
	p.Title = trim(p.Title)
	p.Description = trim(p.Description)
	p.Address = trim(p.Address)
	p.Agent = trim(p.Agent)
	if p.Price != nil {
		v := RoundPrice(*p.Price)
		p.Price = &v
	}
	return p
}

// Apply copies the present fields onto im. It never touches the id or the
// timestamps.
func (p PatchImovel) Apply(im *Imovel) {
	if p.Title != nil {
		im.Title = *p.Title
	}
	if p.Description != nil {
		im.Description = *p.Description
	}
	if p.Address != nil {
		im.Address = *p.Address
	}
	if p.Purpose != nil {
		im.Purpose = *p.Purpose
	}
	if p.Price != nil {
		im.Price = *p.Price
	}
	if p.Bedrooms != nil {
		im.Bedrooms = *p.Bedrooms
	}
	if p.Bathrooms != nil {
		im.Bathrooms = *p.Bathrooms
	}
	if p.Garage != nil {
		im.Garage = *p.Garage
	}
	if p.Agent != nil {
		im.Agent = *p.Agent
	}
}

func RoundPrice(v float64) float64 {
	return math.Round(v*100) / 100
}
