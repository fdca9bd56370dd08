package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dcode-github/imovel_listing_system/models"
)

const imovelColumns = `id, titulo, descricao, endereco, finalidade, valor::float8, quartos, banheiros, garagem, corretor, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImovel(row rowScanner) (models.Imovel, error) {
	var (
		im      models.Imovel
		id      int64
		purpose string
	)
	err := row.Scan(&id, &im.Title, &im.Description, &im.Address, &purpose, &im.Price,
		&im.Bedrooms, &im.Bathrooms, &im.Garage, &im.Agent, &im.CreatedAt, &im.UpdatedAt)
	if err != nil {
		return models.Imovel{}, err
	}
	im.ID = strconv.FormatInt(id, 10)
	im.Purpose = models.Purpose(purpose)
	im.CreatedAt = im.CreatedAt.UTC()
	im.UpdatedAt = im.UpdatedAt.UTC()
	return im, nil
}

// parseID maps ids that can never exist in a BIGSERIAL column to ErrNotFound.
func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrNotFound
	}
	return n, nil
}

type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *PostgresStore) List(ctx context.Context) ([]models.Imovel, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+imovelColumns+` FROM imoveis ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select imoveis: %w", err)
	}
	defer rows.Close()

	out := []models.Imovel{}
	for rows.Next() {
		im, err := scanImovel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan imovel: %w", err)
		}
		out = append(out, im)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate imoveis: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (models.Imovel, error) {
	n, err := parseID(id)
	if err != nil {
		return models.Imovel{}, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+imovelColumns+` FROM imoveis WHERE id = $1`, n)
	im, err := scanImovel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Imovel{}, ErrNotFound
	}
	if err != nil {
		return models.Imovel{}, fmt.Errorf("select imovel %s: %w", id, err)
	}
	return im, nil
}

func (s *PostgresStore) Create(ctx context.Context, d models.Draft) (models.Imovel, error) {
	now := s.now()
	const q = `INSERT INTO imoveis (titulo, descricao, endereco, finalidade, valor, quartos, banheiros, garagem, corretor, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING ` + imovelColumns

	row := s.db.QueryRowContext(ctx, q,
		d.Title, d.Description, d.Address, string(d.Purpose), d.Price,
		d.Bedrooms, d.Bathrooms, d.Garage, d.Agent, now)
	im, err := scanImovel(row)
	if err != nil {
		return models.Imovel{}, fmt.Errorf("insert imovel: %w", err)
	}
	return im, nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, p models.PatchImovel) (models.Imovel, error) {
	n, err := parseID(id)
	if err != nil {
		return models.Imovel{}, err
	}

	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if p.Title != nil {
		add("titulo", *p.Title)
	}
	if p.Description != nil {
		add("descricao", *p.Description)
	}
	if p.Address != nil {
		add("endereco", *p.Address)
	}
	if p.Purpose != nil {
		add("finalidade", string(*p.Purpose))
	}
	if p.Price != nil {
		add("valor", *p.Price)
	}
	if p.Bedrooms != nil {
		add("quartos", *p.Bedrooms)
	}
	if p.Bathrooms != nil {
		add("banheiros", *p.Bathrooms)
	}
	if p.Garage != nil {
		add("garagem", *p.Garage)
	}
	if p.Agent != nil {
		add("corretor", *p.Agent)
	}
	add("updated_at", s.now())
	args = append(args, n)

	q := fmt.Sprintf(`UPDATE imoveis SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), imovelColumns)

	im, err := scanImovel(s.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Imovel{}, ErrNotFound
	}
	if err != nil {
		return models.Imovel{}, fmt.Errorf("update imovel %s: %w", id, err)
	}
	return im, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM imoveis WHERE id = $1`, n)
	if err != nil {
		return fmt.Errorf("delete imovel %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete imovel %s: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
