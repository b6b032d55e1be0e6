package feehead

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusledger/campusledger/internal/shared"
)

const pgUniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence for fee heads.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns the whole catalog in fetch order. Matcher tie-breaks depend
// on this ordering staying stable.
func (r *Repository) List(ctx context.Context) ([]FeeHead, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, code FROM fee_heads ORDER BY id`)
	if err != nil {
		return nil, shared.WrapError(shared.KindStore, "feehead: list", err)
	}
	defer rows.Close()

	var heads []FeeHead
	for rows.Next() {
		var h FeeHead
		var code pgtype.Text
		if err := rows.Scan(&h.ID, &h.Name, &code); err != nil {
			return nil, shared.WrapError(shared.KindStore, "feehead: scan", err)
		}
		h.Code = code.String
		heads = append(heads, h)
	}
	return heads, rows.Err()
}

// GetByName looks up a head by case-insensitive name.
func (r *Repository) GetByName(ctx context.Context, name string) (*FeeHead, error) {
	var h FeeHead
	var code pgtype.Text
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, code FROM fee_heads WHERE LOWER(name) = LOWER($1)`, name,
	).Scan(&h.ID, &h.Name, &code)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.NewError(shared.KindNotFound, "feehead: "+name+" not found")
	}
	if err != nil {
		return nil, shared.WrapError(shared.KindStore, "feehead: get by name", err)
	}
	h.Code = code.String
	return &h, nil
}

// Create inserts a new head. Duplicate names surface as KindDuplicateKey.
func (r *Repository) Create(ctx context.Context, name, code string) (*FeeHead, error) {
	var h FeeHead
	err := r.pool.QueryRow(ctx,
		`INSERT INTO fee_heads (name, code) VALUES ($1, $2) RETURNING id, name, code`,
		name, code,
	).Scan(&h.ID, &h.Name, &h.Code)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, shared.WrapError(shared.KindDuplicateKey, "feehead: "+name+" already exists", err)
		}
		return nil, shared.WrapError(shared.KindStore, "feehead: create", err)
	}
	return &h, nil
}

// EnsureByName returns the named head, creating it when absent. A concurrent
// create racing the insert is resolved by re-fetching.
func (r *Repository) EnsureByName(ctx context.Context, name, code string) (*FeeHead, error) {
	head, err := r.GetByName(ctx, name)
	if err == nil {
		return head, nil
	}
	if !shared.IsNotFound(err) {
		return nil, err
	}

	head, err = r.Create(ctx, name, code)
	if shared.IsDuplicateKey(err) {
		return r.GetByName(ctx, name)
	}
	return head, err
}
