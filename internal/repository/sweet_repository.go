package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/sweet-shop/internal/domain"
)

// SweetRepository encapsulates catalog persistence.
type SweetRepository interface {
	Create(ctx context.Context, sweet *domain.Sweet) error
	GetByID(ctx context.Context, id string) (*domain.Sweet, error)
	List(ctx context.Context) ([]domain.Sweet, error)
	Search(ctx context.Context, filter domain.SweetFilter) ([]domain.Sweet, error)
	Update(ctx context.Context, id string, patch domain.SweetPatch) (*domain.Sweet, error)
	Delete(ctx context.Context, id string) error
	// Purchase removes one unit. It returns domain.ErrOutOfStock without
	// touching the row when no stock is left.
	Purchase(ctx context.Context, id string) (*domain.Sweet, error)
	Restock(ctx context.Context, id string, delta int) (*domain.Sweet, error)
}

const sweetColumns = `id, name, category, description, price, quantity, created_at, updated_at`

type sweetRepository struct {
	db DB
}

// NewSweetRepository instantiates repository.
func NewSweetRepository(db DB) SweetRepository {
	return &sweetRepository{db: db}
}

func (r *sweetRepository) Create(ctx context.Context, sweet *domain.Sweet) error {
	const query = `
        INSERT INTO sweets (id, name, category, description, price, quantity)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at, updated_at`

	if sweet.ID == "" {
		sweet.ID = uuid.NewString()
	}
	if err := r.db.QueryRow(ctx, query,
		sweet.ID,
		sweet.Name,
		sweet.Category,
		sweet.Description,
		sweet.Price,
		sweet.Quantity,
	).Scan(&sweet.CreatedAt, &sweet.UpdatedAt); err != nil {
		return fmt.Errorf("insert sweet: %w", err)
	}
	return nil
}

func (r *sweetRepository) GetByID(ctx context.Context, id string) (*domain.Sweet, error) {
	query := `SELECT ` + sweetColumns + ` FROM sweets WHERE id=$1`
	return scanSweet(r.db.QueryRow(ctx, query, id))
}

func (r *sweetRepository) List(ctx context.Context) ([]domain.Sweet, error) {
	return r.Search(ctx, domain.SweetFilter{})
}

func (r *sweetRepository) Search(ctx context.Context, filter domain.SweetFilter) ([]domain.Sweet, error) {
	query, args := buildSearchQuery(filter)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search sweets: %w", err)
	}
	defer rows.Close()

	sweets := make([]domain.Sweet, 0)
	for rows.Next() {
		sweet, err := scanSweet(rows)
		if err != nil {
			return nil, err
		}
		sweets = append(sweets, *sweet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search sweets: %w", err)
	}
	return sweets, nil
}

func buildSearchQuery(filter domain.SweetFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Name != nil && strings.TrimSpace(*filter.Name) != "" {
		args = append(args, strings.TrimSpace(*filter.Name))
		clauses = append(clauses, fmt.Sprintf("strpos(LOWER(name), LOWER($%d)) > 0", len(args)))
	}
	if filter.Category != nil && *filter.Category != "" {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.MinPrice != nil {
		args = append(args, *filter.MinPrice)
		clauses = append(clauses, fmt.Sprintf("price >= $%d", len(args)))
	}
	if filter.MaxPrice != nil {
		args = append(args, *filter.MaxPrice)
		clauses = append(clauses, fmt.Sprintf("price <= $%d", len(args)))
	}

	query := `SELECT ` + sweetColumns + ` FROM sweets WHERE ` + strings.Join(clauses, " AND ") +
		` ORDER BY created_at ASC, id ASC`
	return query, args
}

func (r *sweetRepository) Update(ctx context.Context, id string, patch domain.SweetPatch) (*domain.Sweet, error) {
	var updated *domain.Sweet
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		current, err := scanSweet(tx.QueryRow(ctx,
			`SELECT `+sweetColumns+` FROM sweets WHERE id=$1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if patch.Empty() {
			updated = current
			return nil
		}
		patch.Apply(current)

		const query = `
            UPDATE sweets SET name=$1, category=$2, description=$3, price=$4, quantity=$5, updated_at=NOW()
            WHERE id=$6
            RETURNING ` + sweetColumns
		updated, err = scanSweet(tx.QueryRow(ctx, query,
			current.Name,
			current.Category,
			current.Description,
			current.Price,
			current.Quantity,
			id,
		))
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *sweetRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM sweets WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete sweet: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrSweetNotFound
	}
	return nil
}

// Purchase decrements with a single conditional UPDATE so concurrent buyers
// can never take the quantity below zero. When no row is returned the
// existence probe tells a missing sweet apart from an empty one.
func (r *sweetRepository) Purchase(ctx context.Context, id string) (*domain.Sweet, error) {
	const query = `
        UPDATE sweets SET quantity = quantity - 1, updated_at = NOW()
        WHERE id = $1 AND quantity >= 1
        RETURNING ` + sweetColumns

	var purchased *domain.Sweet
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		sweet, err := scanSweet(tx.QueryRow(ctx, query, id))
		if err == nil {
			purchased = sweet
			return nil
		}
		if !errors.Is(err, domain.ErrSweetNotFound) {
			return err
		}

		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM sweets WHERE id=$1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("probe sweet: %w", err)
		}
		if !exists {
			return domain.ErrSweetNotFound
		}
		return domain.ErrOutOfStock
	})
	if err != nil {
		return nil, err
	}
	return purchased, nil
}

// Restock relies on the INTEGER column to reject a sum past
// domain.MaxQuantity; the overflow surfaces as ErrInvalidQuantity.
func (r *sweetRepository) Restock(ctx context.Context, id string, delta int) (*domain.Sweet, error) {
	if delta <= 0 || delta > domain.MaxQuantity {
		return nil, domain.ErrInvalidQuantity
	}
	const query = `
        UPDATE sweets SET quantity = quantity + $2, updated_at = NOW()
        WHERE id = $1
        RETURNING ` + sweetColumns
	sweet, err := scanSweet(r.db.QueryRow(ctx, query, id, delta))
	if isNumericOutOfRange(err) {
		return nil, domain.ErrInvalidQuantity
	}
	return sweet, err
}

func scanSweet(row pgx.Row) (*domain.Sweet, error) {
	var sweet domain.Sweet
	if err := row.Scan(
		&sweet.ID,
		&sweet.Name,
		&sweet.Category,
		&sweet.Description,
		&sweet.Price,
		&sweet.Quantity,
		&sweet.CreatedAt,
		&sweet.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSweetNotFound
		}
		return nil, fmt.Errorf("scan sweet: %w", err)
	}
	return &sweet, nil
}
