package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/suportebot/helpdesk/internal/domain"
)

type DepartmentRepository interface {
	Create(ctx context.Context, dept *domain.Department) error
	GetByID(ctx context.Context, id string) (*domain.Department, error)
	GetByName(ctx context.Context, name string) (*domain.Department, error)
	List(ctx context.Context) ([]*domain.Department, error)
	Count(ctx context.Context) (int64, error)
}

type departmentRepository struct {
	pool *pgxpool.Pool
}

func NewDepartmentRepository(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepository{pool: pool}
}

func (r *departmentRepository) Create(ctx context.Context, dept *domain.Department) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO departments (id, name, description, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (name) DO NOTHING`,
		dept.ID, dept.Name, dept.Description, dept.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert department: %w", err)
	}
	return nil
}

func (r *departmentRepository) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, description, created_at FROM departments WHERE id = $1`, id)
	return scanDepartment(row)
}

func (r *departmentRepository) GetByName(ctx context.Context, name string) (*domain.Department, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, description, created_at FROM departments WHERE name = $1`, name)
	return scanDepartment(row)
}

func (r *departmentRepository) List(ctx context.Context) ([]*domain.Department, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, created_at FROM departments ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	var depts []*domain.Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		depts = append(depts, d)
	}
	return depts, rows.Err()
}

func (r *departmentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM departments`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count departments: %w", err)
	}
	return n, nil
}

func scanDepartment(row pgx.Row) (*domain.Department, error) {
	var d domain.Department
	err := row.Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan department: %w", err)
	}
	return &d, nil
}
