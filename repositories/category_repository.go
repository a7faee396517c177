package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/racket-rankings/models"
	"github.com/lib/pq"
)

var (
	ErrCategoryNotFound     = errors.New("category not found")
	ErrCategoryNameConflict = errors.New("category name conflict")
)

type CategoryRepository interface {
	ListAll(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id int) (*models.Category, error)
	CreateBatch(ctx context.Context, exec SQLExecutor, categories []*models.Category) error
	UpdateType(ctx context.Context, exec SQLExecutor, id int, categoryType models.CategoryType) error
	ListByIDs(ctx context.Context, ids []int) ([]models.Category, error)
}

type postgresCategoryRepository struct {
	db *sql.DB
}

func NewPostgresCategoryRepository(db *sql.DB) CategoryRepository {
	return &postgresCategoryRepository{db: db}
}

func (r *postgresCategoryRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresCategoryRepository) ListAll(ctx context.Context) ([]models.Category, error) {
	query := `SELECT id, name, type, description, created_at FROM categories ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCategories(rows)
}

func (r *postgresCategoryRepository) GetByID(ctx context.Context, id int) (*models.Category, error) {
	query := `SELECT id, name, type, description, created_at FROM categories WHERE id = $1`

	c := &models.Category{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Type, &c.Description, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return c, nil
}

// CreateBatch inserts staged categories in one statement and backfills the
// generated ids in input order.
func (r *postgresCategoryRepository) CreateBatch(ctx context.Context, exec SQLExecutor, categories []*models.Category) error {
	if len(categories) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)

	valueClauses := make([]string, 0, len(categories))
	args := make([]interface{}, 0, len(categories)*3)
	for i, c := range categories {
		valueClauses = append(valueClauses, fmt.Sprintf("($%d, $%d, $%d)", i*3+1, i*3+2, i*3+3))
		args = append(args, c.Name, c.Type, c.Description)
	}

	query := fmt.Sprintf(`
		INSERT INTO categories (name, type, description)
		VALUES %s
		RETURNING id, created_at`, strings.Join(valueClauses, ", "))

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return r.handleCategoryError(err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if scanErr := rows.Scan(&categories[i].ID, &categories[i].CreatedAt); scanErr != nil {
			return scanErr
		}
		i++
	}
	return rows.Err()
}

func (r *postgresCategoryRepository) UpdateType(ctx context.Context, exec SQLExecutor, id int, categoryType models.CategoryType) error {
	executor := r.getExecutor(exec)
	query := `UPDATE categories SET type = $1 WHERE id = $2`

	result, err := executor.ExecContext(ctx, query, categoryType, id)
	if err != nil {
		return r.handleCategoryError(err)
	}
	return checkAffectedRows(result, ErrCategoryNotFound)
}

func (r *postgresCategoryRepository) ListByIDs(ctx context.Context, ids []int) ([]models.Category, error) {
	if len(ids) == 0 {
		return []models.Category{}, nil
	}
	query := `SELECT id, name, type, description, created_at FROM categories WHERE id = ANY($1) ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCategories(rows)
}

func scanCategories(rows *sql.Rows) ([]models.Category, error) {
	categories := make([]models.Category, 0)
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *postgresCategoryRepository) handleCategoryError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23505" && pqErr.Constraint == "categories_name_key" {
			return ErrCategoryNameConflict
		}
	}
	return err
}
