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
	ErrPlayerNotFound           = errors.New("player not found")
	ErrPlayerExternalIDConflict = errors.New("player external id conflict")
)

type PlayerRepository interface {
	ListAll(ctx context.Context) ([]models.Player, error)
	ListOrderedByTotalPoints(ctx context.Context) ([]models.Player, error)
	GetByID(ctx context.Context, id int) (*models.Player, error)
	CreateBatch(ctx context.Context, exec SQLExecutor, players []*models.Player) error
	AddTotalPoints(ctx context.Context, exec SQLExecutor, playerID, delta int) error
	GetTotalForUpdate(ctx context.Context, exec SQLExecutor, playerID int) (int, error)
	SetTotalPoints(ctx context.Context, exec SQLExecutor, playerID, total int) error
	Search(ctx context.Context, query string, limit int) ([]models.Player, error)
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPlayerRepository) ListAll(ctx context.Context) ([]models.Player, error) {
	query := `SELECT id, external_id, name, total_points, created_at FROM players`
	return r.queryPlayers(ctx, query)
}

// ListOrderedByTotalPoints returns every player sorted for the overall
// standings. Ranking and pagination happen in the service, after this read.
func (r *postgresPlayerRepository) ListOrderedByTotalPoints(ctx context.Context) ([]models.Player, error) {
	query := `
		SELECT id, external_id, name, total_points, created_at
		FROM players
		ORDER BY total_points DESC, name ASC`
	return r.queryPlayers(ctx, query)
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	query := `SELECT id, external_id, name, total_points, created_at FROM players WHERE id = $1`

	p := &models.Player{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.ExternalID, &p.Name, &p.TotalPoints, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return p, nil
}

// CreateBatch inserts staged players in one statement, backfilling generated
// ids in input order so the import session can wire result entries to them.
func (r *postgresPlayerRepository) CreateBatch(ctx context.Context, exec SQLExecutor, players []*models.Player) error {
	if len(players) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)

	valueClauses := make([]string, 0, len(players))
	args := make([]interface{}, 0, len(players)*2)
	for i, p := range players {
		valueClauses = append(valueClauses, fmt.Sprintf("($%d, $%d)", i*2+1, i*2+2))
		args = append(args, p.ExternalID, p.Name)
	}

	query := fmt.Sprintf(`
		INSERT INTO players (external_id, name)
		VALUES %s
		RETURNING id, created_at`, strings.Join(valueClauses, ", "))

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return r.handlePlayerError(err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if scanErr := rows.Scan(&players[i].ID, &players[i].CreatedAt); scanErr != nil {
			return scanErr
		}
		i++
	}
	return rows.Err()
}

func (r *postgresPlayerRepository) AddTotalPoints(ctx context.Context, exec SQLExecutor, playerID, delta int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE players SET total_points = total_points + $1 WHERE id = $2`

	result, err := executor.ExecContext(ctx, query, delta, playerID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

// GetTotalForUpdate locks the player row for the duration of the enclosing
// transaction. Used by the compensating deletion before subtracting points.
func (r *postgresPlayerRepository) GetTotalForUpdate(ctx context.Context, exec SQLExecutor, playerID int) (int, error) {
	executor := r.getExecutor(exec)
	query := `SELECT total_points FROM players WHERE id = $1 FOR UPDATE`

	var total int
	err := executor.QueryRowContext(ctx, query, playerID).Scan(&total)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrPlayerNotFound
		}
		return 0, err
	}
	return total, nil
}

func (r *postgresPlayerRepository) SetTotalPoints(ctx context.Context, exec SQLExecutor, playerID, total int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE players SET total_points = $1 WHERE id = $2`

	result, err := executor.ExecContext(ctx, query, total, playerID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) Search(ctx context.Context, query string, limit int) ([]models.Player, error) {
	if limit <= 0 {
		limit = 50
	}
	sqlQuery := `
		SELECT id, external_id, name, total_points, created_at
		FROM players
		WHERE name ILIKE $1 OR external_id ILIKE $1
		ORDER BY total_points DESC, name ASC
		LIMIT $2`

	return r.queryPlayers(ctx, sqlQuery, "%"+query+"%", limit)
}

func (r *postgresPlayerRepository) queryPlayers(ctx context.Context, query string, args ...interface{}) ([]models.Player, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]models.Player, 0)
	for rows.Next() {
		var p models.Player
		if scanErr := rows.Scan(&p.ID, &p.ExternalID, &p.Name, &p.TotalPoints, &p.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (r *postgresPlayerRepository) handlePlayerError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23505" && pqErr.Constraint == "players_external_id_key" {
			return ErrPlayerExternalIDConflict
		}
	}
	return err
}
