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
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentFileConflict = errors.New("tournament file name or content digest conflict")
)

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	CreateResults(ctx context.Context, exec SQLExecutor, tournamentID int, results []*models.ResultEntry) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	List(ctx context.Context, limit, offset int) ([]models.Tournament, error)
	ListResults(ctx context.Context, tournamentID int) ([]models.ResultEntry, error)
	ListCategoryIDs(ctx context.Context, tournamentID int) ([]int, error)
	FindByOriginalFileName(ctx context.Context, fileName string) (*models.Tournament, error)
	FindByContentDigest(ctx context.Context, digest string) (*models.Tournament, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	UpdateArchiveKey(ctx context.Context, id int, key *string) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournaments (name, location, start_date, end_date, original_file_name, content_digest)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		t.Name, t.Location, t.StartDate, t.EndDate, t.OriginalFileName, t.ContentDigest,
	).Scan(&t.ID, &t.CreatedAt)

	return r.handleTournamentError(err)
}

// CreateResults bulk-inserts the embedded result entries of a freshly
// created tournament. Entries are immutable after this.
func (r *postgresTournamentRepository) CreateResults(ctx context.Context, exec SQLExecutor, tournamentID int, results []*models.ResultEntry) error {
	if len(results) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)

	const fields = 11
	valueClauses := make([]string, 0, len(results))
	args := make([]interface{}, 0, len(results)*fields)
	for i, e := range results {
		placeholders := make([]string, fields)
		for j := 0; j < fields; j++ {
			placeholders[j] = fmt.Sprintf("$%d", i*fields+j+1)
		}
		valueClauses = append(valueClauses, "("+strings.Join(placeholders, ", ")+")")
		args = append(args,
			tournamentID, e.CategoryID, e.CategoryType, e.Position, e.Position2,
			e.Player1ID, e.Player2ID, e.ExternalID1, e.ExternalID2,
			e.Player1Name, e.Player2Name,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO tournament_results (
			tournament_id, category_id, category_type, position, position2,
			player1_id, player2_id, external_id1, external_id2, player1_name, player2_name
		) VALUES %s
		RETURNING id`, strings.Join(valueClauses, ", "))

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if scanErr := rows.Scan(&results[i].ID); scanErr != nil {
			return scanErr
		}
		results[i].TournamentID = tournamentID
		i++
	}
	return rows.Err()
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	return r.getByID(ctx, r.db, id, false)
}

func (r *postgresTournamentRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	return r.getByID(ctx, r.getExecutor(exec), id, true)
}

func (r *postgresTournamentRepository) getByID(ctx context.Context, executor SQLExecutor, id int, forUpdate bool) (*models.Tournament, error) {
	query := `
		SELECT id, name, location, start_date, end_date,
		       original_file_name, content_digest, archive_key, created_at
		FROM tournaments
		WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	t := &models.Tournament{}
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Location, &t.StartDate, &t.EndDate,
		&t.OriginalFileName, &t.ContentDigest, &t.ArchiveKey, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, limit, offset int) ([]models.Tournament, error) {
	query := `
		SELECT id, name, location, start_date, end_date,
		       original_file_name, content_digest, archive_key, created_at
		FROM tournaments
		ORDER BY start_date DESC, created_at DESC`

	args := []interface{}{}
	argID := 1
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, limit)
		argID++
	}
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := rows.Scan(
			&t.ID, &t.Name, &t.Location, &t.StartDate, &t.EndDate,
			&t.OriginalFileName, &t.ContentDigest, &t.ArchiveKey, &t.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) ListResults(ctx context.Context, tournamentID int) ([]models.ResultEntry, error) {
	query := `
		SELECT id, tournament_id, category_id, category_type, position, position2,
		       player1_id, player2_id, external_id1, external_id2, player1_name, player2_name
		FROM tournament_results
		WHERE tournament_id = $1
		ORDER BY category_id, position`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]models.ResultEntry, 0)
	for rows.Next() {
		var e models.ResultEntry
		if scanErr := rows.Scan(
			&e.ID, &e.TournamentID, &e.CategoryID, &e.CategoryType, &e.Position, &e.Position2,
			&e.Player1ID, &e.Player2ID, &e.ExternalID1, &e.ExternalID2, &e.Player1Name, &e.Player2Name,
		); scanErr != nil {
			return nil, scanErr
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

func (r *postgresTournamentRepository) ListCategoryIDs(ctx context.Context, tournamentID int) ([]int, error) {
	query := `
		SELECT DISTINCT category_id
		FROM tournament_results
		WHERE tournament_id = $1
		ORDER BY category_id`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, scanErr
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresTournamentRepository) FindByOriginalFileName(ctx context.Context, fileName string) (*models.Tournament, error) {
	return r.findByField(ctx, "original_file_name", fileName)
}

func (r *postgresTournamentRepository) FindByContentDigest(ctx context.Context, digest string) (*models.Tournament, error) {
	return r.findByField(ctx, "content_digest", digest)
}

func (r *postgresTournamentRepository) findByField(ctx context.Context, field, value string) (*models.Tournament, error) {
	query := fmt.Sprintf(`
		SELECT id, name, location, start_date, end_date,
		       original_file_name, content_digest, archive_key, created_at
		FROM tournaments
		WHERE %s = $1`, field)

	t := &models.Tournament{}
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&t.ID, &t.Name, &t.Location, &t.StartDate, &t.EndDate,
		&t.OriginalFileName, &t.ContentDigest, &t.ArchiveKey, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

// Delete removes the tournament; result entries cascade via FK. Ledger
// reversal must already have happened inside the same transaction.
func (r *postgresTournamentRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateArchiveKey(ctx context.Context, id int, key *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE tournaments SET archive_key = $1 WHERE id = $2`, key, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23505" {
			switch pqErr.Constraint {
			case "tournaments_original_file_name_key", "tournaments_content_digest_key":
				return ErrTournamentFileConflict
			}
		}
	}
	return err
}
