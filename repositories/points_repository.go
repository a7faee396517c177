package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/racket-rankings/models"
)

var ErrBucketNotFound = errors.New("category points bucket not found")

// PointsDelta is one ledger write: the summed points a player earned in one
// category of one tournament, committed exactly once per accepted import.
type PointsDelta struct {
	PlayerID       int
	CategoryID     int
	CategoryName   string
	CategoryType   models.CategoryType
	TournamentID   int
	TournamentName string
	Points         int
	Position       int
}

// PlayerPoints is a ranking read row: a player joined with the points that
// the requested scope ranks on.
type PlayerPoints struct {
	PlayerID         int
	ExternalID       *string
	Name             string
	TotalPoints      int
	Points           int
	TournamentsCount int
}

type PointsRepository interface {
	ApplyDelta(ctx context.Context, exec SQLExecutor, delta PointsDelta) error
	HistoryByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.PointsHistoryEntry, error)
	HistoryByPlayer(ctx context.Context, playerID int) ([]models.PointsHistoryEntry, error)
	DeleteHistoryByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
	GetBucketForUpdate(ctx context.Context, exec SQLExecutor, playerID, categoryID int) (*models.CategoryPoints, error)
	SetBucketPoints(ctx context.Context, exec SQLExecutor, playerID, categoryID, pts, tournamentsCount int) error
	BucketsByCategory(ctx context.Context, categoryID int) ([]PlayerPoints, error)
	BucketsByPlayer(ctx context.Context, playerID int) ([]models.CategoryPoints, error)
	SumPointsByCategoryType(ctx context.Context, categoryType models.CategoryType) ([]PlayerPoints, error)
	CountBucketsWithMorePoints(ctx context.Context, categoryID, pts int) (int, error)
}

type postgresPointsRepository struct {
	db *sql.DB
}

func NewPostgresPointsRepository(db *sql.DB) PointsRepository {
	return &postgresPointsRepository{db: db}
}

func (r *postgresPointsRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// ApplyDelta increments the player's lifetime total, upserts the per-category
// bucket and appends one history entry. Meant to run inside the import
// transaction so that all three writes land or none do.
func (r *postgresPointsRepository) ApplyDelta(ctx context.Context, exec SQLExecutor, delta PointsDelta) error {
	executor := r.getExecutor(exec)

	totalQuery := `UPDATE players SET total_points = total_points + $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, totalQuery, delta.Points, delta.PlayerID)
	if err != nil {
		return err
	}
	if err := checkAffectedRows(result, ErrPlayerNotFound); err != nil {
		return err
	}

	bucketQuery := `
		INSERT INTO player_category_points (player_id, category_id, points, tournaments_count, last_updated)
		VALUES ($1, $2, $3, 1, now())
		ON CONFLICT (player_id, category_id) DO UPDATE SET
			points = player_category_points.points + EXCLUDED.points,
			tournaments_count = player_category_points.tournaments_count + 1,
			last_updated = now()`
	if _, err := executor.ExecContext(ctx, bucketQuery, delta.PlayerID, delta.CategoryID, delta.Points); err != nil {
		return err
	}

	historyQuery := `
		INSERT INTO points_history (
			player_id, tournament_id, tournament_name,
			category_id, category_name, category_type,
			points_earned, position
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = executor.ExecContext(ctx, historyQuery,
		delta.PlayerID, delta.TournamentID, delta.TournamentName,
		delta.CategoryID, delta.CategoryName, delta.CategoryType,
		delta.Points, delta.Position,
	)
	return err
}

func (r *postgresPointsRepository) HistoryByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.PointsHistoryEntry, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, player_id, tournament_id, tournament_name,
		       category_id, category_name, category_type,
		       points_earned, position, earned_at
		FROM points_history
		WHERE tournament_id = $1
		ORDER BY player_id, category_id`

	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanHistory(rows)
}

func (r *postgresPointsRepository) HistoryByPlayer(ctx context.Context, playerID int) ([]models.PointsHistoryEntry, error) {
	query := `
		SELECT id, player_id, tournament_id, tournament_name,
		       category_id, category_name, category_type,
		       points_earned, position, earned_at
		FROM points_history
		WHERE player_id = $1
		ORDER BY earned_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanHistory(rows)
}

func (r *postgresPointsRepository) DeleteHistoryByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM points_history WHERE tournament_id = $1`, tournamentID)
	return err
}

func (r *postgresPointsRepository) GetBucketForUpdate(ctx context.Context, exec SQLExecutor, playerID, categoryID int) (*models.CategoryPoints, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT player_id, category_id, points, tournaments_count, last_updated
		FROM player_category_points
		WHERE player_id = $1 AND category_id = $2
		FOR UPDATE`

	b := &models.CategoryPoints{}
	err := executor.QueryRowContext(ctx, query, playerID, categoryID).Scan(
		&b.PlayerID, &b.CategoryID, &b.Points, &b.TournamentsCount, &b.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBucketNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *postgresPointsRepository) SetBucketPoints(ctx context.Context, exec SQLExecutor, playerID, categoryID, pts, tournamentsCount int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE player_category_points
		SET points = $1, tournaments_count = $2, last_updated = now()
		WHERE player_id = $3 AND category_id = $4`

	result, err := executor.ExecContext(ctx, query, pts, tournamentsCount, playerID, categoryID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrBucketNotFound)
}

func (r *postgresPointsRepository) BucketsByCategory(ctx context.Context, categoryID int) ([]PlayerPoints, error) {
	query := `
		SELECT p.id, p.external_id, p.name, p.total_points, pcp.points, pcp.tournaments_count
		FROM player_category_points pcp
		JOIN players p ON p.id = pcp.player_id
		WHERE pcp.category_id = $1
		ORDER BY pcp.points DESC, p.name ASC`

	rows, err := r.db.QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPlayerPoints(rows)
}

func (r *postgresPointsRepository) BucketsByPlayer(ctx context.Context, playerID int) ([]models.CategoryPoints, error) {
	query := `
		SELECT pcp.player_id, pcp.category_id, c.name, c.type,
		       pcp.points, pcp.tournaments_count, pcp.last_updated
		FROM player_category_points pcp
		JOIN categories c ON c.id = pcp.category_id
		WHERE pcp.player_id = $1
		ORDER BY pcp.points DESC`

	rows, err := r.db.QueryContext(ctx, query, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buckets := make([]models.CategoryPoints, 0)
	for rows.Next() {
		var b models.CategoryPoints
		if scanErr := rows.Scan(
			&b.PlayerID, &b.CategoryID, &b.CategoryName, &b.CategoryType,
			&b.Points, &b.TournamentsCount, &b.LastUpdated,
		); scanErr != nil {
			return nil, scanErr
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// SumPointsByCategoryType aggregates every bucket whose category has the
// given type into one summed score per player.
func (r *postgresPointsRepository) SumPointsByCategoryType(ctx context.Context, categoryType models.CategoryType) ([]PlayerPoints, error) {
	query := `
		SELECT p.id, p.external_id, p.name, p.total_points,
		       COALESCE(SUM(pcp.points), 0) AS type_points,
		       COALESCE(SUM(pcp.tournaments_count), 0) AS tournaments
		FROM player_category_points pcp
		JOIN categories c ON c.id = pcp.category_id AND c.type = $1
		JOIN players p ON p.id = pcp.player_id
		GROUP BY p.id, p.external_id, p.name, p.total_points
		ORDER BY type_points DESC, p.name ASC`

	rows, err := r.db.QueryContext(ctx, query, categoryType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPlayerPoints(rows)
}

func (r *postgresPointsRepository) CountBucketsWithMorePoints(ctx context.Context, categoryID, pts int) (int, error) {
	query := `SELECT COUNT(*) FROM player_category_points WHERE category_id = $1 AND points > $2`

	var count int
	if err := r.db.QueryRowContext(ctx, query, categoryID, pts).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanHistory(rows *sql.Rows) ([]models.PointsHistoryEntry, error) {
	entries := make([]models.PointsHistoryEntry, 0)
	for rows.Next() {
		var e models.PointsHistoryEntry
		if err := rows.Scan(
			&e.ID, &e.PlayerID, &e.TournamentID, &e.TournamentName,
			&e.CategoryID, &e.CategoryName, &e.CategoryType,
			&e.PointsEarned, &e.Position, &e.EarnedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanPlayerPoints(rows *sql.Rows) ([]PlayerPoints, error) {
	items := make([]PlayerPoints, 0)
	for rows.Next() {
		var pp PlayerPoints
		if err := rows.Scan(&pp.PlayerID, &pp.ExternalID, &pp.Name, &pp.TotalPoints, &pp.Points, &pp.TournamentsCount); err != nil {
			return nil, err
		}
		items = append(items, pp)
	}
	return items, rows.Err()
}
