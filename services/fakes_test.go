package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/Dosada05/racket-rankings/models"
	"github.com/Dosada05/racket-rankings/repositories"
	"github.com/Dosada05/racket-rankings/storage"
)

// memStore — общее in-memory состояние для фейковых репозиториев.
// Семантика повторяет postgres-реализации настолько, насколько это
// нужно сервисным тестам.
type memStore struct {
	players     []models.Player
	categories  []models.Category
	tournaments []models.Tournament
	results     map[int][]models.ResultEntry
	buckets     map[bucketKey]models.CategoryPoints
	history     []models.PointsHistoryEntry

	nextPlayerID     int
	nextCategoryID   int
	nextTournamentID int
	nextResultID     int
	nextHistoryID    int
}

type bucketKey struct {
	playerID   int
	categoryID int
}

func newMemStore() *memStore {
	return &memStore{
		results:          make(map[int][]models.ResultEntry),
		buckets:          make(map[bucketKey]models.CategoryPoints),
		nextPlayerID:     1,
		nextCategoryID:   1,
		nextTournamentID: 1,
		nextResultID:     1,
		nextHistoryID:    1,
	}
}

func (s *memStore) playerByID(id int) *models.Player {
	for i := range s.players {
		if s.players[i].ID == id {
			return &s.players[i]
		}
	}
	return nil
}

func (s *memStore) categoryByID(id int) *models.Category {
	for i := range s.categories {
		if s.categories[i].ID == id {
			return &s.categories[i]
		}
	}
	return nil
}

type fakeTransactor struct {
	calls int
}

func (t *fakeTransactor) WithinTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	t.calls++
	return fn(nil)
}

type fakePlayerRepo struct{ s *memStore }

func (r *fakePlayerRepo) ListAll(context.Context) ([]models.Player, error) {
	return append([]models.Player(nil), r.s.players...), nil
}

func (r *fakePlayerRepo) ListOrderedByTotalPoints(context.Context) ([]models.Player, error) {
	out := append([]models.Player(nil), r.s.players...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalPoints != out[j].TotalPoints {
			return out[i].TotalPoints > out[j].TotalPoints
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *fakePlayerRepo) GetByID(_ context.Context, id int) (*models.Player, error) {
	if p := r.s.playerByID(id); p != nil {
		cp := *p
		return &cp, nil
	}
	return nil, repositories.ErrPlayerNotFound
}

func (r *fakePlayerRepo) CreateBatch(_ context.Context, _ repositories.SQLExecutor, players []*models.Player) error {
	for _, p := range players {
		p.ID = r.s.nextPlayerID
		r.s.nextPlayerID++
		p.CreatedAt = time.Now()
		r.s.players = append(r.s.players, *p)
	}
	return nil
}

func (r *fakePlayerRepo) AddTotalPoints(_ context.Context, _ repositories.SQLExecutor, playerID, delta int) error {
	p := r.s.playerByID(playerID)
	if p == nil {
		return repositories.ErrPlayerNotFound
	}
	p.TotalPoints += delta
	return nil
}

func (r *fakePlayerRepo) GetTotalForUpdate(_ context.Context, _ repositories.SQLExecutor, playerID int) (int, error) {
	p := r.s.playerByID(playerID)
	if p == nil {
		return 0, repositories.ErrPlayerNotFound
	}
	return p.TotalPoints, nil
}

func (r *fakePlayerRepo) SetTotalPoints(_ context.Context, _ repositories.SQLExecutor, playerID, total int) error {
	p := r.s.playerByID(playerID)
	if p == nil {
		return repositories.ErrPlayerNotFound
	}
	p.TotalPoints = total
	return nil
}

func (r *fakePlayerRepo) Search(_ context.Context, query string, limit int) ([]models.Player, error) {
	query = strings.ToLower(query)
	var out []models.Player
	for _, p := range r.s.players {
		external := ""
		if p.ExternalID != nil {
			external = strings.ToLower(*p.ExternalID)
		}
		if strings.Contains(strings.ToLower(p.Name), query) || strings.Contains(external, query) {
			out = append(out, p)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeCategoryRepo struct{ s *memStore }

func (r *fakeCategoryRepo) ListAll(context.Context) ([]models.Category, error) {
	return append([]models.Category(nil), r.s.categories...), nil
}

func (r *fakeCategoryRepo) GetByID(_ context.Context, id int) (*models.Category, error) {
	if c := r.s.categoryByID(id); c != nil {
		cc := *c
		return &cc, nil
	}
	return nil, repositories.ErrCategoryNotFound
}

func (r *fakeCategoryRepo) CreateBatch(_ context.Context, _ repositories.SQLExecutor, categories []*models.Category) error {
	for _, c := range categories {
		c.ID = r.s.nextCategoryID
		r.s.nextCategoryID++
		c.CreatedAt = time.Now()
		r.s.categories = append(r.s.categories, *c)
	}
	return nil
}

func (r *fakeCategoryRepo) UpdateType(_ context.Context, _ repositories.SQLExecutor, id int, categoryType models.CategoryType) error {
	c := r.s.categoryByID(id)
	if c == nil {
		return repositories.ErrCategoryNotFound
	}
	c.Type = categoryType
	return nil
}

func (r *fakeCategoryRepo) ListByIDs(_ context.Context, ids []int) ([]models.Category, error) {
	var out []models.Category
	for _, id := range ids {
		if c := r.s.categoryByID(id); c != nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

type fakeTournamentRepo struct{ s *memStore }

func (r *fakeTournamentRepo) Create(_ context.Context, _ repositories.SQLExecutor, t *models.Tournament) error {
	for _, existing := range r.s.tournaments {
		if existing.OriginalFileName == t.OriginalFileName || existing.ContentDigest == t.ContentDigest {
			return repositories.ErrTournamentFileConflict
		}
	}
	t.ID = r.s.nextTournamentID
	r.s.nextTournamentID++
	t.CreatedAt = time.Now()
	r.s.tournaments = append(r.s.tournaments, *t)
	return nil
}

func (r *fakeTournamentRepo) CreateResults(_ context.Context, _ repositories.SQLExecutor, tournamentID int, results []*models.ResultEntry) error {
	for _, e := range results {
		e.ID = r.s.nextResultID
		r.s.nextResultID++
		r.s.results[tournamentID] = append(r.s.results[tournamentID], *e)
	}
	return nil
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	for _, t := range r.s.tournaments {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, repositories.ErrTournamentNotFound
}

func (r *fakeTournamentRepo) GetForUpdate(ctx context.Context, _ repositories.SQLExecutor, id int) (*models.Tournament, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeTournamentRepo) List(_ context.Context, limit, offset int) ([]models.Tournament, error) {
	out := append([]models.Tournament(nil), r.s.tournaments...)
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeTournamentRepo) ListResults(_ context.Context, tournamentID int) ([]models.ResultEntry, error) {
	return append([]models.ResultEntry(nil), r.s.results[tournamentID]...), nil
}

func (r *fakeTournamentRepo) ListCategoryIDs(_ context.Context, tournamentID int) ([]int, error) {
	seen := make(map[int]struct{})
	var out []int
	for _, e := range r.s.results[tournamentID] {
		if _, ok := seen[e.CategoryID]; !ok {
			seen[e.CategoryID] = struct{}{}
			out = append(out, e.CategoryID)
		}
	}
	return out, nil
}

func (r *fakeTournamentRepo) FindByOriginalFileName(_ context.Context, fileName string) (*models.Tournament, error) {
	for _, t := range r.s.tournaments {
		if t.OriginalFileName == fileName {
			return &t, nil
		}
	}
	return nil, repositories.ErrTournamentNotFound
}

func (r *fakeTournamentRepo) FindByContentDigest(_ context.Context, digest string) (*models.Tournament, error) {
	for _, t := range r.s.tournaments {
		if t.ContentDigest == digest {
			return &t, nil
		}
	}
	return nil, repositories.ErrTournamentNotFound
}

func (r *fakeTournamentRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	for i, t := range r.s.tournaments {
		if t.ID == id {
			r.s.tournaments = append(r.s.tournaments[:i], r.s.tournaments[i+1:]...)
			delete(r.s.results, id)
			return nil
		}
	}
	return repositories.ErrTournamentNotFound
}

func (r *fakeTournamentRepo) UpdateArchiveKey(_ context.Context, id int, key *string) error {
	for i := range r.s.tournaments {
		if r.s.tournaments[i].ID == id {
			r.s.tournaments[i].ArchiveKey = key
			return nil
		}
	}
	return repositories.ErrTournamentNotFound
}

type fakePointsRepo struct{ s *memStore }

func (r *fakePointsRepo) ApplyDelta(_ context.Context, _ repositories.SQLExecutor, delta repositories.PointsDelta) error {
	p := r.s.playerByID(delta.PlayerID)
	if p == nil {
		return repositories.ErrPlayerNotFound
	}
	p.TotalPoints += delta.Points

	key := bucketKey{playerID: delta.PlayerID, categoryID: delta.CategoryID}
	bucket := r.s.buckets[key]
	bucket.PlayerID = delta.PlayerID
	bucket.CategoryID = delta.CategoryID
	bucket.CategoryName = delta.CategoryName
	bucket.CategoryType = delta.CategoryType
	bucket.Points += delta.Points
	bucket.TournamentsCount++
	bucket.LastUpdated = time.Now()
	r.s.buckets[key] = bucket

	r.s.history = append(r.s.history, models.PointsHistoryEntry{
		ID:             r.s.nextHistoryID,
		PlayerID:       delta.PlayerID,
		TournamentID:   delta.TournamentID,
		TournamentName: delta.TournamentName,
		CategoryID:     delta.CategoryID,
		CategoryName:   delta.CategoryName,
		CategoryType:   delta.CategoryType,
		PointsEarned:   delta.Points,
		Position:       delta.Position,
		EarnedAt:       time.Now(),
	})
	r.s.nextHistoryID++
	return nil
}

func (r *fakePointsRepo) HistoryByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]models.PointsHistoryEntry, error) {
	var out []models.PointsHistoryEntry
	for _, e := range r.s.history {
		if e.TournamentID == tournamentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakePointsRepo) HistoryByPlayer(_ context.Context, playerID int) ([]models.PointsHistoryEntry, error) {
	var out []models.PointsHistoryEntry
	for _, e := range r.s.history {
		if e.PlayerID == playerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakePointsRepo) DeleteHistoryByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) error {
	var kept []models.PointsHistoryEntry
	for _, e := range r.s.history {
		if e.TournamentID != tournamentID {
			kept = append(kept, e)
		}
	}
	r.s.history = kept
	return nil
}

func (r *fakePointsRepo) GetBucketForUpdate(_ context.Context, _ repositories.SQLExecutor, playerID, categoryID int) (*models.CategoryPoints, error) {
	bucket, ok := r.s.buckets[bucketKey{playerID: playerID, categoryID: categoryID}]
	if !ok {
		return nil, repositories.ErrBucketNotFound
	}
	return &bucket, nil
}

func (r *fakePointsRepo) SetBucketPoints(_ context.Context, _ repositories.SQLExecutor, playerID, categoryID, pts, tournamentsCount int) error {
	key := bucketKey{playerID: playerID, categoryID: categoryID}
	bucket, ok := r.s.buckets[key]
	if !ok {
		return repositories.ErrBucketNotFound
	}
	bucket.Points = pts
	bucket.TournamentsCount = tournamentsCount
	bucket.LastUpdated = time.Now()
	r.s.buckets[key] = bucket
	return nil
}

func (r *fakePointsRepo) BucketsByCategory(_ context.Context, categoryID int) ([]repositories.PlayerPoints, error) {
	var out []repositories.PlayerPoints
	for _, bucket := range r.s.buckets {
		if bucket.CategoryID != categoryID {
			continue
		}
		p := r.s.playerByID(bucket.PlayerID)
		out = append(out, repositories.PlayerPoints{
			PlayerID:         bucket.PlayerID,
			ExternalID:       p.ExternalID,
			Name:             p.Name,
			TotalPoints:      p.TotalPoints,
			Points:           bucket.Points,
			TournamentsCount: bucket.TournamentsCount,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *fakePointsRepo) BucketsByPlayer(_ context.Context, playerID int) ([]models.CategoryPoints, error) {
	var out []models.CategoryPoints
	for _, bucket := range r.s.buckets {
		if bucket.PlayerID == playerID {
			out = append(out, bucket)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CategoryID < out[j].CategoryID })
	return out, nil
}

func (r *fakePointsRepo) SumPointsByCategoryType(_ context.Context, categoryType models.CategoryType) ([]repositories.PlayerPoints, error) {
	sums := make(map[int]*repositories.PlayerPoints)
	var order []int
	for _, bucket := range r.s.buckets {
		if bucket.CategoryType != categoryType {
			continue
		}
		row, ok := sums[bucket.PlayerID]
		if !ok {
			p := r.s.playerByID(bucket.PlayerID)
			row = &repositories.PlayerPoints{
				PlayerID:    bucket.PlayerID,
				ExternalID:  p.ExternalID,
				Name:        p.Name,
				TotalPoints: p.TotalPoints,
			}
			sums[bucket.PlayerID] = row
			order = append(order, bucket.PlayerID)
		}
		row.Points += bucket.Points
		row.TournamentsCount += bucket.TournamentsCount
	}
	var out []repositories.PlayerPoints
	for _, id := range order {
		out = append(out, *sums[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *fakePointsRepo) CountBucketsWithMorePoints(_ context.Context, categoryID, pts int) (int, error) {
	count := 0
	for _, bucket := range r.s.buckets {
		if bucket.CategoryID == categoryID && bucket.Points > pts {
			count++
		}
	}
	return count, nil
}

type fakeUploader struct {
	uploads []string
	deletes []string
	failPut bool
}

func (u *fakeUploader) Upload(_ context.Context, key, _ string, _ io.Reader) (*storage.UploadResult, error) {
	if u.failPut {
		return nil, errors.New("bucket unavailable")
	}
	u.uploads = append(u.uploads, key)
	return &storage.UploadResult{Key: key, Location: "https://files.example/" + key}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.deletes = append(u.deletes, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://files.example/" + key
}

type fakeNotifier struct {
	events []string
}

func (n *fakeNotifier) NotifyRankingsUpdated(event string) {
	n.events = append(n.events, event)
}
