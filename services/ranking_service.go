package services

import (
	"context"
	"errors"

	"github.com/Dosada05/racket-rankings/models"
	"github.com/Dosada05/racket-rankings/points"
	"github.com/Dosada05/racket-rankings/repositories"
)

// RankingService отдаёт рейтинги пяти срезов. Во всех срезах действует
// competition ranking: равные очки делят ранг, следующий отличный
// результат получает ранг по своей позиции в списке. Пагинация
// применяется строго после присвоения рангов.
type RankingService interface {
	Overall(ctx context.Context, page, limit int) (*models.OverallRankings, error)
	ByCategory(ctx context.Context, categoryID, page, limit int) (*models.CategoryRankings, error)
	ByType(ctx context.Context, categoryType models.CategoryType, page, limit int) (*models.TypeRankings, error)
	ByTournament(ctx context.Context, tournamentID int, typeFilter models.CategoryType, page, limit int) (*models.TournamentRankings, error)
	ByTournamentCategory(ctx context.Context, tournamentID, categoryID, page, limit int) (*models.TournamentCategoryRankings, error)
}

type rankingService struct {
	playerRepo     repositories.PlayerRepository
	categoryRepo   repositories.CategoryRepository
	tournamentRepo repositories.TournamentRepository
	pointsRepo     repositories.PointsRepository
}

func NewRankingService(
	playerRepo repositories.PlayerRepository,
	categoryRepo repositories.CategoryRepository,
	tournamentRepo repositories.TournamentRepository,
	pointsRepo repositories.PointsRepository,
) RankingService {
	return &rankingService{
		playerRepo:     playerRepo,
		categoryRepo:   categoryRepo,
		tournamentRepo: tournamentRepo,
		pointsRepo:     pointsRepo,
	}
}

func (s *rankingService) Overall(ctx context.Context, page, limit int) (*models.OverallRankings, error) {
	players, err := s.playerRepo.ListOrderedByTotalPoints(ctx)
	if err != nil {
		return nil, classifyStorageError(err)
	}

	rows := make([]models.RankedPlayer, 0, len(players))
	for _, p := range players {
		rows = append(rows, models.RankedPlayer{
			PlayerID:    p.ID,
			ExternalID:  p.ExternalID,
			Name:        p.Name,
			TotalPoints: p.TotalPoints,
			Points:      p.TotalPoints,
		})
	}
	ranked := rankRows(rows)

	pageRows, pagination := points.Paginate(ranked, page, limit)
	return &models.OverallRankings{Players: pageRows, Pagination: pagination}, nil
}

func (s *rankingService) ByCategory(ctx context.Context, categoryID, page, limit int) (*models.CategoryRankings, error) {
	category, err := s.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, repositories.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, classifyStorageError(err)
	}

	buckets, err := s.pointsRepo.BucketsByCategory(ctx, categoryID)
	if err != nil {
		return nil, classifyStorageError(err)
	}

	ranked := rankRows(playerPointsRows(buckets))
	pageRows, pagination := points.Paginate(ranked, page, limit)
	return &models.CategoryRankings{Category: *category, Players: pageRows, Pagination: pagination}, nil
}

func (s *rankingService) ByType(ctx context.Context, categoryType models.CategoryType, page, limit int) (*models.TypeRankings, error) {
	if !categoryType.Valid() {
		return nil, ErrInvalidCategoryType
	}

	sums, err := s.pointsRepo.SumPointsByCategoryType(ctx, categoryType)
	if err != nil {
		return nil, classifyStorageError(err)
	}

	ranked := rankRows(playerPointsRows(sums))
	pageRows, pagination := points.Paginate(ranked, page, limit)
	return &models.TypeRankings{Type: categoryType, Players: pageRows, Pagination: pagination}, nil
}

// ByTournament суммирует очки игрока по всем попаданиям в результатах
// одного турнира. typeFilter может быть пустым (все категории).
func (s *rankingService) ByTournament(ctx context.Context, tournamentID int, typeFilter models.CategoryType, page, limit int) (*models.TournamentRankings, error) {
	if typeFilter != "" && !typeFilter.Valid() {
		return nil, ErrInvalidCategoryType
	}

	tournament, entries, err := s.tournamentResults(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	type agg struct {
		row          models.RankedPlayer
		bestPosition int
	}
	byPlayer := make(map[int]*agg)
	var order []int
	for _, appearance := range expandResults(entries, typeFilter) {
		a, ok := byPlayer[appearance.PlayerID]
		if !ok {
			a = &agg{row: models.RankedPlayer{
				PlayerID:   appearance.PlayerID,
				ExternalID: appearance.ExternalID,
				Name:       appearance.Name,
			}, bestPosition: appearance.Position}
			byPlayer[appearance.PlayerID] = a
			order = append(order, appearance.PlayerID)
		}
		a.row.Points += points.ForPosition(appearance.Position)
		if appearance.Position > 0 && (a.bestPosition == 0 || appearance.Position < a.bestPosition) {
			a.bestPosition = appearance.Position
		}
	}

	rows := make([]models.RankedPlayer, 0, len(order))
	for _, id := range order {
		a := byPlayer[id]
		a.row.Position = a.bestPosition
		a.row.DisplayPosition = points.DisplayPosition(a.bestPosition)
		rows = append(rows, a.row)
	}

	ranked := rankRows(rows)
	pageRows, pagination := points.Paginate(ranked, page, limit)
	return &models.TournamentRankings{Tournament: *tournament, Players: pageRows, Pagination: pagination}, nil
}

// ByTournamentCategory отдаёт строки результатов одной категории одного
// турнира. Парные результаты разворачиваются: каждый игрок получает свою
// строку с именем партнёра.
func (s *rankingService) ByTournamentCategory(ctx context.Context, tournamentID, categoryID, page, limit int) (*models.TournamentCategoryRankings, error) {
	tournament, entries, err := s.tournamentResults(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	category, err := s.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, repositories.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, classifyStorageError(err)
	}

	var rows []models.RankedPlayer
	for _, appearance := range expandResults(entries, "") {
		if appearance.CategoryID != categoryID {
			continue
		}
		rows = append(rows, models.RankedPlayer{
			PlayerID:        appearance.PlayerID,
			ExternalID:      appearance.ExternalID,
			Name:            appearance.Name,
			Points:          points.ForPosition(appearance.Position),
			Position:        appearance.Position,
			DisplayPosition: points.DisplayPosition(appearance.Position),
			PartnerName:     appearance.PartnerName,
		})
	}

	ranked := rankRows(rows)
	pageRows, pagination := points.Paginate(ranked, page, limit)
	return &models.TournamentCategoryRankings{
		Tournament: *tournament,
		Category:   *category,
		Players:    pageRows,
		Pagination: pagination,
	}, nil
}

func (s *rankingService) tournamentResults(ctx context.Context, tournamentID int) (*models.Tournament, []models.ResultEntry, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, nil, ErrTournamentNotFound
		}
		return nil, nil, classifyStorageError(err)
	}
	entries, err := s.tournamentRepo.ListResults(ctx, tournamentID)
	if err != nil {
		return nil, nil, classifyStorageError(err)
	}
	return tournament, entries, nil
}

// appearance — одно попадание игрока в результаты: парная строка даёт
// два появления, по одному на игрока.
type appearance struct {
	PlayerID    int
	ExternalID  *string
	Name        string
	CategoryID  int
	Position    int
	PartnerName *string
}

func expandResults(entries []models.ResultEntry, typeFilter models.CategoryType) []appearance {
	var out []appearance
	for _, e := range entries {
		if typeFilter != "" && e.CategoryType != typeFilter {
			continue
		}
		externalID1 := e.ExternalID1
		first := appearance{
			PlayerID:   e.Player1ID,
			ExternalID: &externalID1,
			Name:       e.Player1Name,
			CategoryID: e.CategoryID,
			Position:   e.Position,
		}
		if e.Player2Name != nil {
			first.PartnerName = e.Player2Name
		}
		out = append(out, first)

		if e.Player2ID != nil {
			position2 := e.Position
			if e.Position2 != nil {
				position2 = *e.Position2
			}
			player1Name := e.Player1Name
			out = append(out, appearance{
				PlayerID:    *e.Player2ID,
				ExternalID:  e.ExternalID2,
				Name:        derefString(e.Player2Name),
				CategoryID:  e.CategoryID,
				Position:    position2,
				PartnerName: &player1Name,
			})
		}
	}
	return out
}

func playerPointsRows(rows []repositories.PlayerPoints) []models.RankedPlayer {
	out := make([]models.RankedPlayer, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.RankedPlayer{
			PlayerID:         r.PlayerID,
			ExternalID:       r.ExternalID,
			Name:             r.Name,
			TotalPoints:      r.TotalPoints,
			Points:           r.Points,
			TournamentsCount: r.TournamentsCount,
		})
	}
	return out
}

// rankRows сортирует по очкам (при равенстве по имени), присваивает
// competition-ранги и возвращает готовые строки.
func rankRows(rows []models.RankedPlayer) []models.RankedPlayer {
	score := func(r models.RankedPlayer) int { return r.Points }
	sorted := points.ApplyRanking(rows, score, func(a, b models.RankedPlayer) bool {
		return a.Name < b.Name
	})
	ranks := points.Ranks(sorted, score)
	for i := range sorted {
		sorted[i].Rank = ranks[i]
	}
	return sorted
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
