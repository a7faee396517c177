package services

import (
	"context"
	"errors"
	"strings"

	"github.com/Dosada05/racket-rankings/models"
	"github.com/Dosada05/racket-rankings/repositories"
)

const searchResultLimit = 20

// PlayerService — чтение игроков: раскладка очков и поиск.
type PlayerService interface {
	Breakdown(ctx context.Context, playerID int) (*models.PlayerBreakdown, error)
	Search(ctx context.Context, query string) ([]models.Player, error)
}

type playerService struct {
	playerRepo repositories.PlayerRepository
	pointsRepo repositories.PointsRepository
}

func NewPlayerService(playerRepo repositories.PlayerRepository, pointsRepo repositories.PointsRepository) PlayerService {
	return &playerService{playerRepo: playerRepo, pointsRepo: pointsRepo}
}

// Breakdown собирает полную раскладку очков игрока: корзины по
// категориям с рангом в каждой и историю начислений, сгруппированную
// по турнирам.
func (s *playerService) Breakdown(ctx context.Context, playerID int) (*models.PlayerBreakdown, error) {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, classifyStorageError(err)
	}

	buckets, err := s.pointsRepo.BucketsByPlayer(ctx, playerID)
	if err != nil {
		return nil, classifyStorageError(err)
	}

	categories := make([]models.CategoryBreakdown, 0, len(buckets))
	for _, bucket := range buckets {
		ahead, err := s.pointsRepo.CountBucketsWithMorePoints(ctx, bucket.CategoryID, bucket.Points)
		if err != nil {
			return nil, classifyStorageError(err)
		}
		categories = append(categories, models.CategoryBreakdown{
			CategoryPoints: bucket,
			Rank:           ahead + 1,
		})
	}

	history, err := s.pointsRepo.HistoryByPlayer(ctx, playerID)
	if err != nil {
		return nil, classifyStorageError(err)
	}

	return &models.PlayerBreakdown{
		Player:     *player,
		Categories: categories,
		History:    groupHistoryByTournament(history),
	}, nil
}

func (s *playerService) Search(ctx context.Context, query string) ([]models.Player, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrSearchQueryRequired
	}
	players, err := s.playerRepo.Search(ctx, query, searchResultLimit)
	if err != nil {
		return nil, classifyStorageError(err)
	}
	return players, nil
}

func groupHistoryByTournament(entries []models.PointsHistoryEntry) []models.TournamentHistory {
	byTournament := make(map[int]*models.TournamentHistory)
	var order []int
	for _, entry := range entries {
		group, ok := byTournament[entry.TournamentID]
		if !ok {
			group = &models.TournamentHistory{
				TournamentID:   entry.TournamentID,
				TournamentName: entry.TournamentName,
			}
			byTournament[entry.TournamentID] = group
			order = append(order, entry.TournamentID)
		}
		group.TotalPoints += entry.PointsEarned
		group.Entries = append(group.Entries, entry)
	}

	out := make([]models.TournamentHistory, 0, len(order))
	for _, id := range order {
		out = append(out, *byTournament[id])
	}
	return out
}
