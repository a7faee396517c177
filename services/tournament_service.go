package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Dosada05/racket-rankings/models"
	"github.com/Dosada05/racket-rankings/repositories"
	"github.com/Dosada05/racket-rankings/storage"
)

// TournamentService — чтение турниров и компенсирующее удаление:
// при удалении заработанные турниром очки вычитаются из леджера так,
// будто импорта не было.
type TournamentService interface {
	List(ctx context.Context, limit, offset int) ([]models.Tournament, error)
	Get(ctx context.Context, id int) (*models.TournamentDetail, error)
	CheckFile(ctx context.Context, fileName, contentDigest string) (*models.FileCheckResult, error)
	Delete(ctx context.Context, id int) error
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	categoryRepo   repositories.CategoryRepository
	playerRepo     repositories.PlayerRepository
	pointsRepo     repositories.PointsRepository
	transactor     repositories.Transactor
	uploader       storage.FileUploader
	notifier       Notifier
	logger         *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	categoryRepo repositories.CategoryRepository,
	playerRepo repositories.PlayerRepository,
	pointsRepo repositories.PointsRepository,
	transactor repositories.Transactor,
	uploader storage.FileUploader,
	notifier Notifier,
	logger *slog.Logger,
) TournamentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		categoryRepo:   categoryRepo,
		playerRepo:     playerRepo,
		pointsRepo:     pointsRepo,
		transactor:     transactor,
		uploader:       uploader,
		notifier:       notifier,
		logger:         logger,
	}
}

func (s *tournamentService) List(ctx context.Context, limit, offset int) ([]models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, classifyStorageError(err)
	}
	return tournaments, nil
}

func (s *tournamentService) Get(ctx context.Context, id int) (*models.TournamentDetail, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, classifyStorageError(err)
	}

	results, err := s.tournamentRepo.ListResults(ctx, id)
	if err != nil {
		return nil, classifyStorageError(err)
	}

	categoryIDs, err := s.tournamentRepo.ListCategoryIDs(ctx, id)
	if err != nil {
		return nil, classifyStorageError(err)
	}
	categories, err := s.categoryRepo.ListByIDs(ctx, categoryIDs)
	if err != nil {
		return nil, classifyStorageError(err)
	}

	tournament.Categories = categories
	tournament.Results = results

	uniquePlayers := make(map[int]struct{})
	singles, doubles := 0, 0
	for _, r := range results {
		uniquePlayers[r.Player1ID] = struct{}{}
		if r.Player2ID != nil {
			uniquePlayers[*r.Player2ID] = struct{}{}
		}
		if r.CategoryType == models.CategoryDoubles {
			doubles++
		} else {
			singles++
		}
	}

	return &models.TournamentDetail{
		Tournament: *tournament,
		Statistics: models.TournamentStatistics{
			TotalPlayers:    len(uniquePlayers),
			TotalCategories: len(categories),
			TotalResults:    len(results),
			SinglesEntries:  singles,
			DoublesEntries:  doubles,
		},
	}, nil
}

// CheckFile отвечает, был ли файл с таким именем или содержимым уже
// загружен, без начала импорта.
func (s *tournamentService) CheckFile(ctx context.Context, fileName, contentDigest string) (*models.FileCheckResult, error) {
	if existing, err := s.tournamentRepo.FindByOriginalFileName(ctx, fileName); err == nil {
		return &models.FileCheckResult{Reason: "file_name", Existing: existing}, nil
	} else if !errors.Is(err, repositories.ErrTournamentNotFound) {
		return nil, classifyStorageError(err)
	}

	if contentDigest != "" {
		if existing, err := s.tournamentRepo.FindByContentDigest(ctx, contentDigest); err == nil {
			return &models.FileCheckResult{Reason: "content", Existing: existing}, nil
		} else if !errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, classifyStorageError(err)
		}
	}

	return &models.FileCheckResult{Unique: true}, nil
}

// Delete удаляет турнир и компенсирует его вклад в леджер: по истории
// начислений вычитаются очки из итогов игроков и категорийных корзин,
// затем удаляются история, результаты и сам турнир. Всё в одной
// транзакции с блокировкой затронутых строк.
func (s *tournamentService) Delete(ctx context.Context, id int) error {
	var archiveKey *string
	err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetForUpdate(ctx, exec, id)
		if err != nil {
			return err
		}
		archiveKey = tournament.ArchiveKey

		history, err := s.pointsRepo.HistoryByTournament(ctx, exec, id)
		if err != nil {
			return err
		}

		if err := s.revertHistory(ctx, exec, tournament, history); err != nil {
			return err
		}

		if err := s.pointsRepo.DeleteHistoryByTournament(ctx, exec, id); err != nil {
			return err
		}
		return s.tournamentRepo.Delete(ctx, exec, id)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return classifyStorageError(err)
	}

	s.logger.Info("tournament deleted", slog.Int("tournament_id", id))

	if s.uploader != nil && archiveKey != nil {
		if err := s.uploader.Delete(ctx, *archiveKey); err != nil {
			s.logger.Warn("workbook archive delete failed",
				slog.String("key", *archiveKey), slog.Any("error", err))
		}
	}
	if s.notifier != nil {
		s.notifier.NotifyRankingsUpdated("tournament_deleted")
	}
	return nil
}

// revertHistory вычитает каждую запись истории из корзины и из итога
// игрока. Итог ниже нуля невозможен при целостном леджере; если
// вычитание всё же уводит в минус, значение прижимается к нулю и
// расхождение фиксируется в логе.
func (s *tournamentService) revertHistory(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament, history []models.PointsHistoryEntry) error {
	totalByPlayer := make(map[int]int)
	var playerOrder []int

	for _, entry := range history {
		if _, seen := totalByPlayer[entry.PlayerID]; !seen {
			playerOrder = append(playerOrder, entry.PlayerID)
		}
		totalByPlayer[entry.PlayerID] += entry.PointsEarned

		bucket, err := s.pointsRepo.GetBucketForUpdate(ctx, exec, entry.PlayerID, entry.CategoryID)
		if err != nil {
			if errors.Is(err, repositories.ErrBucketNotFound) {
				s.logger.Warn("points bucket missing during revert",
					slog.Int("tournament_id", tournament.ID),
					slog.Int("player_id", entry.PlayerID),
					slog.Int("category_id", entry.CategoryID))
				continue
			}
			return err
		}

		newPoints := bucket.Points - entry.PointsEarned
		if newPoints < 0 {
			s.logger.Warn("bucket points underflow clamped",
				slog.Int("tournament_id", tournament.ID),
				slog.Int("player_id", entry.PlayerID),
				slog.Int("category_id", entry.CategoryID),
				slog.Int("bucket_points", bucket.Points),
				slog.Int("reverted", entry.PointsEarned))
			newPoints = 0
		}
		newCount := bucket.TournamentsCount - 1
		if newCount < 0 {
			newCount = 0
		}
		if err := s.pointsRepo.SetBucketPoints(ctx, exec, entry.PlayerID, entry.CategoryID, newPoints, newCount); err != nil {
			return err
		}
	}

	for _, playerID := range playerOrder {
		total, err := s.playerRepo.GetTotalForUpdate(ctx, exec, playerID)
		if err != nil {
			return err
		}
		newTotal := total - totalByPlayer[playerID]
		if newTotal < 0 {
			s.logger.Warn("player total underflow clamped",
				slog.Int("tournament_id", tournament.ID),
				slog.Int("player_id", playerID),
				slog.Int("total_points", total),
				slog.Int("reverted", totalByPlayer[playerID]))
			newTotal = 0
		}
		if err := s.playerRepo.SetTotalPoints(ctx, exec, playerID, newTotal); err != nil {
			return err
		}
	}
	return nil
}
