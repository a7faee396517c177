package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/racket-rankings/models"
	"github.com/Dosada05/racket-rankings/parsers"
	"github.com/Dosada05/racket-rankings/points"
	"github.com/Dosada05/racket-rankings/repositories"
	"github.com/Dosada05/racket-rankings/storage"
)

const (
	rowWorkerLimit = 8

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Notifier рассылает уведомление об изменении рейтингов всем
// подключённым клиентам. Реализуется websocket-хабом.
type Notifier interface {
	NotifyRankingsUpdated(event string)
}

// ImportMeta — метаданные загрузки: всё, что пришло не из самой книги.
type ImportMeta struct {
	Name             string
	Location         *string
	StartDate        time.Time
	EndDate          time.Time
	OriginalFileName string
	ContentDigest    string

	// Исходные байты файла; нужны для архивации после коммита.
	RawFile []byte
}

type ImportService interface {
	ImportFromWorkbook(ctx context.Context, meta ImportMeta, wb *parsers.Workbook) (*models.ImportResult, error)
}

type importService struct {
	tournamentRepo repositories.TournamentRepository
	playerRepo     repositories.PlayerRepository
	categoryRepo   repositories.CategoryRepository
	pointsRepo     repositories.PointsRepository
	transactor     repositories.Transactor
	uploader       storage.FileUploader
	notifier       Notifier
	logger         *slog.Logger
}

// NewImportService собирает импортёр. uploader и notifier допускают nil:
// архивация и рассылка тогда просто пропускаются.
func NewImportService(
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	categoryRepo repositories.CategoryRepository,
	pointsRepo repositories.PointsRepository,
	transactor repositories.Transactor,
	uploader storage.FileUploader,
	notifier Notifier,
	logger *slog.Logger,
) ImportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &importService{
		tournamentRepo: tournamentRepo,
		playerRepo:     playerRepo,
		categoryRepo:   categoryRepo,
		pointsRepo:     pointsRepo,
		transactor:     transactor,
		uploader:       uploader,
		notifier:       notifier,
		logger:         logger,
	}
}

// stagedResult — строка результата до присвоения долговременных id.
// Материализуется в models.ResultEntry внутри транзакции коммита.
type stagedResult struct {
	category  *models.Category
	player1   *models.Player
	player2   *models.Player
	position  int
	position2 int
}

// rowOutcome — результат разбора одной строки воркером. Воркеры пишут
// каждый в свой индекс; общее состояние сессии им недоступно.
type rowOutcome struct {
	draft points.ResultDraft
	err   error
}

// ImportFromWorkbook выполняет полный конвейер импорта:
// валидация → предзагрузка → обработка листов → единая транзакция.
// До коммита в базе не появляется ни одной сущности; любой сбой на
// стадии записи откатывает всё.
func (s *importService) ImportFromWorkbook(ctx context.Context, meta ImportMeta, wb *parsers.Workbook) (*models.ImportResult, error) {
	if meta.Name == "" {
		return nil, ErrTournamentNameRequired
	}
	if wb == nil || len(wb.Sheets) == 0 {
		return nil, ErrWorkbookEmpty
	}

	if err := s.checkDuplicates(ctx, meta); err != nil {
		return nil, err
	}

	existingPlayers, existingCategories, err := s.preload(ctx)
	if err != nil {
		return nil, classifyStorageError(err)
	}

	session := newImportSession(existingPlayers, existingCategories)
	var (
		staged   []stagedResult
		stats    []models.CategoryStats
		resolved int
	)
	for _, sheet := range wb.Sheets {
		sheetStaged, sheetStats := s.processSheet(ctx, session, sheet, meta.Name)
		staged = append(staged, sheetStaged...)
		stats = append(stats, sheetStats)
		resolved += len(sheetStaged)
	}
	if resolved == 0 {
		return nil, ErrNoValidResults
	}

	tournament := &models.Tournament{
		Name:             meta.Name,
		Location:         meta.Location,
		StartDate:        meta.StartDate,
		EndDate:          meta.EndDate,
		OriginalFileName: meta.OriginalFileName,
		ContentDigest:    meta.ContentDigest,
	}

	if err := s.commit(ctx, session, tournament, staged); err != nil {
		// Гонка с параллельной загрузкой того же файла: предварительная
		// проверка прошла, но уникальное ограничение сработало на коммите.
		if errors.Is(err, repositories.ErrTournamentFileConflict) {
			return nil, ErrDuplicateFileContent
		}
		return nil, classifyStorageError(err)
	}

	s.logger.Info("tournament imported",
		slog.Int("tournament_id", tournament.ID),
		slog.String("name", tournament.Name),
		slog.Int("results", resolved),
		slog.Int("new_players", len(session.pendingPlayers)),
		slog.Int("new_categories", len(session.pendingCategories)),
		slog.Int("row_errors", len(session.errors)),
	)

	s.archiveWorkbook(ctx, tournament, meta)
	if s.notifier != nil {
		s.notifier.NotifyRankingsUpdated("tournament_imported")
	}

	return buildImportResult(session, tournament, stats), nil
}

func (s *importService) checkDuplicates(ctx context.Context, meta ImportMeta) error {
	if _, err := s.tournamentRepo.FindByOriginalFileName(ctx, meta.OriginalFileName); err == nil {
		return ErrDuplicateFileName
	} else if !errors.Is(err, repositories.ErrTournamentNotFound) {
		return classifyStorageError(err)
	}

	if _, err := s.tournamentRepo.FindByContentDigest(ctx, meta.ContentDigest); err == nil {
		return ErrDuplicateFileContent
	} else if !errors.Is(err, repositories.ErrTournamentNotFound) {
		return classifyStorageError(err)
	}
	return nil
}

func (s *importService) preload(ctx context.Context) ([]models.Player, []models.Category, error) {
	var (
		players    []models.Player
		categories []models.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		players, err = s.playerRepo.ListAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.categoryRepo.ListAll(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return players, categories, nil
}

// processSheet разбирает строки листа параллельно, затем последовательно
// вливает валидные строки в сессию. Порядок строк сохраняется.
func (s *importService) processSheet(ctx context.Context, session *importSession, sheet parsers.Sheet, tournamentName string) ([]stagedResult, models.CategoryStats) {
	categoryType := points.DetectCategoryType(sheet.Name)
	stat := models.CategoryStats{CategoryName: sheet.Name, CategoryType: categoryType}

	if len(sheet.Rows) == 0 {
		stat.Status = models.SheetStatusEmpty
		return nil, stat
	}

	outcomes := make([]rowOutcome, len(sheet.Rows))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(rowWorkerLimit)
	for i, row := range sheet.Rows {
		i, row := i, row
		g.Go(func() error {
			draft := points.NormalizeRow(row)
			outcomes[i] = rowOutcome{draft: draft, err: draft.ValidateArity(categoryType)}
			return nil
		})
	}
	_ = g.Wait() // воркеры не возвращают ошибок, только заполняют свой слот

	category := session.categoryFor(sheet.Name, categoryType, tournamentName)

	var staged []stagedResult
	for i, oc := range outcomes {
		if oc.err != nil {
			session.addRowError(sheet.Name, i, oc.err.Error())
			stat.Errors++
			continue
		}
		result, err := s.mergeRow(session, category, oc.draft)
		if err != nil {
			session.addRowError(sheet.Name, i, err.Error())
			stat.Errors++
			continue
		}
		staged = append(staged, result)
		stat.PlayersProcessed++
	}

	if stat.PlayersProcessed > 0 {
		stat.Status = models.SheetStatusProcessed
	} else {
		stat.Status = models.SheetStatusSkipped
	}
	return staged, stat
}

// mergeRow — последовательная фаза: сверка идентичностей, стейджинг
// новых игроков и накопление очковых дельт.
func (s *importService) mergeRow(session *importSession, category *models.Category, draft points.ResultDraft) (stagedResult, error) {
	id1 := draft.ExternalID1
	if id1 == "" {
		generated, err := session.idGen.GetOrGenerate(draft.Player1)
		if err != nil {
			return stagedResult{}, fmt.Errorf("player %q: %w", draft.Player1, err)
		}
		id1 = generated
	}
	player1 := session.resolveOrStage(id1, draft.Player1, category.Name)

	result := stagedResult{
		category:  category,
		player1:   player1,
		position:  draft.Position,
		position2: draft.Position2,
	}
	session.accumulate(player1, category, points.ForPosition(draft.Position), draft.Position)

	if category.Type == models.CategoryDoubles {
		id2 := draft.ExternalID2
		if id2 == "" {
			generated, err := session.idGen.GetOrGenerate(draft.Player2)
			if err != nil {
				return stagedResult{}, fmt.Errorf("player %q: %w", draft.Player2, err)
			}
			id2 = generated
		}
		player2 := session.resolveOrStage(id2, draft.Player2, category.Name)
		result.player2 = player2
		session.accumulate(player2, category, points.ForPosition(draft.Position2), draft.Position2)
	}

	return result, nil
}

// commit записывает всё накопленное одной транзакцией: категории,
// игроки, турнир, результаты и очковые дельты.
func (s *importService) commit(ctx context.Context, session *importSession, tournament *models.Tournament, staged []stagedResult) error {
	return s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.categoryRepo.CreateBatch(ctx, exec, session.pendingCategories); err != nil {
			return err
		}
		for category, corrected := range session.correctedTypes {
			if category.ID == 0 {
				continue // новая категория уже застейджена с верным типом
			}
			if err := s.categoryRepo.UpdateType(ctx, exec, category.ID, corrected); err != nil {
				return err
			}
		}

		if err := s.playerRepo.CreateBatch(ctx, exec, session.pendingPlayers); err != nil {
			return err
		}

		if err := s.tournamentRepo.Create(ctx, exec, tournament); err != nil {
			return err
		}

		entries := make([]*models.ResultEntry, 0, len(staged))
		for _, st := range staged {
			entries = append(entries, materializeResult(tournament.ID, st))
		}
		if err := s.tournamentRepo.CreateResults(ctx, exec, tournament.ID, entries); err != nil {
			return err
		}

		for _, d := range session.orderedDeltas() {
			delta := repositories.PointsDelta{
				PlayerID:       d.player.ID,
				CategoryID:     d.category.ID,
				CategoryName:   d.category.Name,
				CategoryType:   d.category.Type,
				TournamentID:   tournament.ID,
				TournamentName: tournament.Name,
				Points:         d.points,
				Position:       d.minPosition(),
			}
			if err := s.pointsRepo.ApplyDelta(ctx, exec, delta); err != nil {
				return err
			}
		}
		return nil
	})
}

func materializeResult(tournamentID int, st stagedResult) *models.ResultEntry {
	entry := &models.ResultEntry{
		TournamentID: tournamentID,
		CategoryID:   st.category.ID,
		CategoryType: st.category.Type,
		Position:     st.position,
		Player1ID:    st.player1.ID,
		ExternalID1:  derefExternalID(st.player1),
		Player1Name:  st.player1.Name,
	}
	if st.player2 != nil {
		position2 := st.position2
		externalID2 := derefExternalID(st.player2)
		player2Name := st.player2.Name
		entry.Position2 = &position2
		entry.Player2ID = &st.player2.ID
		entry.ExternalID2 = &externalID2
		entry.Player2Name = &player2Name
	}
	return entry
}

// archiveWorkbook выгружает исходный файл в объектное хранилище после
// коммита. Сбой здесь не откатывает импорт, только пишется в лог.
func (s *importService) archiveWorkbook(ctx context.Context, tournament *models.Tournament, meta ImportMeta) {
	if s.uploader == nil || len(meta.RawFile) == 0 {
		return
	}
	key := fmt.Sprintf("tournaments/%s.xlsx", meta.ContentDigest)
	if _, err := s.uploader.Upload(ctx, key, xlsxContentType, bytes.NewReader(meta.RawFile)); err != nil {
		s.logger.Warn("workbook archive upload failed",
			slog.Int("tournament_id", tournament.ID), slog.Any("error", err))
		return
	}
	if err := s.tournamentRepo.UpdateArchiveKey(ctx, tournament.ID, &key); err != nil {
		s.logger.Warn("workbook archive key update failed",
			slog.Int("tournament_id", tournament.ID), slog.Any("error", err))
		return
	}
	tournament.ArchiveKey = &key
}

func buildImportResult(session *importSession, tournament *models.Tournament, stats []models.CategoryStats) *models.ImportResult {
	uniquePlayers := make(map[string]struct{})
	for _, key := range session.deltaOrder {
		uniquePlayers[key.externalID] = struct{}{}
	}
	processed := 0
	for _, st := range stats {
		if st.Status == models.SheetStatusProcessed {
			processed++
		}
	}

	result := &models.ImportResult{
		Tournament: models.ImportedTournament{
			ID:                  tournament.ID,
			Name:                tournament.Name,
			PlayersCount:        len(uniquePlayers),
			CategoriesProcessed: processed,
			OriginalFileName:    tournament.OriginalFileName,
		},
		Categories:     stats,
		CreatedPlayers: session.createdPlayers,
		Errors:         session.errors,
	}
	for _, c := range session.pendingCategories {
		result.CreatedCategories = append(result.CreatedCategories, models.CreatedCategory{
			ID: c.ID, Name: c.Name, Type: c.Type,
		})
	}
	return result
}
