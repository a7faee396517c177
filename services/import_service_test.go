package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Dosada05/racket-rankings/models"
	"github.com/Dosada05/racket-rankings/parsers"
)

type serviceHarness struct {
	store      *memStore
	transactor *fakeTransactor
	uploader   *fakeUploader
	notifier   *fakeNotifier

	imports     ImportService
	tournaments TournamentService
	rankings    RankingService
	players     PlayerService
}

func newHarness(t *testing.T) *serviceHarness {
	t.Helper()
	store := newMemStore()
	playerRepo := &fakePlayerRepo{s: store}
	categoryRepo := &fakeCategoryRepo{s: store}
	tournamentRepo := &fakeTournamentRepo{s: store}
	pointsRepo := &fakePointsRepo{s: store}
	transactor := &fakeTransactor{}
	uploader := &fakeUploader{}
	notifier := &fakeNotifier{}

	return &serviceHarness{
		store:      store,
		transactor: transactor,
		uploader:   uploader,
		notifier:   notifier,
		imports: NewImportService(
			tournamentRepo, playerRepo, categoryRepo, pointsRepo,
			transactor, uploader, notifier, nil),
		tournaments: NewTournamentService(
			tournamentRepo, categoryRepo, playerRepo, pointsRepo,
			transactor, uploader, notifier, nil),
		rankings: NewRankingService(playerRepo, categoryRepo, tournamentRepo, pointsRepo),
		players:  NewPlayerService(playerRepo, pointsRepo),
	}
}

func testMeta(name, fileName, digest string) ImportMeta {
	return ImportMeta{
		Name:             name,
		StartDate:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:          time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
		OriginalFileName: fileName,
		ContentDigest:    digest,
		RawFile:          []byte("workbook-bytes"),
	}
}

func twoSheetWorkbook() *parsers.Workbook {
	return &parsers.Workbook{Sheets: []parsers.Sheet{
		{Name: "MS", Rows: []map[string]string{
			{"Member ID1": "M-100", "Player1": "Alice", "Position": "1"},
		}},
		{Name: "MD", Rows: []map[string]string{
			{"Player1": "Bob", "Player2": "Carol", "Position": "2"},
		}},
	}}
}

func TestImportTwoSheets(t *testing.T) {
	h := newHarness(t)

	result, err := h.imports.ImportFromWorkbook(context.Background(),
		testMeta("Spring Open", "spring.xlsx", "digest-1"), twoSheetWorkbook())
	require.NoError(t, err)

	require.Equal(t, 3, result.Tournament.PlayersCount)
	require.Equal(t, 2, result.Tournament.CategoriesProcessed)
	require.Empty(t, result.Errors)
	require.Len(t, result.CreatedCategories, 2)
	require.Len(t, result.CreatedPlayers, 3)
	require.Equal(t, 1, h.transactor.calls)

	// Категории распознаны по имени листа
	require.Equal(t, models.CategorySingles, h.store.categories[0].Type)
	require.Equal(t, models.CategoryDoubles, h.store.categories[1].Type)

	// У Bob и Carol не было Member ID — им сгенерированы новые
	for _, created := range result.CreatedPlayers[1:] {
		require.True(t, created.GeneratedID)
		require.True(t, strings.HasPrefix(created.ExternalID, "GEN"))
		require.Len(t, created.ExternalID, 14)
	}

	// Очки: позиция 1 → 100, позиция 2 → 75 каждому из пары
	require.Equal(t, 100, h.store.playerByID(1).TotalPoints)
	require.Equal(t, 75, h.store.playerByID(2).TotalPoints)
	require.Equal(t, 75, h.store.playerByID(3).TotalPoints)
	require.Len(t, h.store.history, 3)

	// Файл заархивирован после коммита, клиенты оповещены
	require.Equal(t, []string{"tournaments/digest-1.xlsx"}, h.uploader.uploads)
	require.Equal(t, []string{"tournament_imported"}, h.notifier.events)

	// Глобальный рейтинг: Alice первая, пара делит второе место
	overall, err := h.rankings.Overall(context.Background(), 1, 50)
	require.NoError(t, err)
	require.Len(t, overall.Players, 3)
	require.Equal(t, []int{1, 2, 2}, []int{
		overall.Players[0].Rank, overall.Players[1].Rank, overall.Players[2].Rank,
	})
	require.Equal(t, "Alice", overall.Players[0].Name)
}

func TestImportDuplicateContentRejectedWithoutSideEffects(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.imports.ImportFromWorkbook(ctx, testMeta("Spring Open", "spring.xlsx", "digest-1"), twoSheetWorkbook())
	require.NoError(t, err)

	playersBefore := len(h.store.players)
	historyBefore := len(h.store.history)

	_, err = h.imports.ImportFromWorkbook(ctx, testMeta("Spring Open 2", "other.xlsx", "digest-1"), twoSheetWorkbook())
	require.ErrorIs(t, err, ErrDuplicateFileContent)

	_, err = h.imports.ImportFromWorkbook(ctx, testMeta("Spring Open 3", "spring.xlsx", "digest-2"), twoSheetWorkbook())
	require.ErrorIs(t, err, ErrDuplicateFileName)

	require.Len(t, h.store.players, playersBefore)
	require.Len(t, h.store.history, historyBefore)
	require.Len(t, h.store.tournaments, 1)
}

func TestImportRowErrorsDoNotAbortImport(t *testing.T) {
	h := newHarness(t)

	wb := &parsers.Workbook{Sheets: []parsers.Sheet{
		{Name: "MD", Rows: []map[string]string{
			{"Player1": "Bob", "Player2": "Carol", "Position": "1"},
			{"Player1": "Dave", "Position": "2"}, // пары нет — строка отклоняется
		}},
	}}

	result, err := h.imports.ImportFromWorkbook(context.Background(),
		testMeta("Doubles Cup", "doubles.xlsx", "digest-d"), wb)
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	require.Equal(t, "MD", result.Errors[0].Category)
	// Вторая строка данных = строка 3 файла: заголовок +1, 1-based +1
	require.Equal(t, 3, result.Errors[0].Row)
	require.Equal(t, 2, result.Tournament.PlayersCount)
	require.Len(t, h.store.players, 2)
}

func TestImportNoValidResults(t *testing.T) {
	h := newHarness(t)

	wb := &parsers.Workbook{Sheets: []parsers.Sheet{
		{Name: "MD", Rows: []map[string]string{
			{"Player1": "Dave", "Position": "2"},
		}},
	}}

	_, err := h.imports.ImportFromWorkbook(context.Background(),
		testMeta("Empty Cup", "empty.xlsx", "digest-e"), wb)
	require.ErrorIs(t, err, ErrNoValidResults)
	require.Empty(t, h.store.tournaments)
	require.Empty(t, h.store.players)
}

func TestImportValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.imports.ImportFromWorkbook(ctx, testMeta("", "f.xlsx", "d"), twoSheetWorkbook())
	require.ErrorIs(t, err, ErrTournamentNameRequired)

	_, err = h.imports.ImportFromWorkbook(ctx, testMeta("Cup", "f.xlsx", "d"), &parsers.Workbook{})
	require.ErrorIs(t, err, ErrWorkbookEmpty)
}

func TestImportCorrectsCategoryType(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Категория заведена с неверным типом до импорта
	desc := "seeded"
	require.NoError(t, (&fakeCategoryRepo{s: h.store}).CreateBatch(ctx, nil, []*models.Category{
		{Name: "MD", Type: models.CategorySingles, Description: &desc},
	}))

	_, err := h.imports.ImportFromWorkbook(ctx, testMeta("Cup", "cup.xlsx", "d-1"), twoSheetWorkbook())
	require.NoError(t, err)

	require.Equal(t, models.CategoryDoubles, h.store.categoryByID(1).Type)
}

func TestImportSameNameSharesGeneratedID(t *testing.T) {
	h := newHarness(t)

	// Один игрок без Member ID встречается в двух листах
	wb := &parsers.Workbook{Sheets: []parsers.Sheet{
		{Name: "MS A", Rows: []map[string]string{
			{"Player1": "Eve", "Position": "1"},
		}},
		{Name: "MS B", Rows: []map[string]string{
			{"Player1": "Eve", "Position": "3"},
		}},
	}}

	result, err := h.imports.ImportFromWorkbook(context.Background(),
		testMeta("Two Events", "two.xlsx", "d-2"), wb)
	require.NoError(t, err)

	require.Len(t, h.store.players, 1)
	require.Equal(t, 1, result.Tournament.PlayersCount)
	// 100 за первое место + 50 за третье
	require.Equal(t, 150, h.store.playerByID(1).TotalPoints)
	require.Len(t, h.store.history, 2)
}
