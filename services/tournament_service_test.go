package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeleteTournamentRevertsLedger(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	result, err := h.imports.ImportFromWorkbook(ctx,
		testMeta("Spring Open", "spring.xlsx", "digest-1"), twoSheetWorkbook())
	require.NoError(t, err)

	require.NoError(t, h.tournaments.Delete(ctx, result.Tournament.ID))

	// Турнир и результаты исчезли, история пуста
	require.Empty(t, h.store.tournaments)
	require.Empty(t, h.store.results[result.Tournament.ID])
	require.Empty(t, h.store.history)

	// Игроки остались, но очки откатились до нуля
	require.Len(t, h.store.players, 3)
	for _, p := range h.store.players {
		require.Zero(t, p.TotalPoints, "player %s", p.Name)
	}
	for _, bucket := range h.store.buckets {
		require.Zero(t, bucket.Points)
		require.Zero(t, bucket.TournamentsCount)
	}

	// Архив удалён, клиенты оповещены об обоих событиях
	require.Equal(t, []string{"tournaments/digest-1.xlsx"}, h.uploader.deletes)
	require.Equal(t, []string{"tournament_imported", "tournament_deleted"}, h.notifier.events)
}

func TestDeleteTournamentNotFound(t *testing.T) {
	h := newHarness(t)
	err := h.tournaments.Delete(context.Background(), 42)
	require.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestDeleteKeepsOtherTournaments(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.imports.ImportFromWorkbook(ctx,
		testMeta("Spring Open", "spring.xlsx", "digest-1"), twoSheetWorkbook())
	require.NoError(t, err)
	second, err := h.imports.ImportFromWorkbook(ctx,
		testMeta("Summer Open", "summer.xlsx", "digest-2"), twoSheetWorkbook())
	require.NoError(t, err)

	require.NoError(t, h.tournaments.Delete(ctx, first.Tournament.ID))

	// Вклад второго турнира нетронут. Alice сверяется по Member ID и
	// остаётся одним игроком; у пары без Member ID в каждом импорте
	// генерируются свои идентификаторы.
	require.Len(t, h.store.tournaments, 1)
	require.Len(t, h.store.players, 5)
	require.Equal(t, 100, h.store.playerByID(1).TotalPoints)
	require.Zero(t, h.store.playerByID(2).TotalPoints)
	require.Equal(t, 75, h.store.playerByID(4).TotalPoints)
	require.Len(t, h.store.history, 3)

	detail, err := h.tournaments.Get(ctx, second.Tournament.ID)
	require.NoError(t, err)
	require.Equal(t, 3, detail.Statistics.TotalPlayers)
	require.Equal(t, 2, detail.Statistics.TotalCategories)
	require.Equal(t, 2, detail.Statistics.TotalResults)
}

func TestCheckFile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.imports.ImportFromWorkbook(ctx,
		testMeta("Spring Open", "spring.xlsx", "digest-1"), twoSheetWorkbook())
	require.NoError(t, err)

	check, err := h.tournaments.CheckFile(ctx, "spring.xlsx", "")
	require.NoError(t, err)
	require.False(t, check.Unique)
	require.Equal(t, "file_name", check.Reason)
	require.NotNil(t, check.Existing)

	check, err = h.tournaments.CheckFile(ctx, "fresh.xlsx", "digest-1")
	require.NoError(t, err)
	require.False(t, check.Unique)
	require.Equal(t, "content", check.Reason)

	check, err = h.tournaments.CheckFile(ctx, "fresh.xlsx", "digest-9")
	require.NoError(t, err)
	require.True(t, check.Unique)
	require.Nil(t, check.Existing)
}

func TestTournamentList(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.imports.ImportFromWorkbook(ctx,
		testMeta("Spring Open", "spring.xlsx", "digest-1"), twoSheetWorkbook())
	require.NoError(t, err)
	_, err = h.imports.ImportFromWorkbook(ctx,
		testMeta("Summer Open", "summer.xlsx", "digest-2"), twoSheetWorkbook())
	require.NoError(t, err)

	list, err := h.tournaments.List(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = h.tournaments.List(ctx, 10, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Summer Open", list[0].Name)
}
